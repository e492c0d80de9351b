package validation

import (
	"strings"
	"time"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/request"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
	"github.com/shopspring/decimal"
)

// ValidateCreateCompany validates a company registration request.
func ValidateCreateCompany(req request.CreateCompanyRequest) error {
	errs := make(map[string]string)

	if strings.TrimSpace(req.Name) == "" {
		errs["name"] = "name is required"
	}
	if strings.TrimSpace(req.RegistrationNumber) == "" {
		errs["registrationNumber"] = "registrationNumber is required"
	}
	if req.YearEnd != "" {
		if _, err := time.Parse("01-02", req.YearEnd); err != nil {
			errs["yearEnd"] = "yearEnd must be in MM-DD format"
		}
	}
	if len(req.Directors) == 0 {
		errs["directors"] = "at least one director is required"
	}
	if req.LogoURL != "" && validate.Var(req.LogoURL, "url") != nil {
		errs["logoUrl"] = "logoUrl must be a valid URL"
	}

	return result(errs)
}

// ValidateCreateShareholder validates a shareholder creation request.
func ValidateCreateShareholder(req request.CreateShareholderRequest) error {
	errs := make(map[string]string)

	if strings.TrimSpace(req.Name) == "" {
		errs["name"] = "name is required"
	}
	if req.Email != "" {
		if err := ValidateEmail(req.Email); err != nil {
			errs["email"] = err.Error()
		}
	}
	if strings.TrimSpace(req.ShareClass) == "" {
		errs["shareClass"] = "shareClass is required"
	}
	if req.Shares <= 0 {
		errs["shares"] = "shares must be positive"
	}

	return result(errs)
}

// ValidateCreateOfficer validates an officer appointment request.
func ValidateCreateOfficer(req request.CreateOfficerRequest) error {
	errs := make(map[string]string)

	if strings.TrimSpace(req.Name) == "" {
		errs["name"] = "name is required"
	}
	if req.Role != model.OfficerDirector && req.Role != model.OfficerSecretary {
		errs["role"] = "role must be director or secretary"
	}

	return result(errs)
}

// ValidateTaxCalculation validates a dividend tax estimate request.
func ValidateTaxCalculation(req request.TaxCalculationRequest) error {
	errs := make(map[string]string)

	if req.TaxYear == "" && req.PaymentDate == "" {
		errs["taxYear"] = "taxYear or paymentDate is required"
	}
	checkDate(errs, "paymentDate", req.PaymentDate, false)

	for field, value := range map[string]string{"otherIncome": req.OtherIncome, "dividends": req.Dividends} {
		if value == "" {
			if field == "dividends" {
				errs[field] = "dividends is required"
			}
			continue
		}
		d, err := decimal.NewFromString(value)
		if err != nil || d.IsNegative() {
			errs[field] = field + " must be a non-negative amount"
		}
	}

	return result(errs)
}

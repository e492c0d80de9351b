package service

import (
	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/request"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/tax"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/validation"
	"github.com/shopspring/decimal"
)

// TaxService estimates personal dividend tax.
type TaxService struct{}

// NewTaxService creates a new TaxService.
func NewTaxService() *TaxService {
	return &TaxService{}
}

// Calculate estimates the dividend tax for a request. The tax year is taken
// from the request or, failing that, from the payment date.
// Returns apperrors.ErrUnsupportedTaxYear for years without a rate table.
func (s *TaxService) Calculate(req request.TaxCalculationRequest) (*tax.Calculation, error) {
	if err := validation.ValidateTaxCalculation(req); err != nil {
		return nil, err
	}

	taxYear := req.TaxYear
	if taxYear == "" {
		paymentDate, _ := parseDate(req.PaymentDate)
		taxYear = tax.TaxYearFor(paymentDate)
	}

	other := decimal.Zero
	if req.OtherIncome != "" {
		other = decimal.RequireFromString(req.OtherIncome)
	}
	dividends := decimal.RequireFromString(req.Dividends)

	calc, err := tax.Calculate(taxYear, other, dividends)
	if err != nil {
		return nil, err
	}
	return &calc, nil
}

// SupportedYears lists tax years the calculator has rates for.
func (s *TaxService) SupportedYears() []string {
	return tax.SupportedYears()
}

package validation

import (
	"strings"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/request"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/document"
)

// ValidateGenerateDividend validates a voucher generation request.
func ValidateGenerateDividend(req request.GenerateDividendRequest) error {
	errs := make(map[string]string)

	checkUUID(errs, "requestId", req.RequestID)
	checkUUID(errs, "companyId", req.CompanyID)
	checkUUID(errs, "shareholderId", req.ShareholderID)

	if strings.TrimSpace(req.ShareClass) == "" {
		errs["shareClass"] = "shareClass is required"
	}
	if req.Shares < 0 {
		errs["shares"] = "shares must be positive"
	}
	if !req.AmountPerShare.IsPositive() {
		errs["amountPerShare"] = "amountPerShare must be positive"
	}
	checkDate(errs, "paymentDate", req.PaymentDate, true)
	checkDate(errs, "declarationDate", req.DeclarationDate, false)
	checkTemplate(errs, req.Template)
	checkFormat(errs, req.Format)

	return result(errs)
}

// ValidateGenerateMinutes validates a board minutes generation request.
func ValidateGenerateMinutes(req request.GenerateMinutesRequest) error {
	errs := make(map[string]string)

	checkUUID(errs, "requestId", req.RequestID)
	checkUUID(errs, "companyId", req.CompanyID)
	checkDate(errs, "meetingDate", req.MeetingDate, true)
	checkDate(errs, "paymentDate", req.PaymentDate, false)

	for _, r := range req.Resolutions {
		if strings.TrimSpace(r.Title) == "" || strings.TrimSpace(r.Text) == "" {
			errs["resolutions"] = "every resolution needs a title and text"
			break
		}
	}
	if len(req.Resolutions) == 0 && req.PaymentDate == "" {
		errs["resolutions"] = "resolutions or paymentDate is required"
	}
	checkTemplate(errs, req.Template)
	checkFormat(errs, req.Format)

	return result(errs)
}

// ValidateBoardPack validates a board pack request.
func ValidateBoardPack(req request.BoardPackRequest) error {
	errs := make(map[string]string)

	checkUUID(errs, "companyId", req.CompanyID)
	checkUUID(errs, "minutesId", req.MinutesID)
	checkDate(errs, "yearEnd", req.YearEnd, true)
	checkDate(errs, "paymentDate", req.PaymentDate, true)

	if err := ValidateUUIDs(req.DividendRecordIDs); err != nil {
		if err == ErrEmptySlice {
			errs["dividendRecordIds"] = "at least one voucher must be selected"
		} else {
			errs["dividendRecordIds"] = err.Error()
		}
	}
	checkTemplate(errs, req.Template)

	return result(errs)
}

// ValidateDelivery validates a document delivery request.
func ValidateDelivery(req request.DeliveryRequest) error {
	errs := make(map[string]string)

	if err := ValidateEmails(req.Recipients); err != nil {
		errs["recipients"] = recipientsMessage(err)
	}
	if strings.TrimSpace(req.Subject) == "" {
		errs["subject"] = "subject is required"
	}
	if len(req.DividendRecordIDs) == 0 && len(req.MinutesIDs) == 0 {
		errs["attachments"] = "at least one document is required"
	}
	for _, id := range append(append([]string{}, req.DividendRecordIDs...), req.MinutesIDs...) {
		if ValidateUUID(id) != nil {
			errs["attachments"] = "document ids must be valid UUIDs"
			break
		}
	}

	return result(errs)
}

func checkFormat(errs map[string]string, format string) {
	if _, err := document.ParseFormat(format); err != nil {
		errs["format"] = "format must be pdf or docx"
	}
}

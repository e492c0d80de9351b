package validation

import (
	"strings"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/request"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/document"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/recurrence"
)

// ValidateCreateSchedule validates a schedule creation request.
//
// Required fields:
//   - companyId, shareholderId: valid UUIDs
//   - amountPerShare: positive
//   - shareClass: non-empty
//   - frequency: monthly, quarterly or annually
//   - dayOfMonth: 1..31
//   - startDate: YYYY-MM-DD
//   - emailRecipients: at least one, each a valid address
//
// Optional fields (validated if provided):
//   - shareCount: positive
//   - endDate: YYYY-MM-DD, not before startDate
//   - template: a known template id
func ValidateCreateSchedule(req request.CreateScheduleRequest) error {
	errs := make(map[string]string)

	checkUUID(errs, "companyId", req.CompanyID)
	checkUUID(errs, "shareholderId", req.ShareholderID)

	if !req.AmountPerShare.IsPositive() {
		errs["amountPerShare"] = "amountPerShare must be positive"
	}
	if strings.TrimSpace(req.ShareClass) == "" {
		errs["shareClass"] = "shareClass is required"
	}
	if req.ShareCount < 0 {
		errs["shareCount"] = "shareCount must be positive"
	}
	if !recurrence.Frequency(req.Frequency).Valid() {
		errs["frequency"] = "frequency must be one of: monthly, quarterly, annually"
	}
	if req.DayOfMonth < 1 || req.DayOfMonth > 31 {
		errs["dayOfMonth"] = "dayOfMonth must be between 1 and 31"
	}

	start := checkDate(errs, "startDate", req.StartDate, true)
	end := checkDate(errs, "endDate", req.EndDate, false)
	if start != nil && end != nil && end.Before(*start) {
		errs["endDate"] = "endDate must not be before startDate"
	}

	if err := ValidateEmails(req.EmailRecipients); err != nil {
		errs["emailRecipients"] = recipientsMessage(err)
	}
	checkTemplate(errs, req.Template)

	return result(errs)
}

// ValidateUpdateSchedule validates a schedule update request.
// All fields are optional, but if provided, they must meet the same constraints as create.
func ValidateUpdateSchedule(req request.UpdateScheduleRequest) error {
	errs := make(map[string]string)

	if req.AmountPerShare != nil && !req.AmountPerShare.IsPositive() {
		errs["amountPerShare"] = "amountPerShare must be positive"
	}
	if req.ShareCount != nil && *req.ShareCount <= 0 {
		errs["shareCount"] = "shareCount must be positive"
	}
	if req.Frequency != nil && !recurrence.Frequency(*req.Frequency).Valid() {
		errs["frequency"] = "frequency must be one of: monthly, quarterly, annually"
	}
	if req.DayOfMonth != nil && (*req.DayOfMonth < 1 || *req.DayOfMonth > 31) {
		errs["dayOfMonth"] = "dayOfMonth must be between 1 and 31"
	}
	if req.EndDate != nil {
		checkDate(errs, "endDate", *req.EndDate, false)
	}
	if req.EmailRecipients != nil {
		if err := ValidateEmails(req.EmailRecipients); err != nil {
			errs["emailRecipients"] = recipientsMessage(err)
		}
	}
	if req.Template != nil {
		checkTemplate(errs, *req.Template)
	}

	return result(errs)
}

func recipientsMessage(err error) string {
	if err == ErrEmptySlice {
		return "at least one recipient is required"
	}
	return err.Error()
}

func checkTemplate(errs map[string]string, id string) {
	if id == "" {
		return
	}
	if _, err := document.LookupTemplate(id); err != nil {
		errs["template"] = "template must be one of: " + strings.Join(document.TemplateIDs(), ", ")
	}
}

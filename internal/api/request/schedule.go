package request

import "github.com/shopspring/decimal"

// CreateScheduleRequest represents the request body for creating a recurring dividend schedule.
// shareCount defaults to the shareholder's current holding of shareClass when omitted.
type CreateScheduleRequest struct {
	CompanyID           string          `json:"companyId"`
	ShareholderID       string          `json:"shareholderId"`
	AmountPerShare      decimal.Decimal `json:"amountPerShare"`
	ShareClass          string          `json:"shareClass"`
	ShareCount          int64           `json:"shareCount,omitempty"`
	Frequency           string          `json:"frequency"`
	DayOfMonth          int             `json:"dayOfMonth"`
	StartDate           string          `json:"startDate"`
	EndDate             string          `json:"endDate,omitempty"`
	EmailRecipients     []string        `json:"emailRecipients"`
	IncludeBoardMinutes bool            `json:"includeBoardMinutes"`
	Template            string          `json:"template,omitempty"`
}

// UpdateScheduleRequest represents the request body for updating a schedule.
// All fields are optional (use pointers). Only provided fields will be updated.
type UpdateScheduleRequest struct {
	AmountPerShare      *decimal.Decimal `json:"amountPerShare,omitempty"`
	ShareCount          *int64           `json:"shareCount,omitempty"`
	Frequency           *string          `json:"frequency,omitempty"`
	DayOfMonth          *int             `json:"dayOfMonth,omitempty"`
	EndDate             *string          `json:"endDate,omitempty"` // "" clears the end date
	IsActive            *bool            `json:"isActive,omitempty"`
	EmailRecipients     []string         `json:"emailRecipients,omitempty"`
	IncludeBoardMinutes *bool            `json:"includeBoardMinutes,omitempty"`
	Template            *string          `json:"template,omitempty"`
}

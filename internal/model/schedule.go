package model

import (
	"time"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/recurrence"
	"github.com/shopspring/decimal"
)

// RecurringDividend represents a recurring dividend schedule from the database.
// It describes who is paid, how much and how often, and how the generated
// documents are delivered.
type RecurringDividend struct {
	ID                  string               `json:"id"`
	UserID              string               `json:"userId"`
	CompanyID           string               `json:"companyId"`
	ShareholderID       string               `json:"shareholderId"`
	AmountPerShare      decimal.Decimal      `json:"amountPerShare"`
	TotalAmount         decimal.Decimal      `json:"totalAmount"`
	ShareClass          string               `json:"shareClass"`
	ShareCount          int64                `json:"shareCount"`
	Frequency           recurrence.Frequency `json:"frequency"`
	DayOfMonth          int                  `json:"dayOfMonth"`
	StartDate           time.Time            `json:"startDate"`
	EndDate             *time.Time           `json:"endDate,omitempty"`
	IsActive            bool                 `json:"isActive"`
	IsPaused            bool                 `json:"isPaused"`
	EmailRecipients     []string             `json:"emailRecipients"`
	IncludeBoardMinutes bool                 `json:"includeBoardMinutes"`
	Template            string               `json:"template"`
	LastRunAt           *time.Time           `json:"lastRunAt,omitempty"`
	NextRunAt           *time.Time           `json:"nextRunAt,omitempty"`
	CreatedAt           time.Time            `json:"createdAt"`
	UpdatedAt           time.Time            `json:"updatedAt"`
}

// Due reports whether the schedule should be executed at now.
func (r RecurringDividend) Due(now time.Time) bool {
	if !r.IsActive || r.IsPaused || r.NextRunAt == nil {
		return false
	}
	return !r.NextRunAt.After(now)
}

// Ended reports whether date lies beyond the schedule's end date.
func (r RecurringDividend) Ended(date time.Time) bool {
	return r.EndDate != nil && date.After(*r.EndDate)
}

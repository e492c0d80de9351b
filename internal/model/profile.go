package model

import "time"

// Profile holds a user's subscription plan and monthly usage counters.
// Counters belong to UsagePeriod (YYYY-MM); a profile whose period is not the
// current month has used nothing this month.
type Profile struct {
	ID                    string    `json:"id"`
	Email                 string    `json:"email,omitempty"`
	Plan                  string    `json:"plan"`
	UsagePeriod           string    `json:"usagePeriod"`
	CurrentMonthDividends int       `json:"currentMonthDividends"`
	CurrentMonthMinutes   int       `json:"currentMonthMinutes"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

// UsedThisMonth returns the counter for kind, treating counters of an older
// period as zero.
func (p Profile) UsedThisMonth(kind DocumentKind, period string) int {
	if p.UsagePeriod != period {
		return 0
	}
	switch kind {
	case KindDividend:
		return p.CurrentMonthDividends
	case KindMinutes:
		return p.CurrentMonthMinutes
	default:
		return 0
	}
}

// UsageQuota describes the quota state of one document kind.
type UsageQuota struct {
	Used      int  `json:"used"`
	Limit     int  `json:"limit"` // 0 means unlimited
	Unlimited bool `json:"unlimited"`
	Remaining int  `json:"remaining,omitempty"`
}

// UsageSummary is returned by the usage endpoint.
type UsageSummary struct {
	Plan      string     `json:"plan"`
	Period    string     `json:"period"`
	Dividends UsageQuota `json:"dividends"`
	Minutes   UsageQuota `json:"minutes"`
}

// SentEmailStatus is the outcome of a delivery attempt.
type SentEmailStatus string

const (
	EmailSent   SentEmailStatus = "sent"
	EmailFailed SentEmailStatus = "failed"
)

// SentEmail is an audit row for one delivery attempt.
type SentEmail struct {
	ID                string          `json:"id"`
	UserID            string          `json:"userId"`
	RunID             string          `json:"runId,omitempty"`
	Recipients        []string        `json:"recipients"`
	Subject           string          `json:"subject"`
	AttachmentCount   int             `json:"attachmentCount"`
	Status            SentEmailStatus `json:"status"`
	ProviderMessageID string          `json:"providerMessageId,omitempty"`
	ErrorMessage      string          `json:"errorMessage,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

package model

import "time"

// RunStatus is the lifecycle state of a scheduled dividend run.
type RunStatus string

const (
	RunPending    RunStatus = "pending"
	RunProcessing RunStatus = "processing"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
	RunSkipped    RunStatus = "skipped"
)

// runTransitions lists the statuses a run may move to from each status.
// Terminal statuses have no outgoing transitions.
var runTransitions = map[RunStatus][]RunStatus{
	RunPending:    {RunProcessing, RunSkipped, RunFailed},
	RunProcessing: {RunCompleted, RunFailed, RunSkipped},
}

// Terminal reports whether no further transition is allowed.
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunFailed || s == RunSkipped
}

// CanTransitionTo reports whether moving from s to next keeps the status monotonic.
func (s RunStatus) CanTransitionTo(next RunStatus) bool {
	for _, allowed := range runTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Predecessors returns every status from which s may be reached.
func (s RunStatus) Predecessors() []RunStatus {
	var out []RunStatus
	for from, targets := range runTransitions {
		for _, to := range targets {
			if to == s {
				out = append(out, from)
			}
		}
	}
	return out
}

// ScheduledDividendRun is one attempted execution of a recurring dividend schedule.
type ScheduledDividendRun struct {
	ID               string     `json:"id"`
	ScheduleID       string     `json:"scheduleId"`
	UserID           string     `json:"userId"`
	CompanyID        string     `json:"companyId"`
	DividendRecordID string     `json:"dividendRecordId,omitempty"`
	MinutesID        string     `json:"minutesId,omitempty"`
	Status           RunStatus  `json:"status"`
	ErrorMessage     string     `json:"errorMessage,omitempty"`
	SkipReason       string     `json:"skipReason,omitempty"`
	ScheduledFor     time.Time  `json:"scheduledFor"`
	ExecutedAt       *time.Time `json:"executedAt,omitempty"`
	EmailSent        bool       `json:"emailSent"`
	EmailSentAt      *time.Time `json:"emailSentAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// RunOutcome carries the result fields written when a run completes.
type RunOutcome struct {
	DividendRecordID string
	MinutesID        string
	EmailSent        bool
}

// RunDueSummary counts what one due-run scan did.
type RunDueSummary struct {
	Due       int      `json:"due"`
	Completed int      `json:"completed"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
	RunIDs    []string `json:"runIds"`
}

// Valid reports whether s is a known status.
func (s RunStatus) Valid() bool {
	switch s {
	case RunPending, RunProcessing, RunCompleted, RunFailed, RunSkipped:
		return true
	}
	return false
}

// RunFilters narrows a run history listing.
type RunFilters struct {
	Statuses []RunStatus
	From     *time.Time
	To       *time.Time
	Limit    int
}

// Match reports whether run passes the filters, ignoring Limit.
func (f RunFilters) Match(run ScheduledDividendRun) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if run.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.From != nil && run.ScheduledFor.Before(*f.From) {
		return false
	}
	if f.To != nil && run.ScheduledFor.After(*f.To) {
		return false
	}
	return true
}

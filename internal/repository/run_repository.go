package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
)

// RunRepository provides data access methods for the scheduled_dividend_runs table.
// Status updates are guarded in SQL by the set of allowed predecessor statuses,
// so a run can never move backwards even under concurrent writers.
type RunRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewRunRepository creates a new RunRepository with the provided database connection.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// WithTx returns a new RunRepository scoped to the provided transaction.
func (r *RunRepository) WithTx(tx *sql.Tx) *RunRepository {
	return &RunRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *RunRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const runColumns = `
	id, schedule_id, user_id, company_id, dividend_record_id, minutes_id, status,
	error_message, skip_reason, scheduled_for, executed_at, email_sent, email_sent_at, created_at
`

func scanRun(row rowScanner) (model.ScheduledDividendRun, error) {
	var run model.ScheduledDividendRun
	var status, scheduledStr, createdStr string
	var recordID, minutesID, errMsg, skipReason, executedStr, emailSentStr sql.NullString

	err := row.Scan(
		&run.ID,
		&run.ScheduleID,
		&run.UserID,
		&run.CompanyID,
		&recordID,
		&minutesID,
		&status,
		&errMsg,
		&skipReason,
		&scheduledStr,
		&executedStr,
		&run.EmailSent,
		&emailSentStr,
		&createdStr,
	)
	if err != nil {
		return model.ScheduledDividendRun{}, err
	}

	run.Status = model.RunStatus(status)
	run.DividendRecordID = recordID.String
	run.MinutesID = minutesID.String
	run.ErrorMessage = errMsg.String
	run.SkipReason = skipReason.String

	if run.ScheduledFor, err = ParseTime(scheduledStr); err != nil {
		return model.ScheduledDividendRun{}, fmt.Errorf("failed to parse scheduled_for: %w", err)
	}
	if run.ExecutedAt, err = parseNullTime(executedStr); err != nil {
		return model.ScheduledDividendRun{}, fmt.Errorf("failed to parse executed_at: %w", err)
	}
	if run.EmailSentAt, err = parseNullTime(emailSentStr); err != nil {
		return model.ScheduledDividendRun{}, fmt.Errorf("failed to parse email_sent_at: %w", err)
	}
	if run.CreatedAt, err = ParseTime(createdStr); err != nil {
		return model.ScheduledDividendRun{}, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return run, nil
}

// InsertRun creates a pending run.
// Returns ErrDuplicateRun if a run for the same schedule and date already exists.
func (r *RunRepository) InsertRun(ctx context.Context, run *model.ScheduledDividendRun) error {
	query := `
		INSERT INTO scheduled_dividend_runs (id, schedule_id, user_id, company_id, status, scheduled_for, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.getQuerier().ExecContext(ctx, query,
		run.ID,
		run.ScheduleID,
		run.UserID,
		run.CompanyID,
		string(run.Status),
		formatDate(run.ScheduledFor),
		formatTimestamp(run.CreatedAt),
	)
	if isUniqueViolation(err) {
		return apperrors.ErrDuplicateRun
	}
	if err != nil {
		return fmt.Errorf("failed to insert scheduled_dividend_run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (r *RunRepository) GetRun(ctx context.Context, id string) (model.ScheduledDividendRun, error) {
	query := `SELECT ` + runColumns + ` FROM scheduled_dividend_runs WHERE id = ?`

	run, err := scanRun(r.getQuerier().QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.ScheduledDividendRun{}, apperrors.ErrRunNotFound
	}
	if err != nil {
		return model.ScheduledDividendRun{}, fmt.Errorf("failed to get scheduled_dividend_run: %w", err)
	}
	return run, nil
}

// ListRuns returns the run history of a schedule owned by userID, newest first.
func (r *RunRepository) ListRuns(ctx context.Context, userID, scheduleID string) ([]model.ScheduledDividendRun, error) {
	query := `SELECT ` + runColumns + ` FROM scheduled_dividend_runs
		WHERE user_id = ? AND schedule_id = ?
		ORDER BY scheduled_for DESC, created_at DESC`

	rows, err := r.getQuerier().QueryContext(ctx, query, userID, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled_dividend_runs table: %w", err)
	}
	defer rows.Close()

	runs := []model.ScheduledDividendRun{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scheduled_dividend_runs results: %w", err)
		}
		runs = append(runs, run)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scheduled_dividend_runs table: %w", err)
	}
	return runs, nil
}

// MarkProcessing moves a pending run to processing and stamps executed_at.
func (r *RunRepository) MarkProcessing(ctx context.Context, id string, at time.Time) error {
	return r.transition(ctx, id, model.RunProcessing, `executed_at = ?`, formatTimestamp(at))
}

// MarkCompleted moves a processing run to completed with its result references.
func (r *RunRepository) MarkCompleted(ctx context.Context, id string, outcome model.RunOutcome, at time.Time) error {
	var emailSentAt any
	if outcome.EmailSent {
		emailSentAt = formatTimestamp(at)
	}
	return r.transition(ctx, id, model.RunCompleted,
		`dividend_record_id = ?, minutes_id = ?, email_sent = ?, email_sent_at = ?`,
		nullString(outcome.DividendRecordID), nullString(outcome.MinutesID), outcome.EmailSent, emailSentAt,
	)
}

// MarkFailed moves a run to failed and records the error text.
func (r *RunRepository) MarkFailed(ctx context.Context, id, message string, at time.Time) error {
	return r.transition(ctx, id, model.RunFailed,
		`error_message = ?, executed_at = COALESCE(executed_at, ?)`, message, formatTimestamp(at))
}

// MarkSkipped moves a run to skipped and records why.
func (r *RunRepository) MarkSkipped(ctx context.Context, id, reason string) error {
	return r.transition(ctx, id, model.RunSkipped, `skip_reason = ?`, reason)
}

func (r *RunRepository) transition(ctx context.Context, id string, to model.RunStatus, set string, args ...any) error {
	from := to.Predecessors()
	if len(from) == 0 {
		return apperrors.ErrInvalidRunTransition
	}

	//nolint:gosec // G202: set clauses are fixed strings from this file
	query := `UPDATE scheduled_dividend_runs SET status = ?, ` + set +
		` WHERE id = ? AND status IN (` + placeholders(len(from)) + `)`

	queryArgs := make([]any, 0, len(args)+len(from)+2)
	queryArgs = append(queryArgs, string(to))
	queryArgs = append(queryArgs, args...)
	queryArgs = append(queryArgs, id)
	for _, s := range from {
		queryArgs = append(queryArgs, string(s))
	}

	result, err := r.getQuerier().ExecContext(ctx, query, queryArgs...)
	if err != nil {
		return fmt.Errorf("failed to update scheduled_dividend_run status: %w", err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	// Distinguish a missing run from a disallowed transition.
	if _, err := r.GetRun(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: cannot move run %s to %s", apperrors.ErrInvalidRunTransition, id, to)
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/recurrence"
)

// ScheduleRepository provides data access methods for the recurring_dividends table.
// Every user-facing query is scoped by user_id.
type ScheduleRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewScheduleRepository creates a new ScheduleRepository with the provided database connection.
func NewScheduleRepository(db *sql.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// WithTx returns a new ScheduleRepository scoped to the provided transaction.
func (r *ScheduleRepository) WithTx(tx *sql.Tx) *ScheduleRepository {
	return &ScheduleRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *ScheduleRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const scheduleColumns = `
	id, user_id, company_id, shareholder_id, amount_per_share, total_amount,
	share_class, share_count, frequency, day_of_month, start_date, end_date,
	is_active, is_paused, email_recipients, include_board_minutes, template,
	last_run_at, next_run_at, created_at, updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (model.RecurringDividend, error) {
	var s model.RecurringDividend
	var freq, startStr, recipients, createdStr, updatedStr string
	var endStr, lastStr, nextStr sql.NullString

	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.CompanyID,
		&s.ShareholderID,
		&s.AmountPerShare,
		&s.TotalAmount,
		&s.ShareClass,
		&s.ShareCount,
		&freq,
		&s.DayOfMonth,
		&startStr,
		&endStr,
		&s.IsActive,
		&s.IsPaused,
		&recipients,
		&s.IncludeBoardMinutes,
		&s.Template,
		&lastStr,
		&nextStr,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		return model.RecurringDividend{}, err
	}
	s.Frequency = recurrence.Frequency(freq)

	if s.StartDate, err = ParseTime(startStr); err != nil {
		return model.RecurringDividend{}, fmt.Errorf("failed to parse start_date: %w", err)
	}
	if s.EndDate, err = parseNullTime(endStr); err != nil {
		return model.RecurringDividend{}, fmt.Errorf("failed to parse end_date: %w", err)
	}
	if s.LastRunAt, err = parseNullTime(lastStr); err != nil {
		return model.RecurringDividend{}, fmt.Errorf("failed to parse last_run_at: %w", err)
	}
	if s.NextRunAt, err = parseNullTime(nextStr); err != nil {
		return model.RecurringDividend{}, fmt.Errorf("failed to parse next_run_at: %w", err)
	}
	if s.CreatedAt, err = ParseTime(createdStr); err != nil {
		return model.RecurringDividend{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if s.UpdatedAt, err = ParseTime(updatedStr); err != nil {
		return model.RecurringDividend{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if s.EmailRecipients, err = decodeList[string](recipients); err != nil {
		return model.RecurringDividend{}, err
	}

	return s, nil
}

func (r *ScheduleRepository) querySchedules(ctx context.Context, query string, args ...any) ([]model.RecurringDividend, error) {
	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recurring_dividends table: %w", err)
	}
	defer rows.Close()

	schedules := []model.RecurringDividend{}
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recurring_dividends results: %w", err)
		}
		schedules = append(schedules, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recurring_dividends table: %w", err)
	}

	return schedules, nil
}

// CalculateNextRunDate evaluates calculate_next_run_date_at in SQL so that the
// stored next_run_at always comes from the same calculator the database exposes.
func (r *ScheduleRepository) CalculateNextRunDate(ctx context.Context, freq recurrence.Frequency, dayOfMonth int, start time.Time, lastRun *time.Time, today time.Time) (time.Time, error) {
	var next string
	err := r.getQuerier().QueryRowContext(ctx,
		`SELECT calculate_next_run_date_at(?, ?, ?, ?, ?)`,
		string(freq), dayOfMonth, formatDate(start), nullDate(lastRun), formatDate(today),
	).Scan(&next)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to calculate next run date: %w", err)
	}
	return ParseTime(next)
}

// InsertSchedule persists a new schedule.
func (r *ScheduleRepository) InsertSchedule(ctx context.Context, s *model.RecurringDividend) error {
	recipients, err := encodeList(s.EmailRecipients)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO recurring_dividends (` + scheduleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.getQuerier().ExecContext(ctx, query,
		s.ID,
		s.UserID,
		s.CompanyID,
		s.ShareholderID,
		s.AmountPerShare,
		s.TotalAmount,
		s.ShareClass,
		s.ShareCount,
		string(s.Frequency),
		s.DayOfMonth,
		formatDate(s.StartDate),
		nullDate(s.EndDate),
		s.IsActive,
		s.IsPaused,
		recipients,
		s.IncludeBoardMinutes,
		s.Template,
		nullDate(s.LastRunAt),
		nullDate(s.NextRunAt),
		formatTimestamp(s.CreatedAt),
		formatTimestamp(s.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert recurring_dividend: %w", err)
	}
	return nil
}

// GetSchedule retrieves one schedule owned by userID.
// Returns ErrScheduleNotFound if it does not exist or belongs to another user.
func (r *ScheduleRepository) GetSchedule(ctx context.Context, userID, id string) (model.RecurringDividend, error) {
	query := `SELECT ` + scheduleColumns + ` FROM recurring_dividends WHERE id = ? AND user_id = ?`

	s, err := scanSchedule(r.getQuerier().QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.RecurringDividend{}, apperrors.ErrScheduleNotFound
	}
	if err != nil {
		return model.RecurringDividend{}, fmt.Errorf("failed to get recurring_dividend: %w", err)
	}
	return s, nil
}

// GetScheduleByID retrieves a schedule without ownership scoping. Used by the runner.
func (r *ScheduleRepository) GetScheduleByID(ctx context.Context, id string) (model.RecurringDividend, error) {
	query := `SELECT ` + scheduleColumns + ` FROM recurring_dividends WHERE id = ?`

	s, err := scanSchedule(r.getQuerier().QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.RecurringDividend{}, apperrors.ErrScheduleNotFound
	}
	if err != nil {
		return model.RecurringDividend{}, fmt.Errorf("failed to get recurring_dividend: %w", err)
	}
	return s, nil
}

// ListSchedules returns all schedules for a user, optionally filtered by company.
func (r *ScheduleRepository) ListSchedules(ctx context.Context, userID, companyID string) ([]model.RecurringDividend, error) {
	query := `SELECT ` + scheduleColumns + ` FROM recurring_dividends WHERE user_id = ?`
	args := []any{userID}
	if companyID != "" {
		query += ` AND company_id = ?`
		args = append(args, companyID)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	return r.querySchedules(ctx, query, args...)
}

// ListActiveSchedules returns the user's active, unpaused schedules that still have a next run.
func (r *ScheduleRepository) ListActiveSchedules(ctx context.Context, userID string) ([]model.RecurringDividend, error) {
	query := `SELECT ` + scheduleColumns + ` FROM recurring_dividends
		WHERE user_id = ? AND is_active = 1 AND is_paused = 0 AND next_run_at IS NOT NULL
		ORDER BY next_run_at ASC`
	return r.querySchedules(ctx, query, userID)
}

// ListDueSchedules returns active, unpaused schedules of every user whose
// next_run_at is on or before today.
func (r *ScheduleRepository) ListDueSchedules(ctx context.Context, today time.Time) ([]model.RecurringDividend, error) {
	query := `SELECT ` + scheduleColumns + ` FROM recurring_dividends
		WHERE is_active = 1 AND is_paused = 0 AND next_run_at IS NOT NULL AND next_run_at <= ?
		ORDER BY next_run_at ASC, id ASC`
	return r.querySchedules(ctx, query, formatDate(today))
}

// UpdateSchedule writes every mutable field of s.
func (r *ScheduleRepository) UpdateSchedule(ctx context.Context, s *model.RecurringDividend) error {
	recipients, err := encodeList(s.EmailRecipients)
	if err != nil {
		return err
	}

	query := `
		UPDATE recurring_dividends
		SET shareholder_id = ?, amount_per_share = ?, total_amount = ?, share_class = ?,
			share_count = ?, frequency = ?, day_of_month = ?, start_date = ?, end_date = ?,
			is_active = ?, email_recipients = ?, include_board_minutes = ?, template = ?,
			next_run_at = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`
	result, err := r.getQuerier().ExecContext(ctx, query,
		s.ShareholderID,
		s.AmountPerShare,
		s.TotalAmount,
		s.ShareClass,
		s.ShareCount,
		string(s.Frequency),
		s.DayOfMonth,
		formatDate(s.StartDate),
		nullDate(s.EndDate),
		s.IsActive,
		recipients,
		s.IncludeBoardMinutes,
		s.Template,
		nullDate(s.NextRunAt),
		formatTimestamp(s.UpdatedAt),
		s.ID,
		s.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update recurring_dividend: %w", err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrScheduleNotFound
	}
	return nil
}

// SetPaused flips is_paused. next_run_at is left untouched.
func (r *ScheduleRepository) SetPaused(ctx context.Context, userID, id string, paused bool, now time.Time) error {
	query := `UPDATE recurring_dividends SET is_paused = ?, updated_at = ? WHERE id = ? AND user_id = ?`

	result, err := r.getQuerier().ExecContext(ctx, query, paused, formatTimestamp(now), id, userID)
	if err != nil {
		return fmt.Errorf("failed to update recurring_dividend pause state: %w", err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrScheduleNotFound
	}
	return nil
}

// AdvanceSchedule records a finished run and moves the schedule to its next date.
// A nil nextRunAt means the schedule has ended.
func (r *ScheduleRepository) AdvanceSchedule(ctx context.Context, id string, lastRunAt time.Time, nextRunAt *time.Time, now time.Time) error {
	query := `UPDATE recurring_dividends SET last_run_at = ?, next_run_at = ?, updated_at = ? WHERE id = ?`

	result, err := r.getQuerier().ExecContext(ctx, query, formatDate(lastRunAt), nullDate(nextRunAt), formatTimestamp(now), id)
	if err != nil {
		return fmt.Errorf("failed to advance recurring_dividend: %w", err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrScheduleNotFound
	}
	return nil
}

// DeleteSchedule removes a schedule. Its run history is kept.
func (r *ScheduleRepository) DeleteSchedule(ctx context.Context, userID, id string) error {
	result, err := r.getQuerier().ExecContext(ctx, `DELETE FROM recurring_dividends WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete recurring_dividend: %w", err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrScheduleNotFound
	}
	return nil
}

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

// ProfileRepository provides data access methods for the profiles table,
// including the monthly usage counters.
type ProfileRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewProfileRepository creates a new ProfileRepository with the provided database connection.
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// WithTx returns a new ProfileRepository scoped to the provided transaction.
func (r *ProfileRepository) WithTx(tx *sql.Tx) *ProfileRepository {
	return &ProfileRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *ProfileRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetProfile retrieves a profile by user ID.
func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (model.Profile, error) {
	var p model.Profile
	var email sql.NullString
	var createdStr, updatedStr string

	err := r.getQuerier().QueryRowContext(ctx, `
		SELECT id, email, plan, usage_period, current_month_dividends, current_month_minutes, created_at, updated_at
		FROM profiles WHERE id = ?`, userID,
	).Scan(&p.ID, &email, &p.Plan, &p.UsagePeriod, &p.CurrentMonthDividends, &p.CurrentMonthMinutes, &createdStr, &updatedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, apperrors.ErrProfileNotFound
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}

	p.Email = email.String
	if p.CreatedAt, err = ParseTime(createdStr); err != nil {
		return model.Profile{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if p.UpdatedAt, err = ParseTime(updatedStr); err != nil {
		return model.Profile{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return p, nil
}

// EnsureProfile creates a profile on the given plan if none exists yet.
func (r *ProfileRepository) EnsureProfile(ctx context.Context, userID, email, plan string, now time.Time) error {
	_, err := r.getQuerier().ExecContext(ctx, `
		INSERT INTO profiles (id, email, plan, usage_period, created_at, updated_at)
		VALUES (?, ?, ?, '', ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		userID, nullString(email), plan, formatTimestamp(now), formatTimestamp(now),
	)
	if err != nil {
		return fmt.Errorf("failed to ensure profile: %w", err)
	}
	return nil
}

// SetPlan changes a profile's plan code.
func (r *ProfileRepository) SetPlan(ctx context.Context, userID, plan string, now time.Time) error {
	result, err := r.getQuerier().ExecContext(ctx,
		`UPDATE profiles SET plan = ?, updated_at = ? WHERE id = ?`, plan, formatTimestamp(now), userID)
	if err != nil {
		return fmt.Errorf("failed to update profile plan: %w", err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrProfileNotFound
	}
	return nil
}

// IncrementUsage adds one to the counter for kind in a single statement.
// When the stored period is not period, both counters restart for the new month.
func (r *ProfileRepository) IncrementUsage(ctx context.Context, userID string, kind model.DocumentKind, period string, now time.Time) error {
	var query string
	switch kind {
	case model.KindDividend:
		query = `
			UPDATE profiles SET
				current_month_dividends = CASE WHEN usage_period = ? THEN current_month_dividends + 1 ELSE 1 END,
				current_month_minutes = CASE WHEN usage_period = ? THEN current_month_minutes ELSE 0 END,
				usage_period = ?, updated_at = ?
			WHERE id = ?`
	case model.KindMinutes:
		query = `
			UPDATE profiles SET
				current_month_minutes = CASE WHEN usage_period = ? THEN current_month_minutes + 1 ELSE 1 END,
				current_month_dividends = CASE WHEN usage_period = ? THEN current_month_dividends ELSE 0 END,
				usage_period = ?, updated_at = ?
			WHERE id = ?`
	default:
		return fmt.Errorf("unknown document kind %q", kind)
	}

	result, err := r.getQuerier().ExecContext(ctx, query, period, period, period, formatTimestamp(now), userID)
	if err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrProfileNotFound
	}
	return nil
}

// ResetUsage zeroes the counters of every profile not already on period.
// Returns the number of profiles reset.
func (r *ProfileRepository) ResetUsage(ctx context.Context, period string, now time.Time) (int64, error) {
	result, err := r.getQuerier().ExecContext(ctx, `
		UPDATE profiles
		SET current_month_dividends = 0, current_month_minutes = 0, usage_period = ?, updated_at = ?
		WHERE usage_period <> ?`, period, formatTimestamp(now), period,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reset usage: %w", err)
	}
	return rowsAffected(result)
}

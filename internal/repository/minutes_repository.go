package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
)

// MinutesRepository provides data access methods for the minutes table.
type MinutesRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewMinutesRepository creates a new MinutesRepository with the provided database connection.
func NewMinutesRepository(db *sql.DB) *MinutesRepository {
	return &MinutesRepository{db: db}
}

// WithTx returns a new MinutesRepository scoped to the provided transaction.
func (r *MinutesRepository) WithTx(tx *sql.Tx) *MinutesRepository {
	return &MinutesRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *MinutesRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const minutesColumns = `
	id, user_id, company_id, meeting_date, title, chair, attendees, resolutions,
	payment_date, template, format, file_path, created_at
`

func scanMinutes(row rowScanner) (model.Minutes, error) {
	var m model.Minutes
	var meetingStr, attendees, resolutions, createdStr string
	var paymentStr sql.NullString

	err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.CompanyID,
		&meetingStr,
		&m.Title,
		&m.Chair,
		&attendees,
		&resolutions,
		&paymentStr,
		&m.Template,
		&m.Format,
		&m.FilePath,
		&createdStr,
	)
	if err != nil {
		return model.Minutes{}, err
	}

	if m.MeetingDate, err = ParseTime(meetingStr); err != nil {
		return model.Minutes{}, fmt.Errorf("failed to parse meeting_date: %w", err)
	}
	if m.PaymentDate, err = parseNullTime(paymentStr); err != nil {
		return model.Minutes{}, fmt.Errorf("failed to parse payment_date: %w", err)
	}
	if m.CreatedAt, err = ParseTime(createdStr); err != nil {
		return model.Minutes{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if m.Attendees, err = decodeList[string](attendees); err != nil {
		return model.Minutes{}, err
	}
	if m.Resolutions, err = decodeList[model.Resolution](resolutions); err != nil {
		return model.Minutes{}, err
	}
	return m, nil
}

// InsertMinutes persists a generated minutes document's record.
func (r *MinutesRepository) InsertMinutes(ctx context.Context, m *model.Minutes) error {
	attendees, err := encodeList(m.Attendees)
	if err != nil {
		return err
	}
	resolutions, err := encodeList(m.Resolutions)
	if err != nil {
		return err
	}

	query := `INSERT INTO minutes (` + minutesColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.getQuerier().ExecContext(ctx, query,
		m.ID,
		m.UserID,
		m.CompanyID,
		formatDate(m.MeetingDate),
		m.Title,
		m.Chair,
		attendees,
		resolutions,
		nullDate(m.PaymentDate),
		m.Template,
		m.Format,
		m.FilePath,
		formatTimestamp(m.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert minutes: %w", err)
	}
	return nil
}

// GetMinutes retrieves one minutes record scoped to userID.
func (r *MinutesRepository) GetMinutes(ctx context.Context, userID, id string) (model.Minutes, error) {
	query := `SELECT ` + minutesColumns + ` FROM minutes WHERE id = ? AND user_id = ?`

	m, err := scanMinutes(r.getQuerier().QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Minutes{}, apperrors.ErrMinutesNotFound
	}
	if err != nil {
		return model.Minutes{}, fmt.Errorf("failed to get minutes: %w", err)
	}
	return m, nil
}

// ListMinutes returns a user's minutes, newest meeting first, optionally filtered by company.
func (r *MinutesRepository) ListMinutes(ctx context.Context, userID, companyID string) ([]model.Minutes, error) {
	query := `SELECT ` + minutesColumns + ` FROM minutes WHERE user_id = ?`
	args := []any{userID}
	if companyID != "" {
		query += ` AND company_id = ?`
		args = append(args, companyID)
	}
	query += ` ORDER BY meeting_date DESC, created_at DESC`

	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query minutes table: %w", err)
	}
	defer rows.Close()

	out := []model.Minutes{}
	for rows.Next() {
		m, err := scanMinutes(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan minutes results: %w", err)
		}
		out = append(out, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating minutes table: %w", err)
	}
	return out, nil
}

// DeleteMinutes removes a minutes record. Usage counters are not affected.
func (r *MinutesRepository) DeleteMinutes(ctx context.Context, userID, id string) error {
	result, err := r.getQuerier().ExecContext(ctx, `DELETE FROM minutes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete minutes: %w", err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrMinutesNotFound
	}
	return nil
}

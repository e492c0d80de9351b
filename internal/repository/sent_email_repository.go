package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
)

// SentEmailRepository provides data access methods for the sent_emails audit table.
type SentEmailRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewSentEmailRepository creates a new SentEmailRepository with the provided database connection.
func NewSentEmailRepository(db *sql.DB) *SentEmailRepository {
	return &SentEmailRepository{db: db}
}

// WithTx returns a new SentEmailRepository scoped to the provided transaction.
func (r *SentEmailRepository) WithTx(tx *sql.Tx) *SentEmailRepository {
	return &SentEmailRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *SentEmailRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// InsertSentEmail records one delivery attempt.
func (r *SentEmailRepository) InsertSentEmail(ctx context.Context, e *model.SentEmail) error {
	recipients, err := encodeList(e.Recipients)
	if err != nil {
		return err
	}

	_, err = r.getQuerier().ExecContext(ctx, `
		INSERT INTO sent_emails (id, user_id, run_id, recipients, subject, attachment_count, status,
			provider_message_id, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.UserID,
		nullString(e.RunID),
		recipients,
		e.Subject,
		e.AttachmentCount,
		string(e.Status),
		nullString(e.ProviderMessageID),
		nullString(e.ErrorMessage),
		formatTimestamp(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sent_email: %w", err)
	}
	return nil
}

// ListSentEmails returns a user's delivery log, newest first.
func (r *SentEmailRepository) ListSentEmails(ctx context.Context, userID string) ([]model.SentEmail, error) {
	rows, err := r.getQuerier().QueryContext(ctx, `
		SELECT id, user_id, run_id, recipients, subject, attachment_count, status,
			provider_message_id, error_message, created_at
		FROM sent_emails WHERE user_id = ? ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sent_emails table: %w", err)
	}
	defer rows.Close()

	out := []model.SentEmail{}
	for rows.Next() {
		var e model.SentEmail
		var runID, messageID, errMsg sql.NullString
		var recipients, status, createdStr string

		if err := rows.Scan(&e.ID, &e.UserID, &runID, &recipients, &e.Subject, &e.AttachmentCount,
			&status, &messageID, &errMsg, &createdStr); err != nil {
			return nil, fmt.Errorf("failed to scan sent_emails results: %w", err)
		}
		e.RunID = runID.String
		e.ProviderMessageID = messageID.String
		e.ErrorMessage = errMsg.String
		e.Status = model.SentEmailStatus(status)
		if e.Recipients, err = decodeList[string](recipients); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = ParseTime(createdStr); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		out = append(out, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sent_emails table: %w", err)
	}
	return out, nil
}

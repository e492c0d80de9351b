package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
)

// ErrRequestNotFound is returned when no generation request exists for a request id.
var ErrRequestNotFound = errors.New("generation request not found")

// ErrDuplicateRequest is returned when a request id has already been recorded.
var ErrDuplicateRequest = errors.New("generation request already recorded")

// GenerationRequestRepository stores the idempotency keys of document generation.
type GenerationRequestRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewGenerationRequestRepository creates a new GenerationRequestRepository with the provided database connection.
func NewGenerationRequestRepository(db *sql.DB) *GenerationRequestRepository {
	return &GenerationRequestRepository{db: db}
}

// WithTx returns a new GenerationRequestRepository scoped to the provided transaction.
func (r *GenerationRequestRepository) WithTx(tx *sql.Tx) *GenerationRequestRepository {
	return &GenerationRequestRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *GenerationRequestRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetRequest looks up a processed request id for userID.
func (r *GenerationRequestRepository) GetRequest(ctx context.Context, userID, requestID string) (model.GenerationRequest, error) {
	var g model.GenerationRequest
	var kind, createdStr string

	err := r.getQuerier().QueryRowContext(ctx, `
		SELECT request_id, user_id, kind, record_id, file_path, created_at
		FROM generation_requests WHERE request_id = ? AND user_id = ?`, requestID, userID,
	).Scan(&g.RequestID, &g.UserID, &kind, &g.RecordID, &g.FilePath, &createdStr)
	if errors.Is(err, sql.ErrNoRows) {
		return model.GenerationRequest{}, ErrRequestNotFound
	}
	if err != nil {
		return model.GenerationRequest{}, fmt.Errorf("failed to get generation_request: %w", err)
	}

	g.Kind = model.DocumentKind(kind)
	if g.CreatedAt, err = ParseTime(createdStr); err != nil {
		return model.GenerationRequest{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return g, nil
}

// InsertRequest records a processed request id.
// A concurrent replay of the same id by the same user fails on the primary key.
func (r *GenerationRequestRepository) InsertRequest(ctx context.Context, g *model.GenerationRequest) error {
	_, err := r.getQuerier().ExecContext(ctx, `
		INSERT INTO generation_requests (request_id, user_id, kind, record_id, file_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		g.RequestID, g.UserID, string(g.Kind), g.RecordID, g.FilePath, formatTimestamp(g.CreatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateRequest, g.RequestID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert generation_request: %w", err)
	}
	return nil
}

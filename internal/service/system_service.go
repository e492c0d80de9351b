package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/database"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/version"
)

// SystemService handles system-related operations
type SystemService struct {
	db       *sql.DB
	features map[string]bool
}

// NewSystemService creates a new SystemService. features reports which
// optional integrations are configured.
func NewSystemService(db *sql.DB, features map[string]bool) *SystemService {
	return &SystemService{
		db:       db,
		features: features,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth() error {
	return database.HealthCheck(s.db)
}

// CheckVersion reports the application and schema versions and whether
// migrations are pending.
func (s *SystemService) CheckVersion(ctx context.Context) (*model.VersionInfo, error) {
	schema, err := database.SchemaVersion(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToGetVersionInfo, err)
	}
	pending, err := database.HasPendingMigrations(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToGetVersionInfo, err)
	}

	info := &model.VersionInfo{
		AppVersion:      version.Version,
		Commit:          version.Commit,
		DbVersion:       fmt.Sprintf("%d", schema),
		Features:        s.features,
		MigrationNeeded: pending,
	}
	if pending {
		msg := "database schema is behind; run the migrate command"
		info.MigrationMessage = &msg
	}
	return info, nil
}

// Package storage keeps generated documents in an object store.
//
// Object keys are slash separated paths such as
// "{userID}/dividends/{requestID}.pdf". Uploading to an existing key replaces the
// object, which lets an interrupted generation be retried without orphaning files.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/config"
)

// Store is an object store for generated documents.
type Store interface {
	Upload(ctx context.Context, key, contentType string, data []byte) error
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// ErrInvalidKey is returned for empty keys or keys escaping the store root.
var ErrInvalidKey = errors.New("invalid storage key")

// ErrNotFound is returned when a key has no object. It matches apperrors.ErrFileNotFound.
var ErrNotFound = apperrors.ErrFileNotFound

// cleanKey normalises key and rejects traversal outside the root.
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}

// DocumentKey builds the deterministic object key for a generated document.
func DocumentKey(userID, folder, requestID, ext string) string {
	return userID + "/" + folder + "/" + requestID + ext
}

// New opens the store selected by cfg.Driver.
func New(cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStore(cfg.LocalRoot)
	case "http":
		if cfg.BaseURL == "" {
			return nil, errors.New("STORAGE_BASE_URL is required for the http storage driver")
		}
		return NewHTTPStore(cfg.BaseURL, cfg.ServiceKey), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

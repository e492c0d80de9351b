package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/service"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/storage"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/testutil"
)

// TestDownloadService tests signed download links.
//
// WHY: Download links are served without authentication, so the token alone
// must prove which object may be fetched.
func TestDownloadService(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*service.DownloadService, *testutil.MemoryStore) {
		t.Helper()
		store := testutil.NewMemoryStore()
		if err := store.Upload(ctx, "u1/boardpacks/pack.pdf", "application/pdf", []byte("%PDF-1.7")); err != nil {
			t.Fatalf("Upload() returned unexpected error: %v", err)
		}
		svc, err := service.NewDownloadService("", time.Hour, store)
		if err != nil {
			t.Fatalf("NewDownloadService() returned unexpected error: %v", err)
		}
		return svc, store
	}

	t.Run("resolves an issued token", func(t *testing.T) {
		// Setup
		svc, _ := setup(t)
		token, err := svc.Issue("u1", "u1/boardpacks/pack.pdf", "board-pack.pdf", "application/pdf")
		if err != nil {
			t.Fatalf("Issue() returned unexpected error: %v", err)
		}

		// Execute
		file, err := svc.Resolve(ctx, token)

		// Assert
		if err != nil {
			t.Fatalf("Resolve() returned unexpected error: %v", err)
		}
		if file.Filename != "board-pack.pdf" || file.ContentType != "application/pdf" {
			t.Errorf("Unexpected file metadata: %+v", file)
		}
		if string(file.Data) != "%PDF-1.7" {
			t.Errorf("Unexpected file content: %q", file.Data)
		}
	})

	t.Run("rejects a tampered token", func(t *testing.T) {
		// Setup
		svc, _ := setup(t)
		token, err := svc.Issue("u1", "u1/boardpacks/pack.pdf", "board-pack.pdf", "application/pdf")
		if err != nil {
			t.Fatalf("Issue() returned unexpected error: %v", err)
		}
		tampered := []byte(token)
		tampered[len(tampered)/2] ^= 'x' ^ 'y'

		// Execute
		_, err = svc.Resolve(ctx, string(tampered))

		// Assert
		if !errors.Is(err, apperrors.ErrInvalidDownloadToken) {
			t.Errorf("Expected ErrInvalidDownloadToken, got %v", err)
		}
	})

	t.Run("rejects a token signed with another key", func(t *testing.T) {
		// Setup
		svc, store := setup(t)
		other, err := service.NewDownloadService("", time.Hour, store)
		if err != nil {
			t.Fatalf("NewDownloadService() returned unexpected error: %v", err)
		}
		token, err := other.Issue("u1", "u1/boardpacks/pack.pdf", "board-pack.pdf", "application/pdf")
		if err != nil {
			t.Fatalf("Issue() returned unexpected error: %v", err)
		}

		// Execute
		_, err = svc.Resolve(ctx, token)

		// Assert
		if !errors.Is(err, apperrors.ErrInvalidDownloadToken) {
			t.Errorf("Expected ErrInvalidDownloadToken, got %v", err)
		}
	})

	t.Run("a removed object is not found", func(t *testing.T) {
		// Setup
		svc, store := setup(t)
		token, err := svc.Issue("u1", "u1/boardpacks/pack.pdf", "board-pack.pdf", "application/pdf")
		if err != nil {
			t.Fatalf("Issue() returned unexpected error: %v", err)
		}
		if err := store.Delete(ctx, "u1/boardpacks/pack.pdf"); err != nil {
			t.Fatalf("Delete() returned unexpected error: %v", err)
		}

		// Execute
		_, err = svc.Resolve(ctx, token)

		// Assert
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected storage.ErrNotFound, got %v", err)
		}
	})

	t.Run("rejects a malformed key", func(t *testing.T) {
		// Execute
		_, err := service.NewDownloadService("not-a-key", time.Hour, testutil.NewMemoryStore())

		// Assert
		if err == nil {
			t.Error("Expected an error for an invalid key")
		}
	})
}

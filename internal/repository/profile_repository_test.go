package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/repository"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/testutil"
)

// TestProfileRepository_IncrementUsage tests the single-statement increment.
//
// WHY: Usage counters gate billing. They must increment exactly once per call
// and restart when the month changes.
func TestProfileRepository_IncrementUsage(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("increments within the same period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewProfileRepository(db)
		p := testutil.NewProfile().WithDividendsUsed(1, "2025-03").Build(t, db)

		if err := repo.IncrementUsage(ctx, p.ID, model.KindDividend, "2025-03", now); err != nil {
			t.Fatalf("IncrementUsage() returned unexpected error: %v", err)
		}

		got, _ := repo.GetProfile(ctx, p.ID)
		if got.CurrentMonthDividends != 2 {
			t.Errorf("Expected 2 dividends, got %d", got.CurrentMonthDividends)
		}
	})

	t.Run("rolls over on a new period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewProfileRepository(db)
		p := testutil.NewProfile().WithDividendsUsed(5, "2025-02").Build(t, db)
		if _, err := db.Exec(`UPDATE profiles SET current_month_minutes = 4 WHERE id = ?`, p.ID); err != nil {
			t.Fatalf("Failed to seed minutes: %v", err)
		}

		if err := repo.IncrementUsage(ctx, p.ID, model.KindMinutes, "2025-03", now); err != nil {
			t.Fatalf("IncrementUsage() returned unexpected error: %v", err)
		}

		got, _ := repo.GetProfile(ctx, p.ID)
		if got.UsagePeriod != "2025-03" {
			t.Errorf("Expected period 2025-03, got %s", got.UsagePeriod)
		}
		if got.CurrentMonthMinutes != 1 {
			t.Errorf("Expected 1 minutes, got %d", got.CurrentMonthMinutes)
		}
		if got.CurrentMonthDividends != 0 {
			t.Errorf("Expected dividends reset to 0, got %d", got.CurrentMonthDividends)
		}
	})

	t.Run("missing profile", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewProfileRepository(db)

		err := repo.IncrementUsage(ctx, testutil.MakeID(), model.KindDividend, "2025-03", now)
		if !errors.Is(err, apperrors.ErrProfileNotFound) {
			t.Errorf("Expected ErrProfileNotFound, got %v", err)
		}
	})

	t.Run("database error is wrapped", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("Failed to create sqlmock: %v", err)
		}
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET")).WillReturnError(errors.New("disk I/O error"))

		repo := repository.NewProfileRepository(db)
		err = repo.IncrementUsage(ctx, "user-1", model.KindDividend, "2025-03", now)
		if err == nil {
			t.Fatal("Expected error, got nil")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet sqlmock expectations: %v", err)
		}
	})
}

// TestProfileRepository_ResetUsage tests the monthly reset job's query.
func TestProfileRepository_ResetUsage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewProfileRepository(db)
	ctx := context.Background()

	stale := testutil.NewProfile().WithDividendsUsed(3, "2025-02").Build(t, db)
	current := testutil.NewProfile().WithDividendsUsed(1, "2025-03").Build(t, db)

	n, err := repo.ResetUsage(ctx, "2025-03", time.Now())
	if err != nil {
		t.Fatalf("ResetUsage() returned unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 profile reset, got %d", n)
	}

	got, _ := repo.GetProfile(ctx, stale.ID)
	if got.CurrentMonthDividends != 0 {
		t.Errorf("Expected stale counter reset, got %d", got.CurrentMonthDividends)
	}
	got, _ = repo.GetProfile(ctx, current.ID)
	if got.CurrentMonthDividends != 1 {
		t.Errorf("Expected current counter kept, got %d", got.CurrentMonthDividends)
	}
}

// TestProfileRepository_EnsureProfile tests first-login profile creation.
func TestProfileRepository_EnsureProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewProfileRepository(db)
	ctx := context.Background()
	id := testutil.MakeID()

	for i := 0; i < 2; i++ {
		if err := repo.EnsureProfile(ctx, id, "a@example.com", "trial", time.Now()); err != nil {
			t.Fatalf("EnsureProfile() returned unexpected error: %v", err)
		}
	}
	testutil.AssertRowCount(t, db, "profiles", 1)
}

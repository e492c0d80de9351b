package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/testutil"
)

func currentPeriod() string {
	return time.Now().UTC().Format("2006-01")
}

// TestUsageService_CheckUsageLimits tests the monthly quota decision.
//
// WHY: Every generated document is metered. A wrong answer either gives away
// documents on a paid plan or blocks a user who still has quota.
func TestUsageService_CheckUsageLimits(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		plan    string
		used    int
		period  string
		kind    model.DocumentKind
		allowed bool
	}{
		{"under the limit", "starter", 1, currentPeriod(), model.KindDividend, true},
		{"at the limit", "starter", 2, currentPeriod(), model.KindDividend, false},
		{"counter from an older month", "starter", 2, "2000-01", model.KindDividend, true},
		{"unlimited plan", "enterprise", 500, currentPeriod(), model.KindDividend, true},
		{"minutes use their own counter", "starter", 0, currentPeriod(), model.KindMinutes, true},
		{"unknown plan falls back to the default", "legacy-gold", 2, currentPeriod(), model.KindDividend, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			db := testutil.SetupTestDB(t)
			svc := testutil.NewTestUsageService(t, db)
			profile := testutil.NewProfile().WithPlan(tt.plan).WithDividendsUsed(tt.used, tt.period).Build(t, db)

			// Execute
			allowed, err := svc.CheckUsageLimits(ctx, profile.ID, tt.kind)

			// Assert
			if err != nil {
				t.Fatalf("CheckUsageLimits() returned unexpected error: %v", err)
			}
			if allowed != tt.allowed {
				t.Errorf("CheckUsageLimits() = %v, want %v", allowed, tt.allowed)
			}
		})
	}

	t.Run("a user without a profile is on the default plan", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestUsageService(t, db)

		// Execute
		allowed, err := svc.CheckUsageLimits(ctx, testutil.MakeID(), model.KindDividend)

		// Assert
		if err != nil {
			t.Fatalf("CheckUsageLimits() returned unexpected error: %v", err)
		}
		if !allowed {
			t.Error("Expected a new user to have quota")
		}
	})

	t.Run("RequireQuota wraps the limit error", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestUsageService(t, db)
		profile := testutil.NewProfile().WithPlan("trial").WithMinutesUsed(2, currentPeriod()).Build(t, db)

		// Execute
		err := svc.RequireQuota(ctx, profile.ID, model.KindMinutes)

		// Assert
		if !errors.Is(err, apperrors.ErrUsageLimitExceeded) {
			t.Errorf("Expected ErrUsageLimitExceeded, got %v", err)
		}
	})
}

// TestUsageService_Increment tests counting generated documents.
func TestUsageService_Increment(t *testing.T) {
	ctx := context.Background()

	t.Run("rolls an old period over before counting", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestUsageService(t, db)
		profile := testutil.NewProfile().WithPlan("starter").WithDividendsUsed(2, "2000-01").Build(t, db)

		// Execute
		if err := svc.Increment(ctx, nil, profile.ID, model.KindDividend); err != nil {
			t.Fatalf("Increment() returned unexpected error: %v", err)
		}

		// Assert
		summary, err := svc.Summary(ctx, profile.ID)
		if err != nil {
			t.Fatalf("Summary() returned unexpected error: %v", err)
		}
		if summary.Dividends.Used != 1 {
			t.Errorf("Expected 1 dividend used, got %d", summary.Dividends.Used)
		}
		if summary.Period != currentPeriod() {
			t.Errorf("Expected period %s, got %s", currentPeriod(), summary.Period)
		}
	})

	t.Run("creates a profile for an unknown user", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestUsageService(t, db)
		userID := testutil.MakeID()

		// Execute
		if err := svc.Increment(ctx, nil, userID, model.KindMinutes); err != nil {
			t.Fatalf("Increment() returned unexpected error: %v", err)
		}

		// Assert
		testutil.AssertRowCount(t, db, "profiles", 1)
		summary, err := svc.Summary(ctx, userID)
		if err != nil {
			t.Fatalf("Summary() returned unexpected error: %v", err)
		}
		if summary.Minutes.Used != 1 {
			t.Errorf("Expected 1 minutes used, got %d", summary.Minutes.Used)
		}
	})
}

// TestUsageService_Summary tests the usage report returned to clients.
func TestUsageService_Summary(t *testing.T) {
	ctx := context.Background()

	t.Run("reports remaining quota", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestUsageService(t, db)
		profile := testutil.NewProfile().WithPlan("professional").WithDividendsUsed(3, currentPeriod()).Build(t, db)

		// Execute
		summary, err := svc.Summary(ctx, profile.ID)

		// Assert
		if err != nil {
			t.Fatalf("Summary() returned unexpected error: %v", err)
		}
		if summary.Plan != "professional" {
			t.Errorf("Expected plan professional, got %s", summary.Plan)
		}
		if summary.Dividends.Limit != 10 || summary.Dividends.Remaining != 7 {
			t.Errorf("Unexpected dividend quota: %+v", summary.Dividends)
		}
	})

	t.Run("unlimited plans report no limit", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestUsageService(t, db)
		profile := testutil.NewProfile().WithPlan("accountant").Build(t, db)

		// Execute
		summary, err := svc.Summary(ctx, profile.ID)

		// Assert
		if err != nil {
			t.Fatalf("Summary() returned unexpected error: %v", err)
		}
		if !summary.Dividends.Unlimited || !summary.Minutes.Unlimited {
			t.Errorf("Expected unlimited quotas, got %+v", summary)
		}
	})
}

// TestUsageService_ResetMonthly tests the month rollover job.
func TestUsageService_ResetMonthly(t *testing.T) {
	ctx := context.Background()

	t.Run("resets only profiles on an older period", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestUsageService(t, db)
		now := time.Date(2025, 4, 1, 0, 5, 0, 0, time.UTC)
		stale := testutil.NewProfile().WithPlan("starter").WithDividendsUsed(2, "2025-03").Build(t, db)
		testutil.NewProfile().WithPlan("starter").WithDividendsUsed(1, "2025-04").Build(t, db)

		// Execute
		reset, err := svc.ResetMonthly(ctx, now)

		// Assert
		if err != nil {
			t.Fatalf("ResetMonthly() returned unexpected error: %v", err)
		}
		if reset != 1 {
			t.Errorf("Expected 1 profile reset, got %d", reset)
		}

		var dividends int
		var period string
		err = db.QueryRow(`SELECT current_month_dividends, usage_period FROM profiles WHERE id = ?`, stale.ID).
			Scan(&dividends, &period)
		if err != nil {
			t.Fatalf("Failed to read profile: %v", err)
		}
		if dividends != 0 || period != "2025-04" {
			t.Errorf("Expected counter 0 in 2025-04, got %d in %s", dividends, period)
		}
	})
}

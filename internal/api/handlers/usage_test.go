package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/handlers"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/testutil"
)

// TestUsageHandler_Usage tests the GET /api/usage endpoint.
func TestUsageHandler_Usage(t *testing.T) {
	t.Run("reports this month's counters", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewUsageHandler(testutil.NewTestUsageService(t, db))
		period := time.Now().UTC().Format("2006-01")
		profile := testutil.NewProfile().WithPlan("trial").WithDividendsUsed(1, period).Build(t, db)

		req := testutil.WithUser(httptest.NewRequest(http.MethodGet, "/api/usage", nil), profile.ID)
		w := httptest.NewRecorder()

		handler.Usage(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		var response model.UsageSummary
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if response.Plan != "trial" || response.Period != period {
			t.Errorf("Unexpected plan or period %+v", response)
		}
		if response.Dividends.Used != 1 || response.Dividends.Limit != 2 || response.Dividends.Remaining != 1 {
			t.Errorf("Unexpected dividend quota %+v", response.Dividends)
		}
	})

	t.Run("an unknown user gets the default plan", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewUsageHandler(testutil.NewTestUsageService(t, db))

		req := testutil.WithUser(httptest.NewRequest(http.MethodGet, "/api/usage", nil), testutil.MakeID())
		w := httptest.NewRecorder()

		handler.Usage(w, req)

		var response model.UsageSummary
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)
		if response.Plan != "trial" || response.Dividends.Used != 0 {
			t.Errorf("Unexpected summary %+v", response)
		}
	})

	t.Run("returns 401 without a user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		handler := handlers.NewUsageHandler(testutil.NewTestUsageService(t, db))

		w := httptest.NewRecorder()
		handler.Usage(w, httptest.NewRequest(http.MethodGet, "/api/usage", nil))

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected status 401, got %d", w.Code)
		}
	})
}

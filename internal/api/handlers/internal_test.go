package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/handlers"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/scheduler"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/testutil"
)

// TestInternalHandler_RunDue tests the POST /api/internal/run-due endpoint.
func TestInternalHandler_RunDue(t *testing.T) {
	t.Run("executes schedules due today", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)
		handler := handlers.NewInternalHandler(svc.Runner, nil, time.Minute)
		fx := testutil.CreateCompanyFixture(t, db, "professional")
		now := time.Now().UTC()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		testutil.NewSchedule(fx.Profile.ID, fx.Company.ID, fx.Shareholder.ID).WithNextRunAt(today).Build(t, db)

		w := httptest.NewRecorder()
		handler.RunDue(w, httptest.NewRequest(http.MethodPost, "/api/internal/run-due", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		var summary model.RunDueSummary
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&summary)
		if summary.Due != 1 || summary.Completed != 1 {
			t.Errorf("Unexpected summary %+v", summary)
		}
		if len(svc.Email.Messages()) != 1 {
			t.Errorf("Expected 1 email, got %d", len(svc.Email.Messages()))
		}
	})

	t.Run("returns an empty summary when nothing is due", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)
		handler := handlers.NewInternalHandler(svc.Runner, nil, time.Minute)

		w := httptest.NewRecorder()
		handler.RunDue(w, httptest.NewRequest(http.MethodPost, "/api/internal/run-due", nil))

		var summary model.RunDueSummary
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&summary)
		if summary.Due != 0 || len(summary.RunIDs) != 0 {
			t.Errorf("Unexpected summary %+v", summary)
		}
	})

	t.Run("returns 500 on database error", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)
		handler := handlers.NewInternalHandler(svc.Runner, nil, time.Minute)
		db.Close()

		w := httptest.NewRecorder()
		handler.RunDue(w, httptest.NewRequest(http.MethodPost, "/api/internal/run-due", nil))

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected status 500, got %d", w.Code)
		}
	})

	t.Run("returns 409 while another scan holds the lock", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)
		lock := scheduler.NewLocalLock()
		release, ok, err := lock.Acquire(context.Background(), scheduler.RunDueLockKey, time.Minute)
		if err != nil || !ok {
			t.Fatalf("Failed to take lock: ok=%v err=%v", ok, err)
		}
		handler := handlers.NewInternalHandler(svc.Runner, lock, time.Minute)

		w := httptest.NewRecorder()
		handler.RunDue(w, httptest.NewRequest(http.MethodPost, "/api/internal/run-due", nil))
		if w.Code != http.StatusConflict {
			t.Errorf("Expected status 409, got %d", w.Code)
		}

		release()
		w = httptest.NewRecorder()
		handler.RunDue(w, httptest.NewRequest(http.MethodPost, "/api/internal/run-due", nil))
		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200 after release, got %d", w.Code)
		}
	})
}

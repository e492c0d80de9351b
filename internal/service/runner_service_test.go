package service_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/recurrence"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func runsOf(t *testing.T, svc *testutil.Services, schedule model.RecurringDividend) []model.ScheduledDividendRun {
	t.Helper()
	runs, err := svc.Runs.Runs(context.Background(), schedule.UserID, schedule.ID, nil)
	if err != nil {
		t.Fatalf("Runs() returned unexpected error: %v", err)
	}
	return runs
}

func reload(t *testing.T, svc *testutil.Services, schedule model.RecurringDividend) *model.RecurringDividend {
	t.Helper()
	s, err := svc.Schedules.Get(context.Background(), schedule.UserID, schedule.ID)
	if err != nil {
		t.Fatalf("Get() returned unexpected error: %v", err)
	}
	return s
}

func setupRunner(t *testing.T, plan string) (*sql.DB, *testutil.Services, testutil.CompanyFixture) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return db, testutil.NewTestServices(t, db), testutil.CreateCompanyFixture(t, db, plan)
}

// TestRunnerService_RunDue tests executing due schedules.
//
// WHY: The runner is the only code that generates documents without a user
// present. Each schedule must reach exactly one terminal run per occurrence,
// advance past today, and never affect other schedules.
func TestRunnerService_RunDue(t *testing.T) {
	ctx := context.Background()

	t.Run("completes a due schedule and advances it", func(t *testing.T) {
		// Setup
		db, svc, fx := setupRunner(t, "professional")
		schedule := testutil.NewSchedule(fx.Profile.ID, fx.Company.ID, fx.Shareholder.ID).
			WithNextRunAt(date(2025, 3, 15)).
			Build(t, db)

		// Execute
		summary, err := svc.Runner.RunDue(ctx, time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC))

		// Assert
		if err != nil {
			t.Fatalf("RunDue() returned unexpected error: %v", err)
		}
		if summary.Due != 1 || summary.Completed != 1 || summary.Failed != 0 || summary.Skipped != 0 {
			t.Errorf("Unexpected summary: %+v", summary)
		}

		runs := runsOf(t, svc, schedule)
		if len(runs) != 1 {
			t.Fatalf("Expected 1 run, got %d", len(runs))
		}
		run := runs[0]
		if run.Status != model.RunCompleted {
			t.Errorf("Expected completed run, got %s (%s)", run.Status, run.ErrorMessage)
		}
		if run.DividendRecordID == "" {
			t.Error("Expected run to reference the generated voucher")
		}
		if !run.EmailSent {
			t.Error("Expected run to record the email as sent")
		}

		updated := reload(t, svc, schedule)
		if updated.LastRunAt == nil || !updated.LastRunAt.Equal(date(2025, 3, 15)) {
			t.Errorf("Expected last run 2025-03-15, got %v", updated.LastRunAt)
		}
		if updated.NextRunAt == nil || !updated.NextRunAt.Equal(date(2025, 4, 15)) {
			t.Errorf("Expected next run 2025-04-15, got %v", updated.NextRunAt)
		}

		messages := svc.Email.Messages()
		if len(messages) != 1 {
			t.Fatalf("Expected 1 email, got %d", len(messages))
		}
		if len(messages[0].Attachments) != 1 || !strings.HasSuffix(messages[0].Attachments[0].Filename, ".pdf") {
			t.Errorf("Expected one pdf attachment, got %+v", messages[0].Attachments)
		}
		if messages[0].Text == "" {
			t.Error("Expected a plain text body")
		}
		testutil.AssertRowCount(t, db, "dividend_records", 1)
		testutil.AssertRowCount(t, db, "sent_emails", 1)
	})

	t.Run("records missed occurrences as skipped", func(t *testing.T) {
		// Setup
		db, svc, fx := setupRunner(t, "professional")
		schedule := testutil.NewSchedule(fx.Profile.ID, fx.Company.ID, fx.Shareholder.ID).
			WithNextRunAt(date(2025, 1, 15)).
			Build(t, db)

		// Execute
		summary, err := svc.Runner.RunDue(ctx, date(2025, 3, 20))

		// Assert
		if err != nil {
			t.Fatalf("RunDue() returned unexpected error: %v", err)
		}
		if summary.Completed != 1 || summary.Skipped != 2 {
			t.Errorf("Expected 1 completed and 2 skipped, got %+v", summary)
		}

		statuses := map[string]model.RunStatus{}
		for _, run := range runsOf(t, svc, schedule) {
			statuses[run.ScheduledFor.Format("2006-01-02")] = run.Status
		}
		want := map[string]model.RunStatus{
			"2025-01-15": model.RunSkipped,
			"2025-02-15": model.RunSkipped,
			"2025-03-15": model.RunCompleted,
		}
		for day, status := range want {
			if statuses[day] != status {
				t.Errorf("Expected %s run on %s, got %q", status, day, statuses[day])
			}
		}

		// Only the latest occurrence generates a document.
		testutil.AssertRowCount(t, db, "dividend_records", 1)
		if next := reload(t, svc, schedule).NextRunAt; next == nil || !next.Equal(date(2025, 4, 15)) {
			t.Errorf("Expected next run 2025-04-15, got %v", next)
		}
	})

	t.Run("ignores paused inactive and future schedules", func(t *testing.T) {
		// Setup
		db, svc, fx := setupRunner(t, "professional")
		builders := []*testutil.ScheduleBuilder{
			testutil.NewSchedule(fx.Profile.ID, fx.Company.ID, fx.Shareholder.ID).WithNextRunAt(date(2025, 3, 15)).Paused(),
			testutil.NewSchedule(fx.Profile.ID, fx.Company.ID, fx.Shareholder.ID).WithNextRunAt(date(2025, 3, 15)).Inactive(),
			testutil.NewSchedule(fx.Profile.ID, fx.Company.ID, fx.Shareholder.ID).WithNextRunAt(date(2025, 4, 15)),
			testutil.NewSchedule(fx.Profile.ID, fx.Company.ID, fx.Shareholder.ID).WithoutNextRun(),
		}
		for _, b := range builders {
			b.Build(t, db)
		}

		// Execute
		summary, err := svc.Runner.RunDue(ctx, date(2025, 3, 15))

		// Assert
		if err != nil {
			t.Fatalf("RunDue() returned unexpected error: %v", err)
		}
		if summary.Due != 0 {
			t.Errorf("Expected nothing due, got %+v", summary)
		}
		testutil.AssertRowCount(t, db, "scheduled_dividend_runs", 0)
	})

	t.Run("skips when the monthly limit is reached", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)
		period := time.Now().UTC().Format("2006-01")
		profile := testutil.NewProfile().WithPlan("trial").WithDividendsUsed(2, period).Build(t, db)
		company := testutil.NewCompany(profile.ID).WithDirector("Jane Smith").Build(t, db)
		holder := testutil.NewShareholder(profile.ID, company.ID).Build(t, db)
		schedule := testutil.NewSchedule(profile.ID, company.ID, holder.ID).
			WithNextRunAt(date(2025, 3, 15)).
			Build(t, db)

		// Execute
		summary, err := svc.Runner.RunDue(ctx, date(2025, 3, 15))

		// Assert
		if err != nil {
			t.Fatalf("RunDue() returned unexpected error: %v", err)
		}
		if summary.Skipped != 1 || summary.Completed != 0 {
			t.Errorf("Expected 1 skipped run, got %+v", summary)
		}
		runs := runsOf(t, svc, schedule)
		if len(runs) != 1 || runs[0].Status != model.RunSkipped || !strings.Contains(runs[0].SkipReason, "limit") {
			t.Errorf("Expected a limit skip, got %+v", runs)
		}
		testutil.AssertRowCount(t, db, "dividend_records", 0)
		if len(svc.Email.Messages()) != 0 {
			t.Error("Expected no email for a skipped run")
		}
		if next := reload(t, svc, schedule).NextRunAt; next == nil || !next.Equal(date(2025, 4, 15)) {
			t.Errorf("Expected skipped schedule to advance to 2025-04-15, got %v", next)
		}
	})

	t.Run("marks the run failed when email delivery fails", func(t *testing.T) {
		// Setup
		db, svc, fx := setupRunner(t, "professional")
		svc.Email.WithError(errors.New("provider unavailable"))
		schedule := testutil.NewSchedule(fx.Profile.ID, fx.Company.ID, fx.Shareholder.ID).
			WithNextRunAt(date(2025, 3, 15)).
			Build(t, db)

		// Execute
		summary, err := svc.Runner.RunDue(ctx, date(2025, 3, 15))

		// Assert
		if err != nil {
			t.Fatalf("RunDue() returned unexpected error: %v", err)
		}
		if summary.Failed != 1 {
			t.Errorf("Expected 1 failed run, got %+v", summary)
		}
		runs := runsOf(t, svc, schedule)
		if len(runs) != 1 || runs[0].Status != model.RunFailed {
			t.Fatalf("Expected a failed run, got %+v", runs)
		}
		if !strings.Contains(runs[0].ErrorMessage, "provider unavailable") {
			t.Errorf("Expected provider error in run, got %q", runs[0].ErrorMessage)
		}

		var status string
		if err := db.QueryRow(`SELECT status FROM sent_emails`).Scan(&status); err != nil {
			t.Fatalf("Failed to read sent email: %v", err)
		}
		if status != string(model.EmailFailed) {
			t.Errorf("Expected failed email log, got %s", status)
		}
		if next := reload(t, svc, schedule).NextRunAt; next == nil || !next.Equal(date(2025, 4, 15)) {
			t.Errorf("Expected failed schedule to advance, got %v", next)
		}
	})

	t.Run("generates board minutes when requested", func(t *testing.T) {
		// Setup
		db, svc, fx := setupRunner(t, "professional")
		schedule := testutil.NewSchedule(fx.Profile.ID, fx.Company.ID, fx.Shareholder.ID).
			WithNextRunAt(date(2025, 3, 15)).
			WithBoardMinutes().
			Build(t, db)

		// Execute
		if _, err := svc.Runner.RunDue(ctx, date(2025, 3, 15)); err != nil {
			t.Fatalf("RunDue() returned unexpected error: %v", err)
		}

		// Assert
		runs := runsOf(t, svc, schedule)
		if len(runs) != 1 || runs[0].MinutesID == "" {
			t.Fatalf("Expected run to reference minutes, got %+v", runs)
		}
		testutil.AssertRowCount(t, db, "minutes", 1)
		if messages := svc.Email.Messages(); len(messages) != 1 || len(messages[0].Attachments) != 2 {
			t.Errorf("Expected one email with voucher and minutes attached")
		}
	})

	t.Run("runs without email when no recipients are set", func(t *testing.T) {
		// Setup
		db, svc, fx := setupRunner(t, "professional")
		schedule := testutil.NewSchedule(fx.Profile.ID, fx.Company.ID, fx.Shareholder.ID).
			WithNextRunAt(date(2025, 3, 15)).
			WithRecipients().
			Build(t, db)

		// Execute
		if _, err := svc.Runner.RunDue(ctx, date(2025, 3, 15)); err != nil {
			t.Fatalf("RunDue() returned unexpected error: %v", err)
		}

		// Assert
		runs := runsOf(t, svc, schedule)
		if len(runs) != 1 || runs[0].Status != model.RunCompleted || runs[0].EmailSent {
			t.Errorf("Expected completed run without email, got %+v", runs)
		}
		testutil.AssertRowCount(t, db, "sent_emails", 0)
	})

	t.Run("a second scan on the same day does nothing", func(t *testing.T) {
		// Setup
		db, svc, fx := setupRunner(t, "professional")
		schedule := testutil.NewSchedule(fx.Profile.ID, fx.Company.ID, fx.Shareholder.ID).
			WithNextRunAt(date(2025, 3, 15)).
			Build(t, db)

		// Execute
		first, err := svc.Runner.RunDue(ctx, date(2025, 3, 15))
		if err != nil {
			t.Fatalf("RunDue() returned unexpected error: %v", err)
		}
		second, err := svc.Runner.RunDue(ctx, date(2025, 3, 15))
		if err != nil {
			t.Fatalf("RunDue() returned unexpected error: %v", err)
		}

		// Assert
		if first.Completed != 1 || second.Due != 0 {
			t.Errorf("Expected one completion then nothing due, got %+v then %+v", first, second)
		}
		if len(runsOf(t, svc, schedule)) != 1 {
			t.Error("Expected exactly one run for the date")
		}
		testutil.AssertRowCount(t, db, "dividend_records", 1)
	})

	t.Run("an existing run for the date is not repeated", func(t *testing.T) {
		// Setup
		db, svc, fx := setupRunner(t, "professional")
		schedule := testutil.NewSchedule(fx.Profile.ID, fx.Company.ID, fx.Shareholder.ID).
			WithNextRunAt(date(2025, 3, 15)).
			Build(t, db)
		testutil.NewRun(schedule, date(2025, 3, 15)).WithStatus(model.RunCompleted).Build(t, db)

		// Execute
		summary, err := svc.Runner.RunDue(ctx, date(2025, 3, 15))

		// Assert
		if err != nil {
			t.Fatalf("RunDue() returned unexpected error: %v", err)
		}
		if summary.Completed != 0 {
			t.Errorf("Expected no new completion, got %+v", summary)
		}
		testutil.AssertRowCount(t, db, "scheduled_dividend_runs", 1)
		testutil.AssertRowCount(t, db, "dividend_records", 0)
		if next := reload(t, svc, schedule).NextRunAt; next == nil || !next.Equal(date(2025, 4, 15)) {
			t.Errorf("Expected schedule to advance past the recorded run, got %v", next)
		}
	})

	t.Run("clears the next run after the end date", func(t *testing.T) {
		// Setup
		db, svc, fx := setupRunner(t, "professional")
		schedule := testutil.NewSchedule(fx.Profile.ID, fx.Company.ID, fx.Shareholder.ID).
			WithFrequency(recurrence.Quarterly).
			WithNextRunAt(date(2025, 3, 15)).
			WithEndDate(date(2025, 5, 31)).
			Build(t, db)

		// Execute
		if _, err := svc.Runner.RunDue(ctx, date(2025, 3, 15)); err != nil {
			t.Fatalf("RunDue() returned unexpected error: %v", err)
		}

		// Assert
		if next := reload(t, svc, schedule).NextRunAt; next != nil {
			t.Errorf("Expected no next run after the end date, got %v", next)
		}
	})

	t.Run("counts runs in metrics", func(t *testing.T) {
		// Setup
		db, svc, fx := setupRunner(t, "professional")
		testutil.NewSchedule(fx.Profile.ID, fx.Company.ID, fx.Shareholder.ID).
			WithNextRunAt(date(2025, 2, 15)).
			Build(t, db)

		// Execute
		if _, err := svc.Runner.RunDue(ctx, date(2025, 3, 15)); err != nil {
			t.Fatalf("RunDue() returned unexpected error: %v", err)
		}

		// Assert
		if got := promtest.ToFloat64(svc.Metrics.RunsTotal.WithLabelValues("completed")); got != 1 {
			t.Errorf("Expected 1 completed run counted, got %v", got)
		}
		if got := promtest.ToFloat64(svc.Metrics.RunsTotal.WithLabelValues("skipped")); got != 1 {
			t.Errorf("Expected 1 skipped run counted, got %v", got)
		}
	})
}

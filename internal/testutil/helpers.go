package testutil

import (
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/middleware"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/config"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/document"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/metrics"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/repository"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/service"
)

// TestVerifyBaseURL is the verification base URL used by test services.
const TestVerifyBaseURL = "https://verify.test/api/verify"

// Services is every service wired against one test database, with in-memory
// storage and email so tests can inspect side effects.
type Services struct {
	Usage     *service.UsageService
	Companies *service.CompanyService
	Schedules *service.ScheduleService
	Runs      *service.RunService
	Documents *service.DocumentService
	BoardPack *service.BoardPackService
	Downloads *service.DownloadService
	Delivery  *service.DeliveryService
	Runner    *service.RunnerService
	Tax       *service.TaxService
	System    *service.SystemService

	Store          *MemoryStore
	Email          *MockEmailClient
	CompaniesHouse *MockCompaniesHouse
	Metrics        *metrics.Metrics
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestPlans returns the embedded plan table.
func TestPlans(t *testing.T) *config.PlanTable {
	t.Helper()
	plans, err := config.LoadPlans("")
	if err != nil {
		t.Fatalf("Failed to load plans: %v", err)
	}
	return plans
}

// NewTestServices wires all services against db.
//
// Example usage:
//
//	db := testutil.SetupTestDB(t)
//	svc := testutil.NewTestServices(t, db)
//	record, err := svc.Documents.GenerateVoucher(ctx, userID, req)
func NewTestServices(t *testing.T, db *sql.DB) *Services {
	t.Helper()

	logger := DiscardLogger()
	m := metrics.New()
	store := NewMemoryStore()
	mail := NewMockEmailClient()
	registry := NewMockCompaniesHouse()

	profileRepo := repository.NewProfileRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	runRepo := repository.NewRunRepository(db)
	dividendRepo := repository.NewDividendRecordRepository(db)
	minutesRepo := repository.NewMinutesRepository(db)
	requestRepo := repository.NewGenerationRequestRepository(db)
	sentEmailRepo := repository.NewSentEmailRepository(db)

	generator := document.NewGenerator(nil, logger)
	usage := service.NewUsageService(profileRepo, TestPlans(t))

	downloads, err := service.NewDownloadService("", 15*time.Minute, store)
	if err != nil {
		t.Fatalf("Failed to create download service: %v", err)
	}

	documents := service.NewDocumentService(db, dividendRepo, minutesRepo, companyRepo, requestRepo,
		usage, generator, store, m, TestVerifyBaseURL, logger)
	delivery := service.NewDeliveryService(documents, sentEmailRepo, mail, "Dividends <noreply@test>", m, logger)
	runs := service.NewRunService(runRepo, scheduleRepo)

	return &Services{
		Usage:     usage,
		Companies: service.NewCompanyService(companyRepo, registry),
		Schedules: service.NewScheduleService(scheduleRepo, companyRepo),
		Runs:      runs,
		Documents: documents,
		BoardPack: service.NewBoardPackService(dividendRepo, minutesRepo, companyRepo, generator, store,
			downloads, TestVerifyBaseURL, logger),
		Downloads: downloads,
		Delivery:  delivery,
		Runner:    service.NewRunnerService(scheduleRepo, runs, documents, delivery, usage, 2, m, logger),
		Tax:       service.NewTaxService(),
		System:    service.NewSystemService(db, map[string]bool{"docx": true}),

		Store:          store,
		Email:          mail,
		CompaniesHouse: registry,
		Metrics:        m,
	}
}

func NewTestUsageService(t *testing.T, db *sql.DB) *service.UsageService {
	t.Helper()
	return service.NewUsageService(repository.NewProfileRepository(db), TestPlans(t))
}

func NewTestScheduleService(t *testing.T, db *sql.DB) *service.ScheduleService {
	t.Helper()
	return service.NewScheduleService(repository.NewScheduleRepository(db), repository.NewCompanyRepository(db))
}

func NewTestRunService(t *testing.T, db *sql.DB) *service.RunService {
	t.Helper()
	return service.NewRunService(repository.NewRunRepository(db), repository.NewScheduleRepository(db))
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()
	return service.NewSystemService(db, map[string]bool{"docx": true})
}

// WithUser returns req carrying userID as the authenticated user.
func WithUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

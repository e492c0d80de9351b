package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Dividend-Admin-Backend/internal/api/middleware"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/config"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/metrics"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/scheduler"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/service"
)

// Services groups the services the HTTP layer delegates to.
type Services struct {
	System    *service.SystemService
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

	// RunLock serializes due scans with the cron scheduler. Nil means a
	// lock local to the router.
	RunLock scheduler.Locker
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(custommiddleware.EchoRequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(logger))
	r.Use(middleware.Recoverer)
	r.Use(m.Instrument)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	r.Handle("/metrics", m.Handler())

	dividendHandler := handlers.NewDividendHandler(svc.Documents, svc.Downloads)
	minutesHandler := handlers.NewMinutesHandler(svc.Documents, svc.Downloads)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		// Public, reached from QR codes and emailed links
		r.With(custommiddleware.ValidateUUIDMiddleware).Get("/verify/{uuid}", dividendHandler.Verify)
		r.Get("/documents/download", handlers.NewDownloadHandler(svc.Downloads).Download)

		r.Route("/internal", func(r chi.Router) {
			r.Use(custommiddleware.APIKey(cfg.Auth.InternalAPIKey))
			r.Post("/run-due", handlers.NewInternalHandler(svc.Runner, svc.RunLock, cfg.Scheduler.LockTTL).RunDue)
		})

		r.Group(func(r chi.Router) {
			r.Use(custommiddleware.Auth(cfg.Auth.JWTSecret, svc.Usage, logger))

			r.Route("/company", func(r chi.Router) {
				companyHandler := handlers.NewCompanyHandler(svc.Companies)
				r.Get("/", companyHandler.Companies)
				r.Post("/", companyHandler.CreateCompany)

				r.Route("/{uuid}", func(r chi.Router) {
					r.Use(custommiddleware.ValidateUUIDMiddleware)
					r.Get("/", companyHandler.GetCompany)
					r.Get("/cap-table", companyHandler.CapTable)
					r.Get("/shareholder", companyHandler.Shareholders)
					r.Post("/shareholder", companyHandler.CreateShareholder)
					r.Post("/officer", companyHandler.CreateOfficer)
				})
			})

			r.Route("/companies-house", func(r chi.Router) {
				companyHandler := handlers.NewCompanyHandler(svc.Companies)
				r.Get("/search", companyHandler.SearchCompaniesHouse)
				r.Get("/{number}", companyHandler.CompaniesHouseProfile)
				r.Get("/{number}/officers", companyHandler.CompaniesHouseOfficers)
			})

			r.Route("/schedule", func(r chi.Router) {
				scheduleHandler := handlers.NewScheduleHandler(svc.Schedules, svc.Runs)
				r.Get("/", scheduleHandler.Schedules)
				r.Post("/", scheduleHandler.CreateSchedule)
				r.Get("/calendar.ics", scheduleHandler.Calendar)

				r.Route("/{uuid}", func(r chi.Router) {
					r.Use(custommiddleware.ValidateUUIDMiddleware)
					r.Get("/", scheduleHandler.GetSchedule)
					r.Put("/", scheduleHandler.UpdateSchedule)
					r.Delete("/", scheduleHandler.DeleteSchedule)
					r.Post("/pause", scheduleHandler.PauseSchedule)
					r.Post("/resume", scheduleHandler.ResumeSchedule)
					r.Get("/runs", scheduleHandler.Runs)
				})
			})

			r.Route("/dividend", func(r chi.Router) {
				r.Get("/", dividendHandler.Dividends)
				r.Post("/generate", dividendHandler.GenerateDividend)

				r.Route("/{uuid}", func(r chi.Router) {
					r.Use(custommiddleware.ValidateUUIDMiddleware)
					r.Get("/", dividendHandler.GetDividend)
					r.Delete("/", dividendHandler.DeleteDividend)
					r.Get("/download", dividendHandler.DownloadDividend)
				})
			})

			r.Route("/minutes", func(r chi.Router) {
				r.Get("/", minutesHandler.Minutes)
				r.Post("/generate", minutesHandler.GenerateMinutes)

				r.Route("/{uuid}", func(r chi.Router) {
					r.Use(custommiddleware.ValidateUUIDMiddleware)
					r.Get("/", minutesHandler.GetMinutes)
					r.Delete("/", minutesHandler.DeleteMinutes)
					r.Get("/download", minutesHandler.DownloadMinutes)
				})
			})

			r.Post("/board-pack", handlers.NewBoardPackHandler(svc.BoardPack, logger).BuildBoardPack)

			r.Route("/delivery", func(r chi.Router) {
				deliveryHandler := handlers.NewDeliveryHandler(svc.Delivery)
				r.Get("/", deliveryHandler.History)
				r.Post("/", deliveryHandler.SendDocuments)
			})

			r.Get("/usage", handlers.NewUsageHandler(svc.Usage).Usage)

			r.Route("/tax", func(r chi.Router) {
				taxHandler := handlers.NewTaxHandler(svc.Tax)
				r.Post("/calculate", taxHandler.Calculate)
				r.Get("/years", taxHandler.Years)
			})
		})
	})

	return r
}

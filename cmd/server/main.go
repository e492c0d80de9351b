package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/api"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/companieshouse"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/config"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/database"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/document"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/email"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/metrics"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/repository"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/scheduler"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/service"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/storage"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/version"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dividend-admin",
		Short:         "Dividend administration backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API and the due-run scheduler",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending database migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return migrate(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "run-due",
			Short: "Execute every due schedule once and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runDue(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(*cobra.Command, []string) {
				fmt.Printf("dividend-admin %s (commit %s)\n", version.Version, version.Commit)
			},
		},
	)

	return cmd
}

// app holds everything built from configuration.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *sql.DB
	metrics  *metrics.Metrics
	services api.Services
}

func newApp(ctx context.Context) (*app, error) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := cfg.Logging.NewLogger()
	slog.SetDefault(logger)

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("connected to database", "path", cfg.Database.Path)

	store, err := storage.New(cfg.Storage)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	// Create repositories
	profileRepo := repository.NewProfileRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	runRepo := repository.NewRunRepository(db)
	dividendRepo := repository.NewDividendRecordRepository(db)
	minutesRepo := repository.NewMinutesRepository(db)
	requestRepo := repository.NewGenerationRequestRepository(db)
	sentEmailRepo := repository.NewSentEmailRepository(db)

	// Create services
	m := metrics.New()
	generator := document.NewGenerator(document.NewHTTPLogoSource(), logger)
	usage := service.NewUsageService(profileRepo, cfg.Plans)
	downloads, err := service.NewDownloadService(cfg.Downloads.Key, cfg.Downloads.TTL, store)
	if err != nil {
		db.Close()
		return nil, err
	}
	if cfg.Downloads.Key == "" {
		logger.Warn("DOWNLOAD_TOKEN_KEY not set, download links will not survive a restart")
	}

	documents := service.NewDocumentService(db, dividendRepo, minutesRepo, companyRepo, requestRepo,
		usage, generator, store, m, cfg.Documents.VerifyBaseURL, logger)
	delivery := service.NewDeliveryService(documents, sentEmailRepo,
		email.NewAPIClient(cfg.Email.APIURL, cfg.Email.APIKey), cfg.Email.FromAddress, m, logger)
	runs := service.NewRunService(runRepo, scheduleRepo)

	features := map[string]bool{
		"docx":           true,
		"email":          cfg.Email.APIKey != "",
		"companiesHouse": cfg.CompaniesHouse.APIKey != "",
		"scheduler":      cfg.Scheduler.Enabled,
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		metrics: m,
		services: api.Services{
			System:    service.NewSystemService(db, features),
			Usage:     usage,
			Companies: service.NewCompanyService(companyRepo, companieshouse.NewAPIClient(cfg.CompaniesHouse.APIURL, cfg.CompaniesHouse.APIKey)),
			Schedules: service.NewScheduleService(scheduleRepo, companyRepo),
			Runs:      runs,
			Documents: documents,
			BoardPack: service.NewBoardPackService(dividendRepo, minutesRepo, companyRepo, generator, store,
				downloads, cfg.Documents.VerifyBaseURL, logger),
			Downloads: downloads,
			Delivery:  delivery,
			Runner: service.NewRunnerService(scheduleRepo, runs, documents, delivery, usage,
				cfg.Scheduler.Concurrency, m, logger),
			Tax: service.NewTaxService(),
		},
	}, nil
}

func serve(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.db.Close()

	var lock scheduler.Locker = scheduler.NewLocalLock()
	if a.cfg.Scheduler.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: a.cfg.Scheduler.RedisAddr})
		defer client.Close()
		lock = scheduler.NewRedisLock(client, a.logger)
		a.logger.Info("scheduler using redis lock", "addr", a.cfg.Scheduler.RedisAddr)
	}
	a.services.RunLock = lock

	if a.cfg.Scheduler.Enabled {
		sched := scheduler.New(a.cfg.Scheduler.Spec, a.cfg.Scheduler.LockTTL,
			a.services.Runner, a.services.Usage, lock, a.logger)
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:        a.cfg.Server.Addr,
		Handler:     api.NewRouter(a.services, a.cfg, a.metrics, a.logger),
		ReadTimeout: 15 * time.Second,
		// Board pack streams stay open while the pack renders.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting server", "addr", a.cfg.Server.Addr, "version", version.Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server failed to start: %w", err)
	}

	a.logger.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	a.logger.Info("server exited")
	return nil
}

func migrate(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	v, err := database.SchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	fmt.Printf("database at schema version %d\n", v)
	return nil
}

func runDue(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.db.Close()

	summary, err := a.services.Runner.RunDue(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

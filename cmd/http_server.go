package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/employee"
	employeePostgres "github.com/frahmantamala/employee-directory/internal/employee/postgres"
	"github.com/frahmantamala/employee-directory/internal/export"
	"github.com/frahmantamala/employee-directory/internal/metrics"
	"github.com/frahmantamala/employee-directory/internal/transport/rest"
	"github.com/frahmantamala/employee-directory/internal/transport/swagger"
	"github.com/frahmantamala/employee-directory/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const shutdownTimeout = 30 * time.Second

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *gorm.DB
	Router   *chi.Mux
	Logger   *slog.Logger
	Registry *prometheus.Registry
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "base_path", deps.Config.Server.BasePath)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if sqlDB, err := deps.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				deps.Logger.Error("Database close error", "error", err)
			}
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	initLogger(config)
	lg := logger.LoggerWrapper()

	if _, err := swagger.Load(context.Background()); err != nil {
		return nil, err
	}

	db, err := initDB(config.Database, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router, err := BuildRouter(config, db, lg, registry)
	if err != nil {
		return nil, err
	}

	return &Dependencies{
		Config:   config,
		DB:       db,
		Router:   router,
		Logger:   lg,
		Registry: registry,
	}, nil
}

// BuildRouter wires the employee stack onto a new router. registry may be
// nil, in which case metrics are neither collected nor served.
func BuildRouter(cfg *internal.Config, db *gorm.DB, lg *slog.Logger, registry *prometheus.Registry) (*chi.Mux, error) {
	loc, err := cfg.Export.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid export timezone: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access database pool: %w", err)
	}

	var m *metrics.Metrics
	deps := rest.RouterDeps{
		DB:       sqlDB,
		Logger:   lg,
		BasePath: cfg.Server.BasePath,
	}
	if registry != nil && cfg.Observability.Metrics.Enabled {
		m = metrics.NewMetrics(registry)
		deps.Metrics = m
		deps.Gatherer = registry
		deps.MetricsPath = cfg.Observability.Metrics.Path
	}

	exportOpts := export.Options{
		Title:          cfg.Export.Title,
		CurrencySymbol: cfg.Export.CurrencySymbol,
		CurrencyCode:   cfg.Export.CurrencyCode,
		MaxColumnWidth: cfg.Export.MaxColumnWidth,
		Location:       loc,
	}

	query := employee.NewQuerySurface(employee.QueryConfigFrom(cfg.Pagination))
	repo := employeePostgres.NewEmployeeRepository(db, m)
	service := employee.NewService(repo, query, lg, cfg.Database.QueryTimeout)
	deps.EmployeeHandler = employee.NewHandler(service, query, employee.HandlerConfig{
		PublicURL: cfg.Server.BaseURL,
		Media:     employee.MediaURL{BaseURL: cfg.Media.BaseURL},
		Location:  loc,
		PDF:       export.NewPDFRenderer(exportOpts),
		Excel:     export.NewExcelRenderer(exportOpts),
		Metrics:   m,
	})

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, deps)
	return router, nil
}

// initDB opens the pooled GORM connection. TranslateError lets the
// repository see gorm.ErrDuplicatedKey for unique index violations.
func initDB(cfg internal.DatabaseConfig, lg *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.Source), &gorm.Config{
		TranslateError: true,
		Logger: gormLogger.NewSlogLogger(lg, gormLogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access db pool: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/lydia-game/payflow/internal/payments/http"
	"github.com/lydia-game/payflow/internal/payments/metrics"
	"github.com/lydia-game/payflow/internal/payments/provider"
	"github.com/lydia-game/payflow/internal/payments/service"
	"github.com/lydia-game/payflow/internal/payments/store"
	"github.com/lydia-game/payflow/internal/payments/store/credfile"
	"github.com/lydia-game/payflow/internal/payments/store/drivers/sqlite"
	"github.com/lydia-game/payflow/pkg/cryptox"
	"github.com/lydia-game/payflow/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the payment engine with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	provider *provider.Client
	registry *prometheus.Registry

	// Services
	tokenManager   *service.TokenManager
	payeeResolver  *service.PayeeResolver
	oauthService   *service.OAuthService
	paymentService *service.PaymentService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "payflow",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		registry: prometheus.NewRegistry(),
	}

	// Set master key path for service token sealing
	cryptox.SetMasterKeyPath(cfg.MasterKeyPath)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Acquire or load the service token before serving traffic. A provider
	// outage at boot is fatal; there is nothing useful to serve without it.
	ctx, cancel := context.WithTimeout(context.Background(), provider.DefaultTimeout)
	err := app.tokenManager.Initialize(ctx)
	cancel()
	if err != nil {
		return fmt.Errorf("token manager initialization failed: %w", err)
	}

	app.logger.Info("payment engine starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down payment engine...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGrace)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the background token renewal
	app.tokenManager.Stop()

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("payment engine stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	collector := metrics.NewCollector(app.registry)

	app.provider = provider.NewClient(
		app.cfg.ProviderBaseURL,
		app.cfg.ClientID,
		app.cfg.ClientSecret,
		app.cfg.CollectionPayeeID,
	)

	app.tokenManager = service.NewTokenManager(
		app.provider,
		credfile.New(app.cfg.TokenFile),
		app.logger,
		collector,
	)

	app.payeeResolver = &service.PayeeResolver{
		Links:     app.db.PayeeLinks(),
		Directory: app.provider,
		Logger:    app.logger,
	}

	app.oauthService = &service.OAuthService{
		Gateway:  app.provider,
		Resolver: app.payeeResolver,
		Logger:   app.logger,
	}

	app.paymentService = &service.PaymentService{
		Gateway: app.provider,
		Tokens:  app.tokenManager,
		Ledger:  app.db.Transactions(),
		Logger:  app.logger,
		Metrics: collector,
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		[]byte(app.cfg.APISecret),
		app.db,
		app.registry,
		app.logger,
	)

	// Wire services to router
	router.TokenManager = app.tokenManager
	router.OAuthService = app.oauthService
	router.PaymentService = app.paymentService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// Package app wires the admin service together: configuration, logging,
// store, services, and the HTTP server lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/castellan/castellan/internal/admin/cache"
	"github.com/castellan/castellan/internal/admin/domain"
	httpapi "github.com/castellan/castellan/internal/admin/http"
	"github.com/castellan/castellan/internal/admin/service"
	"github.com/castellan/castellan/internal/admin/store"
	"github.com/castellan/castellan/internal/admin/store/drivers/sqlite"
	"github.com/castellan/castellan/pkg/cryptox"
	"github.com/castellan/castellan/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the admin service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db          store.Store
	clientCache *cache.ClientCache

	referenceServices     map[domain.Kind]*service.ReferenceService
	accountService        *service.AccountService
	clientService         *service.ClientService
	authenticationService *service.ClientAuthenticationService
	assembler             *service.Assembler

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "castellan",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Pepper for credential hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()

	if err := app.bootstrap(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("admin service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down admin service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("admin service stopped")
	return nil
}

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

func (app *Application) initServices() {
	app.clientCache = cache.NewClientCache()

	app.referenceServices = make(map[domain.Kind]*service.ReferenceService, len(domain.Kinds()))
	for _, kind := range domain.Kinds() {
		app.referenceServices[kind] = service.NewReferenceService(app.db, app.clientCache, kind)
	}

	app.accountService = service.NewAccountService(app.db)
	app.clientService = service.NewClientService(app.db, app.clientCache)
	app.authenticationService = &service.ClientAuthenticationService{
		Store: app.db,
		Cache: app.clientCache,
	}
	app.assembler = &service.Assembler{
		Audiences:   app.referenceServices[domain.KindAudience],
		Scopes:      app.referenceServices[domain.KindScope],
		GrantTypes:  app.referenceServices[domain.KindGrantType],
		Authorities: app.referenceServices[domain.KindAuthority],
		Roles:       app.referenceServices[domain.KindRole],
	}
}

func (app *Application) initHTTP() {
	app.router = httpapi.NewRouter(BuildVersion, app.db, app.logger)
	app.router.ReferenceServices = app.referenceServices
	app.router.AccountService = app.accountService
	app.router.ClientService = app.clientService
	app.router.AuthenticationService = app.authenticationService
	app.router.Assembler = app.assembler
	app.router.ApplyRoutes()

	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: app.router,
	}
}

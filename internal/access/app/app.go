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

	"github.com/relaysuite/trustcore/internal/access/gate"
	accesshttp "github.com/relaysuite/trustcore/internal/access/http"
	"github.com/relaysuite/trustcore/internal/access/store/drivers/sqlite"
	"github.com/relaysuite/trustcore/internal/access/token"
	"github.com/relaysuite/trustcore/pkg/cryptox"
	"github.com/relaysuite/trustcore/pkg/jwtx"
	"github.com/relaysuite/trustcore/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application wires the store, token service, gate and HTTP server together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db *sqlite.Store

	tokens  *token.Service
	gate    *gate.Gate
	sweeper *token.Sweeper

	server *http.Server
	router *accesshttp.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "trustcore",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.sweeper.Start()

	app.logger.Info("trustcore starting", "port", app.cfg.Port, "version", BuildVersion)

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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down trustcore...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.sweeper.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("trustcore stopped")
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

// initServices initializes the token service, gate and revocation sweeper
func (app *Application) initServices() error {
	signer, err := initSigner(app.cfg, app.logger)
	if err != nil {
		return err
	}

	verifier, err := jwtx.NewVerifier(signer, jwtx.VerifyOptions{
		Issuer:   app.cfg.Issuer,
		Audience: app.cfg.Audience,
	})
	if err != nil {
		return err
	}

	pepper, err := cryptox.LoadOrGeneratePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}

	users := app.db.Users()

	app.tokens = &token.Service{
		Signer:   signer,
		Verifier: verifier,
		Users:    users,
		Revoked:  token.NewMemoryRevocationStore(),
		Hasher:   cryptox.NewArgon2Hasher(pepper),
		Issuer:   app.cfg.Issuer,
		Audience: app.cfg.Audience,
	}

	app.gate = &gate.Gate{
		Strategies: []gate.Strategy{
			&gate.BearerStrategy{Tokens: app.tokens},
			&gate.APIKeyStrategy{Users: users},
		},
		Users: users,
	}

	app.sweeper = token.NewSweeper(app.tokens, app.logger, app.cfg.SweepInterval)

	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := accesshttp.NewRouter(app.tokens, app.gate, BuildVersion, app.logger)
	router.Store = app.db
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

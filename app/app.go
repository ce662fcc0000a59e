package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/putto11262002/websession/core"
	"github.com/putto11262002/websession/pkg/logger"
	"github.com/putto11262002/websession/pkg/router"
	"github.com/putto11262002/websession/pkg/token"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *Config
	db      *core.SQLiteDB
	context context.Context
	server  *http.Server
	logger  *slog.Logger
	router  *router.Router

	userStore core.UserStore
	tokens    *token.Service
	sessions  *core.SessionService

	authHandler *AuthHandler

	cleanupFuncs []func(context.Context)
}

// New wires the application from config. The database is opened and migrated
// here, the server is only started by Start.
func New(ctx context.Context, config *Config) (*App, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config:\n%s", FormatValidationErrors(err))
	}

	app := &App{
		config:  config,
		context: ctx,
		logger: logger.New(logger.Options{
			Level: config.LogLevel,
			JSON:  config.Production(),
		}),
	}

	var err error
	app.db, err = core.NewSQLiteDB(config.Database.DSN, config.Database.Migrations, &core.SQLiteDBOption{
		Mode:            "rwc",
		JournalMode:     "WAL",
		MaxOpenConns:    config.Database.MaxOpenConns,
		ConnMaxLifetime: config.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	app.AddCleanupFunc(func(ctx context.Context) {
		app.db.Close()
	})
	if err := app.db.Migrate(); err != nil {
		app.db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	app.tokens, err = token.NewService(token.Options{Secret: []byte(config.Auth.Secret)})
	if err != nil {
		app.db.Close()
		return nil, fmt.Errorf("token service: %w", err)
	}
	app.userStore = core.NewSQLiteUserStore(app.db.DB)
	app.sessions = core.NewSessionService(app.userStore, app.tokens, core.SessionOptions{
		Secure: config.Production(),
		Logger: app.logger,
	})
	app.authHandler = NewAuthHandler(app.sessions)

	app.mountHandlers()

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
		BaseContext: func(listener net.Listener) context.Context {
			return app.context
		},
	}
	if config.Production() {
		app.server.TLSConfig = productionTLSConfig()
	}

	return app, nil
}

func mapCoreError(err error) router.Error {
	return router.NewJsonError(core.StatusCode(err), err.Error())
}

func (app *App) mountHandlers() {
	app.router = router.New(router.WithLogger(app.logger))

	app.router.Router.Use(RequestID)
	app.router.Router.Use(middleware.Recoverer)
	app.router.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{app.config.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
	}))

	api := router.New(router.WithLogger(app.logger))
	api.RegisterErrorMapper(core.ErrValidation, mapCoreError)
	api.RegisterErrorMapper(core.ErrUnauthenticated, mapCoreError)

	api.Post("/login", app.authHandler.LoginHandler)
	api.Post("/logout", app.authHandler.LogoutHandler)
	api.With(core.SessionMiddleware(app.sessions)).Get("/me", app.authHandler.MeHandler)

	app.router.Mount("/api", api)
}

// Handler returns the root HTTP handler.
func (app *App) Handler() http.Handler {
	return app.router
}

// Start serves until the app context is cancelled, then shuts down gracefully.
func (app *App) Start() error {
	app.AddCleanupFunc(func(ctx context.Context) {
		if err := app.server.Shutdown(ctx); err != nil {
			app.logger.Error("server shutdown", slog.String("error", err.Error()))
		}
	})

	serveErr := make(chan error, 1)
	go func() {
		app.logger.Info(fmt.Sprintf("app running in %s mode on: %s", app.config.Environment, app.server.Addr))

		var err error
		if app.config.TLS.Key != "" && app.config.TLS.Crt != "" {
			err = app.server.ListenAndServeTLS(app.config.TLS.Crt, app.config.TLS.Key)
		} else {
			err = app.server.ListenAndServe()
		}
		serveErr <- err
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.cleanup()
			return fmt.Errorf("server error: %w", err)
		}
	case <-app.context.Done():
	}

	return app.cleanup()
}

func (app *App) cleanup() error {
	closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer closeCancel()

	// the server shutdown was added last and must run before the database closes
	done := make(chan struct{})
	go func() {
		for i := len(app.cleanupFuncs) - 1; i >= 0; i-- {
			app.cleanupFuncs[i](closeCtx)
		}
		close(done)
	}()

	select {
	case <-done:
		app.logger.Info("app shutdown gracefully")
		return nil
	case <-closeCtx.Done():
		app.logger.Error("app shutdown timed out")
		return closeCtx.Err()
	}
}

func (app *App) AddCleanupFunc(f func(context.Context)) {
	app.cleanupFuncs = append(app.cleanupFuncs, f)
}

// Close releases resources of an app that was never started.
func (app *App) Close() error {
	return app.db.Close()
}

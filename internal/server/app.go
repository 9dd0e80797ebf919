// Package server wires the tourbook server together: it opens the
// database, runs migrations, builds repositories, services and the HTTP
// API, and serves until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/tourbook/internal/clock"
	"github.com/dmitrijs2005/tourbook/internal/logging"
	"github.com/dmitrijs2005/tourbook/internal/server/auth"
	"github.com/dmitrijs2005/tourbook/internal/server/config"
	"github.com/dmitrijs2005/tourbook/internal/server/httpapi"
	"github.com/dmitrijs2005/tourbook/internal/server/mail"
	"github.com/dmitrijs2005/tourbook/internal/server/models"
	"github.com/dmitrijs2005/tourbook/internal/server/ratelimit"
	"github.com/dmitrijs2005/tourbook/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tourbook/internal/server/services"
	"github.com/hashicorp/go-multierror"
	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler http.Handler
	closers []func() error
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)
	ctx := context.Background()

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}
	app.closers = append(app.closers, db.Close)

	sender, err := app.newMailSender()
	if err != nil {
		_ = app.close()
		return nil, err
	}

	app.handler = app.buildHandler(rm, sqlx.NewDb(db, "pgx"), sender)
	return app, nil
}

// newMailSender publishes to RabbitMQ when an AMQP URL is configured and
// falls back to logging the messages otherwise.
func (app *App) newMailSender() (mail.Sender, error) {
	if app.config.AMQPURL == "" {
		app.logger.Warn(context.Background(), "no AMQP URL configured, mail is only logged")
		return mail.NewLogSender(app.logger), nil
	}
	s, err := mail.DialAMQP(app.config.AMQPURL, app.config.MailExchange, clock.Real())
	if err != nil {
		return nil, fmt.Errorf("mail init error: %w", err)
	}
	app.closers = append(app.closers, s.Close)
	return s, nil
}

func (app *App) buildHandler(rm repomanager.RepositoryManager, xdb *sqlx.DB, sender mail.Sender) http.Handler {
	c := app.config
	clk := clock.Real()

	tokens := auth.NewTokenService(c.SecretKey, c.AccessTokenValidityDuration, clk)
	deps := services.Deps{
		DB:          app.db,
		RepoManager: rm,
		Tokens:      tokens,
		Hasher:      auth.NewHasher(c.BcryptCost, c.HashWorkers),
		Mail:        sender,
		Clock:       clk,
		Log:         app.logger,
		PublicURL:   c.PublicURL,
	}

	api := httpapi.New(httpapi.Options{
		Log:     app.logger,
		Clock:   clk,
		Guard:   auth.NewGuard(tokens, rm.Users(app.db)),
		Limiter: ratelimit.New(c.RateLimitMax, c.RateLimitWindow, clk),

		Auth:    services.NewAuthService(deps),
		Reset:   services.NewResetFlow(deps, c.ResetTokenValidityDuration),
		Profile: services.NewProfileService(deps),

		Users:    services.NewResourceService[models.User](rm.UserDocuments(xdb)),
		Tours:    services.NewResourceService[models.Tour](rm.Tours(xdb)),
		Reviews:  services.NewResourceService[models.Review](rm.Reviews(xdb)),
		Bookings: services.NewResourceService[models.Booking](rm.Bookings(xdb)),

		CookieValidity: c.CookieValidityDuration,
		Production:     c.IsProduction(),
		TrustProxy:     c.TrustProxy,
		PublicURL:      c.PublicURL,
	})
	return api.Handler()
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "HTTP server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.close(); err != nil {
		app.logger.Error(context.Background(), "close resources", "error", err)
	}
	app.logger.Info(context.Background(), "Stopped")
}

// close releases resources in reverse order of acquisition.
func (app *App) close() error {
	var result *multierror.Error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

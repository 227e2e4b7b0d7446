package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"

	"github.com/trussworks/userauth"
	"github.com/trussworks/userauth/pkg/config"
	"github.com/trussworks/userauth/pkg/credentials"
	"github.com/trussworks/userauth/pkg/domain"
	"github.com/trussworks/userauth/pkg/logger"
	"github.com/trussworks/userauth/pkg/userstore"
)

// This is a server for exercising the auth flows.
//
// POST   /api/v1/auth_session/login   -- email & password form, sets the session cookie
// DELETE /api/v1/auth_session/logout  -- destroys the session
// GET    /api/v1/users/me             -- the authenticated user
// GET    /api/v1/status               -- always public

const shutdownTimeout = 10 * time.Second

type app struct {
	userAuth *userauth.UserAuth
	db       *sqlx.DB
}

func (a app) Close() error {
	err := a.userAuth.Close()
	if a.db != nil {
		// sql.DB.Close is idempotent, the postgres session store may have closed it already
		a.db.Close()
	}
	return err
}

// newApp wires the user repository, the credential verifier and the configured strategy.
func newApp(ctx context.Context, cfg config.Config, log domain.LogService) (app, error) {
	var (
		db    *sqlx.DB
		users domain.UserRepository = userstore.NewMemoryStore()
	)

	if cfg.UsesPostgres() {
		var err error
		db, err = sqlx.Open("postgres", cfg.DatabaseURL())
		if err != nil {
			return app{}, pkgerrors.Wrap(err, "error connecting to database using sqlx.Open")
		}
	}

	if cfg.UserStore == config.StorePostgres {
		sqlUsers := userstore.NewSQLStore(db)
		if err := sqlUsers.Migrate(ctx); err != nil {
			db.Close()
			return app{}, err
		}
		users = sqlUsers
	}

	userAuth, err := userauth.New(ctx, cfg, users, credentials.NewBcryptVerifier(),
		userauth.CustomLogger(log),
		userauth.WithDatabase(db),
	)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return app{}, err
	}

	return app{userAuth: userAuth, db: db}, nil
}

func run(ctx context.Context, cfg config.Config, log domain.LogService) error {
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	server := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           a.userAuth.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Listening", domain.LogFields{"addr": cfg.ListenAddr(), "auth_type": string(cfg.AuthType)})
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down", domain.LogFields{})
	return server.Shutdown(shutdownCtx)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewLogger("json").WarnError("invalid configuration", err, domain.LogFields{})
		os.Exit(1)
	}

	log := logger.NewRedactingLogger(logger.NewLogger(cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WarnError("server exited", err, domain.LogFields{})
		os.Exit(1)
	}
}

package userauth

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trussworks/userauth/pkg/auth"
	"github.com/trussworks/userauth/pkg/config"
	"github.com/trussworks/userauth/pkg/cookie"
	"github.com/trussworks/userauth/pkg/dbstore"
	"github.com/trussworks/userauth/pkg/domain"
	"github.com/trussworks/userauth/pkg/memstore"
	"github.com/trussworks/userauth/pkg/redisstore"
	"github.com/trussworks/userauth/pkg/scsstore"
	"github.com/trussworks/userauth/pkg/session"
)

// New builds the strategy named by cfg.AuthType over users and verifier.
// Session strategies open their storage here; call Close when done.
func New(ctx context.Context, cfg config.Config, users domain.UserRepository, verifier domain.CredentialVerifier, options ...Option) (*UserAuth, error) {
	if users == nil || verifier == nil {
		return nil, errors.New("a user repository and a credential verifier are required")
	}

	a := &UserAuth{
		cfg:          cfg,
		log:          newDefaultLogger(cfg.LogFormat),
		errorHandler: newDefaultErrorHandler(),
		users:        users,
		verifier:     verifier,
	}

	for _, option := range options {
		if err := option(a); err != nil {
			return nil, err
		}
	}

	a.accounts = auth.NewAccounts(users, verifier, a.log)

	switch cfg.AuthType {
	case config.AuthBasic:
		a.authenticator = auth.NewBasicAuth(users, verifier, a.log)
	case config.AuthSession, config.AuthSessionExp, config.AuthSessionDB:
		if err := a.setupSessions(ctx); err != nil {
			return nil, err
		}
		a.authenticator = a.sessionAuth
	default:
		a.authenticator = auth.NoAuth{}
	}

	return a, nil
}

func (a *UserAuth) setupSessions(ctx context.Context) error {
	store, err := a.sessionStore(ctx)
	if err != nil {
		return err
	}

	sessionOptions := []session.Option{}
	// session_auth keeps sessions until logout, the expiring strategies honor SESSION_DURATION.
	if a.cfg.AuthType != config.AuthSession {
		sessionOptions = append(sessionOptions, session.WithExpiration(session.ExpireAfter(a.cfg.SessionDuration)))
	}
	if a.clock != nil {
		sessionOptions = append(sessionOptions, session.WithClock(a.clock))
	}

	a.sessions = session.NewSessionService(store, a.log, sessionOptions...)
	cookies := cookie.NewService(a.cfg.SessionName, a.cfg.CookieSecure, a.cfg.CookieHashKey)
	a.sessionAuth = auth.NewSessionAuth(a.sessions, a.users, a.verifier, cookies, a.log)

	return nil
}

// retention is how long a backend keeps a session record. session_auth records are kept until logout.
func (a *UserAuth) retention() time.Duration {
	if a.cfg.AuthType == config.AuthSession {
		return 0
	}
	return a.cfg.SessionDuration
}

// sessionStore returns the storage named by cfg.SessionStore.
func (a *UserAuth) sessionStore(ctx context.Context) (domain.SessionStorageService, error) {
	if a.store != nil {
		return a.store, nil
	}

	switch a.cfg.SessionStore {
	case config.StoreSCS:
		return scsstore.NewMemorySCSStore(a.retention()), nil

	case config.StoreRedis:
		client := a.redis
		if client == nil {
			var err error
			client, err = redisstore.Connect(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword)
			if err != nil {
				return nil, domain.Unavailable(errors.Wrap(err, "failed to connect to redis"))
			}
		}
		return redisstore.NewRedisStore(client, a.retention()), nil

	case config.StorePostgres:
		db := a.db
		if db == nil {
			var err error
			db, err = sqlx.Open("postgres", a.cfg.DatabaseURL())
			if err != nil {
				return nil, errors.Wrap(err, "error connecting to database using sqlx.Open")
			}
		}
		if err := dbstore.Migrate(ctx, db); err != nil {
			return nil, domain.Unavailable(err)
		}
		return dbstore.NewDBStore(db), nil
	}

	return memstore.NewMemStore(), nil
}

// Option configures a UserAuth
type Option func(*UserAuth) error

// CustomLogger replaces the default zerolog logger
func CustomLogger(log domain.LogService) Option {
	return func(a *UserAuth) error {
		if log == nil {
			return errors.New("the logger cannot be nil")
		}
		a.log = log
		return nil
	}
}

// CustomErrorHandler replaces the handler the gate calls when it rejects a request.
// Use ErrorFromContext inside it to find out why.
func CustomErrorHandler(errorHandler http.Handler) Option {
	return func(a *UserAuth) error {
		a.errorHandler = errorHandler
		return nil
	}
}

// CustomClock replaces the clock used to stamp and expire sessions
func CustomClock(clock session.Clock) Option {
	return func(a *UserAuth) error {
		a.clock = clock
		return nil
	}
}

// WithDatabase makes the postgres session store use db instead of opening its own connection
func WithDatabase(db *sqlx.DB) Option {
	return func(a *UserAuth) error {
		a.db = db
		return nil
	}
}

// WithRedisClient makes the redis session store use client instead of dialing REDIS_ADDR
func WithRedisClient(client *redis.Client) Option {
	return func(a *UserAuth) error {
		a.redis = client
		return nil
	}
}

// WithSessionStore overrides SESSION_STORE with store
func WithSessionStore(store domain.SessionStorageService) Option {
	return func(a *UserAuth) error {
		a.store = store
		return nil
	}
}

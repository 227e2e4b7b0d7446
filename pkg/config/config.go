// Package config reads process configuration from the environment.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/trussworks/userauth/pkg/cookie"
	"github.com/trussworks/userauth/pkg/dbstore"
	"github.com/trussworks/userauth/pkg/pathpolicy"
)

// AuthType selects the authentication strategy
type AuthType string

// Supported AUTH_TYPE values
const (
	AuthNone       AuthType = "none"
	AuthBasic      AuthType = "basic_auth"
	AuthSession    AuthType = "session_auth"
	AuthSessionExp AuthType = "session_exp_auth"
	AuthSessionDB  AuthType = "session_db_auth"
)

const (
	defaultAuthType = AuthNone

	// AUTH_TYPE=auth names the base strategy, which authenticates nothing
	legacyAuthTypeNone = "auth"
)

// StoreType selects the session storage backend
type StoreType string

// Supported SESSION_STORE values
const (
	StoreMemory   StoreType = "memory"
	StoreSCS      StoreType = "scs"
	StoreRedis    StoreType = "redis"
	StorePostgres StoreType = "postgres"
)

// DefaultExcludedPaths are the routes that never require authentication
var DefaultExcludedPaths = []string{
	"/api/v1/status/",
	"/api/v1/unauthorized/",
	"/api/v1/forbidden/",
	"/api/v1/auth_session/login/",
	"/api/v1/reset_password/",
}

// Config is the full process configuration
type Config struct {
	AuthType        AuthType
	SessionName     string
	SessionDuration time.Duration
	SessionStore    StoreType
	UserStore       StoreType
	CookieSecure    bool
	CookieHashKey   []byte
	ExcludedPaths   []string

	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string
	DatabaseSSLMode  string

	RedisAddr     string
	RedisPassword string

	APIHost   string
	APIPort   string
	LogFormat string
}

// DatabaseURL returns the postgres connection string
func (c Config) DatabaseURL() string {
	return dbstore.DSN(c.DatabaseHost, c.DatabasePort, c.DatabaseName, c.DatabaseUser, c.DatabasePassword, c.DatabaseSSLMode)
}

// ListenAddr returns host:port for the API server
func (c Config) ListenAddr() string {
	return c.APIHost + ":" + c.APIPort
}

// UsesPostgres reports whether sessions or users live in postgres
func (c Config) UsesPostgres() bool {
	return c.SessionStore == StorePostgres || c.UserStore == StorePostgres
}

// UsesSessions reports whether the strategy is cookie-session based
func (c Config) UsesSessions() bool {
	return c.AuthType == AuthSession || c.AuthType == AuthSessionExp || c.AuthType == AuthSessionDB
}

// Load reads the optional .env files, then the environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	for _, f := range envFiles {
		if _, statErr := os.Stat(f); statErr != nil {
			continue
		}
		// godotenv.Load never overrides variables that are already set.
		if err := godotenv.Load(f); err != nil {
			return Config{}, errors.Wrapf(err, "failed to load %s", f)
		}
	}

	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from a lookup function shaped like os.LookupEnv.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(key string, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	cfg := Config{
		SessionName:      get("SESSION_NAME", cookie.DefaultName),
		DatabaseHost:     get("DATABASE_HOST", "localhost"),
		DatabasePort:     get("DATABASE_PORT", "5432"),
		DatabaseName:     get("DATABASE_NAME", "userauth"),
		DatabaseUser:     get("DATABASE_USER", "postgres"),
		DatabasePassword: get("DATABASE_PASSWORD", ""),
		DatabaseSSLMode:  get("DATABASE_SSL_MODE", "disable"),
		RedisAddr:        get("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    get("REDIS_PASSWORD", ""),
		APIHost:          get("API_HOST", "0.0.0.0"),
		APIPort:          get("API_PORT", "5000"),
		LogFormat:        get("LOG_FORMAT", "json"),
	}

	authType, err := parseAuthType(get("AUTH_TYPE", string(defaultAuthType)))
	if err != nil {
		return Config{}, err
	}
	cfg.AuthType = authType

	cfg.SessionDuration = parseDuration(get("SESSION_DURATION", "0"))

	store, err := parseStoreType(get("SESSION_STORE", string(StoreMemory)))
	if err != nil {
		return Config{}, err
	}
	if cfg.AuthType == AuthSessionDB {
		store = StorePostgres
	}
	cfg.SessionStore = store

	userStore, err := parseStoreType(get("USER_STORE", string(StoreMemory)))
	if err != nil {
		return Config{}, err
	}
	if userStore != StoreMemory && userStore != StorePostgres {
		return Config{}, fmt.Errorf("USER_STORE must be memory or postgres, not %q", userStore)
	}
	cfg.UserStore = userStore

	cfg.CookieSecure, err = parseBool("COOKIE_SECURE", get("COOKIE_SECURE", "false"))
	if err != nil {
		return Config{}, err
	}

	if hashKey := get("COOKIE_HASH_KEY", ""); hashKey != "" {
		cfg.CookieHashKey, err = hex.DecodeString(hashKey)
		if err != nil {
			return Config{}, errors.Wrap(err, "COOKIE_HASH_KEY must be hex encoded")
		}
	}

	cfg.ExcludedPaths = DefaultExcludedPaths
	if list, ok := lookup("EXCLUDED_PATHS"); ok {
		cfg.ExcludedPaths, err = pathpolicy.Parse(list)
		if err != nil {
			return Config{}, errors.Wrap(err, "invalid EXCLUDED_PATHS")
		}
	}

	switch cfg.LogFormat {
	case "json", "console":
	default:
		return Config{}, fmt.Errorf("unknown LOG_FORMAT %q", cfg.LogFormat)
	}

	return cfg, nil
}

func parseAuthType(value string) (AuthType, error) {
	if value == legacyAuthTypeNone {
		return AuthNone, nil
	}

	switch t := AuthType(strings.ToLower(value)); t {
	case AuthNone, AuthBasic, AuthSession, AuthSessionExp, AuthSessionDB:
		return t, nil
	}
	return "", fmt.Errorf("unknown AUTH_TYPE %q", value)
}

func parseStoreType(value string) (StoreType, error) {
	switch t := StoreType(strings.ToLower(value)); t {
	case StoreMemory, StoreSCS, StoreRedis, StorePostgres:
		return t, nil
	}
	return "", fmt.Errorf("unknown SESSION_STORE %q", value)
}

// parseDuration reads whole seconds. Anything unparsable means no expiration.
func parseDuration(value string) time.Duration {
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func parseBool(key string, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, errors.Wrapf(err, "invalid %s", key)
	}
	return b, nil
}

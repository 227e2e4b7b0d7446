// Package redisstore keeps sessions in redis as JSON values.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trussworks/userauth/pkg/domain"
)

// RedisStore is a SessionStorageService backed by redis.
type RedisStore struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
}

// NewRedisStore wraps client. Keys are kept for retention after creation, or forever when
// retention <= 0. Retention only reclaims storage; expiration is judged by the session service.
func NewRedisStore(client *redis.Client, retention time.Duration) *RedisStore {
	return &RedisStore{
		client:    client,
		prefix:    "session:",
		retention: retention,
	}
}

// Connect opens a client and pings it.
func Connect(ctx context.Context, addr string, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

func (r *RedisStore) key(sessionKey string) string {
	return r.prefix + sessionKey
}

// Close closes the client
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// CreateSession stores a session with SETNX so an existing key is never overwritten.
func (r *RedisStore) CreateSession(ctx context.Context, session domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}

	ttl := time.Duration(0)
	if r.retention > 0 {
		ttl = r.retention
	}

	created, err := r.client.SetNX(ctx, r.key(session.SessionKey), data, ttl).Result()
	if err != nil {
		return err
	}
	if !created {
		return domain.ErrSessionExists
	}

	return nil
}

// FetchSession returns a stored session
func (r *RedisStore) FetchSession(ctx context.Context, sessionKey string) (domain.Session, error) {
	val, err := r.client.Get(ctx, r.key(sessionKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, domain.ErrValidSessionNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}

	var session domain.Session
	if err := json.Unmarshal(val, &session); err != nil {
		return domain.Session{}, fmt.Errorf("session: failed to unmarshal: %w", err)
	}

	return session, nil
}

// DeleteSession deletes a stored session, reporting ErrValidSessionNotFound if there was none.
func (r *RedisStore) DeleteSession(ctx context.Context, sessionKey string) error {
	deleted, err := r.client.Del(ctx, r.key(sessionKey)).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return domain.ErrValidSessionNotFound
	}

	return nil
}

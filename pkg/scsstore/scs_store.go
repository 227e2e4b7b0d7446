// Package scsstore stores sessions in any scs.Store, the storage interface of
// github.com/alexedwards/scs. The in-memory scs store is used unless another is given.
package scsstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/trussworks/userauth/pkg/domain"
)

// farFuture is handed to scs as the expiry of records that should outlive the process.
var farFuture = time.Date(9999, time.January, 1, 0, 0, 0, 0, time.UTC)

// SCSStore adapts an scs.Store to a SessionStorageService.
type SCSStore struct {
	// scs.Store has no insert-if-absent or delete-reporting-absence, so those are serialized here.
	mu        sync.Mutex
	store     scs.Store
	retention time.Duration
	stop      func()
}

// NewSCSStore wraps store. Records are kept by scs for retention after creation, or forever
// when retention <= 0. Retention only reclaims storage; expiration is judged by the session service.
func NewSCSStore(store scs.Store, retention time.Duration) *SCSStore {
	return &SCSStore{
		store:     store,
		retention: retention,
	}
}

// NewMemorySCSStore returns an SCSStore over scs's memstore, without a background cleanup.
func NewMemorySCSStore(retention time.Duration) *SCSStore {
	mem := memstore.NewWithCleanupInterval(0)
	s := NewSCSStore(mem, retention)
	s.stop = mem.StopCleanup
	return s
}

// Close stops the memstore cleanup, if one is running
func (s *SCSStore) Close() error {
	if s.stop != nil {
		s.stop()
	}
	return nil
}

func (s *SCSStore) expiry(createdAt time.Time) time.Time {
	if s.retention <= 0 || createdAt.IsZero() {
		return farFuture
	}
	return createdAt.Add(s.retention)
}

// CreateSession commits a new record, failing with ErrSessionExists if the key is taken.
func (s *SCSStore) CreateSession(ctx context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, found, err := s.store.Find(session.SessionKey)
	if err != nil {
		return fmt.Errorf("Failed to check for an existing session: %w", err)
	}
	if found {
		return domain.ErrSessionExists
	}

	b, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("Failed to encode session: %w", err)
	}

	if err := s.store.Commit(session.SessionKey, b, s.expiry(session.CreatedAt)); err != nil {
		return fmt.Errorf("Failed to commit session: %w", err)
	}

	return nil
}

// FetchSession finds and decodes a record
func (s *SCSStore) FetchSession(ctx context.Context, sessionKey string) (domain.Session, error) {
	b, found, err := s.store.Find(sessionKey)
	if err != nil {
		return domain.Session{}, fmt.Errorf("Failed to find session: %w", err)
	}
	if !found {
		return domain.Session{}, domain.ErrValidSessionNotFound
	}

	var session domain.Session
	if err := json.Unmarshal(b, &session); err != nil {
		return domain.Session{}, fmt.Errorf("Failed to decode session: %w", err)
	}

	return session, nil
}

// DeleteSession deletes a record, reporting ErrValidSessionNotFound if there was none.
func (s *SCSStore) DeleteSession(ctx context.Context, sessionKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, found, err := s.store.Find(sessionKey)
	if err != nil {
		return fmt.Errorf("Failed to find session: %w", err)
	}
	if !found {
		return domain.ErrValidSessionNotFound
	}

	if err := s.store.Delete(sessionKey); err != nil {
		return fmt.Errorf("Failed to delete session: %w", err)
	}

	return nil
}

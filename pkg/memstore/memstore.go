// Package memstore keeps sessions in process memory.
package memstore

import (
	"context"
	"sync"

	"github.com/trussworks/userauth/pkg/domain"
)

// MemStore is a session store backed by a map. It is safe for concurrent use.
// Records are only ever removed by DeleteSession.
type MemStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

// NewMemStore returns an empty MemStore
func NewMemStore() *MemStore {
	return &MemStore{
		sessions: map[string]domain.Session{},
	}
}

// Close is a no-op
func (m *MemStore) Close() error {
	return nil
}

// CreateSession stores a session, failing with ErrSessionExists if the key is taken.
func (m *MemStore) CreateSession(ctx context.Context, session domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[session.SessionKey]; exists {
		return domain.ErrSessionExists
	}
	m.sessions[session.SessionKey] = session

	return nil
}

// FetchSession returns a copy of the stored session.
func (m *MemStore) FetchSession(ctx context.Context, sessionKey string) (domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[sessionKey]
	if !ok {
		return domain.Session{}, domain.ErrValidSessionNotFound
	}

	return session, nil
}

// DeleteSession removes a session record
func (m *MemStore) DeleteSession(ctx context.Context, sessionKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionKey]; !ok {
		return domain.ErrValidSessionNotFound
	}
	delete(m.sessions, sessionKey)

	return nil
}

// Len returns the number of stored records, expired or not.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

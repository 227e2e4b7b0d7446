// Package userstore holds user records, in memory or in postgres.
package userstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trussworks/userauth/pkg/domain"
)

func validateFields(fields map[string]string) error {
	for name := range fields {
		if !domain.IsUserField(name) {
			return domain.ErrUnknownField
		}
	}
	return nil
}

func matches(user domain.User, filter domain.Filter) bool {
	for name, want := range filter {
		got, _ := user.Field(name)
		if got != want {
			return false
		}
	}
	return true
}

// MemoryStore is a UserRepository kept in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]domain.User
	now   func() time.Time
}

// NewMemoryStore returns an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: map[string]domain.User{},
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Find returns every user matching filter, oldest first. An empty filter matches everyone.
func (m *MemoryStore) Find(ctx context.Context, filter domain.Filter) ([]domain.User, error) {
	if err := validateFields(filter); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	found := []domain.User{}
	for _, user := range m.users {
		if matches(user, filter) {
			found = append(found, user)
		}
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].CreatedAt.Equal(found[j].CreatedAt) {
			return found[i].ID < found[j].ID
		}
		return found[i].CreatedAt.Before(found[j].CreatedAt)
	})

	return found, nil
}

// Get returns the user with id, or ErrUserNotFound
func (m *MemoryStore) Get(ctx context.Context, id string) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

// Create stores user under a new id, stamping its creation time.
func (m *MemoryStore) Create(ctx context.Context, user domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user.ID = uuid.New().String()
	user.CreatedAt = m.now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = user

	return user, nil
}

// Update assigns fields on the user with id
func (m *MemoryStore) Update(ctx context.Context, id string, fields domain.Fields) error {
	if err := validateFields(fields); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}

	for name, value := range fields {
		if err := user.SetField(name, value); err != nil {
			return err
		}
	}
	user.UpdatedAt = m.now()
	m.users[id] = user

	return nil
}

// Delete removes the user with id
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(m.users, id)

	return nil
}

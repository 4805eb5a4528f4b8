// Package session holds the authenticated user's credentials in local
// key-value storage. The token and the user profile always move together:
// a reader must never observe one without the other.
package session

import "sync"

// User is the profile stored alongside the bearer token.
type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
	AccessRole string `json:"access_role,omitempty"`
}

// Session is a bearer token plus the profile it belongs to.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Store persists at most one session. Save and Clear write the token and
// profile atomically.
type Store interface {
	Save(s Session) error
	Load() (Session, bool, error)
	Clear() error
}

// MemoryStore is an in-memory implementation for testing.
type MemoryStore struct {
	mu      sync.RWMutex
	session Session
	present bool
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s
	m.present = true
	return nil
}

func (m *MemoryStore) Load() (Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session, m.present, nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = Session{}
	m.present = false
	return nil
}

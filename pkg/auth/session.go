package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSessionNotFound is returned when no stored session exists
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidSession is returned when the session value is empty
	ErrInvalidSession = errors.New("invalid session")
)

// Session holds the platform credential for a crawl run
type Session struct {
	// Cookie is the PHPSESSID cookie value
	Cookie       string    `json:"cookie"`
	UserAgent    string    `json:"user_agent,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// SessionStore is the interface for storing and retrieving the session
type SessionStore interface {
	// Store saves the session
	Store(session *Session) error

	// Retrieve gets the stored session
	Retrieve() (*Session, error)

	// Delete removes the stored session
	Delete() error

	// Exists checks if a session is stored
	Exists() bool
}

// Manager handles session storage with fallback mechanisms
type Manager struct {
	stores []SessionStore
}

// NewManager creates a new session manager with appropriate storage backends.
// The system keychain is preferred; environment variables are the fallback
// for headless machines and CI.
func NewManager() (*Manager, error) {
	var stores []SessionStore

	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// Store saves the session using the first available store
func (m *Manager) Store(session *Session) error {
	if session == nil || session.Cookie == "" {
		return ErrInvalidSession
	}

	session.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(session); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store session: %w", lastErr)
	}
	return errors.New("no available session stores")
}

// Retrieve gets the session from the first store that has it
func (m *Manager) Retrieve() (*Session, error) {
	for _, store := range m.stores {
		session, err := store.Retrieve()
		if err == nil {
			return session, nil
		}
	}
	return nil, ErrSessionNotFound
}

// Delete removes the session from every store that has it
func (m *Manager) Delete() error {
	deleted := false
	for _, store := range m.stores {
		if store.Exists() {
			if err := store.Delete(); err == nil {
				deleted = true
			}
		}
	}
	if !deleted {
		return ErrSessionNotFound
	}
	return nil
}

// Exists checks whether any store holds a session
func (m *Manager) Exists() bool {
	for _, store := range m.stores {
		if store.Exists() {
			return true
		}
	}
	return false
}

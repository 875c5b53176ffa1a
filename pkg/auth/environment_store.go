package auth

import "os"

// EnvironmentStore implements SessionStore using environment variables.
// It is read-only: Store and Delete are not supported because the process
// cannot usefully mutate its parent environment.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based session store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for the environment store
func (e *EnvironmentStore) Store(session *Session) error {
	return ErrInvalidSession
}

// Retrieve gets the session from environment variables
func (e *EnvironmentStore) Retrieve() (*Session, error) {
	cookie := os.Getenv("PHPSESSID")
	if cookie == "" {
		cookie = os.Getenv("PIXIVARC_SESSION")
	}
	if cookie == "" {
		return nil, ErrSessionNotFound
	}

	return &Session{
		Cookie:    cookie,
		UserAgent: os.Getenv("PIXIVARC_USER_AGENT"),
	}, nil
}

// Delete is not supported for the environment store
func (e *EnvironmentStore) Delete() error {
	return ErrSessionNotFound
}

// Exists checks if a session is present in the environment
func (e *EnvironmentStore) Exists() bool {
	return os.Getenv("PHPSESSID") != "" || os.Getenv("PIXIVARC_SESSION") != ""
}

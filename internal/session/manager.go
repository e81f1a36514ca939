package session

import (
	"context"
	"sync"
)

// Manager is the single source of truth for "who is logged in". It keeps the
// token pair and the cached profile in memory and mirrors the tokens to a
// Store so a restart does not force re-login.
//
// The only writers of token state are SetSession, SetAccessToken, and Clear;
// no other component touches credentials directly.
type Manager struct {
	mu    sync.RWMutex
	store Store
	creds Credentials
	user  *Profile
}

// NewManager creates a Manager backed by the given store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Load pulls persisted credentials into memory. It does not fetch the user
// profile; resuming a session is the API client's job. A store without
// credentials leaves the manager empty and is not an error.
func (m *Manager) Load(ctx context.Context) error {
	creds, err := m.store.LoadCredentials(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if creds == nil {
		m.creds = Credentials{}
		return nil
	}
	m.creds = *creds
	return nil
}

// SetSession stores a freshly issued token pair and, when supplied, the user
// profile. A nil user leaves the profile untouched; callers that receive a
// token-only response fetch the profile separately and call SetUser.
func (m *Manager) SetSession(ctx context.Context, accessToken, refreshToken string, user *Profile) error {
	creds := Credentials{AccessToken: accessToken, RefreshToken: refreshToken}
	if err := m.store.SaveCredentials(ctx, &creds); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = creds
	if user != nil {
		m.user = user
	}
	return nil
}

// SetAccessToken replaces the access token after a successful refresh. The
// refresh token is kept as-is; the pair is re-persisted together.
func (m *Manager) SetAccessToken(ctx context.Context, accessToken string) error {
	m.mu.Lock()
	creds := Credentials{AccessToken: accessToken, RefreshToken: m.creds.RefreshToken}
	m.mu.Unlock()

	if err := m.store.SaveCredentials(ctx, &creds); err != nil {
		return err
	}

	m.mu.Lock()
	m.creds = creds
	m.mu.Unlock()
	return nil
}

// SetUser replaces the cached profile wholesale.
func (m *Manager) SetUser(user *Profile) {
	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
}

// User returns the cached profile, or nil when no user is set.
func (m *Manager) User() *Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// AccessToken returns the current access token, empty when logged out.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.AccessToken
}

// RefreshToken returns the current refresh token, empty when logged out.
func (m *Manager) RefreshToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds.RefreshToken
}

// IsAuthenticated reports whether a profile is set. A missing access token
// always means unauthenticated, even if a profile is still cached.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil && m.creds.AccessToken != ""
}

// Clear wipes the in-memory session and the persisted credentials. Clearing
// an already-empty session is a no-op.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.creds = Credentials{}
	m.user = nil
	m.mu.Unlock()

	return m.store.Clear(ctx)
}

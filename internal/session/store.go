// Package session holds the authenticated session: the access/refresh token
// pair persisted across runs, and the in-memory profile of the signed-in user.
package session

import (
	"context"
	"time"
)

// Tier is the subscription level of an account.
type Tier string

const (
	TierFree       Tier = "free"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
)

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierPremium, TierEnterprise:
		return true
	}
	return false
}

// Credentials is the token pair issued by the platform. The two tokens are
// always stored and cleared together, never independently.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Profile is the authenticated principal as returned by /users/me. It is
// replaced wholesale on every successful fetch, never partially mutated.
type Profile struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	FullName      string     `json:"full_name,omitempty"`
	Tier          Tier       `json:"tier"`
	IsActive      bool       `json:"is_active"`
	EmailVerified bool       `json:"email_verified"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
}

// Store persists credentials across process restarts.
type Store interface {
	// SaveCredentials stores the token pair, replacing any previous pair.
	SaveCredentials(ctx context.Context, creds *Credentials) error

	// LoadCredentials returns the stored token pair, or (nil, nil) when
	// nothing is stored.
	LoadCredentials(ctx context.Context) (*Credentials, error)

	// Clear removes any stored credentials. Clearing an empty store is not
	// an error.
	Clear(ctx context.Context) error

	Close() error
}

package service

import (
	"context"
	"time"

	"puffsocial/internal/domain/entity"

	"github.com/pkg/errors"
)

// ErrSessionNotFound is returned when a token has no live session in the cache.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore is the cache-backed store for live session tokens. Entries are
// written without a TTL; a session dies only on explicit revoke or cache
// flush, and a flush invalidating every session is an accepted trade-off.
type SessionStore interface {
	// PutSession stores the link field-set under the token.
	PutSession(ctx context.Context, token string, link entity.SessionLink) error

	// GetSession resolves a token, returning ErrSessionNotFound when absent.
	GetSession(ctx context.Context, token string) (entity.SessionLink, error)

	// DeleteSession revokes a token.
	DeleteSession(ctx context.Context, token string) error
}

// OAuthStateStore holds short-lived OAuth state nonces.
type OAuthStateStore interface {
	// PutState stores a state nonce with the given TTL.
	PutState(ctx context.Context, state string, ttl time.Duration) error

	// StateExists reports whether the state nonce is still live.
	StateExists(ctx context.Context, state string) (bool, error)

	// DeleteState consumes a state nonce.
	DeleteState(ctx context.Context, state string) error
}

// ProviderTokenStore caches upstream provider tokens so later calls on a
// user's behalf can reuse them until they expire upstream.
type ProviderTokenStore interface {
	// PutDiscordTokens stores a Discord access token expiring after expiresIn,
	// and its refresh token without expiry.
	PutDiscordTokens(ctx context.Context, platformID, accessToken, refreshToken string, expiresIn time.Duration) error

	// PutPuffcoTokens stores Puffco access/refresh tokens, each expiring at
	// the absolute time its JWT exp claim declares.
	PutPuffcoTokens(ctx context.Context, userID, accessToken string, accessExpiry time.Time, refreshToken string, refreshExpiry time.Time) error
}

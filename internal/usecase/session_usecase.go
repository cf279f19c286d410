package usecase

import (
	"context"

	"puffsocial/internal/domain/entity"
)

// IssueSessionInput describes the identity a new session token binds to.
// Exactly one of AccountID or ConnectionID is set.
type IssueSessionInput struct {
	UserID       string
	AccountID    string
	ConnectionID string
	IP           string
	UserAgent    string
}

// ResolvedSession is the live identity a session token maps to.
type ResolvedSession struct {
	User *entity.User

	// Connection is the provider link the session was established through,
	// nil for sessions backed by local credentials.
	Connection *entity.Connection

	AccountID string
}

// SessionUsecase brokers ephemeral session tokens. Tokens live in the cache
// only; the durable session table is a write-only audit trail.
type SessionUsecase interface {
	// Issue mints a token for the identity and records the audit row.
	Issue(ctx context.Context, input *IssueSessionInput) (string, error)

	// Resolve maps a token back to its user and provider connection.
	// An unknown token returns service.ErrSessionNotFound.
	Resolve(ctx context.Context, token string) (*ResolvedSession, error)

	// Revoke invalidates a token.
	Revoke(ctx context.Context, token string) error
}

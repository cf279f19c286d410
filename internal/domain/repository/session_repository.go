package repository

import (
	"context"

	"puffsocial/internal/domain/entity"
)

// SessionRepository persists the durable session audit trail. Live token
// resolution goes through the cache, never through this table.
type SessionRepository interface {
	// CreateSession records an issued session token with its origin metadata.
	CreateSession(ctx context.Context, session *entity.Session) error
}

// FeedbackRepository persists user-submitted feedback.
type FeedbackRepository interface {
	CreateFeedback(ctx context.Context, feedback *entity.Feedback) error
}

// DiagnosticsRepository persists device diagnostics reports.
type DiagnosticsRepository interface {
	CreateDiagnostics(ctx context.Context, diagnostics *entity.Diagnostics) error
}

package usecase

import (
	"context"

	"puffsocial/internal/domain/entity"
)

// TrackInput carries one signed tracking report plus its request metadata.
// Body is the raw ciphertext; decryption and signature verification happen
// inside the use case so no unverified payload ever reaches business logic.
type TrackInput struct {
	Body      []byte
	Signature string
	IP        string
	UserAgent string

	// Reporter is the authenticated user attached to the request, nil for
	// anonymous reports.
	Reporter *entity.User
}

// TrackOutput is the stored device state after applying a tracking report.
type TrackOutput struct {
	Device *entity.Device

	// Position is the device's leaderboard rank, nil while unranked.
	Position *int64
}

// DiagInput carries one signed diagnostics report.
type DiagInput struct {
	Body      []byte
	Signature string
	IP        string
	UserAgent string
}

// FeedbackInput carries one signed feedback submission.
type FeedbackInput struct {
	Body      []byte
	Signature string
	IP        string
}

// TelemetryUsecase ingests signed firmware telemetry.
type TelemetryUsecase interface {
	// Track verifies and applies a usage report: the device row is created
	// on first sight of the MAC, otherwise overwritten with the reported
	// state. Ownership follows the authenticated reporter.
	Track(ctx context.Context, input *TrackInput) (*TrackOutput, error)

	// Diag verifies and stores a diagnostics report, refreshing the heat
	// profiles and serial of the device when its MAC is already known.
	Diag(ctx context.Context, input *DiagInput) error

	// Feedback verifies and stores a feedback submission.
	Feedback(ctx context.Context, input *FeedbackInput) error
}

package usecase

import (
	"context"

	"puffsocial/internal/domain/entity"
)

// LeaderboardUsecase reads the device ranking projection.
type LeaderboardUsecase interface {
	// TopDevices returns the highest ranked owned devices. When byAverage is
	// set the ordering follows average daily dabs and devices running
	// firmware older than the configured minimum are excluded. A
	// non-positive limit falls back to the configured default.
	TopDevices(ctx context.Context, limit int, byAverage bool) ([]*entity.LeaderboardEntry, error)
}

package repository

import (
	"context"

	"puffsocial/internal/domain/entity"
)

// LeaderboardRepository reads the device ranking projection. Rankings cover
// owned devices only; unclaimed devices never appear regardless of counts.
type LeaderboardRepository interface {
	// FindPosition returns the leaderboard row for a device, or
	// ErrDeviceNotFound when the device is unranked.
	FindPosition(ctx context.Context, deviceID string) (*entity.LeaderboardEntry, error)

	// FindTop returns the first limit entries ordered by rank. When byAverage
	// is set, ordering follows the average-rank column and devices below
	// minFirmwareRaw are excluded.
	FindTop(ctx context.Context, limit int, byAverage bool, minFirmwareRaw int64) ([]*entity.LeaderboardEntry, error)
}

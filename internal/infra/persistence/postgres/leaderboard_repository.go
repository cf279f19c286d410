package postgres

import (
	"context"

	"puffsocial/internal/domain/entity"
	"puffsocial/internal/domain/repository"
	"puffsocial/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// leaderboardRepository implements the repository.LeaderboardRepository
// interface over the 'device_leaderboard' view.
type leaderboardRepository struct {
	db *gorm.DB
}

// NewLeaderboardRepository is the constructor for leaderboardRepository.
func NewLeaderboardRepository(db *gorm.DB) repository.LeaderboardRepository {
	return &leaderboardRepository{
		db: db,
	}
}

// FindPosition returns the leaderboard row for a device.
func (repo *leaderboardRepository) FindPosition(ctx context.Context, deviceID string) (*entity.LeaderboardEntry, error) {
	var entryM model.LeaderboardModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", deviceID).
		First(&entryM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrDeviceNotFound
		}

		return nil, errors.Wrap(err, "failed to find leaderboard position")
	}

	return toLeaderboardDomain(&entryM), nil
}

// FindTop returns the first limit entries, ordered by rank. Only owned
// devices rank; the average ordering additionally excludes devices below
// the firmware floor.
func (repo *leaderboardRepository) FindTop(ctx context.Context, limit int, byAverage bool, minFirmwareRaw int64) ([]*entity.LeaderboardEntry, error) {
	var entryModels []*model.LeaderboardModel

	query := repo.db.WithContext(ctx).
		Preload("Device.User").
		Joins("JOIN devices ON devices.id = device_leaderboard.id").
		Where("devices.user_id IS NOT NULL").
		Limit(limit)

	if byAverage {
		query = query.
			Where("devices.firmware_raw >= ?", minFirmwareRaw).
			Order("device_leaderboard.avg_position ASC")
	} else {
		query = query.Order("device_leaderboard.position ASC")
	}

	if err := query.Find(&entryModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to query leaderboard")
	}

	entries := make([]*entity.LeaderboardEntry, 0, len(entryModels))
	for _, entryM := range entryModels {
		entries = append(entries, toLeaderboardDomain(entryM))
	}

	return entries, nil
}

// --- Mapper Functions ---

func toLeaderboardDomain(data *model.LeaderboardModel) *entity.LeaderboardEntry {
	if data == nil {
		return nil
	}

	return &entity.LeaderboardEntry{
		ID:          data.ID,
		Position:    data.Position,
		AvgPosition: data.AvgPosition,
		Device:      toDeviceDomain(data.Device),
	}
}

package postgres

import (
	"context"

	"puffsocial/internal/domain/entity"
	domainerrors "puffsocial/internal/domain/errors"
	"puffsocial/internal/domain/repository"
	"puffsocial/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// connectionRepository implements the repository.ConnectionRepository interface.
type connectionRepository struct {
	db *gorm.DB
}

// NewConnectionRepository is the constructor for connectionRepository.
func NewConnectionRepository(db *gorm.DB) repository.ConnectionRepository {
	return &connectionRepository{
		db: db,
	}
}

// CreateConnection persists a new provider connection. A concurrent duplicate
// callback loses to the unique index and surfaces as ErrDuplicateConnection.
func (repo *connectionRepository) CreateConnection(ctx context.Context, connection *entity.Connection) error {
	connectionM := fromConnectionDomain(connection)

	if err := repo.db.WithContext(ctx).Create(connectionM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrDuplicateConnection
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create connection")
	}

	connection.CreatedAt = connectionM.CreatedAt

	return nil
}

// FindConnection retrieves a connection by its provider-scoped key.
func (repo *connectionRepository) FindConnection(ctx context.Context, platform, platformID string) (*entity.Connection, error) {
	var connectionM model.ConnectionModel

	if err := repo.db.WithContext(ctx).
		Preload("User").
		Where("platform = ? AND platform_id = ?", platform, platformID).
		First(&connectionM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrConnectionNotFound
		}

		return nil, errors.Wrap(err, "failed to find connection")
	}

	return toConnectionDomain(&connectionM), nil
}

// FindConnectionByID retrieves a connection by id.
func (repo *connectionRepository) FindConnectionByID(ctx context.Context, id string) (*entity.Connection, error) {
	var connectionM model.ConnectionModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&connectionM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrConnectionNotFound
		}

		return nil, errors.Wrap(err, "failed to find connection by ID")
	}

	return toConnectionDomain(&connectionM), nil
}

// UpdateConnectionVerified refreshes the verification flag.
func (repo *connectionRepository) UpdateConnectionVerified(ctx context.Context, id string, verified bool) error {
	result := repo.db.WithContext(ctx).
		Model(&model.ConnectionModel{}).
		Where("id = ?", id).
		Update("verified", verified)

	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update connection")
	}

	if result.RowsAffected == 0 {
		return repository.ErrConnectionNotFound
	}

	return nil
}

// --- Mapper Functions ---

func toConnectionDomain(data *model.ConnectionModel) *entity.Connection {
	if data == nil {
		return nil
	}

	return &entity.Connection{
		ID:         data.ID,
		Platform:   data.Platform,
		PlatformID: data.PlatformID,
		UserID:     data.UserID,
		Verified:   data.Verified,
		CreatedAt:  data.CreatedAt,
		User:       toUserDomain(data.User),
	}
}

func fromConnectionDomain(data *entity.Connection) *model.ConnectionModel {
	if data == nil {
		return nil
	}

	return &model.ConnectionModel{
		ID:         data.ID,
		Platform:   data.Platform,
		PlatformID: data.PlatformID,
		UserID:     data.UserID,
		Verified:   data.Verified,
		CreatedAt:  data.CreatedAt,
	}
}

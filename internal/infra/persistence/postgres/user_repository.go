package postgres

import (
	"context"
	"strings"

	"puffsocial/internal/domain/entity"
	domainerrors "puffsocial/internal/domain/errors"
	"puffsocial/internal/domain/repository"
	"puffsocial/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// userRepository implements the repository.UserRepository interface.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{
		db: db,
	}
}

// CreateUser persists a new user.
func (repo *userRepository) CreateUser(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrDuplicateUser
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create user")
	}

	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// FindUserByID retrieves a user by id.
func (repo *userRepository) FindUserByID(ctx context.Context, id string) (*entity.User, error) {
	var userM model.UserModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&userM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by ID")
	}

	return toUserDomain(&userM), nil
}

// FindUserByName retrieves a user by handle, case-insensitively.
func (repo *userRepository) FindUserByName(ctx context.Context, name string) (*entity.User, error) {
	var userM model.UserModel

	if err := repo.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(name)).
		First(&userM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by name")
	}

	return toUserDomain(&userM), nil
}

// UpdateUserProfile updates the mutable profile fields of a user.
func (repo *userRepository) UpdateUserProfile(ctx context.Context, id string, displayName *string, image *string) error {
	updates := map[string]any{}
	if displayName != nil {
		updates["display_name"] = *displayName
	}
	if image != nil {
		updates["image"] = *image
	}
	if len(updates) == 0 {
		return nil
	}

	result := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update user profile")
	}

	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}

	return nil
}

// FindUsersWithDevices lists users owning at least one device, devices loaded,
// ordered by their total dabs across all devices.
func (repo *userRepository) FindUsersWithDevices(ctx context.Context) ([]*entity.User, error) {
	var userModels []*model.UserModel

	if err := repo.db.WithContext(ctx).
		Preload("Devices").
		Preload("Connections").
		Where("EXISTS (SELECT 1 FROM devices WHERE devices.user_id = users.id)").
		Find(&userModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find users with devices")
	}

	users := make([]*entity.User, 0, len(userModels))
	for _, userM := range userModels {
		users = append(users, toUserDomain(userM))
	}

	return users, nil
}

// --- Mapper Functions ---

// toUserDomain converts a GORM UserModel to a domain User entity.
func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	user := &entity.User{
		ID:          data.ID,
		Name:        data.Name,
		DisplayName: data.DisplayName,
		Image:       data.Image,
		Flags:       data.Flags,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}

	for i := range data.Devices {
		user.Devices = append(user.Devices, *toDeviceDomain(&data.Devices[i]))
	}
	for i := range data.Connections {
		user.Connections = append(user.Connections, *toConnectionDomain(&data.Connections[i]))
	}

	return user
}

// fromUserDomain converts a domain User entity to a GORM UserModel.
func fromUserDomain(data *entity.User) *model.UserModel {
	if data == nil {
		return nil
	}

	return &model.UserModel{
		ID:          data.ID,
		Name:        data.Name,
		DisplayName: data.DisplayName,
		Image:       data.Image,
		Flags:       data.Flags,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}

package impl

import (
	"context"
	"log/slog"
	"sort"

	deliverycontext "puffsocial/internal/delivery/context"
	"puffsocial/internal/domain/entity"
	"puffsocial/internal/domain/repository"
	"puffsocial/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// userService implements the UserUsecase interface.
type userService struct {
	userRepo repository.UserRepository
	logger   *slog.Logger
}

// UserServiceParams holds dependencies for UserService, injected by Fx.
type UserServiceParams struct {
	fx.In

	UserRepo repository.UserRepository
	Logger   *slog.Logger
}

// NewUserService is the constructor for userService.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return &userService{
		userRepo: params.UserRepo,
		logger:   params.Logger,
	}
}

func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// ListUsersWithDevices returns device owners ordered by total dabs.
func (srv *userService) ListUsersWithDevices(ctx context.Context, limit int) ([]*entity.User, error) {
	users, err := srv.userRepo.FindUsersWithDevices(ctx)
	if err != nil {
		srv.log(ctx).Error("Failed to list users with devices", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to list users with devices")
	}

	sort.SliceStable(users, func(i, j int) bool {
		return totalDabs(users[i]) > totalDabs(users[j])
	})

	if limit > 0 && limit < len(users) {
		users = users[:limit]
	}

	return users, nil
}

func totalDabs(user *entity.User) int64 {
	var total int64
	for _, device := range user.Devices {
		total += device.Dabs
	}

	return total
}

// UpdateProfile patches a user's profile and returns the updated user.
func (srv *userService) UpdateProfile(ctx context.Context, userID string, input *usecase.UpdateProfileInput) (*entity.User, error) {
	if err := srv.userRepo.UpdateUserProfile(ctx, userID, input.DisplayName, input.Image); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, repository.ErrUserNotFound
		}
		srv.log(ctx).Error("Failed to update user profile",
			slog.String("userID", userID),
			slog.Any("error", err),
		)

		return nil, errors.Wrap(err, "failed to update user profile")
	}

	user, err := srv.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to reload user after update")
	}

	return user, nil
}

package usecase

import (
	"context"

	"puffsocial/internal/domain/entity"
)

// UpdateProfileInput carries the mutable profile fields of a user. Nil
// fields are left untouched.
type UpdateProfileInput struct {
	DisplayName *string
	Image       *string
}

// UserUsecase covers user listing and profile management.
type UserUsecase interface {
	// ListUsersWithDevices returns users owning at least one device, ordered
	// by their total dab count across devices, highest first. A non-positive
	// limit returns all of them.
	ListUsersWithDevices(ctx context.Context, limit int) ([]*entity.User, error)

	// UpdateProfile patches a user's profile and returns the updated user.
	UpdateProfile(ctx context.Context, userID string, input *UpdateProfileInput) (*entity.User, error)
}

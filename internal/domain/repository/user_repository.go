package repository

import (
	"context"

	"puffsocial/internal/domain/entity"

	"github.com/pkg/errors"
)

// Domain-specific errors for identity persistence.
var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUser is returned when a unique constraint on the users table is hit.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrAccountNotFound is returned when a local account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrDuplicateAccount is returned when an account email is already registered.
	ErrDuplicateAccount = errors.New("account already exists")
	// ErrConnectionNotFound is returned when a provider connection is not found.
	ErrConnectionNotFound = errors.New("connection not found")
	// ErrDuplicateConnection is returned when the (platform, platform_id) pair already exists.
	ErrDuplicateConnection = errors.New("connection already exists")
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	// CreateUser persists a new user.
	CreateUser(ctx context.Context, user *entity.User) error

	// FindUserByID retrieves a user by id.
	FindUserByID(ctx context.Context, id string) (*entity.User, error)

	// FindUserByName retrieves a user by handle, compared case-insensitively.
	FindUserByName(ctx context.Context, name string) (*entity.User, error)

	// UpdateUserProfile updates the mutable profile fields of a user.
	UpdateUserProfile(ctx context.Context, id string, displayName *string, image *string) error

	// FindUsersWithDevices lists users owning at least one device, each with
	// their devices loaded. A non-positive limit returns all of them.
	FindUsersWithDevices(ctx context.Context) ([]*entity.User, error)
}

// AccountRepository defines the interface for local credential accounts.
type AccountRepository interface {
	// CreateAccount persists a new local account.
	CreateAccount(ctx context.Context, account *entity.Account) error

	// FindAccountByEmail retrieves an account by its lowercased email,
	// with the owning user joined.
	FindAccountByEmail(ctx context.Context, email string) (*entity.Account, error)
}

// ConnectionRepository defines the interface for provider connections.
type ConnectionRepository interface {
	// CreateConnection persists a new provider connection. The
	// (platform, platform_id) unique index closes the double-callback race;
	// duplicates surface as ErrDuplicateConnection.
	CreateConnection(ctx context.Context, connection *entity.Connection) error

	// FindConnection retrieves a connection by its provider-scoped key,
	// with the owning user joined.
	FindConnection(ctx context.Context, platform, platformID string) (*entity.Connection, error)

	// FindConnectionByID retrieves a connection by id.
	FindConnectionByID(ctx context.Context, id string) (*entity.Connection, error)

	// UpdateConnectionVerified refreshes the verification flag.
	UpdateConnectionVerified(ctx context.Context, id string, verified bool) error
}

package entity

import (
	"time"
)

// User flag bits. Stored as a single bitfield on the user row.
const (
	UserFlagTester    = 1 << 0
	UserFlagSupporter = 1 << 1
	UserFlagAdmin     = 1 << 2
	UserFlagSuspended = 1 << 3
)

// User is the canonical person identity. A user owns zero or one password
// Account, zero or more provider Connections, and zero or more Devices.
type User struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"` // Unique handle, compared case-insensitively.
	DisplayName *string   `json:"display_name"`
	Image       *string   `json:"image"` // Avatar hash under the avatar bucket, nil when none.
	Flags       int64     `json:"flags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Devices     []Device     `json:"devices,omitempty"`
	Connections []Connection `json:"connections,omitempty"`
}

// Suspended reports whether the suspended flag bit is set.
func (u *User) Suspended() bool {
	return u.Flags&UserFlagSuspended != 0
}

// Admin reports whether the admin flag bit is set.
func (u *User) Admin() bool {
	return u.Flags&UserFlagAdmin != 0
}

// Account is a user's local credential pair. At most one per user.
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"` // Stored lowercased; unique.
	Password  string    `json:"-"`     // Password hash. Never serialized.
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	User *User `json:"users,omitempty"`
}

// Connection binds a user to exactly one external provider identity.
// (Platform, PlatformID) is unique across the table, so a given provider
// identity maps to at most one user.
type Connection struct {
	ID         string    `json:"id"`
	Platform   string    `json:"platform"` // "discord" or "puffco".
	PlatformID string    `json:"platform_id"`
	UserID     string    `json:"user_id"`
	Verified   bool      `json:"verified"`
	CreatedAt  time.Time `json:"created_at"`

	User *User `json:"users,omitempty"`
}

// Supported connection platforms.
const (
	PlatformDiscord = "discord"
	PlatformPuffco  = "puffco"
)

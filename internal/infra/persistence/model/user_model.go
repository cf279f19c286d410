package model

import (
	"time"
)

// UserModel is the GORM-specific struct for the 'users' table.
// The unique index on name is declared with a case-insensitive expression
// in the migration; lookups lower both sides.
type UserModel struct {
	ID          string `gorm:"type:varchar(64);primary_key"`
	Name        string `gorm:"type:varchar(255);not null;uniqueIndex"`
	DisplayName *string
	Image       *string
	Flags       int64 `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Devices     []DeviceModel     `gorm:"foreignKey:UserID"`
	Connections []ConnectionModel `gorm:"foreignKey:UserID"`
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// AccountModel is the GORM-specific struct for the 'accounts' table.
type AccountModel struct {
	ID        string `gorm:"type:varchar(64);primary_key"`
	Email     string `gorm:"type:varchar(255);not null;uniqueIndex"`
	Password  string `gorm:"type:varchar(255);not null"`
	UserID    string `gorm:"type:varchar(64);not null;index"`
	CreatedAt time.Time

	User *UserModel `gorm:"foreignKey:UserID"`
}

// TableName explicitly sets the table name for GORM.
func (AccountModel) TableName() string {
	return "accounts"
}

// ConnectionModel is the GORM-specific struct for the 'connections' table.
// (platform, platform_id) carries the unique index that closes the
// double-callback race during identity linking.
type ConnectionModel struct {
	ID         string `gorm:"type:varchar(64);primary_key"`
	Platform   string `gorm:"type:varchar(32);not null;uniqueIndex:idx_connections_platform_identity"`
	PlatformID string `gorm:"type:varchar(255);not null;uniqueIndex:idx_connections_platform_identity"`
	UserID     string `gorm:"type:varchar(64);not null;index"`
	Verified   bool   `gorm:"not null;default:false"`
	CreatedAt  time.Time

	User *UserModel `gorm:"foreignKey:UserID"`
}

// TableName explicitly sets the table name for GORM.
func (ConnectionModel) TableName() string {
	return "connections"
}

// SessionModel is the GORM-specific struct for the 'sessions' audit table.
type SessionModel struct {
	Token        string `gorm:"type:varchar(128);primary_key"`
	UserID       string `gorm:"type:varchar(64);not null;index"`
	AccountID    *string
	ConnectionID *string
	IP           string `gorm:"column:ip;type:varchar(45);not null"`
	UserAgent    string `gorm:"type:varchar(512);not null"`
	CreatedAt    time.Time
}

// TableName explicitly sets the table name for GORM.
func (SessionModel) TableName() string {
	return "sessions"
}

package model

import (
	"time"
)

// DeviceModel is the GORM-specific struct for the 'devices' table.
// The MAC unique index is what makes create-or-merge safe under
// concurrent first reports.
type DeviceModel struct {
	ID           string `gorm:"type:varchar(64);primary_key"`
	Name         string `gorm:"type:varchar(255);not null"`
	MAC          string `gorm:"column:mac;type:varchar(17);not null;uniqueIndex"`
	Dabs         int64  `gorm:"not null;default:0"`
	AvgDabs      float64
	Model        string `gorm:"type:varchar(32);not null"`
	Firmware     string `gorm:"type:varchar(16)"`
	FirmwareRaw  int64  `gorm:"index"`
	Hardware     int64
	GitHash      string `gorm:"type:varchar(16)"`
	LastDab      *time.Time
	DOB          time.Time `gorm:"column:dob"`
	LastActive   time.Time
	LastIP       string `gorm:"column:last_ip;type:varchar(45)"`
	SerialNumber *string
	UserID       *string          `gorm:"type:varchar(64);index"`
	Profiles     HeatProfilesJSON `gorm:"type:jsonb"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	User *UserModel `gorm:"foreignKey:UserID"`
}

// TableName explicitly sets the table name for GORM.
func (DeviceModel) TableName() string {
	return "devices"
}

// LeaderboardModel maps the 'device_leaderboard' view, which ranks owned
// devices by dab totals. The view is maintained by the database; this side
// only ever reads it.
type LeaderboardModel struct {
	ID          string `gorm:"type:varchar(64);primary_key"`
	Position    int64
	AvgPosition int64

	Device *DeviceModel `gorm:"foreignKey:ID"`
}

// TableName explicitly sets the view name for GORM.
func (LeaderboardModel) TableName() string {
	return "device_leaderboard"
}

package model

import (
	"time"
)

// DiagnosticsModel is the GORM-specific struct for the 'diagnostics' table.
// Rows are insert-only.
type DiagnosticsModel struct {
	ID                    string `gorm:"type:varchar(64);primary_key"`
	DeviceName            string `gorm:"type:varchar(255)"`
	DeviceModel           string `gorm:"type:varchar(32)"`
	DeviceFirmware        string `gorm:"type:varchar(16)"`
	DeviceGitHash         *string
	DeviceUptime          *int64
	DeviceUTCTime         *int64 `gorm:"column:device_utc_time"`
	DeviceBatteryCapacity *int64
	DeviceSerialNumber    *string
	DeviceHardwareVersion *string
	DeviceMAC             *string `gorm:"column:device_mac;type:varchar(17)"`
	DeviceDOB             *time.Time
	DeviceChamberType     *int64
	DeviceProfiles        HeatProfilesJSON `gorm:"type:jsonb"`
	DeviceServices        BLEServicesJSON  `gorm:"type:jsonb"`
	Authenticated         *bool
	Pup                   *bool
	Lorax                 *bool
	SessionID             string `gorm:"type:varchar(128)"`
	UserAgent             string `gorm:"type:varchar(512)"`
	IP                    string `gorm:"column:ip;type:varchar(45)"`
	CreatedAt             time.Time
}

// TableName explicitly sets the table name for GORM.
func (DiagnosticsModel) TableName() string {
	return "diagnostics"
}

// FeedbackModel is the GORM-specific struct for the 'feedback' table.
type FeedbackModel struct {
	ID        string `gorm:"type:varchar(64);primary_key"`
	Message   string `gorm:"type:varchar(1024);not null"`
	IP        string `gorm:"column:ip;type:varchar(45);not null"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (FeedbackModel) TableName() string {
	return "feedback"
}

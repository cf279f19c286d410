package entity

import (
	"time"
)

// Diagnostics is one device diagnostics report, stored as submitted.
type Diagnostics struct {
	ID                    string                 `json:"id"`
	DeviceName            string                 `json:"device_name"`
	DeviceModel           string                 `json:"device_model"`
	DeviceFirmware        string                 `json:"device_firmware"`
	DeviceGitHash         *string                `json:"device_git_hash"`
	DeviceUptime          *int64                 `json:"device_uptime"`
	DeviceUTCTime         *int64                 `json:"device_utc_time"`
	DeviceBatteryCapacity *int64                 `json:"device_battery_capacity"`
	DeviceSerialNumber    *string                `json:"device_serial_number"`
	DeviceHardwareVersion *string                `json:"device_hardware_version"`
	DeviceMAC             *string                `json:"device_mac"`
	DeviceDOB             *time.Time             `json:"device_dob"`
	DeviceChamberType     *int64                 `json:"device_chamber_type"`
	DeviceProfiles        map[string]HeatProfile `json:"device_profiles"`
	DeviceServices        []BLEService           `json:"device_services"`
	Authenticated         *bool                  `json:"authenticated"`
	Pup                   *bool                  `json:"pup"`
	Lorax                 *bool                  `json:"lorax"`
	SessionID             string                 `json:"session_id"`
	UserAgent             string                 `json:"user_agent"`
	IP                    string                 `json:"ip"`
	CreatedAt             time.Time              `json:"created_at"`
}

// BLEService is a BLE service descriptor declared in a diagnostics report.
type BLEService struct {
	UUID                string `json:"uuid"`
	CharacteristicCount int    `json:"characteristicCount"`
}

// Feedback is a user-submitted site feedback message.
type Feedback struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	IP        string    `json:"ip"`
	CreatedAt time.Time `json:"created_at"`
}

// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"
)

// Device represents one physical unit, keyed by its hardware MAC address.
// A device is created on the first telemetry report carrying a never-seen
// MAC and updated on every report after that; it is never deleted through
// the telemetry pipeline.
type Device struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	MAC          string                 `json:"mac"`
	Dabs         int64                  `json:"dabs"`          // Cumulative dab count as last reported by the device.
	AvgDabs      float64                `json:"avg_dabs"`      // Per-day average dab rate as last reported.
	Model        string                 `json:"model"`         // Product model enum value, kept as the raw string the firmware sends.
	Firmware     string                 `json:"firmware"`      // Firmware letter version, e.g. "AC".
	FirmwareRaw  int64                  `json:"firmware_raw"`  // Numeric encoding of Firmware, kept for sargable range filters.
	Hardware     int64                  `json:"hardware"`      // Hardware revision number.
	GitHash      string                 `json:"git_hash"`      // 7-character firmware build hash.
	LastDab      *time.Time             `json:"last_dab"`
	DOB          time.Time              `json:"dob"` // Device birth timestamp reported by the firmware.
	LastActive   time.Time              `json:"last_active"`
	LastIP       string                 `json:"last_ip"`
	SerialNumber *string                `json:"serial_number"`
	UserID       *string                `json:"user_id"` // Owning user; nil while the device is unclaimed. Never cleared once set.
	Profiles     map[string]HeatProfile `json:"profiles"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`

	User *User `json:"users,omitempty"` // Loaded owner, when the query joins it.
}

// HeatProfile is one of up to four keyed heat-profile slots a device reports.
type HeatProfile struct {
	Name string  `json:"name"`
	Temp float64 `json:"temp"`
	Time string  `json:"time"`
}

package service

import (
	"context"
)

// EventType identifies an audit event record. Values are part of the wire
// contract with the internal dashboard consumer.
type EventType int

const (
	EventNewUser EventType = iota
	EventNewDevice
	EventDeviceNewOwner
	EventSiteFeedback
	EventDeviceDabsUpdate
	EventDeviceConnection
)

// AuditEvent is one structured event record sent to the audit sink.
type AuditEvent struct {
	Type      EventType `json:"type"`
	Channel   string    `json:"channel"`
	RequestID string    `json:"request_id,omitempty"` // For distributed tracing
	Data      any       `json:"data"`
}

// OwnerSnapshot captures a device owner at the moment of an ownership change.
type OwnerSnapshot struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	DisplayName *string `json:"display_name"`
}

// NewUserEvent is emitted when a new user identity is created.
type NewUserEvent struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	DisplayName *string `json:"display_name"`
	AuthType    string  `json:"auth_type"`
}

// NewDeviceEvent is emitted when a telemetry report creates a device.
type NewDeviceEvent struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	MAC          string  `json:"mac"`
	Firmware     string  `json:"firmware"`
	SerialNumber *string `json:"serial_number,omitempty"`
	DeviceModel  string  `json:"device_model"`
	Dabs         int64   `json:"dabs"`
}

// DeviceNewOwnerEvent is emitted when a device's owner changes. OldOwner is
// nil for a first claim.
type DeviceNewOwnerEvent struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	OldOwner *OwnerSnapshot `json:"old_owner"`
	NewOwner *OwnerSnapshot `json:"new_owner"`
}

// DeviceDabsUpdateEvent is emitted when a report's dab count differs from the
// stored value. Observability only, never a correctness gate.
type DeviceDabsUpdateEvent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Dabs int64  `json:"dabs"`
}

// DeviceConnectionEvent is emitted when a known device submits diagnostics.
type DeviceConnectionEvent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SiteFeedbackEvent is emitted when site feedback is stored.
type SiteFeedbackEvent struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	IP      string `json:"ip"`
}

// EventSink defines the interface for delivering audit events. Delivery is
// best-effort: failures are logged by implementations and never block the
// request that produced the event.
type EventSink interface {
	// PublishEvent delivers one audit event.
	PublishEvent(ctx context.Context, event *AuditEvent) error

	// Close releases any resources held by the sink
	Close() error
}

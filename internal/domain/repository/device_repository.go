// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"

	"puffsocial/internal/domain/entity"

	"github.com/pkg/errors"
)

// Domain-specific errors for device persistence.
var (
	// ErrDeviceNotFound is returned when a device is not found.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrDuplicateDevice is returned when trying to create a device that already exists.
	ErrDuplicateDevice = errors.New("device already exists")
)

// DeviceRepository defines the interface for device-related database operations.
type DeviceRepository interface {
	// CreateDevice persists a new device. The MAC unique index closes the
	// concurrent first-report race; duplicates surface as ErrDuplicateDevice.
	CreateDevice(ctx context.Context, device *entity.Device) error

	// FindDeviceByMAC retrieves a device by its hardware identifier,
	// with the owning user joined when present.
	FindDeviceByMAC(ctx context.Context, mac string) (*entity.Device, error)

	// UpdateDevice overwrites the mutable fields of the device row keyed
	// by device.MAC with the values carried on the entity.
	UpdateDevice(ctx context.Context, device *entity.Device) error

	// UpdateDeviceProfiles updates only the heat profiles and serial number
	// of the device with the given MAC.
	UpdateDeviceProfiles(ctx context.Context, mac string, profiles map[string]entity.HeatProfile, serialNumber *string) error

	// FindDevicesWithSerial lists devices that reported a serial number.
	// A non-positive limit returns all of them.
	FindDevicesWithSerial(ctx context.Context, limit int) ([]*entity.Device, error)
}

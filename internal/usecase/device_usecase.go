package usecase

import (
	"context"

	"puffsocial/internal/domain/entity"
	"puffsocial/internal/domain/service"
)

// DeviceWithOTA pairs a registered device with the newest firmware release
// available for its serial, when upstream knows one.
type DeviceWithOTA struct {
	*entity.Device

	OTA *service.PuffcoFirmware `json:"ota,omitempty"`
}

// DeviceUsecase covers device lookups and firmware queries.
type DeviceUsecase interface {
	// GetDeviceByMAC resolves a device by hardware address together with its
	// leaderboard position.
	GetDeviceByMAC(ctx context.Context, mac string) (*TrackOutput, error)

	// ListDevicesWithSerial lists devices that reported a serial number,
	// each annotated with its latest upstream firmware release.
	ListDevicesWithSerial(ctx context.Context, limit int) ([]*DeviceWithOTA, error)

	// LatestFirmware looks up the newest OTA release for a serial. A serial
	// upstream knows nothing about returns ErrFirmwareNotFound.
	LatestFirmware(ctx context.Context, serial string) (*service.PuffcoFirmware, error)
}

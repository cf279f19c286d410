package impl

import (
	"context"
	"log/slog"

	deliverycontext "puffsocial/internal/delivery/context"
	domainerrors "puffsocial/internal/domain/errors"
	"puffsocial/internal/domain/repository"
	"puffsocial/internal/domain/service"
	"puffsocial/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// deviceService implements the DeviceUsecase interface.
type deviceService struct {
	deviceRepo repository.DeviceRepository
	lbRepo     repository.LeaderboardRepository
	puffco     service.PuffcoProvider
	logger     *slog.Logger
}

// DeviceServiceParams holds dependencies for DeviceService, injected by Fx.
type DeviceServiceParams struct {
	fx.In

	DeviceRepo repository.DeviceRepository
	LbRepo     repository.LeaderboardRepository
	Puffco     service.PuffcoProvider
	Logger     *slog.Logger
}

// NewDeviceService is the constructor for deviceService.
func NewDeviceService(params DeviceServiceParams) usecase.DeviceUsecase {
	return &deviceService{
		deviceRepo: params.DeviceRepo,
		lbRepo:     params.LbRepo,
		puffco:     params.Puffco,
		logger:     params.Logger,
	}
}

func (srv *deviceService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// GetDeviceByMAC resolves a device and its leaderboard position.
func (srv *deviceService) GetDeviceByMAC(ctx context.Context, mac string) (*usecase.TrackOutput, error) {
	device, err := srv.deviceRepo.FindDeviceByMAC(ctx, mac)
	if err != nil {
		if errors.Is(err, repository.ErrDeviceNotFound) {
			return nil, domainerrors.ErrDeviceNotFound
		}

		return nil, errors.Wrap(err, "failed to find device by mac")
	}

	output := &usecase.TrackOutput{Device: device}

	position, err := srv.lbRepo.FindPosition(ctx, device.ID)
	if err == nil {
		output.Position = &position.Position
	} else if !errors.Is(err, repository.ErrDeviceNotFound) {
		srv.log(ctx).Warn("Failed to read leaderboard position",
			slog.String("deviceID", device.ID),
			slog.Any("error", err),
		)
	}

	return output, nil
}

// ListDevicesWithSerial lists serial-bearing devices annotated with the
// latest upstream firmware release for each.
func (srv *deviceService) ListDevicesWithSerial(ctx context.Context, limit int) ([]*usecase.DeviceWithOTA, error) {
	devices, err := srv.deviceRepo.FindDevicesWithSerial(ctx, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list devices with serial")
	}

	out := make([]*usecase.DeviceWithOTA, 0, len(devices))
	for _, device := range devices {
		annotated := &usecase.DeviceWithOTA{Device: device}

		if device.SerialNumber != nil {
			// Upstream lookups are advisory; a failed one leaves the
			// device unannotated rather than failing the listing.
			firmware, otaErr := srv.puffco.LatestFirmware(ctx, *device.SerialNumber)
			if otaErr != nil {
				srv.log(ctx).Warn("Failed to look up ota release",
					slog.String("deviceID", device.ID),
					slog.Any("error", otaErr),
				)
			} else {
				annotated.OTA = firmware
			}
		}

		out = append(out, annotated)
	}

	return out, nil
}

// LatestFirmware looks up the newest OTA release for a serial.
func (srv *deviceService) LatestFirmware(ctx context.Context, serial string) (*service.PuffcoFirmware, error) {
	firmware, err := srv.puffco.LatestFirmware(ctx, serial)
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up ota release")
	}
	if firmware == nil {
		return nil, domainerrors.ErrFirmwareNotFound
	}

	return firmware, nil
}

// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	deliverycontext "puffsocial/internal/delivery/context"
	"puffsocial/internal/domain/entity"
	domainerrors "puffsocial/internal/domain/errors"
	"puffsocial/internal/domain/repository"
	"puffsocial/internal/domain/service"
	"puffsocial/internal/usecase"
	"puffsocial/internal/util"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Audit event channels. Part of the wire contract with the dashboard consumer.
const (
	channelDevices  = "devices"
	channelUsers    = "users"
	channelFeedback = "feedback"
)

// telemetryService implements the TelemetryUsecase interface.
type telemetryService struct {
	verifier     service.PayloadVerifier
	txManager    repository.TransactionManager
	deviceRepo   repository.DeviceRepository
	lbRepo       repository.LeaderboardRepository
	diagRepo     repository.DiagnosticsRepository
	feedbackRepo repository.FeedbackRepository
	events       service.EventSink
	ids          service.IDGenerator
	logger       *slog.Logger
}

// TelemetryServiceParams holds dependencies for TelemetryService, injected by Fx.
type TelemetryServiceParams struct {
	fx.In

	Verifier     service.PayloadVerifier
	TxManager    repository.TransactionManager
	DeviceRepo   repository.DeviceRepository
	LbRepo       repository.LeaderboardRepository
	DiagRepo     repository.DiagnosticsRepository
	FeedbackRepo repository.FeedbackRepository
	Events       service.EventSink
	IDs          service.IDGenerator
	Logger       *slog.Logger
}

// NewTelemetryService is the constructor for telemetryService.
func NewTelemetryService(params TelemetryServiceParams) usecase.TelemetryUsecase {
	return &telemetryService{
		verifier:     params.Verifier,
		txManager:    params.TxManager,
		deviceRepo:   params.DeviceRepo,
		lbRepo:       params.LbRepo,
		diagRepo:     params.DiagRepo,
		feedbackRepo: params.FeedbackRepo,
		events:       params.Events,
		ids:          params.IDs,
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *telemetryService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// publish delivers one audit event. Failures are logged and swallowed;
// observability loss never fails the request that produced the event.
func (srv *telemetryService) publish(ctx context.Context, eventType service.EventType, channel string, data any) {
	event := &service.AuditEvent{
		Type:      eventType,
		Channel:   channel,
		RequestID: deliverycontext.GetRequestIDFromContext(ctx),
		Data:      data,
	}

	if err := srv.events.PublishEvent(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish audit event",
			slog.Int("type", int(eventType)),
			slog.Any("error", err),
		)
	}
}

// Track verifies and applies a usage report.
func (srv *telemetryService) Track(ctx context.Context, input *usecase.TrackInput) (*usecase.TrackOutput, error) {
	plaintext, err := srv.verifier.Verify(input.Body, input.Signature)
	if err != nil {
		return nil, err
	}

	var payload usecase.TrackingPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, domainerrors.ErrInvalidTrackingData.WrapMessage("malformed tracking payload")
	}

	if err := usecase.ValidateTracking(&payload); err != nil {
		srv.log(ctx).Warn("Tracking payload failed validation",
			slog.String("mac", payload.Device.MAC),
			slog.Any("error", err),
		)

		return nil, domainerrors.ErrInvalidTrackingData
	}

	pending, err := srv.applyTracking(ctx, input, &payload)
	if errors.Is(err, repository.ErrDuplicateDevice) {
		// A concurrent first report won the insert race; the MAC now exists,
		// so a second pass lands on the update path.
		pending, err = srv.applyTracking(ctx, input, &payload)
	}
	if err != nil {
		srv.log(ctx).Error("Failed to execute tracking transaction",
			slog.String("mac", payload.Device.MAC),
			slog.Any("error", err),
		)

		return nil, errors.Wrap(err, "failed to execute tracking transaction")
	}

	for _, event := range pending {
		srv.publish(ctx, event.Type, event.Channel, event.Data)
	}

	// Re-read so the response reflects the stored row, then annotate with
	// the ranking projection.
	device, err := srv.deviceRepo.FindDeviceByMAC(ctx, payload.Device.MAC)
	if err != nil {
		return nil, errors.Wrap(err, "failed to reload device after tracking")
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

// applyTracking creates or overwrites the device row in one transaction and
// returns the audit events to publish once the write is committed.
func (srv *telemetryService) applyTracking(
	ctx context.Context,
	input *usecase.TrackInput,
	payload *usecase.TrackingPayload,
) ([]*service.AuditEvent, error) {
	var pending []*service.AuditEvent

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		deviceRepo := repoFactory.NewDeviceRepository()

		existing, err := deviceRepo.FindDeviceByMAC(ctx, payload.Device.MAC)
		if err != nil && !errors.Is(err, repository.ErrDeviceNotFound) {
			return errors.Wrap(err, "failed to find device by mac")
		}

		if existing == nil {
			device := srv.buildDevice(srv.ids.Gen("device"), input, payload)
			if err := deviceRepo.CreateDevice(ctx, device); err != nil {
				return errors.Wrap(err, "failed to create device")
			}

			pending = append(pending, &service.AuditEvent{
				Type:    service.EventNewDevice,
				Channel: channelDevices,
				Data: &service.NewDeviceEvent{
					ID:           device.ID,
					Name:         device.Name,
					MAC:          device.MAC,
					Firmware:     device.Firmware,
					SerialNumber: device.SerialNumber,
					DeviceModel:  device.Model,
					Dabs:         device.Dabs,
				},
			})

			return nil
		}

		if existing.Dabs != payload.Device.TotalDabs {
			pending = append(pending, &service.AuditEvent{
				Type:    service.EventDeviceDabsUpdate,
				Channel: channelDevices,
				Data: &service.DeviceDabsUpdateEvent{
					ID:   existing.ID,
					Name: existing.Name,
					Dabs: payload.Device.TotalDabs,
				},
			})
		}

		if input.Reporter != nil && (existing.UserID == nil || *existing.UserID != input.Reporter.ID) {
			pending = append(pending, &service.AuditEvent{
				Type:    service.EventDeviceNewOwner,
				Channel: channelDevices,
				Data: &service.DeviceNewOwnerEvent{
					ID:       existing.ID,
					Name:     existing.Name,
					OldOwner: ownerSnapshot(existing.User),
					NewOwner: ownerSnapshot(input.Reporter),
				},
			})
		}

		device := srv.buildDevice(existing.ID, input, payload)

		return errors.Wrap(deviceRepo.UpdateDevice(ctx, device), "failed to update device")
	})

	if err != nil {
		return nil, err
	}

	return pending, nil
}

// buildDevice maps a validated report onto a device row. The report is the
// source of truth: every reported field overwrites the stored value.
func (srv *telemetryService) buildDevice(id string, input *usecase.TrackInput, payload *usecase.TrackingPayload) *entity.Device {
	var lastDab *time.Time
	if payload.Device.LastDabAt != nil {
		t := time.UnixMilli(*payload.Device.LastDabAt).UTC()
		lastDab = &t
	}

	var userID *string
	if input.Reporter != nil {
		userID = &input.Reporter.ID
	}

	return &entity.Device{
		ID:           id,
		Name:         payload.Device.Name,
		MAC:          payload.Device.MAC,
		Dabs:         payload.Device.TotalDabs,
		AvgDabs:      payload.Device.DabsPerDay,
		Model:        payload.Device.Model,
		Firmware:     payload.Device.Firmware,
		FirmwareRaw:  util.LettersToNumber(payload.Device.Firmware),
		Hardware:     payload.Device.Hardware,
		GitHash:      payload.Device.GitHash,
		LastDab:      lastDab,
		DOB:          time.Unix(payload.Device.DOB, 0).UTC(),
		LastActive:   time.Now().UTC(),
		LastIP:       input.IP,
		SerialNumber: payload.Device.Serial,
		UserID:       userID,
	}
}

func ownerSnapshot(user *entity.User) *service.OwnerSnapshot {
	if user == nil {
		return nil
	}

	return &service.OwnerSnapshot{
		ID:          user.ID,
		Name:        user.Name,
		DisplayName: user.DisplayName,
	}
}

// Diag verifies and stores a diagnostics report.
func (srv *telemetryService) Diag(ctx context.Context, input *usecase.DiagInput) error {
	plaintext, err := srv.verifier.Verify(input.Body, input.Signature)
	if err != nil {
		return err
	}

	var payload usecase.DiagPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return domainerrors.ErrInvalidDiagData.WrapMessage("malformed diagnostics payload")
	}

	if err := usecase.ValidateDiag(&payload); err != nil {
		srv.log(ctx).Warn("Diagnostics payload failed validation", slog.Any("error", err))

		return domainerrors.ErrInvalidDiagData
	}

	if payload.DeviceParams.MAC != nil {
		if err := srv.refreshKnownDevice(ctx, &payload); err != nil {
			return err
		}
	}

	diagnostics := srv.buildDiagnostics(srv.ids.Gen("diagnostics"), input, &payload)
	if err := srv.diagRepo.CreateDiagnostics(ctx, diagnostics); err != nil {
		srv.log(ctx).Error("Failed to store diagnostics",
			slog.String("sessionID", payload.SessionID),
			slog.Any("error", err),
		)

		return domainerrors.ErrInvalidTrackingData
	}

	return nil
}

// refreshKnownDevice updates the heat profiles and serial of a device a
// diagnostics report names. An unknown MAC is not an error; the report is
// stored regardless.
func (srv *telemetryService) refreshKnownDevice(ctx context.Context, payload *usecase.DiagPayload) error {
	mac := *payload.DeviceParams.MAC

	device, err := srv.deviceRepo.FindDeviceByMAC(ctx, mac)
	if errors.Is(err, repository.ErrDeviceNotFound) {
		return nil
	}
	if err != nil {
		srv.log(ctx).Error("Failed to find device for diagnostics", slog.Any("error", err))

		return domainerrors.ErrInvalidTrackingData
	}

	if err := srv.deviceRepo.UpdateDeviceProfiles(ctx, mac, payload.DeviceProfiles, payload.DeviceParams.SerialNumber); err != nil {
		srv.log(ctx).Error("Failed to refresh device from diagnostics", slog.Any("error", err))

		return domainerrors.ErrInvalidTrackingData
	}

	srv.publish(ctx, service.EventDeviceConnection, channelDevices, &service.DeviceConnectionEvent{
		ID:   device.ID,
		Name: device.Name,
	})

	return nil
}

// dobSentinelSeconds is what firmware reports when the birth timestamp was
// never burned in; it maps to an absent date, not January 1970.
const dobSentinelSeconds = 1000

func (srv *telemetryService) buildDiagnostics(id string, input *usecase.DiagInput, payload *usecase.DiagPayload) *entity.Diagnostics {
	params := payload.DeviceParams

	var dob *time.Time
	if params.DOB != nil && *params.DOB != dobSentinelSeconds {
		t := time.Unix(*params.DOB, 0).UTC()
		dob = &t
	}

	var hardwareVersion *string
	if params.HardwareVersion != nil {
		v := strconv.FormatInt(*params.HardwareVersion, 10)
		hardwareVersion = &v
	}

	userAgent := input.UserAgent
	if userAgent == "" {
		userAgent = "unknown"
	}

	return &entity.Diagnostics{
		ID:                    id,
		DeviceName:            params.Name,
		DeviceModel:           params.Model,
		DeviceFirmware:        params.Firmware,
		DeviceGitHash:         params.Hash,
		DeviceUptime:          params.Uptime,
		DeviceUTCTime:         params.UTC,
		DeviceBatteryCapacity: params.BatteryCapacity,
		DeviceSerialNumber:    params.SerialNumber,
		DeviceHardwareVersion: hardwareVersion,
		DeviceMAC:             params.MAC,
		DeviceDOB:             dob,
		DeviceChamberType:     params.ChamberType,
		DeviceProfiles:        payload.DeviceProfiles,
		DeviceServices:        diagServices(payload.DeviceServices),
		Authenticated:         params.Authenticated,
		Pup:                   params.PupService,
		Lorax:                 params.LoraxService,
		SessionID:             payload.SessionID,
		UserAgent:             userAgent,
		IP:                    input.IP,
	}
}

func diagServices(services []usecase.DiagService) []entity.BLEService {
	out := make([]entity.BLEService, 0, len(services))
	for _, svc := range services {
		out = append(out, entity.BLEService{
			UUID:                svc.UUID,
			CharacteristicCount: svc.CharacteristicCount,
		})
	}

	return out
}

// Feedback verifies and stores a feedback submission.
func (srv *telemetryService) Feedback(ctx context.Context, input *usecase.FeedbackInput) error {
	plaintext, err := srv.verifier.Verify(input.Body, input.Signature)
	if err != nil {
		return err
	}

	var payload usecase.FeedbackPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return domainerrors.ErrInvalidFeedbackRequest.WrapMessage("malformed feedback payload")
	}

	if err := usecase.ValidateFeedback(&payload); err != nil {
		return err
	}

	feedback := &entity.Feedback{
		ID:      srv.ids.Gen("feedback"),
		Message: payload.Message,
		IP:      input.IP,
	}

	if err := srv.feedbackRepo.CreateFeedback(ctx, feedback); err != nil {
		srv.log(ctx).Error("Failed to store feedback", slog.Any("error", err))

		return errors.Wrap(err, "failed to store feedback")
	}

	srv.publish(ctx, service.EventSiteFeedback, channelFeedback, &service.SiteFeedbackEvent{
		ID:      feedback.ID,
		Message: feedback.Message,
		IP:      feedback.IP,
	})

	return nil
}

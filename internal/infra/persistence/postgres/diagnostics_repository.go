package postgres

import (
	"context"

	"puffsocial/internal/domain/entity"
	domainerrors "puffsocial/internal/domain/errors"
	"puffsocial/internal/domain/repository"
	"puffsocial/internal/infra/persistence/model"

	"gorm.io/gorm"
)

// diagnosticsRepository implements the repository.DiagnosticsRepository interface.
type diagnosticsRepository struct {
	db *gorm.DB
}

// NewDiagnosticsRepository is the constructor for diagnosticsRepository.
func NewDiagnosticsRepository(db *gorm.DB) repository.DiagnosticsRepository {
	return &diagnosticsRepository{
		db: db,
	}
}

// CreateDiagnostics persists one diagnostics report.
func (repo *diagnosticsRepository) CreateDiagnostics(ctx context.Context, diagnostics *entity.Diagnostics) error {
	diagnosticsM := &model.DiagnosticsModel{
		ID:                    diagnostics.ID,
		DeviceName:            diagnostics.DeviceName,
		DeviceModel:           diagnostics.DeviceModel,
		DeviceFirmware:        diagnostics.DeviceFirmware,
		DeviceGitHash:         diagnostics.DeviceGitHash,
		DeviceUptime:          diagnostics.DeviceUptime,
		DeviceUTCTime:         diagnostics.DeviceUTCTime,
		DeviceBatteryCapacity: diagnostics.DeviceBatteryCapacity,
		DeviceSerialNumber:    diagnostics.DeviceSerialNumber,
		DeviceHardwareVersion: diagnostics.DeviceHardwareVersion,
		DeviceMAC:             diagnostics.DeviceMAC,
		DeviceDOB:             diagnostics.DeviceDOB,
		DeviceChamberType:     diagnostics.DeviceChamberType,
		DeviceProfiles:        model.HeatProfilesJSON(diagnostics.DeviceProfiles),
		DeviceServices:        model.BLEServicesJSON(diagnostics.DeviceServices),
		Authenticated:         diagnostics.Authenticated,
		Pup:                   diagnostics.Pup,
		Lorax:                 diagnostics.Lorax,
		SessionID:             diagnostics.SessionID,
		UserAgent:             diagnostics.UserAgent,
		IP:                    diagnostics.IP,
	}

	if err := repo.db.WithContext(ctx).Create(diagnosticsM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create diagnostics record")
	}

	diagnostics.CreatedAt = diagnosticsM.CreatedAt

	return nil
}

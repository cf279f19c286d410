// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"

	"puffsocial/internal/domain/entity"
	domainerrors "puffsocial/internal/domain/errors"
	"puffsocial/internal/domain/repository"
	"puffsocial/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// deviceRepository implements the repository.DeviceRepository interface.
type deviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository is the constructor for deviceRepository.
func NewDeviceRepository(db *gorm.DB) repository.DeviceRepository {
	return &deviceRepository{
		db: db,
	}
}

// CreateDevice persists a new device.
func (repo *deviceRepository) CreateDevice(ctx context.Context, device *entity.Device) error {
	deviceM := fromDeviceDomain(device)

	if err := repo.db.WithContext(ctx).Create(deviceM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrDuplicateDevice
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrInvalidTrackingData.WrapMessage("missing required device information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create device")
	}

	device.CreatedAt = deviceM.CreatedAt
	device.UpdatedAt = deviceM.UpdatedAt

	return nil
}

// FindDeviceByMAC retrieves a device by its hardware identifier.
func (repo *deviceRepository) FindDeviceByMAC(ctx context.Context, mac string) (*entity.Device, error) {
	var deviceM model.DeviceModel

	if err := repo.db.WithContext(ctx).
		Preload("User").
		Where("mac = ?", mac).
		First(&deviceM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrDeviceNotFound
		}

		return nil, errors.Wrap(err, "failed to find device by MAC")
	}

	return toDeviceDomain(&deviceM), nil
}

// UpdateDevice overwrites the mutable columns of the row keyed by device.MAC.
// Updates go through a column map so zero values (e.g. dabs falling to 0)
// still overwrite, matching the report-is-source-of-truth rule.
func (repo *deviceRepository) UpdateDevice(ctx context.Context, device *entity.Device) error {
	updates := map[string]any{
		"name":          device.Name,
		"dabs":          device.Dabs,
		"avg_dabs":      device.AvgDabs,
		"model":         device.Model,
		"firmware":      device.Firmware,
		"firmware_raw":  device.FirmwareRaw,
		"hardware":      device.Hardware,
		"git_hash":      device.GitHash,
		"dob":           device.DOB,
		"last_active":   device.LastActive,
		"last_ip":       device.LastIP,
		"serial_number": device.SerialNumber,
	}
	if device.LastDab != nil {
		updates["last_dab"] = *device.LastDab
	}
	if device.UserID != nil {
		updates["user_id"] = *device.UserID
	}

	result := repo.db.WithContext(ctx).
		Model(&model.DeviceModel{}).
		Where("mac = ?", device.MAC).
		Updates(updates)

	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update device")
	}

	if result.RowsAffected == 0 {
		return repository.ErrDeviceNotFound
	}

	return nil
}

// UpdateDeviceProfiles updates only the heat profiles and serial number.
func (repo *deviceRepository) UpdateDeviceProfiles(ctx context.Context, mac string, profiles map[string]entity.HeatProfile, serialNumber *string) error {
	result := repo.db.WithContext(ctx).
		Model(&model.DeviceModel{}).
		Where("mac = ?", mac).
		Updates(map[string]any{
			"profiles":      model.HeatProfilesJSON(profiles),
			"serial_number": serialNumber,
		})

	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update device profiles")
	}

	if result.RowsAffected == 0 {
		return repository.ErrDeviceNotFound
	}

	return nil
}

// FindDevicesWithSerial lists devices that reported a serial number.
func (repo *deviceRepository) FindDevicesWithSerial(ctx context.Context, limit int) ([]*entity.Device, error) {
	var deviceModels []*model.DeviceModel

	query := repo.db.WithContext(ctx).
		Where("serial_number IS NOT NULL").
		Order("dabs DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&deviceModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find devices with serial")
	}

	devices := make([]*entity.Device, 0, len(deviceModels))
	for _, deviceM := range deviceModels {
		devices = append(devices, toDeviceDomain(deviceM))
	}

	return devices, nil
}

// --- Mapper Functions ---

// toDeviceDomain converts a GORM DeviceModel to a domain Device entity.
func toDeviceDomain(data *model.DeviceModel) *entity.Device {
	if data == nil {
		return nil
	}

	return &entity.Device{
		ID:           data.ID,
		Name:         data.Name,
		MAC:          data.MAC,
		Dabs:         data.Dabs,
		AvgDabs:      data.AvgDabs,
		Model:        data.Model,
		Firmware:     data.Firmware,
		FirmwareRaw:  data.FirmwareRaw,
		Hardware:     data.Hardware,
		GitHash:      data.GitHash,
		LastDab:      data.LastDab,
		DOB:          data.DOB,
		LastActive:   data.LastActive,
		LastIP:       data.LastIP,
		SerialNumber: data.SerialNumber,
		UserID:       data.UserID,
		Profiles:     data.Profiles,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
		User:         toUserDomain(data.User),
	}
}

// fromDeviceDomain converts a domain Device entity to a GORM DeviceModel.
func fromDeviceDomain(data *entity.Device) *model.DeviceModel {
	if data == nil {
		return nil
	}

	return &model.DeviceModel{
		ID:           data.ID,
		Name:         data.Name,
		MAC:          data.MAC,
		Dabs:         data.Dabs,
		AvgDabs:      data.AvgDabs,
		Model:        data.Model,
		Firmware:     data.Firmware,
		FirmwareRaw:  data.FirmwareRaw,
		Hardware:     data.Hardware,
		GitHash:      data.GitHash,
		LastDab:      data.LastDab,
		DOB:          data.DOB,
		LastActive:   data.LastActive,
		LastIP:       data.LastIP,
		SerialNumber: data.SerialNumber,
		UserID:       data.UserID,
		Profiles:     model.HeatProfilesJSON(data.Profiles),
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}

package impl

import (
	"context"
	"testing"

	"puffsocial/internal/domain/entity"
	domainerrors "puffsocial/internal/domain/errors"
	"puffsocial/internal/domain/repository"
	"puffsocial/internal/domain/service"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deviceFixture struct {
	service    *deviceService
	deviceRepo *MockDeviceRepository
	lbRepo     *MockLeaderboardRepository
	puffco     *MockPuffcoProvider
}

func newTestDeviceService(t *testing.T) *deviceFixture {
	t.Helper()

	fixture := &deviceFixture{
		deviceRepo: &MockDeviceRepository{},
		lbRepo:     &MockLeaderboardRepository{},
		puffco:     &MockPuffcoProvider{},
	}

	fixture.service = NewDeviceService(DeviceServiceParams{
		DeviceRepo: fixture.deviceRepo,
		LbRepo:     fixture.lbRepo,
		Puffco:     fixture.puffco,
		Logger:     newDiscardLogger(),
	}).(*deviceService)

	return fixture
}

func TestDeviceService_GetDeviceByMAC(t *testing.T) {
	fixture := newTestDeviceService(t)
	ctx := context.Background()

	device := &entity.Device{ID: "device_x", MAC: testMAC}
	fixture.deviceRepo.On("FindDeviceByMAC", ctx, testMAC).Return(device, nil)
	fixture.lbRepo.On("FindPosition", ctx, "device_x").
		Return(&entity.LeaderboardEntry{ID: "device_x", Position: 3}, nil)

	output, err := fixture.service.GetDeviceByMAC(ctx, testMAC)

	require.NoError(t, err)
	assert.Equal(t, "device_x", output.Device.ID)
	require.NotNil(t, output.Position)
	assert.Equal(t, int64(3), *output.Position)
}

func TestDeviceService_GetDeviceByMAC_Unranked(t *testing.T) {
	fixture := newTestDeviceService(t)
	ctx := context.Background()

	fixture.deviceRepo.On("FindDeviceByMAC", ctx, testMAC).
		Return(&entity.Device{ID: "device_x", MAC: testMAC}, nil)
	fixture.lbRepo.On("FindPosition", ctx, "device_x").Return(nil, repository.ErrDeviceNotFound)

	output, err := fixture.service.GetDeviceByMAC(ctx, testMAC)

	require.NoError(t, err)
	assert.Nil(t, output.Position)
}

func TestDeviceService_GetDeviceByMAC_NotFound(t *testing.T) {
	fixture := newTestDeviceService(t)
	ctx := context.Background()

	fixture.deviceRepo.On("FindDeviceByMAC", ctx, testMAC).Return(nil, repository.ErrDeviceNotFound)

	_, err := fixture.service.GetDeviceByMAC(ctx, testMAC)

	assert.ErrorIs(t, err, domainerrors.ErrDeviceNotFound)
}

func TestDeviceService_ListDevicesWithSerial(t *testing.T) {
	fixture := newTestDeviceService(t)
	ctx := context.Background()

	serialA := "PP1234"
	serialB := "PP5678"
	fixture.deviceRepo.On("FindDevicesWithSerial", ctx, 10).Return([]*entity.Device{
		{ID: "device_a", SerialNumber: &serialA},
		{ID: "device_b", SerialNumber: &serialB},
	}, nil)
	fixture.puffco.On("LatestFirmware", ctx, serialA).
		Return(&service.PuffcoFirmware{Version: "AC"}, nil)
	fixture.puffco.On("LatestFirmware", ctx, serialB).
		Return(nil, errors.New("upstream timeout"))

	devices, err := fixture.service.ListDevicesWithSerial(ctx, 10)

	require.NoError(t, err)
	require.Len(t, devices, 2)
	require.NotNil(t, devices[0].OTA)
	assert.Equal(t, "AC", devices[0].OTA.Version)
	assert.Nil(t, devices[1].OTA)
}

func TestDeviceService_LatestFirmware(t *testing.T) {
	fixture := newTestDeviceService(t)
	ctx := context.Background()

	fixture.puffco.On("LatestFirmware", ctx, "PP1234").
		Return(&service.PuffcoFirmware{Version: "AC", GitHash: "ab12f3c"}, nil)

	firmware, err := fixture.service.LatestFirmware(ctx, "PP1234")

	require.NoError(t, err)
	assert.Equal(t, "AC", firmware.Version)
}

func TestDeviceService_LatestFirmware_UnknownSerial(t *testing.T) {
	fixture := newTestDeviceService(t)
	ctx := context.Background()

	fixture.puffco.On("LatestFirmware", ctx, "nope").Return(nil, nil)

	_, err := fixture.service.LatestFirmware(ctx, "nope")

	assert.ErrorIs(t, err, domainerrors.ErrFirmwareNotFound)
}

package handler

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"puffsocial/internal/delivery/http/response"
	"puffsocial/internal/domain/entity"
	domainerrors "puffsocial/internal/domain/errors"
	"puffsocial/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Keys stripped from devices on public routes. MAC and serial are hardware
// identifiers, the rest leaks reporter details.
var publicDeviceDropKeys = []string{"mac", "git_hash", "profiles", "last_ip", "serial_number"}

// DeviceHandler holds dependencies for device and leaderboard endpoints.
type DeviceHandler struct {
	devices     usecase.DeviceUsecase
	leaderboard usecase.LeaderboardUsecase
	logger      *slog.Logger
}

// NewDeviceHandler is the constructor for DeviceHandler, injected by Fx.
func NewDeviceHandler(devices usecase.DeviceUsecase, leaderboard usecase.LeaderboardUsecase, logger *slog.Logger) *DeviceHandler {
	return &DeviceHandler{devices: devices, leaderboard: leaderboard, logger: logger}
}

// sanitizeEntry strips hardware identifiers from a leaderboard entry's
// embedded device.
func sanitizeEntry(entry *entity.LeaderboardEntry) (map[string]any, error) {
	out, err := response.Sanitize(entry)
	if err != nil {
		return nil, err
	}

	if entry.Device != nil {
		device, err := response.Sanitize(entry.Device, publicDeviceDropKeys...)
		if err != nil {
			return nil, err
		}
		out["devices"] = device
	}

	return out, nil
}

// Leaderboard returns the ranked devices. `?avg` switches to the average
// daily dabs ordering.
func (h *DeviceHandler) Leaderboard(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil {
			limit = parsed
		}
	}

	byAverage := c.QueryParams().Has("avg")

	entries, err := h.leaderboard.TopDevices(c.Request().Context(), limit, byAverage)
	if err != nil {
		return errors.WithStack(err)
	}

	sanitized := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		out, err := sanitizeEntry(entry)
		if err != nil {
			return errors.WithStack(err)
		}
		sanitized = append(sanitized, out)
	}

	return response.Success(c, http.StatusOK, map[string]any{"leaderboards": sanitized})
}

// decodeMACParam decodes the MAC path parameter, transported as
// `mac_<base64>` so colons never hit the path router.
func decodeMACParam(param string) (string, error) {
	param = strings.TrimPrefix(param, "mac_")

	mac, err := base64.StdEncoding.DecodeString(param)
	if err != nil {
		// Browsers sometimes url-safe the padding away.
		mac, err = base64.RawURLEncoding.DecodeString(param)
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to decode mac parameter")
	}

	return string(mac), nil
}

// GetDevice resolves a device by its base64-encoded MAC.
func (h *DeviceHandler) GetDevice(c echo.Context) error {
	mac, err := decodeMACParam(c.Param("device_mac"))
	if err != nil {
		return response.EnvelopeError(c, http.StatusNotFound, domainerrors.ErrDeviceNotFound.ErrorCode(), nil)
	}

	output, err := h.devices.GetDeviceByMAC(c.Request().Context(), mac)
	if err != nil {
		if errors.Is(err, domainerrors.ErrDeviceNotFound) {
			return response.EnvelopeError(c, http.StatusNotFound, domainerrors.ErrDeviceNotFound.ErrorCode(), nil)
		}

		return errors.WithStack(err)
	}

	device, err := response.Sanitize(output.Device, publicDeviceDropKeys...)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"device":   device,
		"position": output.Position,
	})
}

// ListDevices lists serial-bearing devices with their latest upstream
// firmware. Admin only, so nothing is sanitized.
func (h *DeviceHandler) ListDevices(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil {
			limit = parsed
		}
	}

	devices, err := h.devices.ListDevicesWithSerial(c.Request().Context(), limit)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]any{"devices": devices})
}

// LatestFirmware looks up the newest OTA release for a serial. The firmware
// updater expects failures as the flag envelope.
func (h *DeviceHandler) LatestFirmware(c echo.Context) error {
	firmware, err := h.devices.LatestFirmware(c.Request().Context(), c.Param("serial"))
	if err != nil {
		if errors.Is(err, domainerrors.ErrFirmwareNotFound) {
			return response.FlagError(c, http.StatusNotFound, domainerrors.ErrFirmwareNotFound.ErrorCode())
		}

		var appErr domainerrors.AppError
		if errors.As(err, &appErr) {
			return response.FlagError(c, appErr.HTTPCode(), appErr.ErrorCode())
		}

		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, firmware)
}

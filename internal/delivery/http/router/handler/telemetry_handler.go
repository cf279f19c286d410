// Package handler contains the HTTP handlers for the application.
package handler

import (
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"

	"puffsocial/internal/delivery/http/middleware"
	"puffsocial/internal/delivery/http/response"
	domainerrors "puffsocial/internal/domain/errors"
	"puffsocial/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Telemetry bodies are base64 ciphertext; anything bigger than this is not
// a legitimate firmware report.
const maxTelemetryBody = 1 << 20

// TelemetryHandler holds dependencies for the signed telemetry endpoints.
type TelemetryHandler struct {
	uc     usecase.TelemetryUsecase
	logger *slog.Logger
}

// NewTelemetryHandler is the constructor for TelemetryHandler, injected by Fx.
func NewTelemetryHandler(uc usecase.TelemetryUsecase, logger *slog.Logger) *TelemetryHandler {
	return &TelemetryHandler{uc: uc, logger: logger}
}

// readSignedBody pulls the base64 ciphertext body and the x-signature header
// off a telemetry request.
func readSignedBody(c echo.Context) (body []byte, signature string, err error) {
	signature = c.Request().Header.Get("x-signature")
	if signature == "" {
		return nil, "", errors.New("missing x-signature header")
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxTelemetryBody))
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to read request body")
	}

	body, err = base64.StdEncoding.DecodeString(string(raw))
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to decode base64 body")
	}

	return body, signature, nil
}

// Track ingests a usage report. Firmware expects rejections as a bare
// `{"code": ...}` object.
func (h *TelemetryHandler) Track(c echo.Context) error {
	body, signature, err := readSignedBody(c)
	if err != nil {
		return response.CodeError(c, http.StatusBadRequest, domainerrors.ErrInvalidTrackingData.ErrorCode())
	}

	output, err := h.uc.Track(c.Request().Context(), &usecase.TrackInput{
		Body:      body,
		Signature: signature,
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
		Reporter:  middleware.CurrentUser(c),
	})
	if err != nil {
		var appErr domainerrors.AppError
		if errors.As(err, &appErr) {
			return response.CodeError(c, appErr.HTTPCode(), appErr.ErrorCode())
		}

		return errors.WithStack(err)
	}

	device, err := response.Sanitize(output.Device,
		"mac", "model", "hardware", "serial_number", "dob", "last_ip", "user_id")
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"device":   device,
		"position": output.Position,
	})
}

// Diag ingests a diagnostics report.
func (h *TelemetryHandler) Diag(c echo.Context) error {
	body, signature, err := readSignedBody(c)
	if err != nil {
		return response.CodeError(c, http.StatusBadRequest, domainerrors.ErrInvalidDiagData.ErrorCode())
	}

	err = h.uc.Diag(c.Request().Context(), &usecase.DiagInput{
		Body:      body,
		Signature: signature,
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		var appErr domainerrors.AppError
		if errors.As(err, &appErr) {
			return response.CodeError(c, appErr.HTTPCode(), appErr.ErrorCode())
		}

		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Feedback ingests a feedback submission. Validation failures carry the full
// issue list so the client can fix every field at once.
func (h *TelemetryHandler) Feedback(c echo.Context) error {
	body, signature, err := readSignedBody(c)
	if err != nil {
		return response.CodeError(c, http.StatusBadRequest, domainerrors.ErrInvalidFeedbackRequest.ErrorCode())
	}

	err = h.uc.Feedback(c.Request().Context(), &usecase.FeedbackInput{
		Body:      body,
		Signature: signature,
		IP:        c.RealIP(),
	})
	if err != nil {
		var validationErr *domainerrors.ValidationError
		if errors.As(err, &validationErr) {
			return response.EnvelopeError(c, validationErr.HTTPCode(), validationErr.ErrorCode(), validationErr.Issues())
		}

		var appErr domainerrors.AppError
		if errors.As(err, &appErr) {
			return response.CodeError(c, appErr.HTTPCode(), appErr.ErrorCode())
		}

		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

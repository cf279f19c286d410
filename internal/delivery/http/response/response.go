// Package response holds the wire envelopes of the public API. The shapes
// here are a compatibility contract with deployed firmware and web clients;
// changing a field name breaks devices in the field.
package response

import (
	"encoding/json"

	domainerrors "puffsocial/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Envelope is the standard success wrapper.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// ErrorEnvelope is the standard error wrapper.
type ErrorEnvelope struct {
	Success bool       `json:"success"`
	Error   *ErrorInfo `json:"error"`
}

// ErrorInfo carries the machine-readable error code plus, for validation
// failures, every field violation found.
type ErrorInfo struct {
	Code   string               `json:"code"`
	Issues []domainerrors.Issue `json:"issues,omitempty"`
}

// Success writes the standard success envelope.
func Success(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, Envelope{Success: true, Data: data})
}

// EnvelopeError writes the standard error envelope. Issues are included
// when the error carries them.
func EnvelopeError(c echo.Context, statusCode int, code string, issues []domainerrors.Issue) error {
	return c.JSON(statusCode, ErrorEnvelope{
		Success: false,
		Error:   &ErrorInfo{Code: code, Issues: issues},
	})
}

// CodeError writes the bare `{"code": ...}` shape the telemetry firmware
// expects on rejection.
func CodeError(c echo.Context, statusCode int, code string) error {
	return c.JSON(statusCode, map[string]string{"code": code})
}

// FlagError writes the `{"error": true, "code": ...}` shape of the firmware
// lookup endpoints.
func FlagError(c echo.Context, statusCode int, code string) error {
	return c.JSON(statusCode, map[string]any{"error": true, "code": code})
}

// StringError writes the `{"success": false, "error": "..."}` shape of the
// oauth endpoints, where the error is a bare code string.
func StringError(c echo.Context, statusCode int, code string) error {
	return c.JSON(statusCode, map[string]any{"success": false, "error": code})
}

// Sanitize round-trips a value through JSON and drops the named top-level
// keys, so hardware identifiers never leave the API on public routes.
func Sanitize(value any, dropKeys ...string) (map[string]any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal value for sanitizing")
	}

	out := make(map[string]any)
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal value for sanitizing")
	}

	for _, key := range dropKeys {
		delete(out, key)
	}

	return out, nil
}

package middleware

import (
	"log/slog"
	"net/http"

	"puffsocial/internal/delivery/http/response"
	domainerrors "puffsocial/internal/domain/errors"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// ErrorMiddleware is the fallback error handler for errors no handler
// translated itself. Handlers that owe the firmware a family-specific shape
// (bare code, flag envelope) map their errors inline; everything else lands
// here and gets the standard envelope.
type ErrorMiddleware struct {
	logger *slog.Logger
}

// NewErrorMiddleware creates a new error handling middleware
func NewErrorMiddleware(logger *slog.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{
		logger: logger,
	}
}

// HandleHTTPError handles errors as Echo's HTTPErrorHandler.
func (m *ErrorMiddleware) HandleHTTPError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var validationErr *domainerrors.ValidationError
	if errors.As(err, &validationErr) {
		_ = response.EnvelopeError(c, validationErr.HTTPCode(), validationErr.ErrorCode(), validationErr.Issues())

		return
	}

	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		_ = response.EnvelopeError(c, appErr.HTTPCode(), appErr.ErrorCode(), nil)

		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.Code {
		case http.StatusNotFound:
			_ = response.EnvelopeError(c, http.StatusNotFound, "route_not_found", nil)
		case http.StatusMethodNotAllowed:
			_ = response.EnvelopeError(c, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		default:
			_ = response.EnvelopeError(c, httpErr.Code, "http_error", nil)
		}

		return
	}

	m.logger.Error("Unhandled error",
		slog.Any("error", err),
		slog.String("path", c.Request().URL.Path),
		slog.String("method", c.Request().Method),
	)

	_ = response.EnvelopeError(c, http.StatusInternalServerError, "internal_error", nil)
}

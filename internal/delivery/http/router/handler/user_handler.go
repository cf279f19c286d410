package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"puffsocial/internal/delivery/http/middleware"
	"puffsocial/internal/delivery/http/response"
	"puffsocial/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// UserHandler holds dependencies for user-related handlers.
type UserHandler struct {
	uc     usecase.UserUsecase
	logger *slog.Logger
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(uc usecase.UserUsecase, logger *slog.Logger) *UserHandler {
	return &UserHandler{uc: uc, logger: logger}
}

// GetCurrent returns the authenticated user and the provider connection the
// session runs through.
func (h *UserHandler) GetCurrent(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]any{
		"user":       middleware.CurrentUser(c),
		"connection": middleware.CurrentConnection(c),
	})
}

type updateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Image       *string `json:"image"`
}

// UpdateProfile patches the authenticated user's profile.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.EnvelopeError(c, http.StatusBadRequest, "invalid_request", nil)
	}

	user, err := h.uc.UpdateProfile(c.Request().Context(), middleware.CurrentUser(c).ID, &usecase.UpdateProfileInput{
		DisplayName: req.DisplayName,
		Image:       req.Image,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]any{"user": user})
}

// ListUsers returns device owners ordered by total dab count.
func (h *UserHandler) ListUsers(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err == nil {
			limit = parsed
		}
	}

	users, err := h.uc.ListUsersWithDevices(c.Request().Context(), limit)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]any{"users": users})
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

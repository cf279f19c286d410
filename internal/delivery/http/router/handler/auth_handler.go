package handler

import (
	"log/slog"
	"net/http"

	"puffsocial/internal/delivery/http/middleware"
	"puffsocial/internal/delivery/http/response"
	domainerrors "puffsocial/internal/domain/errors"
	"puffsocial/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AuthHandler holds dependencies for authentication endpoints.
type AuthHandler struct {
	identity usecase.IdentityUsecase
	logger   *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(identity usecase.IdentityUsecase, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{identity: identity, logger: logger}
}

type registerRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type oauthCallbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

func authData(output *usecase.AuthOutput) map[string]any {
	data := map[string]any{
		"user":  output.User,
		"token": output.Token,
	}
	if output.Connection != nil {
		data["connection"] = output.Connection
	}

	return data
}

// Register creates a local-credential account.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return response.EnvelopeError(c, http.StatusBadRequest, "invalid_request", nil)
	}

	output, err := h.identity.RegisterLocal(c.Request().Context(), &usecase.RegisterLocalInput{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Password:    req.Password,
		IP:          c.RealIP(),
		UserAgent:   c.Request().UserAgent(),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, authData(output))
}

// Login authenticates local credentials.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return response.EnvelopeError(c, http.StatusBadRequest, "invalid_request", nil)
	}

	output, err := h.identity.LoginLocal(c.Request().Context(), &usecase.LoginLocalInput{
		Email:     req.Email,
		Password:  req.Password,
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, authData(output))
}

// LoginPuffco authenticates against the upstream Puffco account API.
func (h *AuthHandler) LoginPuffco(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return response.EnvelopeError(c, http.StatusBadRequest, "invalid_request", nil)
	}

	output, err := h.identity.LoginPuffco(c.Request().Context(), &usecase.LoginPuffcoInput{
		Email:     req.Email,
		Password:  req.Password,
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, authData(output))
}

// OAuthStart opens a provider authorization flow. The redirect target
// follows the requesting origin so staging fronts land back on themselves.
func (h *AuthHandler) OAuthStart(c echo.Context) error {
	url, err := h.identity.OAuthURL(c.Request().Context(), c.Param("platform"), c.Request().Header.Get("Origin"))
	if err != nil {
		var appErr domainerrors.AppError
		if errors.As(err, &appErr) {
			return response.StringError(c, appErr.HTTPCode(), appErr.ErrorCode())
		}

		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"url": url})
}

// OAuthCallback finishes a provider authorization flow.
func (h *AuthHandler) OAuthCallback(c echo.Context) error {
	var req oauthCallbackRequest
	if err := c.Bind(&req); err != nil {
		return response.StringError(c, http.StatusBadRequest, domainerrors.ErrInvalidState.ErrorCode())
	}

	output, err := h.identity.CompleteOAuth(c.Request().Context(), &usecase.CompleteOAuthInput{
		Platform:  c.Param("platform"),
		State:     req.State,
		Code:      req.Code,
		Origin:    c.Request().Header.Get("Origin"),
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		var appErr domainerrors.AppError
		if errors.As(err, &appErr) &&
			(errors.Is(err, domainerrors.ErrInvalidState) || errors.Is(err, domainerrors.ErrInvalidPlatform)) {
			return response.StringError(c, appErr.HTTPCode(), appErr.ErrorCode())
		}

		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, authData(output))
}

// Verify reports whether the supplied token maps to a live session. It
// always answers 200 so clients can poll it without error handling.
func (h *AuthHandler) Verify(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.JSON(http.StatusOK, map[string]any{"valid": false})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"valid":      true,
		"user":       user,
		"connection": middleware.CurrentConnection(c),
	})
}

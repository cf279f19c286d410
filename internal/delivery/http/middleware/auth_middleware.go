package middleware

import (
	"strings"

	"puffsocial/internal/delivery/http/response"
	"puffsocial/internal/domain/entity"
	domainerrors "puffsocial/internal/domain/errors"
	"puffsocial/internal/usecase"

	"github.com/labstack/echo/v4"
)

// Context keys for the identity resolved by the auth middleware.
const (
	keyUser       = "auth_user"
	keyConnection = "auth_connection"
)

// AuthMiddleware resolves session tokens from the authorization header.
type AuthMiddleware struct {
	sessions usecase.SessionUsecase
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(sessions usecase.SessionUsecase) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// CurrentUser returns the authenticated user on the request, nil when the
// request is anonymous.
func CurrentUser(c echo.Context) *entity.User {
	user, _ := c.Get(keyUser).(*entity.User)

	return user
}

// CurrentConnection returns the provider connection of the authenticated
// session, nil for local-credential or anonymous requests.
func CurrentConnection(c echo.Context) *entity.Connection {
	connection, _ := c.Get(keyConnection).(*entity.Connection)

	return connection
}

func token(c echo.Context) string {
	return strings.TrimSpace(c.Request().Header.Get("authorization"))
}

func (m *AuthMiddleware) resolve(c echo.Context) bool {
	resolved, err := m.sessions.Resolve(c.Request().Context(), token(c))
	if err != nil {
		return false
	}

	c.Set(keyUser, resolved.User)
	c.Set(keyConnection, resolved.Connection)

	return true
}

// Optional attaches the session identity when a valid token is supplied and
// lets the request through either way.
func (m *AuthMiddleware) Optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if token(c) != "" {
			m.resolve(c)
		}

		return next(c)
	}
}

// Required rejects requests without a resolvable session. Suspended users
// are locked out of everything except their own profile routes, so they can
// still see that (and why) they are suspended.
func (m *AuthMiddleware) Required(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if token(c) == "" {
			return response.FlagError(c, domainerrors.ErrMissingAuthorization.HTTPCode(), domainerrors.ErrMissingAuthorization.ErrorCode())
		}

		if !m.resolve(c) {
			return response.FlagError(c, domainerrors.ErrInvalidAuthentication.HTTPCode(), domainerrors.ErrInvalidAuthentication.ErrorCode())
		}

		if CurrentUser(c).Suspended() && !strings.HasSuffix(c.Path(), "/user") {
			return response.FlagError(c, domainerrors.ErrUserSuspended.HTTPCode(), domainerrors.ErrUserSuspended.ErrorCode())
		}

		return next(c)
	}
}

// Admin rejects authenticated users without the admin flag. It must run
// after Required.
func (m *AuthMiddleware) Admin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := CurrentUser(c)
		if user == nil || !user.Admin() {
			return response.FlagError(c, domainerrors.ErrInvalidPermissions.HTTPCode(), domainerrors.ErrInvalidPermissions.ErrorCode())
		}

		return next(c)
	}
}

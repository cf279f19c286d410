package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"puffsocial/internal/domain/entity"
	"puffsocial/internal/domain/service"
	"puffsocial/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSessions resolves a fixed token set.
type stubSessions struct {
	sessions map[string]*usecase.ResolvedSession
}

func (s *stubSessions) Issue(context.Context, *usecase.IssueSessionInput) (string, error) {
	return "", nil
}

func (s *stubSessions) Resolve(_ context.Context, token string) (*usecase.ResolvedSession, error) {
	resolved, ok := s.sessions[token]
	if !ok {
		return nil, service.ErrSessionNotFound
	}

	return resolved, nil
}

func (s *stubSessions) Revoke(context.Context, string) error {
	return nil
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// decodeFlag decodes the `{error: true, code}` body auth failures use.
func decodeFlag(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	out := make(map[string]any)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	return out
}

func newAuthContext(t *testing.T, path, token string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("authorization", token)
	}
	rec := httptest.NewRecorder()

	e := echo.New()
	c := e.NewContext(req, rec)
	c.SetPath(path)

	return c, rec
}

func TestAuthMiddleware_Required_MissingToken(t *testing.T) {
	m := NewAuthMiddleware(&stubSessions{})
	c, rec := newAuthContext(t, "/v1/user", "")

	require.NoError(t, m.Required(okHandler)(c))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	out := decodeFlag(t, rec)
	assert.Equal(t, true, out["error"])
	assert.Equal(t, "missing_authorization", out["code"])
}

func TestAuthMiddleware_Required_UnknownToken(t *testing.T) {
	m := NewAuthMiddleware(&stubSessions{sessions: map[string]*usecase.ResolvedSession{}})
	c, rec := newAuthContext(t, "/v1/user", "session_bogus")

	require.NoError(t, m.Required(okHandler)(c))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	out := decodeFlag(t, rec)
	assert.Equal(t, true, out["error"])
	assert.Equal(t, "invalid_authentication", out["code"])
}

func TestAuthMiddleware_Required_AttachesIdentity(t *testing.T) {
	user := &entity.User{ID: "user_x"}
	connection := &entity.Connection{ID: "connection_x"}
	m := NewAuthMiddleware(&stubSessions{sessions: map[string]*usecase.ResolvedSession{
		"session_good": {User: user, Connection: connection},
	}})
	c, rec := newAuthContext(t, "/v1/user", "session_good")

	require.NoError(t, m.Required(func(c echo.Context) error {
		assert.Equal(t, user, CurrentUser(c))
		assert.Equal(t, connection, CurrentConnection(c))

		return c.NoContent(http.StatusOK)
	})(c))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_Required_SuspendedUser(t *testing.T) {
	suspended := &entity.User{ID: "user_x", Flags: entity.UserFlagSuspended}
	m := NewAuthMiddleware(&stubSessions{sessions: map[string]*usecase.ResolvedSession{
		"session_sus": {User: suspended},
	}})

	c, rec := newAuthContext(t, "/v1/leaderboard", "session_sus")
	require.NoError(t, m.Required(okHandler)(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	out := decodeFlag(t, rec)
	assert.Equal(t, true, out["error"])
	assert.Equal(t, "user_suspended", out["code"])

	// Profile routes stay reachable so the user can see the suspension.
	c, rec = newAuthContext(t, "/v1/user", "session_sus")
	require.NoError(t, m.Required(okHandler)(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_Admin(t *testing.T) {
	admin := &entity.User{ID: "user_a", Flags: entity.UserFlagAdmin}
	plain := &entity.User{ID: "user_p"}
	m := NewAuthMiddleware(&stubSessions{sessions: map[string]*usecase.ResolvedSession{
		"session_admin": {User: admin},
		"session_plain": {User: plain},
	}})

	c, rec := newAuthContext(t, "/v1/users", "session_plain")
	require.NoError(t, m.Required(m.Admin(okHandler))(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	out := decodeFlag(t, rec)
	assert.Equal(t, true, out["error"])
	assert.Equal(t, "invalid_permissions", out["code"])

	c, rec = newAuthContext(t, "/v1/users", "session_admin")
	require.NoError(t, m.Required(m.Admin(okHandler))(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_Optional(t *testing.T) {
	user := &entity.User{ID: "user_x"}
	m := NewAuthMiddleware(&stubSessions{sessions: map[string]*usecase.ResolvedSession{
		"session_good": {User: user},
	}})

	// Anonymous requests pass straight through.
	c, rec := newAuthContext(t, "/v1/track", "")
	require.NoError(t, m.Optional(func(c echo.Context) error {
		assert.Nil(t, CurrentUser(c))

		return c.NoContent(http.StatusOK)
	})(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	// A bad token is ignored rather than rejected.
	c, rec = newAuthContext(t, "/v1/track", "session_bogus")
	require.NoError(t, m.Optional(func(c echo.Context) error {
		assert.Nil(t, CurrentUser(c))

		return c.NoContent(http.StatusOK)
	})(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	// A good token attaches the reporter.
	c, _ = newAuthContext(t, "/v1/track", "session_good")
	require.NoError(t, m.Optional(func(c echo.Context) error {
		assert.Equal(t, user, CurrentUser(c))

		return c.NoContent(http.StatusOK)
	})(c))
}

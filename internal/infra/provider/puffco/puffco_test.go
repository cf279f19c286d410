package puffco

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	domainerrors "puffsocial/internal/domain/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := &client{
		baseURL:    server.URL,
		httpClient: server.Client(),
		logger:     slog.Default(),
		stop:       make(chan struct{}),
	}
	c.appVersion = atomic.Value{}
	c.appVersion.Store("2.15.0")

	return c
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "12345",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	return signed
}

func TestLogin(t *testing.T) {
	accessExp := time.Now().Add(time.Hour).Truncate(time.Second)
	refreshExp := time.Now().Add(30 * 24 * time.Hour).Truncate(time.Second)
	accessToken := signedToken(t, accessExp)
	refreshToken := signedToken(t, refreshExp)

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/users/login", r.URL.Path)
		assert.Equal(t, "puff.social/1.0.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "2.15.0", r.Header.Get("X-App-Version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"accessToken":"` + accessToken + `","refreshToken":"` + refreshToken + `"}`))
	}))

	tokens, err := c.Login(context.Background(), "user@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, accessToken, tokens.AccessToken)
	assert.Equal(t, refreshToken, tokens.RefreshToken)
	assert.Equal(t, accessExp.Unix(), tokens.AccessExpiry.Unix())
	assert.Equal(t, refreshExp.Unix(), tokens.RefreshExpiry.Unix())
}

func TestLogin_RejectedCredentials(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"Attempt","remainAttempts":4}`))
	}))

	tokens, err := c.Login(context.Background(), "user@example.com", "wrong")
	assert.Nil(t, tokens)
	assert.ErrorIs(t, err, domainerrors.ErrProviderExchangeFailed)
}

func TestFetchProfile(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/me", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`{"id":98765,"username":"dabber","verified":true,"email":"user@example.com"}`))
	}))

	profile, err := c.FetchProfile(context.Background(), "token-123")
	require.NoError(t, err)
	assert.Equal(t, "98765", profile.ID)
	assert.Equal(t, "dabber", profile.Username)
	assert.True(t, profile.Verified)
}

func TestLatestFirmware(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ota/latest", r.URL.Path)
		assert.Equal(t, "PK1234567890", r.URL.Query().Get("serialNumber"))

		_, _ = w.Write([]byte(`{
			"id": 42,
			"version": "AC",
			"fileMedia": {
				"filename": "peach-application-ab12f3c-release.gbl",
				"created": "2023-05-01T12:00:00Z"
			}
		}`))
	}))

	firmware, err := c.LatestFirmware(context.Background(), "PK1234567890")
	require.NoError(t, err)
	require.NotNil(t, firmware)
	assert.Equal(t, "AC", firmware.Version)
	assert.Equal(t, "peach", firmware.Codename)
	assert.Equal(t, "application", firmware.Name)
	assert.Equal(t, "ab12f3c", firmware.GitHash)
	assert.Equal(t, "gbl", firmware.Type)
	require.NotNil(t, firmware.Date)
	assert.Equal(t, 2023, firmware.Date.Year())
}

func TestLatestFirmware_NotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	firmware, err := c.LatestFirmware(context.Background(), "PK0000000000")
	require.NoError(t, err)
	assert.Nil(t, firmware)
}

func TestLatestFirmware_UnparseableFilename(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version":"Y","fileMedia":{"filename":"mystery.bin","created":""}}`))
	}))

	firmware, err := c.LatestFirmware(context.Background(), "PK1234567890")
	require.NoError(t, err)
	require.NotNil(t, firmware)
	assert.Equal(t, "Y", firmware.Version)
	assert.Empty(t, firmware.GitHash)
	assert.Nil(t, firmware.Date)
}

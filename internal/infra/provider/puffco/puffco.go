// Package puffco implements the upstream Puffco account API client.
package puffco

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"puffsocial/config"
	domainerrors "puffsocial/internal/domain/errors"
	"puffsocial/internal/domain/service"
	"puffsocial/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const (
	userAgent = "puff.social/1.0.0"

	// appVersionKey is where operators push the app version the upstream
	// API expects in the x-app-version header. The client re-reads it on
	// an interval so a bump never requires a redeploy.
	appVersionKey = "puffco/app_version"

	clientTimeout = 20 * time.Second
)

type client struct {
	baseURL    string
	httpClient *http.Client
	cache      redis.UniversalClient
	logger     *slog.Logger

	appVersion atomic.Value
	stop       chan struct{}
}

// Params holds dependencies for the Puffco client, injected by Fx
type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Cache  redis.UniversalClient
	Logger *slog.Logger
}

// New creates the Puffco API client and starts the app version refresher.
func New(params Params) service.PuffcoProvider {
	cfg := params.Config.Puffco

	c := &client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: clientTimeout},
		cache:      params.Cache,
		logger:     params.Logger,
		stop:       make(chan struct{}),
	}
	c.appVersion.Store(cfg.AppVersion)

	params.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			c.refreshAppVersion(ctx)
			go c.refreshLoop(cfg.VersionRefreshInterval)

			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(c.stop)

			return nil
		},
	})

	return c
}

func (c *client) refreshLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			c.refreshAppVersion(ctx)
			cancel()
		case <-c.stop:
			return
		}
	}
}

// refreshAppVersion reads the current upstream app version from the cache.
// An absent key or cache error keeps the last known version.
func (c *client) refreshAppVersion(ctx context.Context) {
	version, err := c.cache.Get(ctx, appVersionKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Failed to refresh upstream app version",
				slog.Any("error", err),
			)
		}

		return
	}

	if version != "" && version != c.currentAppVersion() {
		c.logger.Info("Upstream app version updated",
			slog.String("version", version),
		)
		c.appVersion.Store(version)
	}
}

func (c *client) currentAppVersion() string {
	version, _ := c.appVersion.Load().(string)

	return version
}

func (c *client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-App-Version", c.currentAppVersion())

	return req, nil
}

type accountTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Login authenticates a user upstream. The upstream API answers 201 on
// success; anything else means the credentials were rejected and the whole
// link attempt fails.
func (c *client) Login(ctx context.Context, email, password string) (*service.PuffcoTokens, error) {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/users/login", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domainerrors.ErrUpstreamProvider.WrapMessage("puffco login failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, domainerrors.ErrProviderExchangeFailed
	}

	var tokens accountTokens
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, errors.Wrap(err, "failed to decode puffco token response")
	}

	accessExpiry, err := tokenExpiry(tokens.AccessToken)
	if err != nil {
		return nil, err
	}
	refreshExpiry, err := tokenExpiry(tokens.RefreshToken)
	if err != nil {
		return nil, err
	}

	return &service.PuffcoTokens{
		AccessToken:   tokens.AccessToken,
		AccessExpiry:  accessExpiry,
		RefreshToken:  tokens.RefreshToken,
		RefreshExpiry: refreshExpiry,
	}, nil
}

// tokenExpiry reads the exp claim without verifying the signature. The
// tokens are opaque upstream credentials; only their lifetime matters here.
func tokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, errors.Wrap(err, "failed to decode upstream token")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, errors.New("upstream token has no expiry")
	}

	return exp.Time, nil
}

type puffcoUser struct {
	ID       json.Number `json:"id"`
	Username string      `json:"username"`
	Verified bool        `json:"verified"`
}

// FetchProfile loads the account the access token belongs to.
func (c *client) FetchProfile(ctx context.Context, accessToken string) (*service.PuffcoProfile, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/users/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domainerrors.ErrUpstreamProvider.WrapMessage("puffco profile fetch failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domainerrors.ErrProviderExchangeFailed
	}

	var user puffcoUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, errors.Wrap(err, "failed to decode puffco profile")
	}

	return &service.PuffcoProfile{
		ID:       user.ID.String(),
		Username: user.Username,
		Verified: user.Verified,
	}, nil
}

type otaRelease struct {
	Version   string `json:"version"`
	FileMedia struct {
		Filename string `json:"filename"`
		Created  string `json:"created"`
	} `json:"fileMedia"`
}

// LatestFirmware looks up the newest OTA release for a serial number.
// Returns nil when upstream has none for it.
func (c *client) LatestFirmware(ctx context.Context, serial string) (*service.PuffcoFirmware, error) {
	path := "/api/ota/latest"
	if serial != "" {
		path += "?serialNumber=" + url.QueryEscape(serial)
	}

	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domainerrors.ErrUpstreamProvider.WrapMessage("puffco ota lookup failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("puffco ota lookup returned status %d", resp.StatusCode)
	}

	var release otaRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, errors.Wrap(err, "failed to decode ota response")
	}

	firmware := &service.PuffcoFirmware{
		Version: release.Version,
	}

	// The artifact filename encodes the build metadata; not every release
	// follows the scheme, version alone is still useful.
	if parsed, ok := util.ParseOTAFilename(release.FileMedia.Filename); ok {
		firmware.Codename = parsed.Codename
		firmware.Name = parsed.Name
		firmware.GitHash = parsed.GitHash
		firmware.Type = parsed.Type

		if created, err := time.Parse(time.RFC3339, release.FileMedia.Created); err == nil {
			firmware.Date = &created
		}
	}

	return firmware, nil
}

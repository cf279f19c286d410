// Package discord implements the Discord OAuth provider client.
package discord

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"puffsocial/config"
	domainerrors "puffsocial/internal/domain/errors"
	"puffsocial/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	apiBase       = "https://discord.com/api"
	cdnBase       = "https://cdn.discordapp.com"
	clientTimeout = 15 * time.Second
)

type client struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// Params defines the required parameters
type Params struct {
	fx.In

	Config *config.Config
}

// New creates the Discord provider client.
func New(params Params) (service.DiscordProvider, error) {
	cfg := params.Config.Discord
	if cfg == nil || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("discord oauth credentials are not configured")
	}

	return &client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   &http.Client{Timeout: clientTimeout},
	}, nil
}

// AuthorizeURL builds the authorization URL for the given state nonce.
func (c *client) AuthorizeURL(state, redirectURI string) string {
	params := url.Values{}
	params.Set("client_id", c.clientID)
	params.Set("response_type", "code")
	params.Set("scope", "identify")
	params.Set("state", state)
	params.Set("redirect_uri", redirectURI)

	return apiBase + "/oauth2/authorize?" + params.Encode()
}

// ExchangeCode trades an authorization code for tokens. A non-200 response
// means the caller must restart the OAuth flow; it is never retried here.
func (c *client) ExchangeCode(ctx context.Context, code, redirectURI string) (*service.DiscordTokens, error) {
	form := url.Values{}
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", redirectURI)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBase+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domainerrors.ErrUpstreamProvider.WrapMessage("discord token exchange failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domainerrors.ErrProviderExchangeFailed
	}

	var tokens service.DiscordTokens
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, errors.Wrap(err, "failed to decode discord token response")
	}

	return &tokens, nil
}

// FetchProfile loads the profile the access token belongs to.
func (c *client) FetchProfile(ctx context.Context, accessToken string) (*service.DiscordProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+"/users/@me", nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domainerrors.ErrUpstreamProvider.WrapMessage("discord profile fetch failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domainerrors.ErrProviderExchangeFailed
	}

	var profile service.DiscordProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, errors.Wrap(err, "failed to decode discord profile")
	}

	return &profile, nil
}

// FetchAvatar downloads the avatar image for a profile. Animated avatars
// (hash prefixed "a_") come back as gif, the rest as png.
func (c *client) FetchAvatar(ctx context.Context, profile *service.DiscordProfile) ([]byte, string, error) {
	if profile.Avatar == nil {
		return nil, "", errors.New("profile has no avatar")
	}

	hash := *profile.Avatar
	ext := "png"
	contentType := "image/png"
	if strings.HasPrefix(hash, "a_") {
		ext = "gif"
		contentType = "image/gif"
	}

	avatarURL := cdnBase + "/avatars/" + profile.ID + "/" + hash + "." + ext + "?size=512"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, avatarURL, nil)
	if err != nil {
		return nil, "", errors.WithStack(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to fetch discord avatar")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", errors.Errorf("discord cdn returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to read discord avatar")
	}

	return data, contentType, nil
}

package service

import (
	"context"
	"time"
)

// DiscordTokens is the token set returned by a Discord code exchange.
type DiscordTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

// DiscordProfile is the subset of a Discord user profile this system keeps.
type DiscordProfile struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	GlobalName *string `json:"global_name"`
	Avatar     *string `json:"avatar"`
}

// DiscordProvider talks to the Discord OAuth endpoints.
type DiscordProvider interface {
	// ExchangeCode trades an authorization code for tokens.
	ExchangeCode(ctx context.Context, code, redirectURI string) (*DiscordTokens, error)

	// FetchProfile loads the profile the access token belongs to.
	FetchProfile(ctx context.Context, accessToken string) (*DiscordProfile, error)

	// FetchAvatar downloads the avatar image for a profile, returning the
	// raw bytes and content type.
	FetchAvatar(ctx context.Context, profile *DiscordProfile) ([]byte, string, error)

	// AuthorizeURL builds the authorization URL for the given state nonce.
	AuthorizeURL(state, redirectURI string) string
}

// PuffcoTokens is the token pair returned by an upstream Puffco login,
// with expiries decoded from the tokens themselves.
type PuffcoTokens struct {
	AccessToken   string
	AccessExpiry  time.Time
	RefreshToken  string
	RefreshExpiry time.Time
}

// PuffcoProfile is the subset of an upstream Puffco account this system keeps.
type PuffcoProfile struct {
	ID       string
	Username string
	Verified bool
}

// PuffcoFirmware describes the latest OTA release for a device serial.
type PuffcoFirmware struct {
	Version  string     `json:"version"`
	Codename string     `json:"codename,omitempty"`
	Name     string     `json:"name,omitempty"`
	GitHash  string     `json:"gitHash,omitempty"`
	Type     string     `json:"type,omitempty"`
	Date     *time.Time `json:"date,omitempty"`
}

// PuffcoProvider talks to the upstream Puffco account API.
type PuffcoProvider interface {
	// Login authenticates a user upstream and returns the token pair.
	Login(ctx context.Context, email, password string) (*PuffcoTokens, error)

	// FetchProfile loads the account the access token belongs to.
	FetchProfile(ctx context.Context, accessToken string) (*PuffcoProfile, error)

	// LatestFirmware looks up the newest OTA release for a serial number.
	// Returns nil when upstream has none for it.
	LatestFirmware(ctx context.Context, serial string) (*PuffcoFirmware, error)
}

// AvatarStore persists provider avatar images.
type AvatarStore interface {
	// Store writes avatar bytes under the user's id and avatar hash.
	Store(ctx context.Context, userID, hash string, data []byte, contentType string) error
}

// IDGenerator produces prefixed opaque row ids and secure tokens.
type IDGenerator interface {
	// Gen returns a new id with the given prefix, e.g. "device_…".
	Gen(prefix string) string

	// GenSecure returns a new id with extra entropy, for tokens and nonces
	// that must not be guessable.
	GenSecure(prefix string) string
}

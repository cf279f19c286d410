package usecase

import (
	"context"

	"puffsocial/internal/domain/entity"
)

// RegisterLocalInput creates a credential-backed identity.
type RegisterLocalInput struct {
	Username    string
	DisplayName string
	Email       string
	Password    string
	IP          string
	UserAgent   string
}

// LoginLocalInput authenticates against local credentials.
type LoginLocalInput struct {
	Email     string
	Password  string
	IP        string
	UserAgent string
}

// CompleteOAuthInput finishes a provider authorization round trip.
type CompleteOAuthInput struct {
	Platform  string
	State     string
	Code      string
	Origin    string
	IP        string
	UserAgent string
}

// LoginPuffcoInput authenticates through the upstream Puffco account API.
type LoginPuffcoInput struct {
	Email     string
	Password  string
	IP        string
	UserAgent string
}

// AuthOutput is the result of any successful authentication flow: the
// resolved user, the provider connection when one is involved, and a fresh
// session token.
type AuthOutput struct {
	User       *entity.User
	Connection *entity.Connection
	Token      string
}

// IdentityUsecase links external and local identities to users and opens
// sessions for them.
type IdentityUsecase interface {
	// RegisterLocal creates a user with local credentials and opens a session.
	RegisterLocal(ctx context.Context, input *RegisterLocalInput) (*AuthOutput, error)

	// LoginLocal authenticates local credentials and opens a session.
	LoginLocal(ctx context.Context, input *LoginLocalInput) (*AuthOutput, error)

	// OAuthURL starts a provider authorization flow, returning the URL the
	// client should redirect to.
	OAuthURL(ctx context.Context, platform, origin string) (string, error)

	// CompleteOAuth consumes the authorization callback, linking the provider
	// identity to an existing user or creating a new one, and opens a session.
	CompleteOAuth(ctx context.Context, input *CompleteOAuthInput) (*AuthOutput, error)

	// LoginPuffco authenticates upstream Puffco credentials, linking the
	// account to a user on first sight, and opens a session.
	LoginPuffco(ctx context.Context, input *LoginPuffcoInput) (*AuthOutput, error)
}

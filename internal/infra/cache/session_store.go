package cache

import (
	"context"
	"time"

	"puffsocial/internal/domain/entity"
	"puffsocial/internal/domain/service"
	"puffsocial/internal/errors"

	"github.com/redis/go-redis/v9"
)

// Cache key layout. These are shared with other services reading the same
// Redis instance; do not change them.
const (
	sessionKeyPrefix    = "sessions/"
	oauthStateKeyPrefix = "oauth_state/"
)

// sessionStore implements service.SessionStore on Redis hashes.
type sessionStore struct {
	client *redis.Client
}

// NewSessionStore is the constructor for sessionStore.
func NewSessionStore(client *redis.Client) service.SessionStore {
	return &sessionStore{client: client}
}

// PutSession stores the link field-set under the token. No TTL: sessions die
// only on revoke or cache flush.
func (s *sessionStore) PutSession(ctx context.Context, token string, link entity.SessionLink) error {
	fields := map[string]any{"user_id": link.UserID}
	if link.AccountID != "" {
		fields["account_id"] = link.AccountID
	}
	if link.ConnectionID != "" {
		fields["connection_id"] = link.ConnectionID
	}

	if err := s.client.HSet(ctx, sessionKeyPrefix+token, fields).Err(); err != nil {
		return errors.Wrap(err, "failed to store session")
	}

	return nil
}

// GetSession resolves a token from the cache only; there is no durable-store
// fallback.
func (s *sessionStore) GetSession(ctx context.Context, token string) (entity.SessionLink, error) {
	fields, err := s.client.HGetAll(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		return entity.SessionLink{}, errors.Wrap(err, "failed to read session")
	}
	if len(fields) == 0 {
		return entity.SessionLink{}, service.ErrSessionNotFound
	}

	return entity.SessionLink{
		UserID:       fields["user_id"],
		AccountID:    fields["account_id"],
		ConnectionID: fields["connection_id"],
	}, nil
}

// DeleteSession revokes a token.
func (s *sessionStore) DeleteSession(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return errors.Wrap(err, "failed to delete session")
	}

	return nil
}

// oauthStateStore implements service.OAuthStateStore.
type oauthStateStore struct {
	client *redis.Client
}

// NewOAuthStateStore is the constructor for oauthStateStore.
func NewOAuthStateStore(client *redis.Client) service.OAuthStateStore {
	return &oauthStateStore{client: client}
}

// PutState stores a state nonce with the given TTL.
func (s *oauthStateStore) PutState(ctx context.Context, state string, ttl time.Duration) error {
	if err := s.client.Set(ctx, oauthStateKeyPrefix+state, state, ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to store oauth state")
	}

	return nil
}

// StateExists reports whether the state nonce is still live.
func (s *oauthStateStore) StateExists(ctx context.Context, state string) (bool, error) {
	n, err := s.client.Exists(ctx, oauthStateKeyPrefix+state).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to check oauth state")
	}

	return n > 0, nil
}

// DeleteState consumes a state nonce.
func (s *oauthStateStore) DeleteState(ctx context.Context, state string) error {
	if err := s.client.Del(ctx, oauthStateKeyPrefix+state).Err(); err != nil {
		return errors.Wrap(err, "failed to delete oauth state")
	}

	return nil
}

// providerTokenStore implements service.ProviderTokenStore.
type providerTokenStore struct {
	client *redis.Client
}

// NewProviderTokenStore is the constructor for providerTokenStore.
func NewProviderTokenStore(client *redis.Client) service.ProviderTokenStore {
	return &providerTokenStore{client: client}
}

// PutDiscordTokens stores the access token with the provider-declared TTL and
// the refresh token without one.
func (s *providerTokenStore) PutDiscordTokens(ctx context.Context, platformID, accessToken, refreshToken string, expiresIn time.Duration) error {
	if err := s.client.Set(ctx, "oauth/discord/"+platformID, accessToken, expiresIn).Err(); err != nil {
		return errors.Wrap(err, "failed to store discord access token")
	}

	if err := s.client.Set(ctx, "oauth/discord/"+platformID+"/refresh", refreshToken, 0).Err(); err != nil {
		return errors.Wrap(err, "failed to store discord refresh token")
	}

	return nil
}

// PutPuffcoTokens stores both tokens with absolute expiries taken from their
// JWT exp claims.
func (s *providerTokenStore) PutPuffcoTokens(ctx context.Context, userID, accessToken string, accessExpiry time.Time, refreshToken string, refreshExpiry time.Time) error {
	accessKey := "tokens/puffco/" + userID + "/access_token"
	if err := s.client.Set(ctx, accessKey, accessToken, 0).Err(); err != nil {
		return errors.Wrap(err, "failed to store puffco access token")
	}
	if err := s.client.ExpireAt(ctx, accessKey, accessExpiry).Err(); err != nil {
		return errors.Wrap(err, "failed to expire puffco access token")
	}

	refreshKey := "tokens/puffco/" + userID + "/refresh_token"
	if err := s.client.Set(ctx, refreshKey, refreshToken, 0).Err(); err != nil {
		return errors.Wrap(err, "failed to store puffco refresh token")
	}
	if err := s.client.ExpireAt(ctx, refreshKey, refreshExpiry).Err(); err != nil {
		return errors.Wrap(err, "failed to expire puffco refresh token")
	}

	return nil
}

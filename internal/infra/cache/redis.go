// Package cache provides the Redis-backed stores for sessions, OAuth state
// nonces and upstream provider tokens.
package cache

import (
	"context"
	"log/slog"

	"puffsocial/config"
	"puffsocial/internal/domain/lifecycle"
	"puffsocial/internal/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New creates the Redis client
func New(params Params) (*redis.Client, error) {
	if params.Config.Redis == nil || params.Config.Redis.URI == "" {
		return nil, errors.New("redis uri is not configured")
	}

	opts, err := redis.ParseURL(params.Config.Redis.URI)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse redis uri")
	}

	client := redis.NewClient(opts)

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := client.Ping(ctx).Err(); err != nil {
				return errors.Wrap(err, "failed to ping redis")
			}

			return nil
		},
		OnStop: func(_ context.Context) error {
			return errors.WithStack(client.Close())
		},
	})

	return client, nil
}

package main

import (
	"context"
	"log/slog"
	"os"

	"puffsocial/config"
	"puffsocial/internal/delivery"
	"puffsocial/internal/delivery/http"
	"puffsocial/internal/delivery/http/middleware"
	"puffsocial/internal/delivery/http/router/handler"
	"puffsocial/internal/domain/service"
	"puffsocial/internal/infra/auth"
	"puffsocial/internal/infra/avatar"
	"puffsocial/internal/infra/cache"
	"puffsocial/internal/infra/eventlog"
	"puffsocial/internal/infra/ident"
	logs "puffsocial/internal/infra/log"
	"puffsocial/internal/infra/persistence/postgres"
	"puffsocial/internal/infra/provider/discord"
	"puffsocial/internal/infra/provider/puffco"
	"puffsocial/internal/infra/signature"
	"puffsocial/internal/usecase/impl"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
		cache.New,
		newUniversalClient,
	)
}

// newUniversalClient widens the concrete Redis client for consumers that
// only need the command interface.
func newUniversalClient(client *redis.Client) redis.UniversalClient {
	return client
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewUserRepository,
			postgres.NewAccountRepository,
			postgres.NewConnectionRepository,
			postgres.NewDeviceRepository,
			postgres.NewSessionRepository,
			postgres.NewDiagnosticsRepository,
			postgres.NewFeedbackRepository,
			postgres.NewLeaderboardRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			newPasswordHasher,
			newPayloadVerifier,
			ident.NewGenerator,
			cache.NewSessionStore,
			cache.NewOAuthStateStore,
			cache.NewProviderTokenStore,
			eventlog.NewEventSink,
			avatar.New,
			discord.New,
			puffco.New,
		),
	)
}

// newPasswordHasher creates the bcrypt hasher with the configured cost.
func newPasswordHasher(cfg *config.Config) service.PasswordHasher {
	cost := 0
	if cfg.Auth != nil {
		cost = cfg.Auth.BcryptCost
	}

	return auth.NewBcryptHasher(cost)
}

// newPayloadVerifier creates the telemetry envelope codec from the shared
// metrics key.
func newPayloadVerifier(cfg *config.Config) (service.PayloadVerifier, error) {
	metricsKey := ""
	if cfg.Signature != nil {
		metricsKey = cfg.Signature.MetricsKey
	}

	codec, err := signature.New(metricsKey)
	if err != nil {
		return nil, err
	}

	return codec, nil
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewTelemetryService,
			impl.NewSessionService,
			impl.NewIdentityService,
			impl.NewLeaderboardService,
			impl.NewUserService,
			impl.NewDeviceService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
			middleware.NewErrorMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewTelemetryHandler,
			handler.NewDeviceHandler,
			handler.NewAuthHandler,
			handler.NewUserHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}

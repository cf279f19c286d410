package impl

import (
	"context"
	"log/slog"

	deliverycontext "puffsocial/internal/delivery/context"
	"puffsocial/internal/domain/entity"
	"puffsocial/internal/domain/repository"
	"puffsocial/internal/domain/service"
	"puffsocial/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// sessionService implements the SessionUsecase interface.
type sessionService struct {
	store          service.SessionStore
	sessionRepo    repository.SessionRepository
	userRepo       repository.UserRepository
	connectionRepo repository.ConnectionRepository
	ids            service.IDGenerator
	logger         *slog.Logger
}

// SessionServiceParams holds dependencies for SessionService, injected by Fx.
type SessionServiceParams struct {
	fx.In

	Store          service.SessionStore
	SessionRepo    repository.SessionRepository
	UserRepo       repository.UserRepository
	ConnectionRepo repository.ConnectionRepository
	IDs            service.IDGenerator
	Logger         *slog.Logger
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(params SessionServiceParams) usecase.SessionUsecase {
	return &sessionService{
		store:          params.Store,
		sessionRepo:    params.SessionRepo,
		userRepo:       params.UserRepo,
		connectionRepo: params.ConnectionRepo,
		ids:            params.IDs,
		logger:         params.Logger,
	}
}

func (srv *sessionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Issue mints a token for the identity and records the audit row. The cache
// write is the authoritative one; a failed audit insert is logged but does
// not invalidate the already-live token.
func (srv *sessionService) Issue(ctx context.Context, input *usecase.IssueSessionInput) (string, error) {
	token := srv.ids.GenSecure("session")

	link := entity.SessionLink{
		UserID:       input.UserID,
		AccountID:    input.AccountID,
		ConnectionID: input.ConnectionID,
	}

	if err := srv.store.PutSession(ctx, token, link); err != nil {
		return "", errors.Wrap(err, "failed to store session token")
	}

	session := &entity.Session{
		Token:     token,
		UserID:    input.UserID,
		IP:        input.IP,
		UserAgent: orDefault(input.UserAgent, "N/A"),
	}
	if input.AccountID != "" {
		session.AccountID = &input.AccountID
	}
	if input.ConnectionID != "" {
		session.ConnectionID = &input.ConnectionID
	}

	if err := srv.sessionRepo.CreateSession(ctx, session); err != nil {
		srv.log(ctx).Error("Failed to record session audit row",
			slog.String("userID", input.UserID),
			slog.Any("error", err),
		)
	}

	return token, nil
}

// Resolve maps a token back to its user and provider connection.
func (srv *sessionService) Resolve(ctx context.Context, token string) (*usecase.ResolvedSession, error) {
	link, err := srv.store.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return nil, service.ErrSessionNotFound
		}

		return nil, errors.Wrap(err, "failed to resolve session token")
	}

	user, err := srv.userRepo.FindUserByID(ctx, link.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// The cache outlived the user row; treat the token as dead.
			return nil, service.ErrSessionNotFound
		}

		return nil, errors.Wrap(err, "failed to load session user")
	}

	resolved := &usecase.ResolvedSession{
		User:      user,
		AccountID: link.AccountID,
	}

	if link.ConnectionID != "" {
		connection, err := srv.connectionRepo.FindConnectionByID(ctx, link.ConnectionID)
		if err != nil && !errors.Is(err, repository.ErrConnectionNotFound) {
			return nil, errors.Wrap(err, "failed to load session connection")
		}
		resolved.Connection = connection
	}

	return resolved, nil
}

// Revoke invalidates a token.
func (srv *sessionService) Revoke(ctx context.Context, token string) error {
	if err := srv.store.DeleteSession(ctx, token); err != nil {
		return errors.Wrap(err, "failed to revoke session token")
	}

	return nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}

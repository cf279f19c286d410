package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"puffsocial/config"
	deliverycontext "puffsocial/internal/delivery/context"
	"puffsocial/internal/domain/entity"
	domainerrors "puffsocial/internal/domain/errors"
	"puffsocial/internal/domain/repository"
	"puffsocial/internal/domain/service"
	"puffsocial/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// oauthStateTTL bounds how long an authorization round trip may take.
const oauthStateTTL = 500 * time.Second

// identityService implements the IdentityUsecase interface.
type identityService struct {
	txManager       repository.TransactionManager
	userRepo        repository.UserRepository
	accountRepo     repository.AccountRepository
	connectionRepo  repository.ConnectionRepository
	hasher          service.PasswordHasher
	discord         service.DiscordProvider
	puffco          service.PuffcoProvider
	states          service.OAuthStateStore
	providerTokens  service.ProviderTokenStore
	avatars         service.AvatarStore
	sessions        usecase.SessionUsecase
	events          service.EventSink
	ids             service.IDGenerator
	applicationHost string
	logger          *slog.Logger
}

// IdentityServiceParams holds dependencies for IdentityService, injected by Fx.
type IdentityServiceParams struct {
	fx.In

	TxManager      repository.TransactionManager
	UserRepo       repository.UserRepository
	AccountRepo    repository.AccountRepository
	ConnectionRepo repository.ConnectionRepository
	Hasher         service.PasswordHasher
	Discord        service.DiscordProvider
	Puffco         service.PuffcoProvider
	States         service.OAuthStateStore
	ProviderTokens service.ProviderTokenStore
	Avatars        service.AvatarStore
	Sessions       usecase.SessionUsecase
	Events         service.EventSink
	IDs            service.IDGenerator
	Config         *config.Config
	Logger         *slog.Logger
}

// NewIdentityService is the constructor for identityService.
func NewIdentityService(params IdentityServiceParams) usecase.IdentityUsecase {
	applicationHost := ""
	if params.Config != nil && params.Config.Discord != nil {
		applicationHost = params.Config.Discord.ApplicationHost
	}

	return &identityService{
		txManager:       params.TxManager,
		userRepo:        params.UserRepo,
		accountRepo:     params.AccountRepo,
		connectionRepo:  params.ConnectionRepo,
		hasher:          params.Hasher,
		discord:         params.Discord,
		puffco:          params.Puffco,
		states:          params.States,
		providerTokens:  params.ProviderTokens,
		avatars:         params.Avatars,
		sessions:        params.Sessions,
		events:          params.Events,
		ids:             params.IDs,
		applicationHost: applicationHost,
		logger:          params.Logger,
	}
}

func (srv *identityService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *identityService) publishNewUser(ctx context.Context, user *entity.User, authType string) {
	event := &service.AuditEvent{
		Type:      service.EventNewUser,
		Channel:   channelUsers,
		RequestID: deliverycontext.GetRequestIDFromContext(ctx),
		Data: &service.NewUserEvent{
			ID:          user.ID,
			Name:        user.Name,
			DisplayName: user.DisplayName,
			AuthType:    authType,
		},
	}

	if err := srv.events.PublishEvent(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish new user event",
			slog.String("userID", user.ID),
			slog.Any("error", err),
		)
	}
}

// RegisterLocal creates a user with local credentials and opens a session.
func (srv *identityService) RegisterLocal(ctx context.Context, input *usecase.RegisterLocalInput) (*usecase.AuthOutput, error) {
	email := strings.ToLower(input.Email)

	_, err := srv.accountRepo.FindAccountByEmail(ctx, email)
	if err == nil {
		return nil, domainerrors.ErrEmailAlreadyRegistered
	}
	if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, errors.Wrap(err, "failed to check existing account")
	}

	_, err = srv.userRepo.FindUserByName(ctx, input.Username)
	if err == nil {
		return nil, domainerrors.ErrUsernameTaken
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.Wrap(err, "failed to check existing username")
	}

	// bcrypt is CPU-bound; hash outside the transaction.
	hashed, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	displayName := input.DisplayName
	user := &entity.User{
		ID:          srv.ids.Gen("user"),
		Name:        input.Username,
		DisplayName: &displayName,
	}
	account := &entity.Account{
		ID:       srv.ids.Gen("account"),
		Email:    email,
		Password: hashed,
		UserID:   user.ID,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.NewUserRepository().CreateUser(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicateUser) {
				return domainerrors.ErrUsernameTaken
			}

			return errors.Wrap(err, "failed to create user")
		}

		if err := repoFactory.NewAccountRepository().CreateAccount(ctx, account); err != nil {
			if errors.Is(err, repository.ErrDuplicateAccount) {
				return domainerrors.ErrEmailAlreadyRegistered
			}

			return errors.Wrap(err, "failed to create account")
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute registration transaction",
			slog.String("email", email),
			slog.Any("error", err),
		)

		return nil, err
	}

	srv.publishNewUser(ctx, user, "first")

	token, err := srv.sessions.Issue(ctx, &usecase.IssueSessionInput{
		UserID:    user.ID,
		AccountID: account.ID,
		IP:        input.IP,
		UserAgent: input.UserAgent,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open session after registration")
	}

	return &usecase.AuthOutput{User: user, Token: token}, nil
}

// LoginLocal authenticates local credentials and opens a session.
func (srv *identityService) LoginLocal(ctx context.Context, input *usecase.LoginLocalInput) (*usecase.AuthOutput, error) {
	account, err := srv.accountRepo.FindAccountByEmail(ctx, strings.ToLower(input.Email))
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, domainerrors.ErrEmailNotRegistered
		}

		return nil, errors.Wrap(err, "failed to load account")
	}

	if !srv.hasher.Check(input.Password, account.Password) {
		srv.log(ctx).Warn("Password mismatch during login", slog.String("accountID", account.ID))

		return nil, domainerrors.ErrInvalidPassword
	}

	token, err := srv.sessions.Issue(ctx, &usecase.IssueSessionInput{
		UserID:    account.UserID,
		AccountID: account.ID,
		IP:        input.IP,
		UserAgent: input.UserAgent,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open session after login")
	}

	return &usecase.AuthOutput{User: account.User, Token: token}, nil
}

// OAuthURL starts a provider authorization flow.
func (srv *identityService) OAuthURL(ctx context.Context, platform, origin string) (string, error) {
	if platform != entity.PlatformDiscord {
		return "", domainerrors.ErrInvalidPlatform
	}

	state := srv.ids.GenSecure("oauth")
	if err := srv.states.PutState(ctx, state, oauthStateTTL); err != nil {
		return "", errors.Wrap(err, "failed to store oauth state")
	}

	return srv.discord.AuthorizeURL(state, srv.redirectURI(origin)), nil
}

// redirectURI builds the provider callback from the requesting origin so
// staging fronts can complete the flow against their own host.
func (srv *identityService) redirectURI(origin string) string {
	host := origin
	if host == "" {
		host = srv.applicationHost
	}

	return host + "/callback/discord"
}

// CompleteOAuth consumes the authorization callback.
func (srv *identityService) CompleteOAuth(ctx context.Context, input *usecase.CompleteOAuthInput) (*usecase.AuthOutput, error) {
	if input.Platform != entity.PlatformDiscord {
		return nil, domainerrors.ErrInvalidPlatform
	}

	valid, err := srv.states.StateExists(ctx, input.State)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check oauth state")
	}
	if !valid {
		return nil, domainerrors.ErrInvalidState
	}

	tokens, err := srv.discord.ExchangeCode(ctx, input.Code, srv.redirectURI(input.Origin))
	if err != nil {
		return nil, err
	}

	profile, err := srv.discord.FetchProfile(ctx, tokens.AccessToken)
	if err != nil {
		return nil, err
	}

	if err := srv.providerTokens.PutDiscordTokens(ctx, profile.ID, tokens.AccessToken, tokens.RefreshToken, time.Duration(tokens.ExpiresIn)*time.Second); err != nil {
		srv.log(ctx).Warn("Failed to cache discord tokens", slog.Any("error", err))
	}
	if err := srv.states.DeleteState(ctx, input.State); err != nil {
		srv.log(ctx).Warn("Failed to consume oauth state", slog.Any("error", err))
	}

	connection, err := srv.connectionRepo.FindConnection(ctx, entity.PlatformDiscord, profile.ID)
	if err != nil && !errors.Is(err, repository.ErrConnectionNotFound) {
		return nil, errors.Wrap(err, "failed to look up discord connection")
	}

	if connection == nil {
		connection, err = srv.createDiscordIdentity(ctx, profile)
		if err != nil {
			return nil, err
		}
	}

	token, err := srv.sessions.Issue(ctx, &usecase.IssueSessionInput{
		UserID:       connection.UserID,
		ConnectionID: connection.ID,
		IP:           input.IP,
		UserAgent:    input.UserAgent,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open session after oauth")
	}

	return &usecase.AuthOutput{User: connection.User, Connection: connection, Token: token}, nil
}

// insertIdentityAttempts bounds handle disambiguation on first login.
const insertIdentityAttempts = 3

// insertIdentity writes the user and connection rows for a first provider
// login. A concurrent login for the same provider identity loses on whichever
// unique index the database checks first, the handle or the
// (platform, platform_id) pair, and converges on the winner's rows. When the
// handle instead collided with an unrelated user, the write retries under a
// disambiguated handle. The returned bool reports whether this call created
// the rows.
func (srv *identityService) insertIdentity(ctx context.Context, user *entity.User, connection *entity.Connection) (*entity.Connection, bool, error) {
	for attempt := 0; attempt < insertIdentityAttempts; attempt++ {
		err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
			if err := repoFactory.NewUserRepository().CreateUser(ctx, user); err != nil {
				return errors.Wrapf(err, "failed to create user for %s identity", connection.Platform)
			}

			return repoFactory.NewConnectionRepository().CreateConnection(ctx, connection)
		})
		if err == nil {
			connection.User = user

			return connection, true, nil
		}
		if !errors.Is(err, repository.ErrDuplicateConnection) && !errors.Is(err, repository.ErrDuplicateUser) {
			srv.log(ctx).Error("Failed to execute identity transaction",
				slog.String("platform", connection.Platform),
				slog.Any("error", err),
			)

			return nil, false, err
		}

		// The connection lookup tells a same-identity race apart from a
		// handle collision with an unrelated user.
		existing, findErr := srv.connectionRepo.FindConnection(ctx, connection.Platform, connection.PlatformID)
		if findErr == nil {
			return existing, false, nil
		}
		if !errors.Is(findErr, repository.ErrConnectionNotFound) {
			return nil, false, errors.Wrap(findErr, "failed to load connection after race")
		}
		if !errors.Is(err, repository.ErrDuplicateUser) {
			return nil, false, err
		}

		user.Name = srv.ids.Gen(user.Name)
	}

	return nil, false, domainerrors.ErrUsernameTaken
}

// createDiscordIdentity creates the user and connection for a first-time
// Discord login.
func (srv *identityService) createDiscordIdentity(ctx context.Context, profile *service.DiscordProfile) (*entity.Connection, error) {
	displayName := profile.Username
	if profile.GlobalName != nil && *profile.GlobalName != "" {
		displayName = *profile.GlobalName
	}

	userID := srv.ids.Gen("user")
	user := &entity.User{
		ID:          userID,
		Name:        normalizeUsername(profile.Username),
		DisplayName: &displayName,
		Image:       srv.storeAvatar(ctx, userID, profile),
	}
	connection := &entity.Connection{
		ID:         srv.ids.Gen("connection"),
		Platform:   entity.PlatformDiscord,
		PlatformID: profile.ID,
		UserID:     user.ID,
		Verified:   true,
	}

	connection, created, err := srv.insertIdentity(ctx, user, connection)
	if err != nil {
		return nil, err
	}
	if created {
		srv.publishNewUser(ctx, user, entity.PlatformDiscord)
	}

	return connection, nil
}

// storeAvatar downloads and persists the profile avatar, returning its hash.
// Avatar loss is cosmetic; any failure results in a user without an image.
func (srv *identityService) storeAvatar(ctx context.Context, userID string, profile *service.DiscordProfile) *string {
	if profile.Avatar == nil {
		return nil
	}

	data, contentType, err := srv.discord.FetchAvatar(ctx, profile)
	if err != nil {
		srv.log(ctx).Warn("Failed to fetch discord avatar", slog.Any("error", err))

		return nil
	}

	hash := *profile.Avatar
	if err := srv.avatars.Store(ctx, userID, hash, data, contentType); err != nil {
		srv.log(ctx).Warn("Failed to store discord avatar", slog.Any("error", err))

		return nil
	}

	return &hash
}

// LoginPuffco authenticates upstream Puffco credentials.
func (srv *identityService) LoginPuffco(ctx context.Context, input *usecase.LoginPuffcoInput) (*usecase.AuthOutput, error) {
	tokens, err := srv.puffco.Login(ctx, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	profile, err := srv.puffco.FetchProfile(ctx, tokens.AccessToken)
	if err != nil {
		return nil, err
	}

	connection, err := srv.connectionRepo.FindConnection(ctx, entity.PlatformPuffco, profile.ID)
	if err != nil && !errors.Is(err, repository.ErrConnectionNotFound) {
		return nil, errors.Wrap(err, "failed to look up puffco connection")
	}

	if connection == nil {
		connection, err = srv.createPuffcoIdentity(ctx, profile)
		if err != nil {
			return nil, err
		}
	} else if err := srv.connectionRepo.UpdateConnectionVerified(ctx, connection.ID, profile.Verified); err != nil {
		srv.log(ctx).Warn("Failed to refresh puffco verification",
			slog.String("connectionID", connection.ID),
			slog.Any("error", err),
		)
	}

	if err := srv.providerTokens.PutPuffcoTokens(ctx, connection.UserID, tokens.AccessToken, tokens.AccessExpiry, tokens.RefreshToken, tokens.RefreshExpiry); err != nil {
		srv.log(ctx).Warn("Failed to cache puffco tokens", slog.Any("error", err))
	}

	token, err := srv.sessions.Issue(ctx, &usecase.IssueSessionInput{
		UserID:       connection.UserID,
		ConnectionID: connection.ID,
		IP:           input.IP,
		UserAgent:    input.UserAgent,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open session after puffco login")
	}

	return &usecase.AuthOutput{User: connection.User, Connection: connection, Token: token}, nil
}

func (srv *identityService) createPuffcoIdentity(ctx context.Context, profile *service.PuffcoProfile) (*entity.Connection, error) {
	displayName := profile.Username
	user := &entity.User{
		ID:          srv.ids.Gen("user"),
		Name:        normalizeUsername(profile.Username),
		DisplayName: &displayName,
	}
	connection := &entity.Connection{
		ID:         srv.ids.Gen("connection"),
		Platform:   entity.PlatformPuffco,
		PlatformID: profile.ID,
		UserID:     user.ID,
		Verified:   true,
	}

	connection, created, err := srv.insertIdentity(ctx, user, connection)
	if err != nil {
		return nil, err
	}
	if created {
		srv.publishNewUser(ctx, user, entity.PlatformPuffco)
	}

	return connection, nil
}

// normalizeUsername collapses a provider username into a handle: lowercase,
// with everything outside [a-z0-9._] dropped.
func normalizeUsername(username string) string {
	var b strings.Builder
	b.Grow(len(username))

	for _, r := range strings.ToLower(username) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' || r == '_' {
			b.WriteRune(r)
		}
	}

	return b.String()
}

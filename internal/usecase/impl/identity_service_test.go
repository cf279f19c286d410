package impl

import (
	"context"
	"strings"
	"testing"

	"puffsocial/config"
	"puffsocial/internal/domain/entity"
	domainerrors "puffsocial/internal/domain/errors"
	"puffsocial/internal/domain/repository"
	"puffsocial/internal/domain/service"
	"puffsocial/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeHasher marks hashes with a prefix so tests can assert plaintext never
// reaches the repositories.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fakeHasher) Check(password, hash string) bool {
	return hash == "hashed:"+password
}

type identityFixture struct {
	service        usecase.IdentityUsecase
	userRepo       *MockUserRepository
	accountRepo    *MockAccountRepository
	connectionRepo *MockConnectionRepository
	discord        *MockDiscordProvider
	puffco         *MockPuffcoProvider
	states         *fakeStateStore
	providerTokens *MockProviderTokenStore
	avatars        *MockAvatarStore
	sessions       *MockSessionUsecase
	events         *recordingEventSink
	ids            *seqIDGenerator
}

func newTestIdentityService(t *testing.T) *identityFixture {
	t.Helper()

	fixture := &identityFixture{
		userRepo:       &MockUserRepository{},
		accountRepo:    &MockAccountRepository{},
		connectionRepo: &MockConnectionRepository{},
		discord:        &MockDiscordProvider{},
		puffco:         &MockPuffcoProvider{},
		states:         newFakeStateStore(),
		providerTokens: &MockProviderTokenStore{},
		avatars:        &MockAvatarStore{},
		sessions:       &MockSessionUsecase{},
		events:         &recordingEventSink{},
		ids:            &seqIDGenerator{},
	}

	fixture.service = NewIdentityService(IdentityServiceParams{
		TxManager: &fakeTxManager{factory: &fakeRepoFactory{
			userRepo:       fixture.userRepo,
			accountRepo:    fixture.accountRepo,
			connectionRepo: fixture.connectionRepo,
		}},
		UserRepo:       fixture.userRepo,
		AccountRepo:    fixture.accountRepo,
		ConnectionRepo: fixture.connectionRepo,
		Hasher:         fakeHasher{},
		Discord:        fixture.discord,
		Puffco:         fixture.puffco,
		States:         fixture.states,
		ProviderTokens: fixture.providerTokens,
		Avatars:        fixture.avatars,
		Sessions:       fixture.sessions,
		Events:         fixture.events,
		IDs:            fixture.ids,
		Config: &config.Config{
			Discord: &config.DiscordConfig{ApplicationHost: "https://puff.social"},
		},
		Logger: newDiscardLogger(),
	})

	return fixture
}

func TestIdentityService_RegisterLocal(t *testing.T) {
	fixture := newTestIdentityService(t)
	ctx := context.Background()

	fixture.accountRepo.On("FindAccountByEmail", ctx, "dabber@example.com").
		Return(nil, repository.ErrAccountNotFound)
	fixture.userRepo.On("FindUserByName", ctx, "dabber").
		Return(nil, repository.ErrUserNotFound)
	fixture.userRepo.On("CreateUser", ctx, mock.MatchedBy(func(user *entity.User) bool {
		return user.Name == "dabber"
	})).Return(nil)
	fixture.accountRepo.On("CreateAccount", ctx, mock.MatchedBy(func(account *entity.Account) bool {
		return account.Email == "dabber@example.com" && account.Password == "hashed:hunter22"
	})).Return(nil)
	fixture.sessions.On("Issue", ctx, mock.MatchedBy(func(input *usecase.IssueSessionInput) bool {
		return input.UserID != "" && input.AccountID != ""
	})).Return("session_token", nil)

	output, err := fixture.service.RegisterLocal(ctx, &usecase.RegisterLocalInput{
		Username:    "dabber",
		DisplayName: "Dabber",
		Email:       "Dabber@Example.com",
		Password:    "hunter22",
	})

	require.NoError(t, err)
	assert.Equal(t, "session_token", output.Token)
	assert.Equal(t, "dabber", output.User.Name)

	created := fixture.events.ofType(service.EventNewUser)
	require.Len(t, created, 1)
	assert.Equal(t, "first", created[0].Data.(*service.NewUserEvent).AuthType)

	fixture.accountRepo.AssertExpectations(t)
	fixture.userRepo.AssertExpectations(t)
}

func TestIdentityService_RegisterLocal_DuplicateEmail(t *testing.T) {
	fixture := newTestIdentityService(t)
	ctx := context.Background()

	fixture.accountRepo.On("FindAccountByEmail", ctx, "dabber@example.com").
		Return(&entity.Account{ID: "account_x"}, nil)

	_, err := fixture.service.RegisterLocal(ctx, &usecase.RegisterLocalInput{
		Username: "dabber",
		Email:    "DABBER@example.com",
		Password: "hunter22",
	})

	assert.ErrorIs(t, err, domainerrors.ErrEmailAlreadyRegistered)
}

func TestIdentityService_RegisterLocal_UsernameTaken(t *testing.T) {
	fixture := newTestIdentityService(t)
	ctx := context.Background()

	fixture.accountRepo.On("FindAccountByEmail", ctx, "dabber@example.com").
		Return(nil, repository.ErrAccountNotFound)
	fixture.userRepo.On("FindUserByName", ctx, "dabber").
		Return(&entity.User{ID: "user_x", Name: "Dabber"}, nil)

	_, err := fixture.service.RegisterLocal(ctx, &usecase.RegisterLocalInput{
		Username: "dabber",
		Email:    "dabber@example.com",
		Password: "hunter22",
	})

	assert.ErrorIs(t, err, domainerrors.ErrUsernameTaken)
}

func TestIdentityService_LoginLocal(t *testing.T) {
	fixture := newTestIdentityService(t)
	ctx := context.Background()

	account := &entity.Account{
		ID:       "account_x",
		Email:    "dabber@example.com",
		Password: "hashed:hunter22",
		UserID:   "user_x",
		User:     &entity.User{ID: "user_x", Name: "dabber"},
	}
	fixture.accountRepo.On("FindAccountByEmail", ctx, "dabber@example.com").Return(account, nil)
	fixture.sessions.On("Issue", ctx, mock.Anything).Return("session_token", nil)

	output, err := fixture.service.LoginLocal(ctx, &usecase.LoginLocalInput{
		Email:    "Dabber@example.com",
		Password: "hunter22",
	})

	require.NoError(t, err)
	assert.Equal(t, "session_token", output.Token)
	assert.Equal(t, "user_x", output.User.ID)
}

func TestIdentityService_LoginLocal_WrongPassword(t *testing.T) {
	fixture := newTestIdentityService(t)
	ctx := context.Background()

	fixture.accountRepo.On("FindAccountByEmail", ctx, "dabber@example.com").
		Return(&entity.Account{ID: "account_x", Password: "hashed:hunter22"}, nil)

	_, err := fixture.service.LoginLocal(ctx, &usecase.LoginLocalInput{
		Email:    "dabber@example.com",
		Password: "wrong",
	})

	assert.ErrorIs(t, err, domainerrors.ErrInvalidPassword)
}

func TestIdentityService_LoginLocal_UnknownEmail(t *testing.T) {
	fixture := newTestIdentityService(t)
	ctx := context.Background()

	fixture.accountRepo.On("FindAccountByEmail", ctx, "ghost@example.com").
		Return(nil, repository.ErrAccountNotFound)

	_, err := fixture.service.LoginLocal(ctx, &usecase.LoginLocalInput{
		Email:    "ghost@example.com",
		Password: "hunter22",
	})

	assert.ErrorIs(t, err, domainerrors.ErrEmailNotRegistered)
}

func TestIdentityService_OAuthURL(t *testing.T) {
	fixture := newTestIdentityService(t)
	ctx := context.Background()

	fixture.discord.On("AuthorizeURL", mock.AnythingOfType("string"), "https://beta.puff.social/callback/discord").
		Return("https://discord.test/authorize")

	url, err := fixture.service.OAuthURL(ctx, entity.PlatformDiscord, "https://beta.puff.social")

	require.NoError(t, err)
	assert.Equal(t, "https://discord.test/authorize", url)
	assert.Len(t, fixture.states.states, 1)
}

func TestIdentityService_OAuthURL_DefaultsToApplicationHost(t *testing.T) {
	fixture := newTestIdentityService(t)

	fixture.discord.On("AuthorizeURL", mock.AnythingOfType("string"), "https://puff.social/callback/discord").
		Return("https://discord.test/authorize")

	_, err := fixture.service.OAuthURL(context.Background(), entity.PlatformDiscord, "")

	require.NoError(t, err)
	fixture.discord.AssertExpectations(t)
}

func TestIdentityService_OAuthURL_UnknownPlatform(t *testing.T) {
	fixture := newTestIdentityService(t)

	_, err := fixture.service.OAuthURL(context.Background(), "myspace", "")

	assert.ErrorIs(t, err, domainerrors.ErrInvalidPlatform)
}

func TestIdentityService_CompleteOAuth_InvalidState(t *testing.T) {
	fixture := newTestIdentityService(t)

	_, err := fixture.service.CompleteOAuth(context.Background(), &usecase.CompleteOAuthInput{
		Platform: entity.PlatformDiscord,
		State:    "never-issued",
		Code:     "code",
	})

	assert.ErrorIs(t, err, domainerrors.ErrInvalidState)
}

func TestIdentityService_CompleteOAuth_FirstLogin(t *testing.T) {
	fixture := newTestIdentityService(t)
	ctx := context.Background()

	require.NoError(t, fixture.states.PutState(ctx, "state-1", oauthStateTTL))

	avatarHash := "a_f00d"
	profile := &service.DiscordProfile{
		ID:       "4455",
		Username: "Dab.Lord",
		Avatar:   &avatarHash,
	}

	fixture.discord.On("ExchangeCode", ctx, "code-1", "https://puff.social/callback/discord").
		Return(&service.DiscordTokens{AccessToken: "at", RefreshToken: "rt", ExpiresIn: 3600}, nil)
	fixture.discord.On("FetchProfile", ctx, "at").Return(profile, nil)
	fixture.discord.On("FetchAvatar", ctx, profile).Return([]byte{0x47}, "image/gif", nil)
	fixture.providerTokens.On("PutDiscordTokens", ctx, "4455", "at", "rt", mock.Anything).Return(nil)
	fixture.connectionRepo.On("FindConnection", ctx, entity.PlatformDiscord, "4455").
		Return(nil, repository.ErrConnectionNotFound)
	fixture.avatars.On("Store", ctx, mock.AnythingOfType("string"), avatarHash, []byte{0x47}, "image/gif").Return(nil)
	fixture.userRepo.On("CreateUser", ctx, mock.MatchedBy(func(user *entity.User) bool {
		return user.Name == "dab.lord" && user.Image != nil && *user.Image == avatarHash
	})).Return(nil)
	fixture.connectionRepo.On("CreateConnection", ctx, mock.MatchedBy(func(connection *entity.Connection) bool {
		return connection.Platform == entity.PlatformDiscord && connection.PlatformID == "4455" && connection.Verified
	})).Return(nil)
	fixture.sessions.On("Issue", ctx, mock.Anything).Return("session_token", nil)

	output, err := fixture.service.CompleteOAuth(ctx, &usecase.CompleteOAuthInput{
		Platform: entity.PlatformDiscord,
		State:    "state-1",
		Code:     "code-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "session_token", output.Token)
	require.NotNil(t, output.Connection)
	assert.Equal(t, "4455", output.Connection.PlatformID)

	created := fixture.events.ofType(service.EventNewUser)
	require.Len(t, created, 1)
	assert.Equal(t, entity.PlatformDiscord, created[0].Data.(*service.NewUserEvent).AuthType)

	// The state is single-use.
	assert.Empty(t, fixture.states.states)

	fixture.userRepo.AssertExpectations(t)
	fixture.connectionRepo.AssertExpectations(t)
}

func TestIdentityService_CompleteOAuth_ConnectionRace(t *testing.T) {
	fixture := newTestIdentityService(t)
	ctx := context.Background()

	require.NoError(t, fixture.states.PutState(ctx, "state-1", oauthStateTTL))

	profile := &service.DiscordProfile{ID: "4455", Username: "dablord"}
	winner := &entity.Connection{
		ID:         "connection_w",
		Platform:   entity.PlatformDiscord,
		PlatformID: "4455",
		UserID:     "user_w",
		User:       &entity.User{ID: "user_w"},
	}

	fixture.discord.On("ExchangeCode", ctx, "code-1", mock.Anything).
		Return(&service.DiscordTokens{AccessToken: "at"}, nil)
	fixture.discord.On("FetchProfile", ctx, "at").Return(profile, nil)
	fixture.providerTokens.On("PutDiscordTokens", ctx, "4455", "at", "", mock.Anything).Return(nil)
	fixture.connectionRepo.On("FindConnection", ctx, entity.PlatformDiscord, "4455").
		Return(nil, repository.ErrConnectionNotFound).Once()
	fixture.userRepo.On("CreateUser", ctx, mock.Anything).Return(nil)
	fixture.connectionRepo.On("CreateConnection", ctx, mock.Anything).
		Return(repository.ErrDuplicateConnection)
	fixture.connectionRepo.On("FindConnection", ctx, entity.PlatformDiscord, "4455").
		Return(winner, nil).Once()
	fixture.sessions.On("Issue", ctx, mock.MatchedBy(func(input *usecase.IssueSessionInput) bool {
		return input.UserID == "user_w" && input.ConnectionID == "connection_w"
	})).Return("session_token", nil)

	output, err := fixture.service.CompleteOAuth(ctx, &usecase.CompleteOAuthInput{
		Platform: entity.PlatformDiscord,
		State:    "state-1",
		Code:     "code-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "connection_w", output.Connection.ID)
	assert.Empty(t, fixture.events.ofType(service.EventNewUser))
}

func TestIdentityService_CompleteOAuth_UserRowRace(t *testing.T) {
	fixture := newTestIdentityService(t)
	ctx := context.Background()

	require.NoError(t, fixture.states.PutState(ctx, "state-1", oauthStateTTL))

	profile := &service.DiscordProfile{ID: "4455", Username: "dablord"}
	winner := &entity.Connection{
		ID:         "connection_w",
		Platform:   entity.PlatformDiscord,
		PlatformID: "4455",
		UserID:     "user_w",
		User:       &entity.User{ID: "user_w"},
	}

	fixture.discord.On("ExchangeCode", ctx, "code-1", mock.Anything).
		Return(&service.DiscordTokens{AccessToken: "at"}, nil)
	fixture.discord.On("FetchProfile", ctx, "at").Return(profile, nil)
	fixture.providerTokens.On("PutDiscordTokens", ctx, "4455", "at", "", mock.Anything).Return(nil)
	fixture.connectionRepo.On("FindConnection", ctx, entity.PlatformDiscord, "4455").
		Return(nil, repository.ErrConnectionNotFound).Once()
	// The race is lost on the user row, before the connection insert runs.
	fixture.userRepo.On("CreateUser", ctx, mock.Anything).Return(repository.ErrDuplicateUser)
	fixture.connectionRepo.On("FindConnection", ctx, entity.PlatformDiscord, "4455").
		Return(winner, nil).Once()
	fixture.sessions.On("Issue", ctx, mock.MatchedBy(func(input *usecase.IssueSessionInput) bool {
		return input.UserID == "user_w" && input.ConnectionID == "connection_w"
	})).Return("session_token", nil)

	output, err := fixture.service.CompleteOAuth(ctx, &usecase.CompleteOAuthInput{
		Platform: entity.PlatformDiscord,
		State:    "state-1",
		Code:     "code-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "connection_w", output.Connection.ID)
	assert.Equal(t, "user_w", output.User.ID)
	assert.Empty(t, fixture.events.ofType(service.EventNewUser))
}

func TestIdentityService_CompleteOAuth_HandleCollisionRetries(t *testing.T) {
	fixture := newTestIdentityService(t)
	ctx := context.Background()

	require.NoError(t, fixture.states.PutState(ctx, "state-1", oauthStateTTL))

	profile := &service.DiscordProfile{ID: "4455", Username: "dablord"}

	fixture.discord.On("ExchangeCode", ctx, "code-1", mock.Anything).
		Return(&service.DiscordTokens{AccessToken: "at"}, nil)
	fixture.discord.On("FetchProfile", ctx, "at").Return(profile, nil)
	fixture.providerTokens.On("PutDiscordTokens", ctx, "4455", "at", "", mock.Anything).Return(nil)
	fixture.connectionRepo.On("FindConnection", ctx, entity.PlatformDiscord, "4455").
		Return(nil, repository.ErrConnectionNotFound)
	// The handle belongs to an unrelated user, so no connection appears for
	// this provider identity and the insert retries under a fresh handle.
	fixture.userRepo.On("CreateUser", ctx, mock.MatchedBy(func(user *entity.User) bool {
		return user.Name == "dablord"
	})).Return(repository.ErrDuplicateUser).Once()
	fixture.userRepo.On("CreateUser", ctx, mock.MatchedBy(func(user *entity.User) bool {
		return strings.HasPrefix(user.Name, "dablord_")
	})).Return(nil).Once()
	fixture.connectionRepo.On("CreateConnection", ctx, mock.MatchedBy(func(connection *entity.Connection) bool {
		return connection.PlatformID == "4455"
	})).Return(nil).Once()
	fixture.sessions.On("Issue", ctx, mock.Anything).Return("session_token", nil)

	output, err := fixture.service.CompleteOAuth(ctx, &usecase.CompleteOAuthInput{
		Platform: entity.PlatformDiscord,
		State:    "state-1",
		Code:     "code-1",
	})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(output.User.Name, "dablord_"))

	created := fixture.events.ofType(service.EventNewUser)
	require.Len(t, created, 1)
	assert.Equal(t, output.User.Name, created[0].Data.(*service.NewUserEvent).Name)

	fixture.userRepo.AssertExpectations(t)
	fixture.connectionRepo.AssertExpectations(t)
}

func TestIdentityService_LoginPuffco_UserRowRace(t *testing.T) {
	fixture := newTestIdentityService(t)
	ctx := context.Background()

	winner := &entity.Connection{
		ID:         "connection_w",
		Platform:   entity.PlatformPuffco,
		PlatformID: "98765",
		UserID:     "user_w",
		User:       &entity.User{ID: "user_w"},
	}

	fixture.puffco.On("Login", ctx, "dabber@example.com", "hunter22").
		Return(&service.PuffcoTokens{AccessToken: "at"}, nil)
	fixture.puffco.On("FetchProfile", ctx, "at").
		Return(&service.PuffcoProfile{ID: "98765", Username: "dabber", Verified: true}, nil)
	fixture.connectionRepo.On("FindConnection", ctx, entity.PlatformPuffco, "98765").
		Return(nil, repository.ErrConnectionNotFound).Once()
	fixture.userRepo.On("CreateUser", ctx, mock.Anything).Return(repository.ErrDuplicateUser)
	fixture.connectionRepo.On("FindConnection", ctx, entity.PlatformPuffco, "98765").
		Return(winner, nil).Once()
	fixture.providerTokens.On("PutPuffcoTokens", ctx, "user_w", "at", mock.Anything, "", mock.Anything).Return(nil)
	fixture.sessions.On("Issue", ctx, mock.MatchedBy(func(input *usecase.IssueSessionInput) bool {
		return input.UserID == "user_w" && input.ConnectionID == "connection_w"
	})).Return("session_token", nil)

	output, err := fixture.service.LoginPuffco(ctx, &usecase.LoginPuffcoInput{
		Email:    "dabber@example.com",
		Password: "hunter22",
	})

	require.NoError(t, err)
	assert.Equal(t, "connection_w", output.Connection.ID)
	assert.Empty(t, fixture.events.ofType(service.EventNewUser))
}

func TestIdentityService_LoginPuffco_ExistingConnection(t *testing.T) {
	fixture := newTestIdentityService(t)
	ctx := context.Background()

	existing := &entity.Connection{
		ID:         "connection_x",
		Platform:   entity.PlatformPuffco,
		PlatformID: "98765",
		UserID:     "user_x",
		User:       &entity.User{ID: "user_x"},
		Verified:   false,
	}

	fixture.puffco.On("Login", ctx, "dabber@example.com", "hunter22").
		Return(&service.PuffcoTokens{AccessToken: "at", RefreshToken: "rt"}, nil)
	fixture.puffco.On("FetchProfile", ctx, "at").
		Return(&service.PuffcoProfile{ID: "98765", Username: "dabber", Verified: true}, nil)
	fixture.connectionRepo.On("FindConnection", ctx, entity.PlatformPuffco, "98765").Return(existing, nil)
	fixture.connectionRepo.On("UpdateConnectionVerified", ctx, "connection_x", true).Return(nil).Once()
	fixture.providerTokens.On("PutPuffcoTokens", ctx, "user_x", "at", mock.Anything, "rt", mock.Anything).Return(nil)
	fixture.sessions.On("Issue", ctx, mock.Anything).Return("session_token", nil)

	output, err := fixture.service.LoginPuffco(ctx, &usecase.LoginPuffcoInput{
		Email:    "dabber@example.com",
		Password: "hunter22",
	})

	require.NoError(t, err)
	assert.Equal(t, "session_token", output.Token)
	assert.Empty(t, fixture.events.ofType(service.EventNewUser))
	fixture.connectionRepo.AssertExpectations(t)
}

func TestIdentityService_LoginPuffco_FirstLogin(t *testing.T) {
	fixture := newTestIdentityService(t)
	ctx := context.Background()

	fixture.puffco.On("Login", ctx, "dabber@example.com", "hunter22").
		Return(&service.PuffcoTokens{AccessToken: "at"}, nil)
	fixture.puffco.On("FetchProfile", ctx, "at").
		Return(&service.PuffcoProfile{ID: "98765", Username: "Dab Lord", Verified: true}, nil)
	fixture.connectionRepo.On("FindConnection", ctx, entity.PlatformPuffco, "98765").
		Return(nil, repository.ErrConnectionNotFound)
	fixture.userRepo.On("CreateUser", ctx, mock.MatchedBy(func(user *entity.User) bool {
		return user.Name == "dablord"
	})).Return(nil)
	fixture.connectionRepo.On("CreateConnection", ctx, mock.Anything).Return(nil)
	fixture.providerTokens.On("PutPuffcoTokens", ctx, mock.Anything, "at", mock.Anything, "", mock.Anything).Return(nil)
	fixture.sessions.On("Issue", ctx, mock.Anything).Return("session_token", nil)

	output, err := fixture.service.LoginPuffco(ctx, &usecase.LoginPuffcoInput{
		Email:    "dabber@example.com",
		Password: "hunter22",
	})

	require.NoError(t, err)
	assert.Equal(t, entity.PlatformPuffco, output.Connection.Platform)

	created := fixture.events.ofType(service.EventNewUser)
	require.Len(t, created, 1)
	assert.Equal(t, entity.PlatformPuffco, created[0].Data.(*service.NewUserEvent).AuthType)
}

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "dab.lord_42", normalizeUsername("Dab.Lord_42"))
	assert.Equal(t, "dablord", normalizeUsername("Dab Lord!"))
	assert.Equal(t, "", normalizeUsername("???"))
	assert.Equal(t, strings.Repeat("a", 3), normalizeUsername("A-A-A"))
}

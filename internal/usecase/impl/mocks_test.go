package impl

import (
	"context"
	"io"
	"log/slog"
	"time"

	"puffsocial/internal/domain/entity"
	"puffsocial/internal/domain/repository"
	"puffsocial/internal/domain/service"
	"puffsocial/internal/usecase"

	"github.com/stretchr/testify/mock"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// passthroughVerifier skips the crypto envelope so tests can feed plaintext
// payloads directly. Envelope behavior is covered by the signature package.
type passthroughVerifier struct {
	err error
}

func (v *passthroughVerifier) Verify(ciphertext []byte, _ string) ([]byte, error) {
	if v.err != nil {
		return nil, v.err
	}

	return ciphertext, nil
}

// fakeTxManager runs the transaction function against a fixed factory,
// without any real transaction semantics.
type fakeTxManager struct {
	factory repository.RepositoryFactory
}

func (m *fakeTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(m.factory)
}

type fakeRepoFactory struct {
	userRepo       repository.UserRepository
	accountRepo    repository.AccountRepository
	connectionRepo repository.ConnectionRepository
	deviceRepo     repository.DeviceRepository
	sessionRepo    repository.SessionRepository
}

func (f *fakeRepoFactory) NewUserRepository() repository.UserRepository {
	return f.userRepo
}

func (f *fakeRepoFactory) NewAccountRepository() repository.AccountRepository {
	return f.accountRepo
}

func (f *fakeRepoFactory) NewConnectionRepository() repository.ConnectionRepository {
	return f.connectionRepo
}

func (f *fakeRepoFactory) NewDeviceRepository() repository.DeviceRepository {
	return f.deviceRepo
}

func (f *fakeRepoFactory) NewSessionRepository() repository.SessionRepository {
	return f.sessionRepo
}

// seqIDGenerator hands out deterministic ids.
type seqIDGenerator struct {
	n int
}

func (g *seqIDGenerator) Gen(prefix string) string {
	g.n++

	return prefix + "_" + string(rune('a'+g.n-1))
}

func (g *seqIDGenerator) GenSecure(prefix string) string {
	return g.Gen(prefix)
}

type MockDeviceRepository struct {
	mock.Mock
}

func (m *MockDeviceRepository) CreateDevice(ctx context.Context, device *entity.Device) error {
	return m.Called(ctx, device).Error(0)
}

func (m *MockDeviceRepository) FindDeviceByMAC(ctx context.Context, mac string) (*entity.Device, error) {
	args := m.Called(ctx, mac)
	if device, ok := args.Get(0).(*entity.Device); ok {
		return device, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockDeviceRepository) UpdateDevice(ctx context.Context, device *entity.Device) error {
	return m.Called(ctx, device).Error(0)
}

func (m *MockDeviceRepository) UpdateDeviceProfiles(ctx context.Context, mac string, profiles map[string]entity.HeatProfile, serialNumber *string) error {
	return m.Called(ctx, mac, profiles, serialNumber).Error(0)
}

func (m *MockDeviceRepository) FindDevicesWithSerial(ctx context.Context, limit int) ([]*entity.Device, error) {
	args := m.Called(ctx, limit)
	if devices, ok := args.Get(0).([]*entity.Device); ok {
		return devices, args.Error(1)
	}

	return nil, args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *entity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*entity.User); ok {
		return user, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockUserRepository) FindUserByName(ctx context.Context, name string) (*entity.User, error) {
	args := m.Called(ctx, name)
	if user, ok := args.Get(0).(*entity.User); ok {
		return user, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockUserRepository) UpdateUserProfile(ctx context.Context, id string, displayName *string, image *string) error {
	return m.Called(ctx, id, displayName, image).Error(0)
}

func (m *MockUserRepository) FindUsersWithDevices(ctx context.Context) ([]*entity.User, error) {
	args := m.Called(ctx)
	if users, ok := args.Get(0).([]*entity.User); ok {
		return users, args.Error(1)
	}

	return nil, args.Error(1)
}

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) CreateAccount(ctx context.Context, account *entity.Account) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockAccountRepository) FindAccountByEmail(ctx context.Context, email string) (*entity.Account, error) {
	args := m.Called(ctx, email)
	if account, ok := args.Get(0).(*entity.Account); ok {
		return account, args.Error(1)
	}

	return nil, args.Error(1)
}

type MockConnectionRepository struct {
	mock.Mock
}

func (m *MockConnectionRepository) CreateConnection(ctx context.Context, connection *entity.Connection) error {
	return m.Called(ctx, connection).Error(0)
}

func (m *MockConnectionRepository) FindConnection(ctx context.Context, platform, platformID string) (*entity.Connection, error) {
	args := m.Called(ctx, platform, platformID)
	if connection, ok := args.Get(0).(*entity.Connection); ok {
		return connection, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockConnectionRepository) FindConnectionByID(ctx context.Context, id string) (*entity.Connection, error) {
	args := m.Called(ctx, id)
	if connection, ok := args.Get(0).(*entity.Connection); ok {
		return connection, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockConnectionRepository) UpdateConnectionVerified(ctx context.Context, id string, verified bool) error {
	return m.Called(ctx, id, verified).Error(0)
}

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) CreateSession(ctx context.Context, session *entity.Session) error {
	return m.Called(ctx, session).Error(0)
}

type MockFeedbackRepository struct {
	mock.Mock
}

func (m *MockFeedbackRepository) CreateFeedback(ctx context.Context, feedback *entity.Feedback) error {
	return m.Called(ctx, feedback).Error(0)
}

type MockDiagnosticsRepository struct {
	mock.Mock
}

func (m *MockDiagnosticsRepository) CreateDiagnostics(ctx context.Context, diagnostics *entity.Diagnostics) error {
	return m.Called(ctx, diagnostics).Error(0)
}

type MockLeaderboardRepository struct {
	mock.Mock
}

func (m *MockLeaderboardRepository) FindPosition(ctx context.Context, deviceID string) (*entity.LeaderboardEntry, error) {
	args := m.Called(ctx, deviceID)
	if entry, ok := args.Get(0).(*entity.LeaderboardEntry); ok {
		return entry, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockLeaderboardRepository) FindTop(ctx context.Context, limit int, byAverage bool, minFirmwareRaw int64) ([]*entity.LeaderboardEntry, error) {
	args := m.Called(ctx, limit, byAverage, minFirmwareRaw)
	if entries, ok := args.Get(0).([]*entity.LeaderboardEntry); ok {
		return entries, args.Error(1)
	}

	return nil, args.Error(1)
}

// recordingEventSink captures published events for assertions.
type recordingEventSink struct {
	events []*service.AuditEvent
}

func (s *recordingEventSink) PublishEvent(_ context.Context, event *service.AuditEvent) error {
	s.events = append(s.events, event)

	return nil
}

func (s *recordingEventSink) Close() error {
	return nil
}

func (s *recordingEventSink) ofType(eventType service.EventType) []*service.AuditEvent {
	var out []*service.AuditEvent
	for _, event := range s.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}

	return out
}

// fakeSessionStore is an in-memory SessionStore.
type fakeSessionStore struct {
	sessions map[string]entity.SessionLink
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]entity.SessionLink)}
}

func (s *fakeSessionStore) PutSession(_ context.Context, token string, link entity.SessionLink) error {
	s.sessions[token] = link

	return nil
}

func (s *fakeSessionStore) GetSession(_ context.Context, token string) (entity.SessionLink, error) {
	link, ok := s.sessions[token]
	if !ok {
		return entity.SessionLink{}, service.ErrSessionNotFound
	}

	return link, nil
}

func (s *fakeSessionStore) DeleteSession(_ context.Context, token string) error {
	delete(s.sessions, token)

	return nil
}

// fakeStateStore is an in-memory OAuthStateStore.
type fakeStateStore struct {
	states map[string]struct{}
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{states: make(map[string]struct{})}
}

func (s *fakeStateStore) PutState(_ context.Context, state string, _ time.Duration) error {
	s.states[state] = struct{}{}

	return nil
}

func (s *fakeStateStore) StateExists(_ context.Context, state string) (bool, error) {
	_, ok := s.states[state]

	return ok, nil
}

func (s *fakeStateStore) DeleteState(_ context.Context, state string) error {
	delete(s.states, state)

	return nil
}

type MockProviderTokenStore struct {
	mock.Mock
}

func (m *MockProviderTokenStore) PutDiscordTokens(ctx context.Context, platformID, accessToken, refreshToken string, expiresIn time.Duration) error {
	return m.Called(ctx, platformID, accessToken, refreshToken, expiresIn).Error(0)
}

func (m *MockProviderTokenStore) PutPuffcoTokens(ctx context.Context, userID, accessToken string, accessExpiry time.Time, refreshToken string, refreshExpiry time.Time) error {
	return m.Called(ctx, userID, accessToken, accessExpiry, refreshToken, refreshExpiry).Error(0)
}

type MockDiscordProvider struct {
	mock.Mock
}

func (m *MockDiscordProvider) ExchangeCode(ctx context.Context, code, redirectURI string) (*service.DiscordTokens, error) {
	args := m.Called(ctx, code, redirectURI)
	if tokens, ok := args.Get(0).(*service.DiscordTokens); ok {
		return tokens, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockDiscordProvider) FetchProfile(ctx context.Context, accessToken string) (*service.DiscordProfile, error) {
	args := m.Called(ctx, accessToken)
	if profile, ok := args.Get(0).(*service.DiscordProfile); ok {
		return profile, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockDiscordProvider) FetchAvatar(ctx context.Context, profile *service.DiscordProfile) ([]byte, string, error) {
	args := m.Called(ctx, profile)
	if data, ok := args.Get(0).([]byte); ok {
		return data, args.String(1), args.Error(2)
	}

	return nil, args.String(1), args.Error(2)
}

func (m *MockDiscordProvider) AuthorizeURL(state, redirectURI string) string {
	return m.Called(state, redirectURI).String(0)
}

type MockPuffcoProvider struct {
	mock.Mock
}

func (m *MockPuffcoProvider) Login(ctx context.Context, email, password string) (*service.PuffcoTokens, error) {
	args := m.Called(ctx, email, password)
	if tokens, ok := args.Get(0).(*service.PuffcoTokens); ok {
		return tokens, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockPuffcoProvider) FetchProfile(ctx context.Context, accessToken string) (*service.PuffcoProfile, error) {
	args := m.Called(ctx, accessToken)
	if profile, ok := args.Get(0).(*service.PuffcoProfile); ok {
		return profile, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockPuffcoProvider) LatestFirmware(ctx context.Context, serial string) (*service.PuffcoFirmware, error) {
	args := m.Called(ctx, serial)
	if firmware, ok := args.Get(0).(*service.PuffcoFirmware); ok {
		return firmware, args.Error(1)
	}

	return nil, args.Error(1)
}

type MockAvatarStore struct {
	mock.Mock
}

func (m *MockAvatarStore) Store(ctx context.Context, userID, hash string, data []byte, contentType string) error {
	return m.Called(ctx, userID, hash, data, contentType).Error(0)
}

type MockSessionUsecase struct {
	mock.Mock
}

func (m *MockSessionUsecase) Issue(ctx context.Context, input *usecase.IssueSessionInput) (string, error) {
	args := m.Called(ctx, input)

	return args.String(0), args.Error(1)
}

func (m *MockSessionUsecase) Resolve(ctx context.Context, token string) (*usecase.ResolvedSession, error) {
	args := m.Called(ctx, token)
	if resolved, ok := args.Get(0).(*usecase.ResolvedSession); ok {
		return resolved, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *MockSessionUsecase) Revoke(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

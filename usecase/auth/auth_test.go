package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/gateway/domain"
	"github.com/fastygo/gateway/internal/security"
	"github.com/fastygo/gateway/repository/memory"
)

type fixture struct {
	store *memory.Store
	uc    *UseCase
	clock *time.Time
	user  domain.User
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	verifier := security.NewBcryptVerifier(bcrypt.MinCost)
	hash, err := verifier.Hash("correct")
	require.NoError(t, err)

	store := memory.NewStore()
	user := store.AddUser(domain.User{
		Email:            "a@x.com",
		PasswordHash:     hash,
		Name:             "Alice",
		SubscriptionTier: "pro",
	})

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f := &fixture{store: store, clock: &now, user: user}
	opts = append([]Option{WithClock(func() time.Time { return *f.clock })}, opts...)
	f.uc = New(store, store, verifier, nil, opts...)
	return f
}

func (f *fixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func TestLoginIssuesSessionThatAuthenticates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.uc.Login(ctx, LoginInput{
		Email:     "A@X.com ",
		Password:  "correct",
		DeviceID:  "phone-1",
		IPAddress: "10.0.0.1",
		UserAgent: "unit-test",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	assert.Equal(t, f.clock.Add(7*24*time.Hour), res.ExpiresAt)
	assert.Equal(t, domain.PublicUser{ID: f.user.ID, Email: "a@x.com", Name: "Alice", SubscriptionTier: "pro"}, res.User)

	stored, ok := f.store.Session(res.Token)
	require.True(t, ok)
	assert.True(t, stored.Active)
	assert.Equal(t, "phone-1", stored.DeviceID)
	assert.Equal(t, "10.0.0.1", stored.IPAddress)
	assert.Equal(t, "unit-test", stored.UserAgent)

	user, session, err := f.uc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, user.ID)
	assert.Equal(t, stored.ID, session.ID)
}

func TestLoginTokensAreUniquePerLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.uc.Login(ctx, LoginInput{Email: "a@x.com", Password: "correct"})
	require.NoError(t, err)
	second, err := f.uc.Login(ctx, LoginInput{Email: "a@x.com", Password: "correct"})
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)

	_, _, err = f.uc.Authenticate(ctx, first.Token)
	assert.NoError(t, err, "concurrent sessions of one user stay independent")
}

func TestLoginRequiresEmailAndPassword(t *testing.T) {
	f := newFixture(t)

	for _, in := range []LoginInput{
		{},
		{Email: "a@x.com"},
		{Password: "correct"},
		{Email: "   ", Password: "correct"},
	} {
		_, err := f.uc.Login(context.Background(), in)
		assert.ErrorIs(t, err, domain.ErrMissingFields)
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, unknownErr := f.uc.Login(ctx, LoginInput{Email: "nobody@x.com", Password: "correct"})
	_, wrongErr := f.uc.Login(ctx, LoginInput{Email: "a@x.com", Password: "incorrect"})

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, unknownErr, wrongErr)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	assert.ErrorIs(t, unknownErr, domain.ErrInvalidCredentials)
}

// exactUsers matches emails byte for byte and records what it was asked for.
type exactUsers struct {
	users map[string]domain.User
	asked []string
}

func (e *exactUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	e.asked = append(e.asked, email)
	user, ok := e.users[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func TestLoginKeepsStoredEmailCase(t *testing.T) {
	verifier := security.NewBcryptVerifier(bcrypt.MinCost)
	hash, err := verifier.Hash("correct")
	require.NoError(t, err)

	store := memory.NewStore()
	users := &exactUsers{users: map[string]domain.User{
		"Alice@X.com": {ID: store.AddUser(domain.User{Email: "Alice@X.com"}).ID, Email: "Alice@X.com", PasswordHash: hash},
	}}
	uc := New(users, store, verifier, nil)

	res, err := uc.Login(context.Background(), LoginInput{Email: "  Alice@X.com ", Password: "correct"})
	require.NoError(t, err)
	assert.Equal(t, "Alice@X.com", res.User.Email)
	assert.Equal(t, []string{"Alice@X.com"}, users.asked)
}

type failingSessions struct {
	*memory.Store
}

func (failingSessions) Create(context.Context, *domain.Session) error {
	return errors.New("connection reset by peer")
}

type failingUsers struct {
	*memory.Store
}

func (failingUsers) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, errors.New("connection refused")
}

func TestLoginSurfacesStorageErrors(t *testing.T) {
	f := newFixture(t)
	verifier := security.NewBcryptVerifier(bcrypt.MinCost)

	uc := New(f.store, failingSessions{f.store}, verifier, nil)
	_, err := uc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "correct"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeStorage))

	uc = New(failingUsers{f.store}, f.store, verifier, nil)
	_, err = uc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "correct"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeStorage))
}

func TestLoginTokenGeneratorFailure(t *testing.T) {
	f := newFixture(t, WithTokenGenerator(func() (string, error) {
		return "", errors.New("entropy exhausted")
	}))

	_, err := f.uc.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "correct"})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInternal))
}

func TestAuthenticateRejectsMissingAndUnknownTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.uc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, domain.ErrMissingToken)

	_, _, err = f.uc.Authenticate(ctx, "not-a-real-token")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestAuthenticateRejectsExpiredActiveSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.uc.Login(ctx, LoginInput{Email: "a@x.com", Password: "correct"})
	require.NoError(t, err)

	f.advance(7*24*time.Hour + time.Second)

	stored, _ := f.store.Session(res.Token)
	require.True(t, stored.Active, "expiry alone must reject even while the flag is set")

	_, _, err = f.uc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestAuthenticateRejectsDeactivatedSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.uc.Login(ctx, LoginInput{Email: "a@x.com", Password: "correct"})
	require.NoError(t, err)

	require.NoError(t, f.uc.Logout(ctx, res.Token))

	_, _, err = f.uc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.uc.Login(ctx, LoginInput{Email: "a@x.com", Password: "correct"})
	require.NoError(t, err)

	require.NoError(t, f.uc.Logout(ctx, res.Token))
	assert.NoError(t, f.uc.Logout(ctx, res.Token))
	assert.NoError(t, f.uc.Logout(ctx, "unknown"))
}

type failingDeactivate struct {
	*memory.Store
}

func (failingDeactivate) DeactivateByToken(context.Context, string) error {
	return errors.New("connection reset by peer")
}

func TestLogoutSurfacesStorageErrors(t *testing.T) {
	f := newFixture(t)
	uc := New(f.store, failingDeactivate{f.store}, security.NewBcryptVerifier(bcrypt.MinCost), nil)

	err := uc.Logout(context.Background(), "tok")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeStorage))
}

func TestAuthenticateDoesNotSlideExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.uc.Login(ctx, LoginInput{Email: "a@x.com", Password: "correct"})
	require.NoError(t, err)

	f.advance(time.Hour)
	_, session, err := f.uc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.ExpiresAt, session.ExpiresAt)
}

func TestRevokeAllInvalidatesEverySession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var tokens []string
	for i := 0; i < 3; i++ {
		res, err := f.uc.Login(ctx, LoginInput{Email: "a@x.com", Password: "correct"})
		require.NoError(t, err)
		tokens = append(tokens, res.Token)
	}

	n, err := f.uc.RevokeAll(ctx, f.user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	for _, token := range tokens {
		_, _, err := f.uc.Authenticate(ctx, token)
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	}

	_, err = f.uc.RevokeAll(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}

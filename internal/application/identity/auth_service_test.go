package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/datapadi/web/internal/domain/shared"
	"github.com/datapadi/web/internal/infrastructure/auth"
	"github.com/datapadi/web/internal/infrastructure/vtuapi"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthBackend struct {
	mock.Mock
}

func (m *MockAuthBackend) Login(ctx context.Context, req vtuapi.LoginRequest) (*vtuapi.LoginResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vtuapi.LoginResult), args.Error(1)
}

func (m *MockAuthBackend) Register(ctx context.Context, req vtuapi.RegisterRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type failingBlacklist struct{}

func (failingBlacklist) AddToBlacklist(context.Context, string, time.Duration) error {
	return errors.New("redis down")
}

func (failingBlacklist) IsBlacklisted(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func sessionToken(t *testing.T, userID string, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    userID,
		"email": "ada@example.com",
		"tier":  "RESELLER",
		"exp":   exp.Unix(),
	}).SignedString([]byte("upstream-key"))
	require.NoError(t, err)
	return token
}

func newService(backend AuthBackend, blacklist auth.TokenBlacklist) *AuthService {
	return NewAuthService(backend, auth.NewTokenInspector(), blacklist, AuthServiceConfig{SessionMaxAge: 12 * time.Hour}, nil)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("returns token and caps cookie age", func(t *testing.T) {
		backend := new(MockAuthBackend)
		token := sessionToken(t, "user-1", time.Now().Add(48*time.Hour))
		backend.On("Login", mock.Anything, vtuapi.LoginRequest{Email: "ada@example.com", Password: "secret"}).
			Return(&vtuapi.LoginResult{Token: token, User: vtuapi.LoginUser{ID: "user-1", UserName: "ada", Tier: vtuapi.TierReseller, IsKycVerified: true}}, nil)

		svc := newService(backend, auth.NewInMemoryTokenBlacklist())
		res, err := svc.Login(ctx, LoginInput{Email: "  Ada@Example.com ", Password: "secret"})
		require.NoError(t, err)
		assert.Equal(t, token, res.Token)
		assert.Equal(t, 12*time.Hour, res.CookieMaxAge)
		assert.Equal(t, "RESELLER", res.User.Tier)
		assert.True(t, res.User.IsKycVerified)
		backend.AssertExpectations(t)
	})

	t.Run("short lived token shortens the cookie", func(t *testing.T) {
		backend := new(MockAuthBackend)
		token := sessionToken(t, "user-1", time.Now().Add(time.Hour))
		backend.On("Login", mock.Anything, mock.Anything).Return(&vtuapi.LoginResult{Token: token}, nil)

		res, err := newService(backend, auth.NewInMemoryTokenBlacklist()).Login(ctx, LoginInput{Email: "a@b.co", Password: "x"})
		require.NoError(t, err)
		assert.LessOrEqual(t, res.CookieMaxAge, time.Hour)
		assert.Greater(t, res.CookieMaxAge, 59*time.Minute)
	})

	t.Run("requires credentials", func(t *testing.T) {
		backend := new(MockAuthBackend)
		_, err := newService(backend, auth.NewInMemoryTokenBlacklist()).Login(ctx, LoginInput{Email: " ", Password: "x"})
		assert.ErrorIs(t, err, shared.ErrValidation)
		backend.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
	})

	t.Run("passes backend rejection through", func(t *testing.T) {
		backend := new(MockAuthBackend)
		rejected := shared.NewDomainError(shared.CodeUnauthorized, "Invalid credentials")
		backend.On("Login", mock.Anything, mock.Anything).Return(nil, rejected)

		_, err := newService(backend, auth.NewInMemoryTokenBlacklist()).Login(ctx, LoginInput{Email: "a@b.co", Password: "bad"})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
		assert.True(t, IsAuthError(err))
	})

	t.Run("token that just expired is refused", func(t *testing.T) {
		backend := new(MockAuthBackend)
		token := sessionToken(t, "user-1", time.Now().Add(-5*time.Second))
		backend.On("Login", mock.Anything, mock.Anything).Return(&vtuapi.LoginResult{Token: token}, nil)

		_, err := newService(backend, auth.NewInMemoryTokenBlacklist()).Login(ctx, LoginInput{Email: "a@b.co", Password: "x"})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})
}

func TestAuthService_Register(t *testing.T) {
	backend := new(MockAuthBackend)
	backend.On("Register", mock.Anything, vtuapi.RegisterRequest{
		UserName:    "ada",
		Email:       "ada@example.com",
		PhoneNumber: "08031234567",
		Password:    "secret",
	}).Return("", nil)

	msg, err := newService(backend, auth.NewInMemoryTokenBlacklist()).Register(context.Background(), RegisterInput{
		UserName:    " ada ",
		Email:       "ADA@example.com",
		PhoneNumber: "08031234567",
		Password:    "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "Registration successful", msg)
	backend.AssertExpectations(t)
}

func TestAuthService_LogoutRevokesSession(t *testing.T) {
	ctx := context.Background()
	svc := newService(new(MockAuthBackend), auth.NewInMemoryTokenBlacklist())
	token := sessionToken(t, "user-7", time.Now().Add(time.Hour))

	principal, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-7", principal.UserID)
	assert.Equal(t, "ada@example.com", principal.Email)
	assert.Equal(t, "RESELLER", principal.Tier)

	require.NoError(t, svc.Logout(ctx, LogoutInput{Token: token}))

	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, auth.ErrTokenBlacklisted)
	assert.True(t, IsAuthError(err))
}

func TestAuthService_LogoutIgnoresUnusableTokens(t *testing.T) {
	svc := newService(new(MockAuthBackend), failingBlacklist{})
	assert.NoError(t, svc.Logout(context.Background(), LogoutInput{}))
	assert.NoError(t, svc.Logout(context.Background(), LogoutInput{Token: "not-a-jwt"}))

	err := svc.Logout(context.Background(), LogoutInput{Token: sessionToken(t, "user-1", time.Now().Add(time.Hour))})
	assert.Error(t, err)
}

func TestAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("expired token", func(t *testing.T) {
		svc := newService(new(MockAuthBackend), auth.NewInMemoryTokenBlacklist())
		_, err := svc.Authenticate(ctx, sessionToken(t, "user-1", time.Now().Add(-time.Hour)))
		assert.ErrorIs(t, err, auth.ErrExpiredToken)
		assert.True(t, IsAuthError(err))
	})

	t.Run("missing token", func(t *testing.T) {
		svc := newService(new(MockAuthBackend), auth.NewInMemoryTokenBlacklist())
		_, err := svc.Authenticate(ctx, "")
		assert.ErrorIs(t, err, auth.ErrMissingToken)
	})

	t.Run("blacklist outage fails open", func(t *testing.T) {
		svc := newService(new(MockAuthBackend), failingBlacklist{})
		principal, err := svc.Authenticate(ctx, sessionToken(t, "user-1", time.Now().Add(time.Hour)))
		require.NoError(t, err)
		assert.Equal(t, "user-1", principal.UserID)
	})

	assert.False(t, IsAuthError(shared.ErrValidation))
}

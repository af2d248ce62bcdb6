package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/datapadi/web/internal/domain/shared"
	"github.com/datapadi/web/internal/infrastructure/auth"
	"github.com/datapadi/web/internal/infrastructure/vtuapi"
	"go.uber.org/zap"
)

// DefaultSessionMaxAge caps the session cookie when the token carries no expiry
const DefaultSessionMaxAge = 24 * time.Hour

// AuthBackend is the backend surface used for sign-in and sign-up
type AuthBackend interface {
	Login(ctx context.Context, req vtuapi.LoginRequest) (*vtuapi.LoginResult, error)
	Register(ctx context.Context, req vtuapi.RegisterRequest) (string, error)
}

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	SessionMaxAge time.Duration
}

// AuthService handles authentication operations. Credentials are checked by
// the backend; this service only scopes the resulting session.
type AuthService struct {
	backend   AuthBackend
	inspector *auth.TokenInspector
	blacklist auth.TokenBlacklist
	config    AuthServiceConfig
	logger    *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	backend AuthBackend,
	inspector *auth.TokenInspector,
	blacklist auth.TokenBlacklist,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	if config.SessionMaxAge <= 0 {
		config.SessionMaxAge = DefaultSessionMaxAge
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		backend:   backend,
		inspector: inspector,
		blacklist: blacklist,
		config:    config,
		logger:    logger,
	}
}

// Login signs the user in with the backend and returns the session token
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || input.Password == "" {
		return nil, shared.NewValidationError("email and password are required")
	}

	res, err := s.backend.Login(ctx, vtuapi.LoginRequest{Email: email, Password: input.Password})
	if err != nil {
		s.logger.Info("login rejected", zap.Error(err))
		return nil, err
	}

	maxAge := s.inspector.CookieMaxAge(res.Token, s.config.SessionMaxAge)
	if maxAge <= 0 {
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "Session token is already expired")
	}

	s.logger.Info("user logged in",
		zap.String("user_id", res.User.ID),
		zap.Duration("session_max_age", maxAge))

	return &LoginResult{
		Token:        res.Token,
		CookieMaxAge: maxAge,
		User: UserInfo{
			ID:            res.User.ID,
			UserName:      res.User.UserName,
			Tier:          string(res.User.Tier),
			IsKycVerified: res.User.IsKycVerified,
		},
	}, nil
}

// Register creates an account with the backend
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (string, error) {
	msg, err := s.backend.Register(ctx, vtuapi.RegisterRequest{
		UserName:    strings.TrimSpace(input.UserName),
		Email:       strings.TrimSpace(strings.ToLower(input.Email)),
		PhoneNumber: strings.TrimSpace(input.PhoneNumber),
		Password:    input.Password,
	})
	if err != nil {
		return "", err
	}
	if msg == "" {
		msg = "Registration successful"
	}
	return msg, nil
}

// Logout revokes the session token for the rest of its lifetime. Tokens that
// are already unusable need no revocation.
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.Token == "" {
		return nil
	}
	claims, err := s.inspector.Inspect(input.Token)
	if err != nil {
		return nil
	}

	ttl := claims.GetRemainingTTL()
	if ttl <= 0 {
		ttl = s.config.SessionMaxAge
	}
	if err := s.blacklist.AddToBlacklist(ctx, input.Token, ttl); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	s.logger.Info("user logged out", zap.String("user_id", claims.User()))
	return nil
}

// Authenticate resolves the caller of a request from its session token
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := s.inspector.Inspect(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.blacklist.IsBlacklisted(ctx, token)
	if err != nil {
		// fails open; the backend still rejects revoked upstream tokens
		s.logger.Warn("token blacklist unavailable", zap.Error(err))
	} else if revoked {
		return nil, auth.ErrTokenBlacklisted
	}

	return &Principal{
		UserID:    claims.User(),
		Email:     claims.Email,
		Tier:      claims.Tier,
		Token:     token,
		ExpiresAt: claims.GetExpiresAtTime(),
	}, nil
}

// IsAuthError reports whether err means the caller must sign in again
func IsAuthError(err error) bool {
	return errors.Is(err, auth.ErrMissingToken) ||
		errors.Is(err, auth.ErrInvalidToken) ||
		errors.Is(err, auth.ErrExpiredToken) ||
		errors.Is(err, auth.ErrMissingUserID) ||
		errors.Is(err, auth.ErrTokenBlacklisted) ||
		errors.Is(err, shared.ErrUnauthorized)
}

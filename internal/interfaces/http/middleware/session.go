package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/datapadi/web/internal/application/identity"
	"github.com/datapadi/web/internal/infrastructure/auth"
	"github.com/datapadi/web/internal/infrastructure/logger"
	"github.com/datapadi/web/internal/infrastructure/vtuapi"
	"github.com/datapadi/web/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Session context keys
const (
	PrincipalKey      = "principal"
	UserIDKey         = "user_id"
	AuthHeaderKey     = "Authorization"
	BearerPrefix      = "Bearer "
	SessionCookieName = "session_token"
)

// Authenticator resolves the caller from a session token
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*identity.Principal, error)
}

// SessionConfig holds configuration for the session middleware
type SessionConfig struct {
	Authenticator Authenticator
	// CookieName defaults to session_token
	CookieName string
	Logger     *zap.Logger
}

// Session requires a valid session cookie or bearer token. The caller's
// token is forwarded to the backend client through the request context.
func Session(cfg SessionConfig) gin.HandlerFunc {
	if cfg.CookieName == "" {
		cfg.CookieName = SessionCookieName
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		token := SessionToken(c, cfg.CookieName)

		principal, err := cfg.Authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			cfg.Logger.Debug("session rejected",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path))
			abortUnauthorized(c, err)
			return
		}

		c.Set(PrincipalKey, principal)
		c.Set(UserIDKey, principal.UserID)

		ctx := c.Request.Context()
		ctx, _ = logger.WithUserID(ctx, logger.FromContext(ctx), principal.UserID)
		ctx = vtuapi.WithToken(ctx, principal.Token)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// SessionToken reads the token from the session cookie, then the Authorization header
func SessionToken(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader(AuthHeaderKey)
	if strings.HasPrefix(header, BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	}
	return ""
}

func abortUnauthorized(c *gin.Context, err error) {
	code, message := SessionError(err)
	c.AbortWithStatusJSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// SessionError picks the error code and message for a rejected session
func SessionError(err error) (code, message string) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return dto.ErrCodeTokenExpired, "Session has expired"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		return dto.ErrCodeSessionRevoked, "Session has been signed out"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingUserID):
		return dto.ErrCodeTokenInvalid, "Invalid session"
	}
	return dto.ErrCodeUnauthorized, "Authentication required"
}

// GetPrincipal retrieves the authenticated caller from gin.Context
func GetPrincipal(c *gin.Context) *identity.Principal {
	if v, exists := c.Get(PrincipalKey); exists {
		if p, ok := v.(*identity.Principal); ok {
			return p
		}
	}
	return nil
}

// GetUserID retrieves the authenticated user ID from gin.Context
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveSecure(t *testing.T, cfg SecurityConfig) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var nonce string
	router := gin.New()
	router.Use(SecureWithConfig(cfg))
	router.GET("/test", func(c *gin.Context) {
		nonce = CSPNonce(c)
		c.Status(http.StatusOK)
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	return w, nonce
}

func TestSecure(t *testing.T) {
	w, nonce := serveSecure(t, DefaultSecurityConfig())

	assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	csp := w.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "style-src 'self' 'unsafe-inline'")
	require.NotEmpty(t, nonce)
	assert.Contains(t, csp, "script-src 'self' 'nonce-"+nonce+"'")
	assert.NotContains(t, csp, NoncePlaceholder)
}

func TestSecure_NonceIsPerRequest(t *testing.T) {
	_, first := serveSecure(t, DefaultSecurityConfig())
	_, second := serveSecure(t, DefaultSecurityConfig())
	assert.NotEqual(t, first, second)
}

func TestSecureWithConfig_StaticPolicyHasNoNonce(t *testing.T) {
	cfg := DefaultSecurityConfig()
	cfg.CSPDirective = "default-src 'self'"

	w, nonce := serveSecure(t, cfg)
	assert.Equal(t, "default-src 'self'", w.Header().Get("Content-Security-Policy"))
	assert.Empty(t, nonce)
}

func TestSecureWithConfig_HSTS(t *testing.T) {
	cfg := DefaultSecurityConfig()
	cfg.HSTSEnabled = true
	cfg.HSTSPreload = true

	w, _ := serveSecure(t, cfg)
	assert.Equal(t, "max-age=31536000; includeSubDomains; preload", w.Header().Get("Strict-Transport-Security"))
	assert.False(t, strings.Contains(w.Header().Get("Content-Security-Policy"), "{"))
}

package middleware

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	cspNonceKey = "csp_nonce"

	// NoncePlaceholder is replaced with a fresh nonce on every response
	NoncePlaceholder = "{nonce}"
)

// SecurityConfig holds configuration for security headers
type SecurityConfig struct {
	HSTSEnabled           bool
	HSTSMaxAge            int // seconds
	HSTSIncludeSubdomains bool
	HSTSPreload           bool

	// CSPDirective may contain NoncePlaceholder; a nonce is then minted per
	// request and exposed to handlers through CSPNonce.
	CSPEnabled   bool
	CSPDirective string

	PermissionsPolicyEnabled   bool
	PermissionsPolicyDirective string
}

// DefaultSecurityConfig returns the headers used in every environment.
// HSTS stays off until the deployment terminates TLS itself.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,

		CSPEnabled: true,
		// voucher sheets carry inline styles and a nonce'd toolbar script
		CSPDirective: "default-src 'self'; script-src 'self' 'nonce-" + NoncePlaceholder + "'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; font-src 'self' data:; connect-src 'self'; frame-ancestors 'self'; base-uri 'self'; form-action 'self'",

		PermissionsPolicyEnabled:   true,
		PermissionsPolicyDirective: "accelerometer=(), camera=(), geolocation=(), gyroscope=(), magnetometer=(), microphone=(), payment=(), usb=()",
	}
}

// Secure adds security headers using the default configuration
func Secure() gin.HandlerFunc {
	return SecureWithConfig(DefaultSecurityConfig())
}

// SecureWithConfig adds security headers with a custom configuration
func SecureWithConfig(cfg SecurityConfig) gin.HandlerFunc {
	var hsts string
	if cfg.HSTSEnabled {
		hsts = fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		if cfg.HSTSPreload {
			hsts += "; preload"
		}
	}
	csp := ""
	if cfg.CSPEnabled {
		csp = cfg.CSPDirective
	}
	needsNonce := strings.Contains(csp, NoncePlaceholder)

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "SAMEORIGIN")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if csp != "" {
			policy := csp
			if needsNonce {
				nonce := newNonce()
				c.Set(cspNonceKey, nonce)
				policy = strings.ReplaceAll(csp, NoncePlaceholder, nonce)
			}
			h.Set("Content-Security-Policy", policy)
		}
		if hsts != "" {
			h.Set("Strict-Transport-Security", hsts)
		}
		if cfg.PermissionsPolicyEnabled && cfg.PermissionsPolicyDirective != "" {
			h.Set("Permissions-Policy", cfg.PermissionsPolicyDirective)
		}

		c.Next()
	}
}

// CSPNonce returns the script nonce minted for this request, or "" when the
// active policy does not use one.
func CSPNonce(c *gin.Context) string {
	return c.GetString(cspNonceKey)
}

func newNonce() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("csp nonce: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b[:])
}

package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/datapadi/web/internal/application/identity"
	"github.com/datapadi/web/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// legacyCookies are cleared on logout alongside the session cookie
var legacyCookies = []string{"accessToken", "refreshToken"}

// CookieConfig controls the session cookie attributes
type CookieConfig struct {
	Name     string
	Domain   string
	Path     string
	Secure   bool
	SameSite http.SameSite
}

// ParseSameSite maps "strict", "lax" or "none" onto http.SameSite
func ParseSameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// AuthHandler proxies sign-in, sign-up and sign-out to the backend and owns
// the session cookie
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
	cookie      CookieConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService, cookie CookieConfig) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = middleware.SessionCookieName
	}
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	return &AuthHandler{authService: authService, cookie: cookie}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,max=128"`
}

// RegisterRequest represents a sign-up request
type RegisterRequest struct {
	UserName    string `json:"user_name" binding:"required,min=3,max=50"`
	Email       string `json:"email" binding:"required,email,max=254"`
	PhoneNumber string `json:"phone_number" binding:"required,ng_phone"`
	Password    string `json:"password" binding:"required,min=6,max=128"`
}

// LoginResponse is returned after a successful sign-in; the token itself
// only travels in the httpOnly cookie
type LoginResponse struct {
	User      identity.UserInfo `json:"user"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// MessageResponse carries a backend acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

// Login godoc
//
//	@Summary		User login
//	@Description	Sign in with the backend and set the session cookie
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest	true	"Login credentials"
//	@Success		200		{object}	dto.Response{data=LoginResponse}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		401		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identity.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setCookie(c, h.cookie.Name, result.Token, int(result.CookieMaxAge.Seconds()))
	h.Success(c, LoginResponse{
		User:      result.User,
		ExpiresAt: time.Now().Add(result.CookieMaxAge).UTC(),
	})
}

// Register godoc
//
//	@Summary		Register
//	@Description	Create an account with the backend
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RegisterRequest	true	"Sign-up details"
//	@Success		201		{object}	dto.Response{data=MessageResponse}
//	@Failure		400		{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	msg, err := h.authService.Register(c.Request.Context(), identity.RegisterInput{
		UserName:    req.UserName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, MessageResponse{Message: msg})
}

// Logout godoc
//
//	@Summary		User logout
//	@Description	Revoke the session and clear the auth cookies
//	@Tags			auth
//	@Produce		json
//	@Success		200	{object}	dto.Response{data=MessageResponse}
//	@Router			/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.SessionToken(c, h.cookie.Name)

	// cookies are cleared even when revocation fails
	h.setCookie(c, h.cookie.Name, "", -1)
	for _, name := range legacyCookies {
		h.setCookie(c, name, "", -1)
	}

	if err := h.authService.Logout(c.Request.Context(), identity.LogoutInput{Token: token}); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, MessageResponse{Message: "Logged out"})
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(h.cookie.SameSite)
	c.SetCookie(name, value, maxAge, h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
}

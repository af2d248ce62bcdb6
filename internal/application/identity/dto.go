package identity

import "time"

// LoginInput contains the input for user login
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	Token string
	// CookieMaxAge is how long the session cookie should live
	CookieMaxAge time.Duration
	User         UserInfo
}

// UserInfo contains basic user information returned after login
type UserInfo struct {
	ID            string `json:"id"`
	UserName      string `json:"user_name"`
	Tier          string `json:"tier"`
	IsKycVerified bool   `json:"is_kyc_verified"`
}

// RegisterInput contains the sign-up details
type RegisterInput struct {
	UserName    string
	Email       string
	PhoneNumber string
	Password    string
}

// LogoutInput contains the input for user logout
type LogoutInput struct {
	Token string
}

// Principal is the authenticated caller of a request
type Principal struct {
	UserID    string
	Email     string
	Tier      string
	Token     string
	ExpiresAt time.Time
}

package dto

import "time"

// LoginRequest payload for account login.
type LoginRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Name     string `json:"name"`
	Account  string `json:"account"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a freshly issued access token. The refresh token
// travels only in the HttpOnly cookie, never in a response body.
type TokenResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

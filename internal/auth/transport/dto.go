// Package transport defines request and response shapes for the auth HTTP API.
package transport

// LoginRequest carries dashboard sign-in credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// TokenResponse carries the issued access token.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// MeResponse identifies the authenticated operator.
type MeResponse struct {
	Email string `json:"email"`
}

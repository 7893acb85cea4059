// Package auth provides authentication and authorization functionality.
// This file, `dto.go` (Data Transfer Object), defines the request and response
// bodies of the /auth endpoints. The `validate` tags are enforced by
// apperror.Validate before a request reaches the service.
package auth

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanumunderscore" example:"chef_ana"`
	Email    string `json:"email" validate:"required,email,max=255" example:"ana@example.com"`
	Password string `json:"password" validate:"required,min=8,max=72" example:"strongpassword123"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Login    string `json:"login" validate:"required" example:"ana@example.com"` // username or email
	Password string `json:"password" validate:"required" example:"strongpassword123"`
}

// TokenResponse represents the authentication token response
type TokenResponse struct {
	AccessToken  string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string `json:"refresh_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType    string `json:"token_type" example:"Bearer"`
	// ExpiresIn is the access token's expiry as a Unix timestamp.
	ExpiresIn int64 `json:"expires_in" example:"1735689600"`
}

// RefreshTokenRequest represents the token refresh request payload
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the `token_type` claim. The middleware only accepts
// access tokens, /auth/refresh only accepts refresh tokens.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	tokenIssuer      = "cookease"
)

// CustomClaims is the JWT payload: the user id plus the standard registered claims.
type CustomClaims struct {
	UserID    int    `json:"user_id"`
	TokenType string `json:"token_type"`
	IsAdmin   bool   `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 tokens with one shared secret.
// It holds no database handle, so the middleware and the service share it.
type TokenIssuer struct {
	secret          []byte
	accessDuration  time.Duration
	refreshDuration time.Duration
	now             func() time.Time
}

// NewTokenIssuer creates a TokenIssuer.
func NewTokenIssuer(secret string, accessDuration, refreshDuration time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:          []byte(secret),
		accessDuration:  accessDuration,
		refreshDuration: refreshDuration,
		now:             time.Now,
	}
}

// IssuePair creates an access and a refresh token for the user.
func (t *TokenIssuer) IssuePair(userID int, isAdmin bool) (*TokenResponse, error) {
	accessToken, accessExpiresAt, err := t.sign(userID, isAdmin, tokenTypeAccess, t.accessDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, _, err := t.sign(userID, isAdmin, tokenTypeRefresh, t.refreshDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    accessExpiresAt.Unix(),
	}, nil
}

// IssueAccess creates a single access token, used by refresh.
func (t *TokenIssuer) IssueAccess(userID int, isAdmin bool) (string, time.Time, error) {
	return t.sign(userID, isAdmin, tokenTypeAccess, t.accessDuration)
}

func (t *TokenIssuer) sign(userID int, isAdmin bool, tokenType string, duration time.Duration) (string, time.Time, error) {
	now := t.now()
	expirationTime := now.Add(duration)
	claims := &CustomClaims{
		UserID:    userID,
		TokenType: tokenType,
		IsAdmin:   isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   strconv.Itoa(userID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, expirationTime, nil
}

// Parse verifies signature, expiry and issuer, then checks the token type.
func (t *TokenIssuer) Parse(tokenString, expectedTokenType string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is invalid")
	}
	if claims.TokenType != expectedTokenType {
		return nil, fmt.Errorf("invalid token type: expected %s, got %s", expectedTokenType, claims.TokenType)
	}
	if claims.UserID <= 0 {
		return nil, errors.New("user_id claim is missing or invalid")
	}
	return claims, nil
}

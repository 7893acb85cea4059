// Package auth, as part of the authentication module.
// This file, `context.go`, deals with utilities for managing authentication-related data
// within the Go `context.Context`. The context carries request-scoped values, so the
// middleware stores the verified claims there and handlers read them back.
package auth

import (
	"context"
)

// `contextKey` is a custom type for context keys. Using a custom type prevents collisions
// with context keys defined in other packages.
type contextKey string

const (
	// `claimsContextKey` is the specific key used to store authentication claims in the context.
	claimsContextKey contextKey = "auth_claims"
)

// NewContextWithClaims creates a new context with CustomClaims.
func NewContextWithClaims(ctx context.Context, claims *CustomClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext extracts CustomClaims from context.
// The second return value (`bool`) indicates if the claims were found and of the correct type.
func ClaimsFromContext(ctx context.Context) (*CustomClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*CustomClaims)
	return claims, ok && claims != nil
}

// GetUserIDFromContext retrieves the userID from the request context.
// Returns 0 and false when the request is anonymous.
func GetUserIDFromContext(ctx context.Context) (int, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return 0, false
	}
	return claims.UserID, true
}

// IsAdminFromContext reports whether the authenticated caller carries the admin claim.
func IsAdminFromContext(ctx context.Context) bool {
	claims, ok := ClaimsFromContext(ctx)
	return ok && claims.IsAdmin
}

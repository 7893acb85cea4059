// Package auth, as part of the authentication module.
// This file, `middleware.go`, defines HTTP middleware related to authentication.
// Middleware are functions that process HTTP requests before they reach the main handler.
// They all follow the standard Go `func(next http.Handler) http.Handler` pattern so
// chi can mount them with `r.Use` or `r.With`.
package auth

import (
	"net/http"
	"strings"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
)

// AccessTokenQueryParam is read by StreamJWTMiddleware when no Authorization
// header is present. Browsers cannot set headers on an EventSource.
const AccessTokenQueryParam = "access_token"

// TokenFromRequest extracts the bearer token from the Authorization header.
// It returns an empty string and no error when the header is absent.
func TokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", nil
	}

	// The Authorization header should be in the format "Bearer {token}".
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", apperror.NewAuthError("Authorization header format must be Bearer {token}", nil)
	}
	return parts[1], nil
}

// streamToken is TokenFromRequest with the query parameter fallback.
func streamToken(r *http.Request) (string, error) {
	if r.Header.Get("Authorization") == "" {
		return r.URL.Query().Get(AccessTokenQueryParam), nil
	}
	return TokenFromRequest(r)
}

// JWTMiddleware rejects any request without a valid access token in the
// Authorization header and stores the verified claims in the request context.
func JWTMiddleware(tokens *TokenIssuer) func(next http.Handler) http.Handler {
	return requireToken(tokens, TokenFromRequest)
}

// StreamJWTMiddleware is JWTMiddleware for Server-Sent Events endpoints: it
// also accepts the token as the access_token query parameter.
func StreamJWTMiddleware(tokens *TokenIssuer) func(next http.Handler) http.Handler {
	return requireToken(tokens, streamToken)
}

func requireToken(tokens *TokenIssuer, extract func(*http.Request) (string, error)) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := extract(r)
			if err != nil {
				WriteError(w, r, err)
				return
			}
			if tokenString == "" {
				WriteError(w, r, apperror.NewAuthError("Authorization header is missing", nil))
				return
			}

			claims, err := tokens.Parse(tokenString, tokenTypeAccess)
			if err != nil {
				WriteError(w, r, apperror.NewAuthError("Invalid token: "+err.Error(), err))
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContextWithClaims(r.Context(), claims)))
		})
	}
}

// OptionalJWTMiddleware attaches the caller's claims when a valid access token
// is present and otherwise lets the request through anonymously. It never rejects.
func OptionalJWTMiddleware(tokens *TokenIssuer) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := TokenFromRequest(r)
			if err == nil && tokenString != "" {
				if claims, err := tokens.Parse(tokenString, tokenTypeAccess); err == nil {
					r = r.WithContext(NewContextWithClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUserID is a small guard used inside handlers mounted behind JWTMiddleware.
// It writes a 401 and returns ok=false when the context carries no user.
func RequireUserID(w http.ResponseWriter, r *http.Request) (int, bool) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		WriteError(w, r, apperror.NewAuthError("authentication required", nil))
		return 0, false
	}
	return userID, true
}

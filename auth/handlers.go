// Package auth, as part of the authentication module.
// This file, `handlers.go`, is responsible for handling HTTP requests related to authentication.
// It acts as the "Controller" layer: decode and validate the request, call the service,
// write the response.
package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handlers wraps the auth Service to provide HTTP handlers.
type Handlers struct {
	service Service
	tokens  *TokenIssuer
	limiter *RateLimiter
}

// NewHandlers creates a new Handlers instance.
// A nil limiter disables rate limiting.
func NewHandlers(service Service, tokens *TokenIssuer, limiter *RateLimiter) *Handlers {
	return &Handlers{service: service, tokens: tokens, limiter: limiter}
}

// RegisterRoutes mounts the /auth routes on r.
// Everything under /auth is rate limited per IP; /auth/me also needs a token.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter.Middleware)
		}
		r.Post("/register", h.HandleRegister())
		r.Post("/login", h.HandleLogin())
		r.Post("/refresh", h.HandleRefreshToken())
		r.With(JWTMiddleware(h.tokens)).Get("/me", h.HandleMe())
	})
}

// The `godoc` comments (like `@Summary`, `@Tags`, etc.) are annotations used by
// `swaggo/swag` to generate OpenAPI/Swagger documentation.

// HandleRegister godoc
// @Summary User Registration
// @Description Registers a new user in the system.
// @Tags Auth
// @Accept json
// @Produce json
// @Param registerBody body auth.RegisterRequest true "User registration details"
// @Success 201 {object} auth.User "User created successfully"
// @Failure 400 {object} apperror.ErrorResponse "Bad Request - Invalid input or missing fields"
// @Failure 409 {object} apperror.ErrorResponse "Conflict - User already exists (username or email)"
// @Failure 429 {object} apperror.ErrorResponse "Too Many Requests"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /auth/register [post]
func (h *Handlers) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := DecodeJSON(w, r, &req); err != nil {
			WriteError(w, r, err)
			return
		}

		user, err := h.service.Register(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		WriteJSON(w, http.StatusCreated, user)
	}
}

// HandleLogin godoc
// @Summary User Login
// @Description Logs in with a username or email and returns access and refresh tokens.
// @Tags Auth
// @Accept json
// @Produce json
// @Param loginBody body auth.LoginRequest true "User login credentials"
// @Success 200 {object} auth.TokenResponse "Login successful, tokens provided"
// @Failure 400 {object} apperror.ErrorResponse "Bad Request - Invalid input or missing fields"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Invalid credentials"
// @Failure 429 {object} apperror.ErrorResponse "Too Many Requests"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /auth/login [post]
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := DecodeJSON(w, r, &req); err != nil {
			WriteError(w, r, err)
			return
		}

		resp, err := h.service.Login(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

// HandleRefreshToken godoc
// @Summary Refresh Access Token
// @Description Provides a new access token using a valid refresh token sent in the body.
// @Tags Auth
// @Accept json
// @Produce json
// @Param refreshBody body auth.RefreshTokenRequest true "Refresh token details"
// @Success 200 {object} auth.TokenResponse "Tokens refreshed successfully"
// @Failure 400 {object} apperror.ErrorResponse "Bad Request - Missing refresh token"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Invalid or expired refresh token"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /auth/refresh [post]
func (h *Handlers) HandleRefreshToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshTokenRequest
		if err := DecodeJSON(w, r, &req); err != nil {
			WriteError(w, r, err)
			return
		}

		resp, err := h.service.RefreshToken(r.Context(), req.RefreshToken)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

// HandleMe godoc
// @Summary Current User
// @Description Returns the account behind the bearer token.
// @Tags Auth
// @Produce json
// @Success 200 {object} auth.User
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized"
// @Failure 404 {object} apperror.ErrorResponse "User no longer exists"
// @Router /auth/me [get]
// @Security BearerAuth
func (h *Handlers) HandleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := RequireUserID(w, r)
		if !ok {
			return
		}

		user, err := h.service.GetUserByID(r.Context(), userID)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		WriteJSON(w, http.StatusOK, user)
	}
}

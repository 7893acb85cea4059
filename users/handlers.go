// Package users encapsulates all functionality related to user profile management.
// This file, `handlers.go`, is responsible for handling HTTP requests related to users.
package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/akshayUniverse/cook-ease-sub001/auth"
)

// UserHandlers provides HTTP handlers for user profile management.
type UserHandlers struct {
	service Service
}

// NewUserHandlers creates new UserHandlers.
func NewUserHandlers(service Service) *UserHandlers {
	return &UserHandlers{service: service}
}

// RegisterRoutes mounts /users. `/users/me` needs a token; `/users/{id}` is public.
func (h *UserHandlers) RegisterRoutes(r chi.Router, tokens *auth.TokenIssuer) {
	r.Route("/users", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.JWTMiddleware(tokens))
			r.Get("/me", h.HandleGetUserProfile())
			r.Put("/me", h.HandleUpdateUserProfile())
		})
		r.Get("/{id}", h.HandleGetPublicProfile())
	})
}

// HandleGetUserProfile godoc
// @Summary Get current user's profile
// @Description Retrieves the profile information for the currently authenticated user.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserProfileResponse "Successfully retrieved user profile"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} apperror.ErrorResponse "Not Found - User not found"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /api/v1/users/me [get]
func (h *UserHandlers) HandleGetUserProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.RequireUserID(w, r)
		if !ok {
			return
		}

		profile, err := h.service.GetUserProfile(r.Context(), userID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		auth.WriteJSON(w, http.StatusOK, profile)
	}
}

// HandleUpdateUserProfile godoc
// @Summary Update current user's profile
// @Description Partially updates email, display name, bio or avatar of the authenticated user.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userProfile body UpdateUserProfileRequest true "User profile data to update"
// @Success 200 {object} UserProfileResponse "Successfully updated user profile"
// @Failure 400 {object} apperror.ErrorResponse "Bad Request - Invalid input data"
// @Failure 401 {object} apperror.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} apperror.ErrorResponse "Not Found - User not found"
// @Failure 409 {object} apperror.ErrorResponse "Conflict - email already exists"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /api/v1/users/me [put]
func (h *UserHandlers) HandleUpdateUserProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.RequireUserID(w, r)
		if !ok {
			return
		}

		var req UpdateUserProfileRequest
		if err := auth.DecodeJSON(w, r, &req); err != nil {
			auth.WriteError(w, r, err)
			return
		}
		if req.isEmpty() {
			auth.WriteError(w, r, errNoFields)
			return
		}

		updatedProfile, err := h.service.UpdateUserProfile(r.Context(), userID, &req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		auth.WriteJSON(w, http.StatusOK, updatedProfile)
	}
}

// HandleGetPublicProfile godoc
// @Summary Get a user's public profile
// @Description Public profile with recipe count. Email is never included.
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} PublicProfileResponse
// @Failure 400 {object} apperror.ErrorResponse "Invalid id"
// @Failure 404 {object} apperror.ErrorResponse "User not found"
// @Router /api/v1/users/{id} [get]
func (h *UserHandlers) HandleGetPublicProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := auth.URLParamInt(r, "id")
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		profile, err := h.service.GetPublicProfile(r.Context(), id)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		auth.WriteJSON(w, http.StatusOK, profile)
	}
}

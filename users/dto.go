// Package users, as part of the user profile management module.
// This file, `dto.go`, defines Data Transfer Objects (DTOs) for the users module.
// DTOs are simple objects used for API request and response bodies.
package users

import "time"

// UserProfileResponse is the signed-in user's own profile.
// @Description User profile information
type UserProfileResponse struct {
	// example: 1
	ID int `json:"id"`
	// example: "chef_ana"
	Username string `json:"username"`
	// example: "ana@example.com"
	Email string `json:"email"`
	// `*string` (pointer to string) allows the field to be `nil` (null in JSON) if not set.
	DisplayName         *string   `json:"display_name,omitempty"`
	Bio                 *string   `json:"bio,omitempty"`
	AvatarURL           *string   `json:"avatar_url,omitempty"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	CreatedAt           time.Time `json:"created_at"`
}

// PublicProfileResponse is what anyone may see about a user. It has no email.
// @Description Public user profile
type PublicProfileResponse struct {
	ID          int       `json:"id"`
	Username    string    `json:"username"`
	DisplayName *string   `json:"display_name,omitempty"`
	Bio         *string   `json:"bio,omitempty"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	RecipeCount int       `json:"recipe_count"`
	JoinedAt    time.Time `json:"joined_at"`
}

// UpdateUserProfileRequest represents the data for updating a user profile.
// Pointers allow partial updates: a `nil` field is left unchanged, while a
// pointer to "" clears the optional text fields.
// @Description Request body for updating user profile
type UpdateUserProfileRequest struct {
	// example: "ana.new@example.com"
	Email *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	// example: "Ana Cooks"
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,max=64"`
	// example: "Weeknight pasta enthusiast."
	Bio *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	// example: "https://cdn.example.com/avatars/ana.png"
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitempty,url,max=2048"`
}

// isEmpty reports whether the request names no field at all.
func (r *UpdateUserProfileRequest) isEmpty() bool {
	return r.Email == nil && r.DisplayName == nil && r.Bio == nil && r.AvatarURL == nil
}

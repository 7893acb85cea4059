// Package auth, as previously noted, handles authentication.
// This file, `models.go`, defines the `User` entity shared by the auth and users modules.
package auth

import "time"

// User represents a registered account as stored in the `users` table.
// HashedPassword carries `json:"-"` so it can never be serialized into a response.
type User struct {
	ID                  int       `json:"id"`
	Username            string    `json:"username"`
	Email               string    `json:"email"`
	HashedPassword      string    `json:"-"`
	DisplayName         *string   `json:"display_name,omitempty"`
	AvatarURL           *string   `json:"avatar_url,omitempty"`
	IsAdmin             bool      `json:"is_admin"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	CreatedAt           time.Time `json:"created_at"`
}

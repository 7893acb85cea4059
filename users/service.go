// Package users, as part of the user profile management module.
// This file, `service.go`, contains the business logic for user profile operations.
// It acts as the "Service" layer between the handlers and Postgres.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
	"github.com/akshayUniverse/cook-ease-sub001/auth"
)

// Service is the users module as the handlers and sibling modules see it.
type Service interface {
	GetUserProfile(ctx context.Context, userID int) (*UserProfileResponse, error)
	UpdateUserProfile(ctx context.Context, userID int, req *UpdateUserProfileRequest) (*UserProfileResponse, error)
	GetPublicProfile(ctx context.Context, userID int) (*PublicProfileResponse, error)
	Exists(ctx context.Context, userID int) (bool, error)
}

var errNoFields = apperror.NewBadRequestError("no fields provided for update", nil)

// UserService provides methods for user profile management.
type UserService struct {
	db *pgxpool.Pool
}

// NewUserService creates a new UserService.
func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

const profileColumns = `id, username, email, display_name, bio, avatar_url, onboarding_completed, created_at`

func scanProfile(row pgx.Row) (*UserProfileResponse, error) {
	var p UserProfileResponse
	err := row.Scan(&p.ID, &p.Username, &p.Email, &p.DisplayName, &p.Bio, &p.AvatarURL, &p.OnboardingCompleted, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetUserProfile retrieves a user's own profile by their ID.
func (s *UserService) GetUserProfile(ctx context.Context, userID int) (*UserProfileResponse, error) {
	query := `SELECT ` + profileColumns + ` FROM users WHERE id = $1`
	profile, err := scanProfile(s.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("user with ID %d not found", userID), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user profile", err)
	}
	return profile, nil
}

// buildProfileUpdate turns the non-nil request fields into SET clauses.
// An empty string clears display_name, bio and avatar_url (stored as NULL).
// The returned args end with userID for the WHERE clause.
func buildProfileUpdate(userID int, req *UpdateUserProfileRequest) (string, []interface{}) {
	var setClauses []string
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	nullable := func(v string) interface{} {
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return strings.TrimSpace(v)
	}

	if req.Email != nil {
		add("email", strings.ToLower(strings.TrimSpace(*req.Email)))
	}
	if req.DisplayName != nil {
		add("display_name", nullable(*req.DisplayName))
	}
	if req.Bio != nil {
		add("bio", nullable(*req.Bio))
	}
	if req.AvatarURL != nil {
		add("avatar_url", nullable(*req.AvatarURL))
	}
	if len(setClauses) == 0 {
		return "", nil
	}
	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, userID)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), len(args), profileColumns)
	return query, args
}

// UpdateUserProfile applies a partial update to the user's profile.
func (s *UserService) UpdateUserProfile(ctx context.Context, userID int, req *UpdateUserProfileRequest) (*UserProfileResponse, error) {
	query, args := buildProfileUpdate(userID, req)
	if query == "" {
		return nil, errNoFields
	}
	if req.Email != nil && strings.TrimSpace(*req.Email) == "" {
		return nil, apperror.NewValidationError("email cannot be empty", nil)
	}

	profile, err := scanProfile(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("user with ID %d not found", userID), nil)
		}
		if conflict := auth.UniqueViolation(err); conflict != nil {
			return nil, conflict
		}
		return nil, apperror.NewDatabaseError("failed to update user profile", err)
	}
	return profile, nil
}

// GetPublicProfile returns the public view of any user, with their recipe count.
func (s *UserService) GetPublicProfile(ctx context.Context, userID int) (*PublicProfileResponse, error) {
	query := `
		SELECT u.id, u.username, u.display_name, u.bio, u.avatar_url, u.created_at,
		       (SELECT COUNT(*) FROM recipes r WHERE r.author_id = u.id)
		FROM users u
		WHERE u.id = $1`
	var p PublicProfileResponse
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&p.ID, &p.Username, &p.DisplayName, &p.Bio, &p.AvatarURL, &p.JoinedAt, &p.RecipeCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("user with ID %d not found", userID), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get public profile", err)
	}
	return &p, nil
}

// Exists reports whether a user row with the id exists. Messages use it to
// validate recipients.
func (s *UserService) Exists(ctx context.Context, userID int) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, apperror.NewDatabaseError("failed to check user", err)
	}
	return exists, nil
}

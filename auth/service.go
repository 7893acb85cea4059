// Package auth is responsible for handling authentication and authorization logic.
// This includes user registration, login, token generation (JWT), and token validation.
// The package also owns the small HTTP helpers (WriteJSON, WriteError, DecodeJSON)
// every other module uses, so that all responses share one error shape.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	// PostgreSQL driver and utilities from the `jackc/pgx` suite.
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	// Library for password hashing using bcrypt.
	"golang.org/x/crypto/bcrypt"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
	"github.com/akshayUniverse/cook-ease-sub001/config"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// invalidCredentials is deliberately the same for an unknown login and a wrong password.
const invalidCredentials = "invalid credentials"

// Service is what the HTTP handlers need from the auth module.
// Handlers depend on this interface so tests can substitute a fake.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error)
	GetUserByID(ctx context.Context, userID int) (*User, error)
}

// AuthService provides authentication-related services backed by Postgres.
type AuthService struct {
	dbPool *pgxpool.Pool
	tokens *TokenIssuer
}

// NewAuthService creates a new AuthService.
// Dependencies are injected explicitly: the pool for user rows and the
// auth configuration for signing tokens.
func NewAuthService(dbPool *pgxpool.Pool, authConfig *config.AuthConfig) *AuthService {
	return &AuthService{
		dbPool: dbPool,
		tokens: NewTokenIssuer(authConfig.JWTSecret, authConfig.AccessTokenDuration, authConfig.RefreshTokenDuration),
	}
}

// Tokens exposes the issuer so the middleware verifies with the same secret.
func (s *AuthService) Tokens() *TokenIssuer {
	return s.tokens
}

// Register creates a new user.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternalError("failed to hash password", err)
	}

	user := &User{
		Username:       strings.TrimSpace(req.Username),
		Email:          normalizeEmail(req.Email),
		HashedPassword: string(hashedPassword),
	}

	query := `INSERT INTO users (username, email, password)
              VALUES ($1, $2, $3)
              RETURNING id, is_admin, onboarding_completed, created_at`
	err = s.dbPool.QueryRow(ctx, query, user.Username, user.Email, user.HashedPassword).
		Scan(&user.ID, &user.IsAdmin, &user.OnboardingCompleted, &user.CreatedAt)
	if err != nil {
		if conflict := UniqueViolation(err); conflict != nil {
			return nil, conflict
		}
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}
	return user, nil
}

// Login authenticates a user by username or email and returns tokens.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.getUserByLogin(ctx, req.Login)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewAuthError(invalidCredentials, nil)
		}
		log.Printf("Database error in Login when trying to getUserByLogin: %v", err)
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		return nil, apperror.NewAuthError(invalidCredentials, nil)
	}

	resp, err := s.tokens.IssuePair(user.ID, user.IsAdmin)
	if err != nil {
		return nil, apperror.NewInternalError("failed to issue tokens", err)
	}
	return resp, nil
}

// RefreshToken issues a new access token from a valid refresh token.
// The refresh token itself is returned unchanged; it is not rotated.
func (s *AuthService) RefreshToken(ctx context.Context, refreshTokenString string) (*TokenResponse, error) {
	claims, err := s.tokens.Parse(refreshTokenString, tokenTypeRefresh)
	if err != nil {
		return nil, apperror.NewAuthError(fmt.Sprintf("invalid refresh token: %s", err.Error()), err)
	}

	// The admin flag is re-read so a demoted user loses it on the next refresh.
	isAdmin := claims.IsAdmin
	if s.dbPool != nil {
		user, err := s.GetUserByID(ctx, claims.UserID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.NewAuthError("invalid refresh token: user no longer exists", nil)
			}
			return nil, err
		}
		isAdmin = user.IsAdmin
	}

	accessToken, expiresAt, err := s.tokens.IssueAccess(claims.UserID, isAdmin)
	if err != nil {
		return nil, apperror.NewInternalError("failed to generate new access token", err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenString,
		TokenType:    "Bearer",
		ExpiresIn:    expiresAt.Unix(),
	}, nil
}

// --- Database Helper Functions ---

const userColumns = `id, username, email, password, display_name, avatar_url, is_admin, onboarding_completed, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.HashedPassword,
		&user.DisplayName, &user.AvatarURL, &user.IsAdmin, &user.OnboardingCompleted, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// getUserByLogin allows login with either username or email.
// A login containing "@" is matched only against email; anything else is
// tried as a username first and then as an email.
func (s *AuthService) getUserByLogin(ctx context.Context, login string) (*User, error) {
	login = strings.TrimSpace(login)
	byEmail := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	if strings.Contains(login, "@") {
		return scanUser(s.dbPool.QueryRow(ctx, byEmail, normalizeEmail(login)))
	}

	byUsername := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	user, err := scanUser(s.dbPool.QueryRow(ctx, byUsername, login))
	if errors.Is(err, pgx.ErrNoRows) {
		return scanUser(s.dbPool.QueryRow(ctx, byEmail, normalizeEmail(login)))
	}
	return user, err
}

// GetUserByID retrieves a user by id, used by /auth/me and the token refresh.
func (s *AuthService) GetUserByID(ctx context.Context, userID int) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(s.dbPool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("user with id %d not found", userID), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user by id", err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UniqueViolation maps the users table's unique constraints onto 409 errors.
// It returns nil for any other error. The users module reuses it for email updates.
func UniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return nil
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "username"):
		return apperror.NewConflictError("username already exists", nil)
	case strings.Contains(pgErr.ConstraintName, "email"):
		return apperror.NewConflictError("email already exists", nil)
	default:
		return apperror.NewConflictError("resource already exists", nil)
	}
}


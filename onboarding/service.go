package onboarding

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
)

// Service is the onboarding module as the handlers and the recipes module see it.
type Service interface {
	Complete(ctx context.Context, userID int, answers []Answer) (*Preferences, error)
	GetPreferences(ctx context.Context, userID int) (*Preferences, error)
	Completed(ctx context.Context, userID int) (bool, error)
	Reset(ctx context.Context, userID int) error
}

// PreferenceService stores preferences in Postgres.
type PreferenceService struct {
	db *pgxpool.Pool
}

// NewPreferenceService creates a PreferenceService.
func NewPreferenceService(db *pgxpool.Pool) *PreferenceService {
	return &PreferenceService{db: db}
}

// Complete aggregates the answers, upserts the preference row and flags the
// user as onboarded, all in one transaction. Completing again overwrites.
func (s *PreferenceService) Complete(ctx context.Context, userID int, answers []Answer) (prefs *Preferences, err error) {
	prefs, err = Aggregate(catalog, answers)
	if err != nil {
		return nil, err
	}
	prefs.UserID = userID

	answersJSON, err := json.Marshal(prefs.Answers)
	if err != nil {
		return nil, apperror.NewInternalError("failed to encode answers", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	err = tx.QueryRow(ctx, `
		INSERT INTO user_preferences (user_id, cuisines, diets, dislikes, skill_level, max_cook_minutes, answers, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			cuisines = EXCLUDED.cuisines,
			diets = EXCLUDED.diets,
			dislikes = EXCLUDED.dislikes,
			skill_level = EXCLUDED.skill_level,
			max_cook_minutes = EXCLUDED.max_cook_minutes,
			answers = EXCLUDED.answers,
			completed_at = EXCLUDED.completed_at
		RETURNING completed_at`,
		userID, prefs.Cuisines, prefs.Diets, prefs.Dislikes, string(prefs.SkillLevel), prefs.MaxCookMinutes, string(answersJSON),
	).Scan(&prefs.CompletedAt)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to save preferences", err)
	}

	tag, err := tx.Exec(ctx, `UPDATE users SET onboarding_completed = TRUE, updated_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to mark onboarding complete", err)
	}
	if tag.RowsAffected() == 0 {
		err = apperror.NewNotFoundError("user not found", nil)
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, apperror.NewDatabaseError("failed to commit preferences", err)
	}
	return prefs, nil
}

// GetPreferences returns the user's record, or a NotFound error when the
// quiz was never completed.
func (s *PreferenceService) GetPreferences(ctx context.Context, userID int) (*Preferences, error) {
	prefs := &Preferences{UserID: userID}
	var skill string
	var answersJSON []byte
	err := s.db.QueryRow(ctx, `
		SELECT cuisines, diets, dislikes, skill_level, max_cook_minutes, answers, completed_at
		FROM user_preferences WHERE user_id = $1`, userID,
	).Scan(&prefs.Cuisines, &prefs.Diets, &prefs.Dislikes, &skill, &prefs.MaxCookMinutes, &answersJSON, &prefs.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("onboarding has not been completed", nil)
		}
		return nil, apperror.NewDatabaseError("failed to load preferences", err)
	}
	prefs.SkillLevel = SkillLevel(skill)
	if err := json.Unmarshal(answersJSON, &prefs.Answers); err != nil {
		return nil, apperror.NewInternalError("failed to decode stored answers", err)
	}
	return prefs, nil
}

// Completed reads the user's onboarding flag.
func (s *PreferenceService) Completed(ctx context.Context, userID int) (bool, error) {
	var done bool
	err := s.db.QueryRow(ctx, `SELECT onboarding_completed FROM users WHERE id = $1`, userID).Scan(&done)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, apperror.NewNotFoundError("user not found", nil)
		}
		return false, apperror.NewDatabaseError("failed to load onboarding status", err)
	}
	return done, nil
}

// Reset deletes the preference row and clears the flag so the quiz is shown again.
func (s *PreferenceService) Reset(ctx context.Context, userID int) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return apperror.NewDatabaseError("failed to begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `DELETE FROM user_preferences WHERE user_id = $1`, userID); err != nil {
		return apperror.NewDatabaseError("failed to delete preferences", err)
	}
	if _, err = tx.Exec(ctx, `UPDATE users SET onboarding_completed = FALSE, updated_at = NOW() WHERE id = $1`, userID); err != nil {
		return apperror.NewDatabaseError("failed to reset onboarding flag", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return apperror.NewDatabaseError("failed to commit reset", err)
	}
	return nil
}

package background

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
)

// PgStatsStore implements StatsStore on the maintenance pool.
type PgStatsStore struct {
	db *pgxpool.Pool
}

// NewPgStatsStore creates a PgStatsStore.
func NewPgStatsStore(db *pgxpool.Pool) *PgStatsStore {
	return &PgStatsStore{db: db}
}

func (s *PgStatsStore) StaleRecipeIDs(ctx context.Context, olderThan time.Time, limit int) ([]int, error) {
	rows, err := s.db.Query(ctx, `
		SELECT r.id
		FROM recipes r
		LEFT JOIN recipe_stats s ON s.recipe_id = r.id
		WHERE s.refreshed_at IS NULL OR s.refreshed_at < $1
		ORDER BY s.refreshed_at ASC NULLS FIRST, r.id
		LIMIT $2`, olderThan, limit)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list stale recipe stats", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to read stale recipe ids", err)
	}
	return ids, nil
}

func (s *PgStatsStore) ComputeStats(ctx context.Context, recipeID int, since time.Time) (*RawStats, error) {
	raw := RawStats{RecipeID: recipeID}
	err := s.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM recipe_likes WHERE recipe_id = $1),
			(SELECT COUNT(*) FROM recipe_likes WHERE recipe_id = $1 AND created_at >= $2),
			(SELECT COUNT(*) FROM recipe_reviews WHERE recipe_id = $1),
			(SELECT COUNT(*) FROM recipe_reviews WHERE recipe_id = $1 AND created_at >= $2),
			(SELECT COALESCE(AVG(rating)::float8, 0) FROM recipe_reviews WHERE recipe_id = $1)`,
		recipeID, since,
	).Scan(&raw.Likes, &raw.Likes7d, &raw.Reviews, &raw.Reviews7d, &raw.AvgRating)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to compute recipe stats", err)
	}
	return &raw, nil
}

// SaveStats upserts the row. A recipe deleted since it was fetched is skipped.
func (s *PgStatsStore) SaveStats(ctx context.Context, st Stats, at time.Time) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO recipe_stats (recipe_id, like_count, review_count, avg_rating, trending_score, refreshed_at)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE EXISTS (SELECT 1 FROM recipes WHERE id = $1)
		ON CONFLICT (recipe_id) DO UPDATE SET
			like_count = EXCLUDED.like_count,
			review_count = EXCLUDED.review_count,
			avg_rating = EXCLUDED.avg_rating,
			trending_score = EXCLUDED.trending_score,
			refreshed_at = EXCLUDED.refreshed_at`,
		st.RecipeID, st.LikeCount, st.ReviewCount, st.AvgRating, st.TrendingScore, at)
	if err != nil {
		return apperror.NewDatabaseError("failed to save recipe stats", err)
	}
	return nil
}

func (s *PgStatsStore) TopTrending(ctx context.Context, n int) ([]int, error) {
	rows, err := s.db.Query(ctx, `
		SELECT recipe_id FROM recipe_stats
		WHERE trending_score > 0
		ORDER BY trending_score DESC, like_count DESC, recipe_id DESC
		LIMIT $1`, n)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to rank trending recipes", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to read trending recipe ids", err)
	}
	return ids, nil
}

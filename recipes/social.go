package recipes

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
	"github.com/akshayUniverse/cook-ease-sub001/events"
	"github.com/akshayUniverse/cook-ease-sub001/notifications"
	"github.com/akshayUniverse/cook-ease-sub001/pagination"
)

// TrendingCacheKey holds the ids of the current trending recipes, best
// first. The stats refresher writes it; Trending reads it.
const TrendingCacheKey = "recipes:trending"

// TrendingSize is how many recipes the refresher ranks into the cache.
const TrendingSize = 20

// Like records the user's like. Liking twice is a no-op; only the first like
// notifies the author and publishes an event.
func (s *RecipeService) Like(ctx context.Context, userID, recipeID int) error {
	authorID, err := authorOf(ctx, s.db, recipeID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `INSERT INTO recipe_likes (user_id, recipe_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, recipeID)
	if err != nil {
		return apperror.NewDatabaseError("failed to like recipe", err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	// Keep list counters roughly current until the next refresh recomputes them.
	if _, err := s.db.Exec(ctx, `
		INSERT INTO recipe_stats (recipe_id, like_count) VALUES ($1, 1)
		ON CONFLICT (recipe_id) DO UPDATE SET like_count = recipe_stats.like_count + 1`, recipeID); err != nil {
		log.Printf("Warning: failed to bump like count for recipe %d: %v", recipeID, err)
	}

	s.notify(ctx, notifications.NewNotification{
		UserID:  authorID,
		ActorID: userID,
		Kind:    notifications.KindRecipeLiked,
		Message: "Someone liked your recipe",
		Link:    fmt.Sprintf("/recipes/%d", recipeID),
	})
	s.publish(ctx, events.SubjectRecipeLiked, recipeEvent{RecipeID: recipeID, AuthorID: authorID, UserID: userID})
	return nil
}

// Unlike removes the like if there is one.
func (s *RecipeService) Unlike(ctx context.Context, userID, recipeID int) error {
	if _, err := authorOf(ctx, s.db, recipeID); err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM recipe_likes WHERE user_id = $1 AND recipe_id = $2`, userID, recipeID)
	if err != nil {
		return apperror.NewDatabaseError("failed to unlike recipe", err)
	}
	if tag.RowsAffected() > 0 {
		if _, err := s.db.Exec(ctx, `
			UPDATE recipe_stats SET like_count = GREATEST(like_count - 1, 0) WHERE recipe_id = $1`, recipeID); err != nil {
			log.Printf("Warning: failed to lower like count for recipe %d: %v", recipeID, err)
		}
	}
	return nil
}

// Save bookmarks the recipe for the user. Saving twice is a no-op.
func (s *RecipeService) Save(ctx context.Context, userID, recipeID int) error {
	if _, err := authorOf(ctx, s.db, recipeID); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `INSERT INTO saved_recipes (user_id, recipe_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, recipeID); err != nil {
		return apperror.NewDatabaseError("failed to save recipe", err)
	}
	return nil
}

// Unsave removes the bookmark if there is one.
func (s *RecipeService) Unsave(ctx context.Context, userID, recipeID int) error {
	if _, err := authorOf(ctx, s.db, recipeID); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM saved_recipes WHERE user_id = $1 AND recipe_id = $2`, userID, recipeID); err != nil {
		return apperror.NewDatabaseError("failed to unsave recipe", err)
	}
	return nil
}

// Saved lists the user's bookmarked recipes, newest first.
func (s *RecipeService) Saved(ctx context.Context, userID int, page pagination.Params) (*SearchResponse, error) {
	return s.Search(ctx, SearchParams{SavedBy: userID, Sort: SortNewest, Page: page})
}

// Trending returns up to limit recipes ranked by the stats refresher. When the
// cache is empty or unavailable the ranking is read from recipe_stats.
func (s *RecipeService) Trending(ctx context.Context, limit int) ([]Summary, error) {
	var ids []int
	found, err := s.Cache.GetJSON(ctx, TrendingCacheKey, &ids)
	if err != nil {
		log.Printf("Warning: failed to read trending cache: %v", err)
	}
	if found && err == nil && len(ids) > 0 {
		if len(ids) > limit {
			ids = ids[:limit]
		}
		return s.summariesByID(ctx, ids)
	}

	rows, err := s.db.Query(ctx, "SELECT "+summaryColumns+summaryFrom+`
		ORDER BY COALESCE(s.trending_score, 0) DESC, COALESCE(s.like_count, 0) DESC, r.id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load trending recipes", err)
	}
	defer rows.Close()
	return s.collectSummaries(rows)
}

// summariesByID loads recipes and returns them in the order of ids. Ids that
// no longer exist are skipped.
func (s *RecipeService) summariesByID(ctx context.Context, ids []int) ([]Summary, error) {
	rows, err := s.db.Query(ctx, "SELECT "+summaryColumns+summaryFrom+" WHERE r.id = ANY($1)", ids)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load recipes", err)
	}
	defer rows.Close()
	list, err := s.collectSummaries(rows)
	if err != nil {
		return nil, err
	}
	return orderByIDs(list, ids), nil
}

func (s *RecipeService) collectSummaries(rows pgx.Rows) ([]Summary, error) {
	list := []Summary{}
	for rows.Next() {
		sum, err := s.scanSummary(rows)
		if err != nil {
			return nil, apperror.NewDatabaseError("failed to scan recipe", err)
		}
		list = append(list, *sum)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to iterate recipes", err)
	}
	return list, nil
}

// orderByIDs reorders list to follow ids.
func orderByIDs(list []Summary, ids []int) []Summary {
	byID := make(map[int]Summary, len(list))
	for _, sum := range list {
		byID[sum.ID] = sum
	}
	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		if sum, ok := byID[id]; ok {
			out = append(out, sum)
		}
	}
	return out
}

// Recommended searches with the user's onboarding preferences. Users who
// have not finished onboarding get the most popular recipes.
func (s *RecipeService) Recommended(ctx context.Context, userID int, page pagination.Params) (*SearchResponse, error) {
	params := SearchParams{Sort: SortPopular, Page: page}
	if s.Preferences != nil {
		prefs, err := s.Preferences.GetPreferences(ctx, userID)
		switch {
		case err == nil:
			params = FiltersFromPreferences(prefs, page)
		case apperror.IsNotFound(err):
		default:
			return nil, err
		}
	}
	return s.Search(ctx, params)
}

// ListReviews pages through a recipe's reviews, newest first.
func (s *RecipeService) ListReviews(ctx context.Context, recipeID int, page pagination.Params) (*ReviewsResponse, error) {
	if _, err := authorOf(ctx, s.db, recipeID); err != nil {
		return nil, err
	}

	var total int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM recipe_reviews WHERE recipe_id = $1`, recipeID).Scan(&total); err != nil {
		return nil, apperror.NewDatabaseError("failed to count reviews", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT rv.id, rv.recipe_id, u.id, u.username, u.avatar_url, rv.rating, rv.comment, rv.created_at, rv.updated_at
		FROM recipe_reviews rv
		JOIN users u ON u.id = rv.user_id
		WHERE rv.recipe_id = $1
		ORDER BY rv.updated_at DESC, rv.id DESC
		LIMIT $2 OFFSET $3`, recipeID, page.PerPage, page.Offset())
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list reviews", err)
	}
	defer rows.Close()

	reviews := []Review{}
	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.RecipeID, &rv.User.ID, &rv.User.Username, &rv.User.AvatarURL,
			&rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan review", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to iterate reviews", err)
	}

	return &ReviewsResponse{
		Reviews:    reviews,
		Total:      total,
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalPages: page.TotalPages(total),
	}, nil
}

// UpsertReview creates or replaces the user's review. Authors cannot review
// their own recipes. Only a first review notifies the author.
func (s *RecipeService) UpsertReview(ctx context.Context, userID, recipeID int, req ReviewRequest) (*Review, error) {
	authorID, err := authorOf(ctx, s.db, recipeID)
	if err != nil {
		return nil, err
	}
	if authorID == userID {
		return nil, apperror.NewBadRequestError("you cannot review your own recipe", nil)
	}

	rv := Review{RecipeID: recipeID}
	var inserted bool
	err = s.db.QueryRow(ctx, `
		WITH upserted AS (
			INSERT INTO recipe_reviews (recipe_id, user_id, rating, comment)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (recipe_id, user_id)
			DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, updated_at = NOW()
			RETURNING id, user_id, rating, comment, created_at, updated_at, (xmax = 0) AS inserted
		)
		SELECT up.id, u.id, u.username, u.avatar_url, up.rating, up.comment, up.created_at, up.updated_at, up.inserted
		FROM upserted up JOIN users u ON u.id = up.user_id`,
		recipeID, userID, req.Rating, req.Comment,
	).Scan(&rv.ID, &rv.User.ID, &rv.User.Username, &rv.User.AvatarURL, &rv.Rating, &rv.Comment,
		&rv.CreatedAt, &rv.UpdatedAt, &inserted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("user not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to save review", err)
	}

	if err := s.refreshReviewStats(ctx, recipeID); err != nil {
		log.Printf("Warning: failed to refresh review stats for recipe %d: %v", recipeID, err)
	}

	if inserted {
		s.notify(ctx, notifications.NewNotification{
			UserID:  authorID,
			ActorID: userID,
			Kind:    notifications.KindRecipeReviewed,
			Message: fmt.Sprintf("Your recipe got a %d-star review", req.Rating),
			Link:    fmt.Sprintf("/recipes/%d#reviews", recipeID),
		})
	}
	return &rv, nil
}

// refreshReviewStats recomputes the review counters of one recipe.
func (s *RecipeService) refreshReviewStats(ctx context.Context, recipeID int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := s.db.Exec(ctx, `
		INSERT INTO recipe_stats (recipe_id, review_count, avg_rating)
		SELECT $1, COUNT(*), COALESCE(AVG(rating)::float8, 0) FROM recipe_reviews WHERE recipe_id = $1
		ON CONFLICT (recipe_id) DO UPDATE
		SET review_count = EXCLUDED.review_count, avg_rating = EXCLUDED.avg_rating`, recipeID)
	return err
}

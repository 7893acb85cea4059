package recipes

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
	"github.com/akshayUniverse/cook-ease-sub001/cache"
	"github.com/akshayUniverse/cook-ease-sub001/events"
	"github.com/akshayUniverse/cook-ease-sub001/notifications"
	"github.com/akshayUniverse/cook-ease-sub001/onboarding"
	"github.com/akshayUniverse/cook-ease-sub001/pagination"
	"github.com/akshayUniverse/cook-ease-sub001/storage"
)

// Service is the recipes module as the handlers see it.
type Service interface {
	Search(ctx context.Context, p SearchParams) (*SearchResponse, error)
	Get(ctx context.Context, recipeID, viewerID int) (*Recipe, error)
	Create(ctx context.Context, authorID int, req CreateRecipeRequest) (*Recipe, error)
	Update(ctx context.Context, userID, recipeID int, req UpdateRecipeRequest) (*Recipe, error)
	// Delete removes the recipe. moderator lets an admin remove someone else's.
	Delete(ctx context.Context, userID, recipeID int, moderator bool) error

	Like(ctx context.Context, userID, recipeID int) error
	Unlike(ctx context.Context, userID, recipeID int) error
	Save(ctx context.Context, userID, recipeID int) error
	Unsave(ctx context.Context, userID, recipeID int) error
	Saved(ctx context.Context, userID int, page pagination.Params) (*SearchResponse, error)

	Trending(ctx context.Context, limit int) ([]Summary, error)
	Recommended(ctx context.Context, userID int, page pagination.Params) (*SearchResponse, error)

	ListReviews(ctx context.Context, recipeID int, page pagination.Params) (*ReviewsResponse, error)
	UpsertReview(ctx context.Context, userID, recipeID int, req ReviewRequest) (*Review, error)

	SetImage(ctx context.Context, userID, recipeID int, data []byte, contentType string) (*ImageResponse, error)
}

// PreferenceReader is the part of onboarding that recommendations read.
type PreferenceReader interface {
	GetPreferences(ctx context.Context, userID int) (*onboarding.Preferences, error)
}

// Dependencies are the optional collaborators of RecipeService.
// Any of them may be nil except where noted.
type Dependencies struct {
	Cache       *cache.Cache
	Images      storage.ImageStore
	Events      events.Publisher
	Notifier    notifications.Notifier
	Preferences PreferenceReader
}

// RecipeService implements Service on Postgres.
type RecipeService struct {
	db *pgxpool.Pool
	Dependencies
}

// NewRecipeService creates a RecipeService.
func NewRecipeService(db *pgxpool.Pool, deps Dependencies) *RecipeService {
	if deps.Events == nil {
		deps.Events = events.NoopPublisher{}
	}
	return &RecipeService{db: db, Dependencies: deps}
}

// recipeEvent is the payload published on every recipes.* subject.
type recipeEvent struct {
	RecipeID int    `json:"recipe_id"`
	AuthorID int    `json:"author_id"`
	UserID   int    `json:"user_id,omitempty"`
	Title    string `json:"title,omitempty"`
}

// publish sends an event and only logs a failure.
func (s *RecipeService) publish(ctx context.Context, subject string, evt recipeEvent) {
	if err := s.Events.Publish(ctx, subject, evt); err != nil {
		log.Printf("Warning: failed to publish %s for recipe %d: %v", subject, evt.RecipeID, err)
	}
}

// notify sends a notification and only logs a failure.
func (s *RecipeService) notify(ctx context.Context, n notifications.NewNotification) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, n); err != nil {
		log.Printf("Warning: failed to notify user %d (%s): %v", n.UserID, n.Kind, err)
	}
}

// imageURL resolves a stored image key. Keys that are already absolute URLs
// (seed data uses these) are returned as they are.
func (s *RecipeService) imageURL(key *string) *string {
	if key == nil || *key == "" {
		return nil
	}
	if isExternal(*key) {
		return key
	}
	if s.Images == nil {
		return nil
	}
	u := s.Images.URL(*key)
	return &u
}

func isExternal(key string) bool {
	return strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://")
}

func (s *RecipeService) scanSummary(row pgx.Row) (*Summary, error) {
	var sum Summary
	err := row.Scan(
		&sum.ID, &sum.Title, &sum.Slug, &sum.Description, &sum.Cuisine, &sum.Difficulty,
		&sum.PrepMinutes, &sum.CookMinutes, &sum.Servings, &sum.Tags, &sum.DietTags, &sum.imageKey,
		&sum.CreatedAt, &sum.UpdatedAt, &sum.Author.ID, &sum.Author.Username, &sum.Author.AvatarURL,
		&sum.Stats.LikeCount, &sum.Stats.ReviewCount, &sum.Stats.AvgRating,
	)
	if err != nil {
		return nil, err
	}
	sum.TotalMinutes = sum.PrepMinutes + sum.CookMinutes
	sum.ImageURL = s.imageURL(sum.imageKey)
	return &sum, nil
}

// Search runs a filtered, paginated recipe search.
func (s *RecipeService) Search(ctx context.Context, p SearchParams) (*SearchResponse, error) {
	q := buildSearchQuery(p)

	var total int64
	if err := s.db.QueryRow(ctx, q.countSQL, q.countArgs...).Scan(&total); err != nil {
		return nil, apperror.NewDatabaseError("failed to count recipes", err)
	}

	rows, err := s.db.Query(ctx, q.listSQL, q.listArgs...)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to search recipes", err)
	}
	defer rows.Close()

	list := make([]Summary, 0, p.Page.PerPage)
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

	return &SearchResponse{
		Recipes:    list,
		Total:      total,
		Page:       p.Page.Page,
		PerPage:    p.Page.PerPage,
		TotalPages: p.Page.TotalPages(total),
	}, nil
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Get loads the full recipe. When viewerID > 0 the viewer's like and save
// flags are filled in.
func (s *RecipeService) Get(ctx context.Context, recipeID, viewerID int) (*Recipe, error) {
	return s.load(ctx, s.db, recipeID, viewerID)
}

func (s *RecipeService) load(ctx context.Context, q querier, recipeID, viewerID int) (*Recipe, error) {
	// Detail pages count likes and reviews live rather than reading recipe_stats.
	row := q.QueryRow(ctx, `
		SELECT r.id, r.title, r.slug, r.description, r.cuisine, r.difficulty,
		       r.prep_minutes, r.cook_minutes, r.servings, r.tags, r.diet_tags, r.image_key,
		       r.created_at, r.updated_at, u.id, u.username, u.avatar_url,
		       (SELECT COUNT(*) FROM recipe_likes l WHERE l.recipe_id = r.id),
		       (SELECT COUNT(*) FROM recipe_reviews rv WHERE rv.recipe_id = r.id),
		       COALESCE((SELECT AVG(rv.rating)::float8 FROM recipe_reviews rv WHERE rv.recipe_id = r.id), 0)
		FROM recipes r
		JOIN users u ON u.id = r.author_id
		WHERE r.id = $1`, recipeID)
	sum, err := s.scanSummary(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound(recipeID)
		}
		return nil, apperror.NewDatabaseError("failed to load recipe", err)
	}
	recipe := &Recipe{Summary: *sum, Ingredients: []Ingredient{}, Steps: []Step{}}

	rows, err := q.Query(ctx, `SELECT position, name, quantity, unit FROM recipe_ingredients WHERE recipe_id = $1 ORDER BY position`, recipeID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load ingredients", err)
	}
	for rows.Next() {
		var ing Ingredient
		if err := rows.Scan(&ing.Position, &ing.Name, &ing.Quantity, &ing.Unit); err != nil {
			rows.Close()
			return nil, apperror.NewDatabaseError("failed to scan ingredient", err)
		}
		recipe.Ingredients = append(recipe.Ingredients, ing)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to load ingredients", err)
	}

	rows, err = q.Query(ctx, `SELECT position, instruction FROM recipe_steps WHERE recipe_id = $1 ORDER BY position`, recipeID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load steps", err)
	}
	for rows.Next() {
		var st Step
		if err := rows.Scan(&st.Position, &st.Instruction); err != nil {
			rows.Close()
			return nil, apperror.NewDatabaseError("failed to scan step", err)
		}
		recipe.Steps = append(recipe.Steps, st)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to load steps", err)
	}

	if viewerID > 0 {
		var liked, saved bool
		err := q.QueryRow(ctx, `
			SELECT EXISTS(SELECT 1 FROM recipe_likes WHERE recipe_id = $1 AND user_id = $2),
			       EXISTS(SELECT 1 FROM saved_recipes WHERE recipe_id = $1 AND user_id = $2)`,
			recipeID, viewerID).Scan(&liked, &saved)
		if err != nil {
			return nil, apperror.NewDatabaseError("failed to load viewer state", err)
		}
		recipe.IsLiked, recipe.IsSaved = &liked, &saved
	}
	return recipe, nil
}

func notFound(recipeID int) error {
	return apperror.NewNotFoundError(fmt.Sprintf("recipe %d not found", recipeID), nil)
}

// authorOf returns the recipe's author id, or NotFound.
func authorOf(ctx context.Context, q querier, recipeID int) (int, error) {
	var authorID int
	err := q.QueryRow(ctx, `SELECT author_id FROM recipes WHERE id = $1`, recipeID).Scan(&authorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, notFound(recipeID)
		}
		return 0, apperror.NewDatabaseError("failed to load recipe", err)
	}
	return authorID, nil
}

// requireOwner checks that userID authored the recipe: 404 if it does not
// exist, 403 if someone else wrote it.
func requireOwner(ctx context.Context, q querier, userID, recipeID int) error {
	authorID, err := authorOf(ctx, q, recipeID)
	if err != nil {
		return err
	}
	if authorID != userID {
		return apperror.NewUnauthorizedError("only the author can modify this recipe", nil)
	}
	return nil
}

// Create inserts the recipe with its ingredients and steps in one transaction.
// recipes.created is published only once the transaction has committed.
func (s *RecipeService) Create(ctx context.Context, authorID int, req CreateRecipeRequest) (*Recipe, error) {
	recipe, err := s.create(ctx, authorID, req)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.SubjectRecipeCreated, recipeEvent{RecipeID: recipe.ID, AuthorID: authorID, Title: recipe.Title})
	return recipe, nil
}

func (s *RecipeService) create(ctx context.Context, authorID int, req CreateRecipeRequest) (recipe *Recipe, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to begin transaction", err)
	}
	// Commit on success, roll back on error or panic.
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else if err = tx.Commit(ctx); err != nil {
			recipe = nil
			err = apperror.NewDatabaseError("failed to commit recipe", err)
		}
	}()

	recipeID, err := insertRecipe(ctx, tx, authorID, req)
	if err != nil {
		return nil, err
	}
	if err = replaceIngredients(ctx, tx, recipeID, req.Ingredients); err != nil {
		return nil, err
	}
	if err = replaceSteps(ctx, tx, recipeID, req.Steps); err != nil {
		return nil, err
	}
	if _, err = tx.Exec(ctx, `INSERT INTO recipe_stats (recipe_id) VALUES ($1) ON CONFLICT DO NOTHING`, recipeID); err != nil {
		return nil, apperror.NewDatabaseError("failed to initialise recipe stats", err)
	}

	recipe, err = s.load(ctx, tx, recipeID, authorID)
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

const insertRecipeSQL = `
	INSERT INTO recipes (author_id, title, slug, description, cuisine, difficulty,
	                     prep_minutes, cook_minutes, servings, tags, diet_tags)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id`

// insertRecipe tries the plain slug inside a savepoint; when it is taken the
// row is inserted under a temporary slug and renamed to slug-{id}.
func insertRecipe(ctx context.Context, tx pgx.Tx, authorID int, req CreateRecipeRequest) (int, error) {
	slug := Slugify(req.Title)
	args := []interface{}{
		authorID, strings.TrimSpace(req.Title), slug, req.Description, strings.ToLower(strings.TrimSpace(req.Cuisine)),
		req.Difficulty, req.PrepMinutes, req.CookMinutes, req.Servings, normalizeTags(req.Tags), normalizeTags(req.DietTags),
	}

	savepoint, err := tx.Begin(ctx)
	if err != nil {
		return 0, apperror.NewDatabaseError("failed to create savepoint", err)
	}
	var id int
	err = savepoint.QueryRow(ctx, insertRecipeSQL, args...).Scan(&id)
	if err == nil {
		if err := savepoint.Commit(ctx); err != nil {
			return 0, apperror.NewDatabaseError("failed to release savepoint", err)
		}
		return id, nil
	}
	_ = savepoint.Rollback(ctx)

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" || !strings.Contains(pgErr.ConstraintName, "slug") {
		return 0, apperror.NewDatabaseError("failed to create recipe", err)
	}

	args[2] = "tmp-" + uuid.NewString()
	if err := tx.QueryRow(ctx, insertRecipeSQL, args...).Scan(&id); err != nil {
		return 0, apperror.NewDatabaseError("failed to create recipe", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE recipes SET slug = $1 WHERE id = $2`, slugWithID(slug, id), id); err != nil {
		return 0, apperror.NewDatabaseError("failed to set recipe slug", err)
	}
	return id, nil
}

// replaceIngredients deletes and re-copies the ingredient list, numbering from 1.
func replaceIngredients(ctx context.Context, tx pgx.Tx, recipeID int, items []IngredientInput) error {
	if _, err := tx.Exec(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipeID); err != nil {
		return apperror.NewDatabaseError("failed to clear ingredients", err)
	}
	rows := make([][]interface{}, 0, len(items))
	for i, it := range items {
		rows = append(rows, []interface{}{recipeID, i + 1, strings.TrimSpace(it.Name), it.Quantity, strings.TrimSpace(it.Unit)})
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"recipe_ingredients"},
		[]string{"recipe_id", "position", "name", "quantity", "unit"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return apperror.NewDatabaseError("failed to save ingredients", err)
	}
	return nil
}

// replaceSteps deletes and re-copies the steps, numbering from 1.
func replaceSteps(ctx context.Context, tx pgx.Tx, recipeID int, steps []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM recipe_steps WHERE recipe_id = $1`, recipeID); err != nil {
		return apperror.NewDatabaseError("failed to clear steps", err)
	}
	rows := make([][]interface{}, 0, len(steps))
	for i, st := range steps {
		rows = append(rows, []interface{}{recipeID, i + 1, strings.TrimSpace(st)})
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"recipe_steps"},
		[]string{"recipe_id", "position", "instruction"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return apperror.NewDatabaseError("failed to save steps", err)
	}
	return nil
}

// normalizeTags lowercases, trims and deduplicates tags, keeping order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// buildRecipeUpdate turns the scalar fields of req into SET clauses.
// The slug is never changed so existing links keep working.
func buildRecipeUpdate(recipeID int, req UpdateRecipeRequest) (string, []interface{}) {
	b := &whereBuilder{}
	var sets []string
	set := func(col string, v interface{}) {
		sets = append(sets, col+" = "+b.arg(v))
	}
	if req.Title != nil {
		set("title", strings.TrimSpace(*req.Title))
	}
	if req.Description != nil {
		set("description", *req.Description)
	}
	if req.Cuisine != nil {
		set("cuisine", strings.ToLower(strings.TrimSpace(*req.Cuisine)))
	}
	if req.Difficulty != nil {
		set("difficulty", *req.Difficulty)
	}
	if req.PrepMinutes != nil {
		set("prep_minutes", *req.PrepMinutes)
	}
	if req.CookMinutes != nil {
		set("cook_minutes", *req.CookMinutes)
	}
	if req.Servings != nil {
		set("servings", *req.Servings)
	}
	if req.Tags != nil {
		set("tags", normalizeTags(*req.Tags))
	}
	if req.DietTags != nil {
		set("diet_tags", normalizeTags(*req.DietTags))
	}
	sets = append(sets, "updated_at = NOW()")
	query := fmt.Sprintf("UPDATE recipes SET %s WHERE id = %s", strings.Join(sets, ", "), b.arg(recipeID))
	return query, b.args
}

func (r UpdateRecipeRequest) isEmpty() bool {
	return r.Title == nil && r.Description == nil && r.Cuisine == nil && r.Difficulty == nil &&
		r.PrepMinutes == nil && r.CookMinutes == nil && r.Servings == nil && r.Tags == nil &&
		r.DietTags == nil && r.Ingredients == nil && r.Steps == nil
}

// Update applies a partial update. Only the author may update.
func (s *RecipeService) Update(ctx context.Context, userID, recipeID int, req UpdateRecipeRequest) (*Recipe, error) {
	if req.isEmpty() {
		return nil, apperror.NewBadRequestError("no fields provided for update", nil)
	}
	recipe, err := s.update(ctx, userID, recipeID, req)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.SubjectRecipeUpdated, recipeEvent{RecipeID: recipeID, AuthorID: userID, Title: recipe.Title})
	return recipe, nil
}

func (s *RecipeService) update(ctx context.Context, userID, recipeID int, req UpdateRecipeRequest) (recipe *Recipe, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to begin transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else if err = tx.Commit(ctx); err != nil {
			recipe = nil
			err = apperror.NewDatabaseError("failed to commit recipe update", err)
		}
	}()

	if err = requireOwner(ctx, tx, userID, recipeID); err != nil {
		return nil, err
	}

	query, args := buildRecipeUpdate(recipeID, req)
	if _, err = tx.Exec(ctx, query, args...); err != nil {
		err = apperror.NewDatabaseError("failed to update recipe", err)
		return nil, err
	}
	if req.Ingredients != nil {
		if err = replaceIngredients(ctx, tx, recipeID, *req.Ingredients); err != nil {
			return nil, err
		}
	}
	if req.Steps != nil {
		if err = replaceSteps(ctx, tx, recipeID, *req.Steps); err != nil {
			return nil, err
		}
	}

	recipe, err = s.load(ctx, tx, recipeID, userID)
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// Delete removes the recipe and, best effort, its stored image.
func (s *RecipeService) Delete(ctx context.Context, userID, recipeID int, moderator bool) error {
	authorID, err := authorOf(ctx, s.db, recipeID)
	if err != nil {
		return err
	}
	if authorID != userID && !moderator {
		return apperror.NewUnauthorizedError("only the author can modify this recipe", nil)
	}

	var imageKey *string
	err = s.db.QueryRow(ctx, `DELETE FROM recipes WHERE id = $1 RETURNING image_key`, recipeID).Scan(&imageKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound(recipeID)
		}
		return apperror.NewDatabaseError("failed to delete recipe", err)
	}

	s.removeImage(ctx, imageKey)
	// The cached ranking may still name the recipe until the next refresh.
	if err := s.Cache.Delete(ctx, TrendingCacheKey); err != nil {
		log.Printf("Warning: failed to invalidate trending cache: %v", err)
	}
	s.publish(ctx, events.SubjectRecipeDeleted, recipeEvent{RecipeID: recipeID, AuthorID: authorID, UserID: userID})
	return nil
}

// Package recipes is responsible for everything recipe related: browsing and
// searching, the detail page, authoring, likes, saves, reviews, trending and
// personalised recommendations, and recipe images.
package recipes

import "time"

// Difficulty values accepted by the recipes table's CHECK constraint.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Author is the public slice of a user shown next to a recipe.
type Author struct {
	ID        int     `json:"id"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// Ingredient is one line of the ingredient list. A nil Quantity means "to taste".
type Ingredient struct {
	Position int      `json:"position"`
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity,omitempty"`
	Unit     string   `json:"unit"`
}

// Step is one instruction.
type Step struct {
	Position    int    `json:"position"`
	Instruction string `json:"instruction"`
}

// Stats are the social counters of a recipe.
type Stats struct {
	LikeCount   int     `json:"like_count"`
	ReviewCount int     `json:"review_count"`
	AvgRating   float64 `json:"avg_rating"`
}

// Summary is a recipe as it appears in lists and search results.
type Summary struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Cuisine      string    `json:"cuisine"`
	Difficulty   string    `json:"difficulty"`
	PrepMinutes  int       `json:"prep_minutes"`
	CookMinutes  int       `json:"cook_minutes"`
	TotalMinutes int       `json:"total_minutes"`
	Servings     int       `json:"servings"`
	Tags         []string  `json:"tags"`
	DietTags     []string  `json:"diet_tags"`
	ImageURL     *string   `json:"image_url,omitempty"`
	Author       Author    `json:"author"`
	Stats        Stats     `json:"stats"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	imageKey *string
}

// Recipe is the full detail view.
type Recipe struct {
	Summary
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []Step       `json:"steps"`
	// IsLiked and IsSaved are only present when the viewer is signed in.
	IsLiked *bool `json:"is_liked,omitempty"`
	IsSaved *bool `json:"is_saved,omitempty"`
}

// SearchResponse is one page of recipes.
type SearchResponse struct {
	Recipes    []Summary `json:"recipes"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PerPage    int       `json:"per_page"`
	TotalPages int       `json:"total_pages"`
}

// Review is one user's rating of a recipe.
type Review struct {
	ID        int       `json:"id"`
	RecipeID  int       `json:"recipe_id"`
	User      Author    `json:"user"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReviewsResponse is a page of reviews.
type ReviewsResponse struct {
	Reviews    []Review `json:"reviews"`
	Total      int64    `json:"total"`
	Page       int      `json:"page"`
	PerPage    int      `json:"per_page"`
	TotalPages int      `json:"total_pages"`
}

// IngredientInput is an ingredient line in a create or update request.
type IngredientInput struct {
	Name     string   `json:"name" validate:"required,max=120"`
	Quantity *float64 `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	Unit     string   `json:"unit,omitempty" validate:"max=32"`
}

// CreateRecipeRequest is the body of POST /recipes.
type CreateRecipeRequest struct {
	Title       string            `json:"title" validate:"required,min=3,max=160" example:"Weeknight Tomato Pasta"`
	Description string            `json:"description,omitempty" validate:"max=5000"`
	Cuisine     string            `json:"cuisine,omitempty" validate:"max=64" example:"italian"`
	Difficulty  string            `json:"difficulty" validate:"required,oneof=easy medium hard" example:"easy"`
	PrepMinutes int               `json:"prep_minutes" validate:"gte=0,lte=1440"`
	CookMinutes int               `json:"cook_minutes" validate:"gte=0,lte=1440"`
	Servings    int               `json:"servings" validate:"required,gte=1,lte=100"`
	Tags        []string          `json:"tags,omitempty" validate:"max=20,dive,min=1,max=32"`
	DietTags    []string          `json:"diet_tags,omitempty" validate:"max=10,dive,min=1,max=32"`
	Ingredients []IngredientInput `json:"ingredients" validate:"required,min=1,max=100,dive"`
	Steps       []string          `json:"steps" validate:"required,min=1,max=100,dive,min=1,max=2000"`
}

// UpdateRecipeRequest is the body of PUT /recipes/{id}. Nil fields are left
// unchanged; a non-nil Ingredients or Steps replaces the whole list.
type UpdateRecipeRequest struct {
	Title       *string            `json:"title,omitempty" validate:"omitempty,min=3,max=160"`
	Description *string            `json:"description,omitempty" validate:"omitempty,max=5000"`
	Cuisine     *string            `json:"cuisine,omitempty" validate:"omitempty,max=64"`
	Difficulty  *string            `json:"difficulty,omitempty" validate:"omitempty,oneof=easy medium hard"`
	PrepMinutes *int               `json:"prep_minutes,omitempty" validate:"omitempty,gte=0,lte=1440"`
	CookMinutes *int               `json:"cook_minutes,omitempty" validate:"omitempty,gte=0,lte=1440"`
	Servings    *int               `json:"servings,omitempty" validate:"omitempty,gte=1,lte=100"`
	Tags        *[]string          `json:"tags,omitempty" validate:"omitempty,max=20,dive,min=1,max=32"`
	DietTags    *[]string          `json:"diet_tags,omitempty" validate:"omitempty,max=10,dive,min=1,max=32"`
	Ingredients *[]IngredientInput `json:"ingredients,omitempty" validate:"omitempty,min=1,max=100,dive"`
	Steps       *[]string          `json:"steps,omitempty" validate:"omitempty,min=1,max=100,dive,min=1,max=2000"`
}

// ReviewRequest is the body of POST /recipes/{id}/reviews.
type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5" example:"5"`
	Comment string `json:"comment,omitempty" validate:"max=2000"`
}

// ImageResponse is returned after an upload.
type ImageResponse struct {
	ImageURL string `json:"image_url"`
}

package recipes

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
	"github.com/akshayUniverse/cook-ease-sub001/onboarding"
	"github.com/akshayUniverse/cook-ease-sub001/pagination"
)

func TestParseSearchParams(t *testing.T) {
	r := httptest.NewRequest("GET", "/recipes?q=%20pasta%20&cuisine=Italian&difficulty=easy&tag=Quick&diet=vegan&max_minutes=30&author_id=4&sort=popular&page=2&per_page=10", nil)
	p, err := ParseSearchParams(r)
	require.NoError(t, err)

	assert.Equal(t, "pasta", p.Query)
	assert.Equal(t, []string{"italian"}, p.Cuisines)
	assert.Equal(t, []string{"easy"}, p.Difficulties)
	assert.Equal(t, "quick", p.Tag)
	assert.Equal(t, []string{"vegan"}, p.Diets)
	assert.Equal(t, 30, p.MaxMinutes)
	assert.Equal(t, 4, p.AuthorID)
	assert.Equal(t, SortPopular, p.Sort)
	assert.Equal(t, pagination.Params{Page: 2, PerPage: 10}, p.Page)
}

func TestParseSearchParamsDefaults(t *testing.T) {
	p, err := ParseSearchParams(httptest.NewRequest("GET", "/recipes", nil))
	require.NoError(t, err)
	assert.Equal(t, SortNewest, p.Sort)
	assert.Equal(t, pagination.Params{Page: 1, PerPage: pagination.DefaultPerPage}, p.Page)
	assert.Empty(t, p.Cuisines)
}

func TestParseSearchParamsRejects(t *testing.T) {
	for _, qs := range []string{
		"sort=random",
		"difficulty=extreme",
		"max_minutes=0",
		"max_minutes=abc",
		"author_id=-1",
		"page=0",
		"per_page=500",
	} {
		t.Run(qs, func(t *testing.T) {
			_, err := ParseSearchParams(httptest.NewRequest("GET", "/recipes?"+qs, nil))
			appErr, ok := apperror.FromError(err)
			require.True(t, ok, "expected an AppError, got %v", err)
			assert.Equal(t, 400, appErr.StatusCode())
		})
	}
}

func TestBuildSearchQuery(t *testing.T) {
	q := buildSearchQuery(SearchParams{
		Query:    "50%_off",
		Cuisines: []string{"Italian"},
		Sort:     SortRating,
		Page:     pagination.Params{Page: 3, PerPage: 10},
	})

	assert.Contains(t, q.countSQL, "SELECT COUNT(*)")
	assert.Contains(t, q.countSQL, "r.title ILIKE $1 OR r.description ILIKE $1")
	assert.Contains(t, q.countSQL, "LOWER(r.cuisine) = ANY($2)")
	assert.NotContains(t, q.countSQL, "LIMIT")
	assert.Equal(t, []interface{}{`%50\%\_off%`, []string{"italian"}}, q.countArgs)

	assert.Contains(t, q.listSQL, "ORDER BY "+orderBy[SortRating])
	assert.Contains(t, q.listSQL, "LIMIT $3 OFFSET $4")
	assert.Equal(t, []interface{}{`%50\%\_off%`, []string{"italian"}, 10, 20}, q.listArgs)
}

func TestBuildSearchQueryNoFilters(t *testing.T) {
	q := buildSearchQuery(SearchParams{Page: pagination.Params{Page: 1, PerPage: 20}})
	assert.NotContains(t, q.countSQL, "WHERE")
	assert.Empty(t, q.countArgs)
	assert.Contains(t, q.listSQL, "ORDER BY "+orderBy[SortNewest])
	assert.Equal(t, []interface{}{20, 0}, q.listArgs)
}

func TestBuildSearchQueryExclusionsAndSaved(t *testing.T) {
	q := buildSearchQuery(SearchParams{
		ExcludeIngredients: []string{"Cilantro"},
		Diets:              []string{"Vegan"},
		MaxMinutes:         45,
		SavedBy:            9,
		Page:               pagination.Params{Page: 1, PerPage: 5},
	})
	assert.Contains(t, q.countSQL, "r.diet_tags @> $1::text[]")
	assert.Contains(t, q.countSQL, "(r.prep_minutes + r.cook_minutes) <= $2")
	assert.Contains(t, q.countSQL, "LOWER(ri.name) LIKE ANY($3)")
	assert.Contains(t, q.countSQL, "sr.user_id = $4")
	assert.Equal(t, []interface{}{[]string{"vegan"}, 45, []string{"%cilantro%"}, 9}, q.countArgs)
}

func TestFiltersFromPreferences(t *testing.T) {
	prefs := &onboarding.Preferences{
		Cuisines:       []string{"thai", "mexican"},
		Diets:          []string{"vegetarian"},
		Dislikes:       []string{"mushroom"},
		SkillLevel:     onboarding.SkillIntermediate,
		MaxCookMinutes: 30,
	}
	page := pagination.Params{Page: 1, PerPage: 20}
	p := FiltersFromPreferences(prefs, page)

	assert.Equal(t, prefs.Cuisines, p.Cuisines)
	assert.Equal(t, prefs.Diets, p.Diets)
	assert.Equal(t, prefs.Dislikes, p.ExcludeIngredients)
	assert.Equal(t, 30, p.MaxMinutes)
	assert.Equal(t, []string{"easy", "medium"}, p.Difficulties)
	assert.Equal(t, SortPopular, p.Sort)
	assert.Equal(t, page, p.Page)
}

func TestBuildRecipeUpdate(t *testing.T) {
	title := "  New Title "
	servings := 4
	tags := []string{"Quick", "quick", " Dinner "}
	query, args := buildRecipeUpdate(12, UpdateRecipeRequest{Title: &title, Servings: &servings, Tags: &tags})

	assert.Equal(t, "UPDATE recipes SET title = $1, servings = $2, tags = $3, updated_at = NOW() WHERE id = $4", query)
	assert.Equal(t, []interface{}{"New Title", 4, []string{"quick", "dinner"}, 12}, args)
}

func TestUpdateRequestIsEmpty(t *testing.T) {
	assert.True(t, UpdateRecipeRequest{}.isEmpty())
	steps := []string{"Boil water"}
	assert.False(t, UpdateRecipeRequest{Steps: &steps}.isEmpty())
}

func TestOrderByIDs(t *testing.T) {
	list := []Summary{{ID: 1}, {ID: 2}, {ID: 3}}
	got := orderByIDs(list, []int{3, 99, 1})
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].ID)
	assert.Equal(t, 1, got[1].ID)
}

func TestImageURL(t *testing.T) {
	s := &RecipeService{}
	external := "https://images.example.com/pasta.jpg"
	assert.Equal(t, &external, s.imageURL(&external))

	key := "recipes/1/abc.png"
	assert.Nil(t, s.imageURL(&key), "no store configured")
	assert.Nil(t, s.imageURL(nil))
}

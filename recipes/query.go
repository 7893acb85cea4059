package recipes

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
	"github.com/akshayUniverse/cook-ease-sub001/onboarding"
	"github.com/akshayUniverse/cook-ease-sub001/pagination"
)

// Sort orders accepted by the search endpoint.
const (
	SortNewest   = "newest"
	SortPopular  = "popular"
	SortRating   = "rating"
	SortQuickest = "quickest"
)

var orderBy = map[string]string{
	SortNewest:   "r.created_at DESC, r.id DESC",
	SortPopular:  "COALESCE(s.like_count, 0) DESC, r.created_at DESC, r.id DESC",
	SortRating:   "COALESCE(s.avg_rating, 0) DESC, COALESCE(s.review_count, 0) DESC, r.id DESC",
	SortQuickest: "(r.prep_minutes + r.cook_minutes) ASC, r.id DESC",
}

// SearchParams are the filters of a recipe search. Zero values mean "any".
type SearchParams struct {
	Query        string
	Cuisines     []string
	Difficulties []string
	Tag          string
	// Diets must all be present in the recipe's diet tags.
	Diets []string
	// MaxMinutes caps prep plus cook time.
	MaxMinutes int
	AuthorID   int
	// ExcludeIngredients drops recipes with any ingredient whose name contains one of these.
	ExcludeIngredients []string
	// SavedBy limits results to recipes saved by this user.
	SavedBy int
	Sort    string
	Page    pagination.Params
}

// ParseSearchParams reads the query string of GET /recipes.
func ParseSearchParams(r *http.Request) (SearchParams, error) {
	q := r.URL.Query()
	page, err := pagination.FromRequest(r)
	if err != nil {
		return SearchParams{}, err
	}
	p := SearchParams{
		Query: strings.TrimSpace(q.Get("q")),
		Tag:   strings.ToLower(strings.TrimSpace(q.Get("tag"))),
		Sort:  q.Get("sort"),
		Page:  page,
	}
	if p.Sort == "" {
		p.Sort = SortNewest
	}
	if _, ok := orderBy[p.Sort]; !ok {
		return p, apperror.NewBadRequestError("sort must be one of newest, popular, rating, quickest", nil)
	}
	if c := strings.ToLower(strings.TrimSpace(q.Get("cuisine"))); c != "" {
		p.Cuisines = []string{c}
	}
	if d := strings.ToLower(strings.TrimSpace(q.Get("difficulty"))); d != "" {
		switch d {
		case DifficultyEasy, DifficultyMedium, DifficultyHard:
			p.Difficulties = []string{d}
		default:
			return p, apperror.NewBadRequestError("difficulty must be one of easy, medium, hard", nil)
		}
	}
	if d := strings.ToLower(strings.TrimSpace(q.Get("diet"))); d != "" {
		p.Diets = []string{d}
	}
	if raw := q.Get("max_minutes"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return p, apperror.NewBadRequestError("max_minutes must be a positive integer", nil)
		}
		p.MaxMinutes = v
	}
	if raw := q.Get("author_id"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return p, apperror.NewBadRequestError("author_id must be a positive integer", nil)
		}
		p.AuthorID = v
	}
	return p, nil
}

// FiltersFromPreferences turns onboarding preferences into search filters.
// Recommendations rank by popularity.
func FiltersFromPreferences(prefs *onboarding.Preferences, page pagination.Params) SearchParams {
	return SearchParams{
		Cuisines:           prefs.Cuisines,
		Diets:              prefs.Diets,
		ExcludeIngredients: prefs.Dislikes,
		MaxMinutes:         prefs.MaxCookMinutes,
		Difficulties:       prefs.SkillLevel.Difficulties(),
		Sort:               SortPopular,
		Page:               page,
	}
}

// whereBuilder collects SQL conditions and their positional arguments.
type whereBuilder struct {
	conds []string
	args  []interface{}
}

// arg appends v and returns its placeholder.
func (b *whereBuilder) arg(v interface{}) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *whereBuilder) add(cond string) {
	b.conds = append(b.conds, cond)
}

func (b *whereBuilder) clause() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

// escapeLike makes user input literal inside an ILIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

const summaryFrom = `
	FROM recipes r
	JOIN users u ON u.id = r.author_id
	LEFT JOIN recipe_stats s ON s.recipe_id = r.id`

const summaryColumns = `r.id, r.title, r.slug, r.description, r.cuisine, r.difficulty,
	r.prep_minutes, r.cook_minutes, r.servings, r.tags, r.diet_tags, r.image_key,
	r.created_at, r.updated_at, u.id, u.username, u.avatar_url,
	COALESCE(s.like_count, 0), COALESCE(s.review_count, 0), COALESCE(s.avg_rating, 0)`

// searchQuery is a built search: a count over the filters and a page query
// that adds ORDER BY, LIMIT and OFFSET.
type searchQuery struct {
	countSQL  string
	countArgs []interface{}
	listSQL   string
	listArgs  []interface{}
}

// buildSearchQuery turns SearchParams into SQL. Every user value is a
// positional argument; only fixed fragments are concatenated.
func buildSearchQuery(p SearchParams) searchQuery {
	b := &whereBuilder{}

	if p.Query != "" {
		ph := b.arg("%" + escapeLike(p.Query) + "%")
		b.add(fmt.Sprintf("(r.title ILIKE %s OR r.description ILIKE %s)", ph, ph))
	}
	if len(p.Cuisines) > 0 {
		b.add(fmt.Sprintf("LOWER(r.cuisine) = ANY(%s)", b.arg(lowerAll(p.Cuisines))))
	}
	if len(p.Difficulties) > 0 {
		b.add(fmt.Sprintf("r.difficulty = ANY(%s)", b.arg(p.Difficulties)))
	}
	if p.Tag != "" {
		b.add(fmt.Sprintf("r.tags @> ARRAY[%s]::text[]", b.arg(p.Tag)))
	}
	if len(p.Diets) > 0 {
		b.add(fmt.Sprintf("r.diet_tags @> %s::text[]", b.arg(lowerAll(p.Diets))))
	}
	if p.MaxMinutes > 0 {
		b.add(fmt.Sprintf("(r.prep_minutes + r.cook_minutes) <= %s", b.arg(p.MaxMinutes)))
	}
	if p.AuthorID > 0 {
		b.add(fmt.Sprintf("r.author_id = %s", b.arg(p.AuthorID)))
	}
	if len(p.ExcludeIngredients) > 0 {
		patterns := make([]string, 0, len(p.ExcludeIngredients))
		for _, ing := range p.ExcludeIngredients {
			patterns = append(patterns, "%"+escapeLike(strings.ToLower(ing))+"%")
		}
		b.add(fmt.Sprintf(`NOT EXISTS (SELECT 1 FROM recipe_ingredients ri
			WHERE ri.recipe_id = r.id AND LOWER(ri.name) LIKE ANY(%s))`, b.arg(patterns)))
	}
	if p.SavedBy > 0 {
		b.add(fmt.Sprintf("EXISTS (SELECT 1 FROM saved_recipes sr WHERE sr.recipe_id = r.id AND sr.user_id = %s)", b.arg(p.SavedBy)))
	}

	order, ok := orderBy[p.Sort]
	if !ok {
		order = orderBy[SortNewest]
	}

	where := b.clause()
	q := searchQuery{
		countSQL:  "SELECT COUNT(*)" + summaryFrom + where,
		countArgs: append([]interface{}(nil), b.args...),
	}
	limit := b.arg(p.Page.PerPage)
	offset := b.arg(p.Page.Offset())
	q.listSQL = "SELECT " + summaryColumns + summaryFrom + where +
		" ORDER BY " + order + " LIMIT " + limit + " OFFSET " + offset
	q.listArgs = b.args
	return q
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

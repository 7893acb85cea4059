package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshayUniverse/cook-ease-sub001/recipes"
)

func TestEmbeddedDataIsValid(t *testing.T) {
	d, err := Embedded()
	require.NoError(t, err)
	assert.NotEmpty(t, d.Users)
	assert.NotEmpty(t, d.Recipes)

	slugs := map[string]bool{}
	for _, r := range d.Recipes {
		slug := recipes.Slugify(r.Title)
		assert.False(t, slugs[slug], "duplicate slug %s", slug)
		slugs[slug] = true
		assert.Contains(t, []string{"easy", "medium", "hard"}, r.Difficulty, r.Title)
	}
}

func TestParseQuantities(t *testing.T) {
	d, err := Parse([]byte(`
users:
  - {username: a, email: a@example.com}
recipes:
  - author: a
    title: Toast
    difficulty: easy
    servings: 1
    ingredients:
      - {name: bread, quantity: 2}
      - {name: butter}
    steps: [Toast the bread.]
`))
	require.NoError(t, err)
	require.Len(t, d.Recipes[0].Ingredients, 2)
	require.NotNil(t, d.Recipes[0].Ingredients[0].Quantity)
	assert.Equal(t, 2.0, *d.Recipes[0].Ingredients[0].Quantity)
	assert.Nil(t, d.Recipes[0].Ingredients[1].Quantity)
}

func TestParseRejects(t *testing.T) {
	_, err := Parse([]byte(`recipes: [{author: ghost, title: X, servings: 1, ingredients: [{name: a}], steps: [b]}]`))
	assert.ErrorContains(t, err, "unknown author")

	_, err = Parse([]byte(`users: [{username: a, email: a@x.io}]
recipes: [{author: a, title: X, servings: 1, ingredients: [], steps: [b]}]`))
	assert.ErrorContains(t, err, "needs servings")

	_, err = Parse([]byte("users: [unclosed"))
	assert.Error(t, err)
}

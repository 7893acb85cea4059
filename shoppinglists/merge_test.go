package shoppinglists

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestScale(t *testing.T) {
	assert.Nil(t, Scale(nil, 2))
	assert.Equal(t, 3.0, *Scale(f(1.5), 2))
	assert.Equal(t, 0.33, *Scale(f(1), 1.0/3))
}

func TestMergeIntoExisting(t *testing.T) {
	existing := []Item{
		{ID: 1, Name: "Flour", Quantity: f(200), Unit: "g"},
		{ID: 2, Name: "eggs", Quantity: f(2), Unit: "", Checked: true},
		{ID: 3, Name: "Milk", Quantity: f(1), Unit: "cup"},
	}
	ingredients := []Ingredient{
		{Name: "flour", Quantity: f(100), Unit: "G"},
		{Name: "Eggs", Quantity: f(3)},
		{Name: "milk", Quantity: f(250), Unit: "ml"},
		{Name: "salt"},
	}

	plan := Merge(existing, ingredients, 2)

	require.Len(t, plan.Updates, 1)
	assert.Equal(t, 1, plan.Updates[0].ItemID)
	assert.Equal(t, 400.0, *plan.Updates[0].Quantity)

	// Checked eggs are left alone, milk in a different unit is a new line.
	require.Len(t, plan.Inserts, 3)
	assert.Equal(t, "Eggs", plan.Inserts[0].Name)
	assert.Equal(t, 6.0, *plan.Inserts[0].Quantity)
	assert.Equal(t, "milk", plan.Inserts[1].Name)
	assert.Equal(t, "ml", plan.Inserts[1].Unit)
	assert.Equal(t, 500.0, *plan.Inserts[1].Quantity)
	assert.Equal(t, "salt", plan.Inserts[2].Name)
	assert.Nil(t, plan.Inserts[2].Quantity)
}

func TestMergeRepeatedLines(t *testing.T) {
	existing := []Item{{ID: 5, Name: "butter", Unit: "tbsp"}}
	ingredients := []Ingredient{
		{Name: "Butter", Quantity: f(1), Unit: "tbsp"},
		{Name: "butter", Quantity: f(2), Unit: "tbsp"},
		{Name: "sugar", Quantity: f(10), Unit: "g"},
		{Name: "Sugar", Quantity: f(5), Unit: "g"},
		{Name: "  "},
	}

	plan := Merge(existing, ingredients, 1)

	require.Len(t, plan.Updates, 1)
	assert.Equal(t, 3.0, *plan.Updates[0].Quantity, "unknown existing quantity is replaced by the sum of known ones")
	require.Len(t, plan.Inserts, 1)
	assert.Equal(t, 15.0, *plan.Inserts[0].Quantity)
}

func TestMergeEmpty(t *testing.T) {
	plan := Merge(nil, nil, 1)
	assert.Empty(t, plan.Updates)
	assert.Empty(t, plan.Inserts)
}

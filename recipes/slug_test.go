package recipes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Weeknight Tomato Pasta", "weeknight-tomato-pasta"},
		{"Crème Brûlée (Easy!)", "creme-brulee-easy"},
		{"  --Pad   Thai--  ", "pad-thai"},
		{"3-Ingredient Cookies", "3-ingredient-cookies"},
		{"日本", "recipe"},
		{"", "recipe"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.title))
		})
	}
}

func TestSlugifyCapsLength(t *testing.T) {
	slug := Slugify(strings.Repeat("abc ", 60))
	assert.LessOrEqual(t, len(slug), maxSlugLength+1)
	assert.False(t, strings.HasSuffix(slug, "-"))
}

func TestSlugWithID(t *testing.T) {
	assert.Equal(t, "pad-thai-42", slugWithID("pad-thai", 42))
}

package onboarding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
)

// answerAll answers every catalog question, liking only the given ids.
func answerAll(liked ...string) []Answer {
	set := map[string]bool{}
	for _, id := range liked {
		set[id] = true
	}
	answers := make([]Answer, 0, len(catalog))
	// Reverse order: aggregation must not depend on answer order.
	for i := len(catalog) - 1; i >= 0; i-- {
		answers = append(answers, Answer{QuestionID: catalog[i].ID, Liked: set[catalog[i].ID]})
	}
	return answers
}

func TestAggregate(t *testing.T) {
	t.Run("nothing liked", func(t *testing.T) {
		prefs, err := Aggregate(catalog, answerAll())
		require.NoError(t, err)
		assert.Empty(t, prefs.Cuisines)
		assert.Empty(t, prefs.Diets)
		assert.Equal(t, []string{"mushroom", "cilantro", "shrimp"}, prefs.Dislikes)
		assert.Equal(t, SkillBeginner, prefs.SkillLevel)
		assert.Equal(t, 0, prefs.MaxCookMinutes)
		assert.Len(t, prefs.Answers, len(catalog))
		assert.Equal(t, catalog[0].ID, prefs.Answers[0].QuestionID)
	})

	t.Run("mixed", func(t *testing.T) {
		prefs, err := Aggregate(catalog, answerAll(
			"cuisine-indian", "cuisine-italian", "diet-vegetarian",
			"ingredient-cilantro", "ingredient-mushrooms",
			"skill-intermediate", "time-60", "time-30",
		))
		require.NoError(t, err)
		assert.Equal(t, []string{"italian", "indian"}, prefs.Cuisines, "catalog order")
		assert.Equal(t, []string{"vegetarian"}, prefs.Diets)
		assert.Equal(t, []string{"shrimp"}, prefs.Dislikes)
		assert.Equal(t, SkillIntermediate, prefs.SkillLevel)
		assert.Equal(t, 30, prefs.MaxCookMinutes, "smallest liked cap wins")
	})

	t.Run("highest skill wins", func(t *testing.T) {
		prefs, err := Aggregate(catalog, answerAll("skill-advanced", "skill-intermediate"))
		require.NoError(t, err)
		assert.Equal(t, SkillAdvanced, prefs.SkillLevel)
	})

	t.Run("only one time card liked", func(t *testing.T) {
		prefs, err := Aggregate(catalog, answerAll("time-60"))
		require.NoError(t, err)
		assert.Equal(t, 60, prefs.MaxCookMinutes)
	})
}

func TestAggregateRejectsIncompleteAnswers(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := Aggregate(catalog, answerAll()[1:])
		require.Error(t, err)
		assert.True(t, apperror.IsValidationError(err))
		assert.Contains(t, err.Error(), "unanswered")
	})

	t.Run("duplicate", func(t *testing.T) {
		answers := append(answerAll(), Answer{QuestionID: catalog[0].ID, Liked: true})
		_, err := Aggregate(catalog, answers)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "more than once")
	})

	t.Run("unknown", func(t *testing.T) {
		answers := append(answerAll(), Answer{QuestionID: "cuisine-martian"})
		_, err := Aggregate(catalog, answers)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cuisine-martian")
	})
}

func TestSkillDifficulties(t *testing.T) {
	assert.Equal(t, []string{"easy"}, SkillBeginner.Difficulties())
	assert.Equal(t, []string{"easy", "medium"}, SkillIntermediate.Difficulties())
	assert.Equal(t, []string{"easy", "medium", "hard"}, SkillAdvanced.Difficulties())
	assert.Equal(t, []string{"easy"}, SkillLevel("").Difficulties())
}

func TestQuestionsReturnsCopy(t *testing.T) {
	qs := Questions()
	qs[0].Prompt = "changed"
	assert.NotEqual(t, "changed", catalog[0].Prompt)

	ids := map[string]bool{}
	for _, q := range catalog {
		assert.False(t, ids[q.ID], "duplicate id %s", q.ID)
		ids[q.ID] = true
	}
}

package onboarding

import (
	"fmt"
	"strings"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
)

// Aggregate folds a full set of answers into Preferences.
//
// Every question in questions must be answered exactly once. The rules:
// liked cuisine and diet cards add their value; an ingredient card that was
// not liked adds a dislike; the highest liked skill level wins (beginner when
// none is liked); the smallest liked time cap wins (0, no limit, when none is liked).
// Lists keep catalog order regardless of answer order.
func Aggregate(questions []Question, answers []Answer) (*Preferences, error) {
	liked := make(map[string]bool, len(answers))
	known := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
	}

	var unknown, duplicate []string
	for _, a := range answers {
		if _, ok := known[a.QuestionID]; !ok {
			unknown = append(unknown, a.QuestionID)
			continue
		}
		if _, seen := liked[a.QuestionID]; seen {
			duplicate = append(duplicate, a.QuestionID)
			continue
		}
		liked[a.QuestionID] = a.Liked
	}
	if len(unknown) > 0 {
		return nil, apperror.NewValidationError("unknown question ids: "+strings.Join(unknown, ", "), nil)
	}
	if len(duplicate) > 0 {
		return nil, apperror.NewValidationError("questions answered more than once: "+strings.Join(duplicate, ", "), nil)
	}

	var missing []string
	for _, q := range questions {
		if _, ok := liked[q.ID]; !ok {
			missing = append(missing, q.ID)
		}
	}
	if len(missing) > 0 {
		return nil, apperror.NewValidationError(fmt.Sprintf("%d questions are unanswered: %s", len(missing), strings.Join(missing, ", ")), nil)
	}

	prefs := &Preferences{
		Cuisines:   []string{},
		Diets:      []string{},
		Dislikes:   []string{},
		SkillLevel: SkillBeginner,
	}
	for _, q := range questions {
		yes := liked[q.ID]
		switch q.Category {
		case CategoryCuisine:
			if yes {
				prefs.Cuisines = appendUnique(prefs.Cuisines, q.Value)
			}
		case CategoryDiet:
			if yes {
				prefs.Diets = appendUnique(prefs.Diets, q.Value)
			}
		case CategoryIngredient:
			if !yes {
				prefs.Dislikes = appendUnique(prefs.Dislikes, q.Value)
			}
		case CategorySkill:
			if level := SkillLevel(q.Value); yes && level.rank() > prefs.SkillLevel.rank() {
				prefs.SkillLevel = level
			}
		case CategoryTime:
			if yes && q.Minutes > 0 && (prefs.MaxCookMinutes == 0 || q.Minutes < prefs.MaxCookMinutes) {
				prefs.MaxCookMinutes = q.Minutes
			}
		}
	}

	// Stored answers follow catalog order too, so the record is stable.
	prefs.Answers = make([]Answer, 0, len(questions))
	for _, q := range questions {
		prefs.Answers = append(prefs.Answers, Answer{QuestionID: q.ID, Liked: liked[q.ID]})
	}
	return prefs, nil
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

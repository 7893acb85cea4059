package onboarding

import "time"

// SkillLevel is ordered: beginner < intermediate < advanced.
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
)

func (s SkillLevel) rank() int {
	switch s {
	case SkillIntermediate:
		return 1
	case SkillAdvanced:
		return 2
	default:
		return 0
	}
}

// Difficulties lists the recipe difficulties a cook at this level is shown.
func (s SkillLevel) Difficulties() []string {
	switch s {
	case SkillAdvanced:
		return []string{"easy", "medium", "hard"}
	case SkillIntermediate:
		return []string{"easy", "medium"}
	default:
		return []string{"easy"}
	}
}

// Answer is one swipe.
type Answer struct {
	QuestionID string `json:"question_id" validate:"required"`
	Liked      bool   `json:"liked"`
}

// CompleteRequest is the body of POST /onboarding/complete.
type CompleteRequest struct {
	Answers []Answer `json:"answers" validate:"required,min=1,dive"`
}

// Preferences is the aggregated outcome of the quiz, one row per user.
type Preferences struct {
	UserID     int        `json:"user_id"`
	Cuisines   []string   `json:"cuisines"`
	Diets      []string   `json:"diets"`
	Dislikes   []string   `json:"dislikes"`
	SkillLevel SkillLevel `json:"skill_level"`
	// MaxCookMinutes caps prep plus cook time; 0 means no limit.
	MaxCookMinutes int       `json:"max_cook_minutes"`
	Answers        []Answer  `json:"answers"`
	CompletedAt    time.Time `json:"completed_at"`
}

// StatusResponse is the body of GET /onboarding/status.
type StatusResponse struct {
	Completed bool `json:"completed"`
}

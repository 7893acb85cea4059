// Package onboarding runs the swipe-style preference quiz shown to new users
// and stores its outcome as the user's single preference record.
package onboarding

// Category groups questions by the preference they feed.
type Category string

const (
	CategoryCuisine    Category = "cuisine"
	CategoryDiet       Category = "diet"
	CategoryIngredient Category = "ingredient"
	CategorySkill      Category = "skill"
	CategoryTime       Category = "time"
)

// Question is one swipe card. Liked ("swipe right") or not is the only answer.
type Question struct {
	ID       string   `json:"id"`
	Prompt   string   `json:"prompt"`
	ImageURL string   `json:"image_url"`
	Category Category `json:"category"`
	// Value is the cuisine, diet tag, ingredient or skill level the card stands for.
	Value string `json:"value"`
	// Minutes is set on time cards only.
	Minutes int `json:"minutes,omitempty"`
}

// catalog is the ordered quiz. Cards are shown in this order and aggregated
// preferences keep this order too.
var catalog = []Question{
	{ID: "cuisine-italian", Prompt: "Fresh pasta and slow-cooked ragù?", ImageURL: "/onboarding/italian.jpg", Category: CategoryCuisine, Value: "italian"},
	{ID: "cuisine-mexican", Prompt: "Tacos, salsas and a squeeze of lime?", ImageURL: "/onboarding/mexican.jpg", Category: CategoryCuisine, Value: "mexican"},
	{ID: "cuisine-japanese", Prompt: "Ramen, rice bowls and miso?", ImageURL: "/onboarding/japanese.jpg", Category: CategoryCuisine, Value: "japanese"},
	{ID: "cuisine-indian", Prompt: "Fragrant curries and warm naan?", ImageURL: "/onboarding/indian.jpg", Category: CategoryCuisine, Value: "indian"},
	{ID: "cuisine-mediterranean", Prompt: "Olive oil, grilled vegetables and feta?", ImageURL: "/onboarding/mediterranean.jpg", Category: CategoryCuisine, Value: "mediterranean"},
	{ID: "diet-vegetarian", Prompt: "Keep it meat-free?", ImageURL: "/onboarding/vegetarian.jpg", Category: CategoryDiet, Value: "vegetarian"},
	{ID: "diet-gluten-free", Prompt: "Skip the gluten?", ImageURL: "/onboarding/gluten-free.jpg", Category: CategoryDiet, Value: "gluten-free"},
	{ID: "ingredient-mushrooms", Prompt: "Mushrooms in everything?", ImageURL: "/onboarding/mushrooms.jpg", Category: CategoryIngredient, Value: "mushroom"},
	{ID: "ingredient-cilantro", Prompt: "A handful of cilantro on top?", ImageURL: "/onboarding/cilantro.jpg", Category: CategoryIngredient, Value: "cilantro"},
	{ID: "ingredient-seafood", Prompt: "Shrimp, mussels and fish?", ImageURL: "/onboarding/seafood.jpg", Category: CategoryIngredient, Value: "shrimp"},
	{ID: "skill-intermediate", Prompt: "Happy to try a new technique now and then?", ImageURL: "/onboarding/skill-intermediate.jpg", Category: CategorySkill, Value: string(SkillIntermediate)},
	{ID: "skill-advanced", Prompt: "Laminated dough and a three-hour braise sound fun?", ImageURL: "/onboarding/skill-advanced.jpg", Category: CategorySkill, Value: string(SkillAdvanced)},
	{ID: "time-30", Prompt: "Dinner on the table in 30 minutes?", ImageURL: "/onboarding/time-30.jpg", Category: CategoryTime, Value: "30", Minutes: 30},
	{ID: "time-60", Prompt: "An hour in the kitchen on a weeknight?", ImageURL: "/onboarding/time-60.jpg", Category: CategoryTime, Value: "60", Minutes: 60},
}

// Questions returns a copy of the quiz in display order.
func Questions() []Question {
	out := make([]Question, len(catalog))
	copy(out, catalog)
	return out
}

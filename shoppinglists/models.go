// Package shoppinglists manages a user's shopping lists: the lists, their
// items, and copying a recipe's ingredients into a list at a chosen
// number of servings.
package shoppinglists

import "time"

// Summary is a shopping list as the index endpoint shows it.
type Summary struct {
	ID        int       `json:"id"`
	OwnerID   int       `json:"owner_id"`
	Name      string    `json:"name"`
	ItemCount int       `json:"item_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// List is a shopping list with its items. Items is always present, empty
// for a new list.
type List struct {
	Summary
	Items []Item `json:"items"`
}

// Item is one line on a list. RecipeID is set when the line came from a recipe.
type Item struct {
	ID        int       `json:"id"`
	ListID    int       `json:"list_id"`
	Position  int       `json:"position"`
	Name      string    `json:"name"`
	Quantity  *float64  `json:"quantity,omitempty"`
	Unit      string    `json:"unit"`
	Checked   bool      `json:"checked"`
	RecipeID  *int      `json:"recipe_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ListRequest is the body of POST /shopping-lists and PUT /shopping-lists/{id}.
type ListRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120" example:"Weekend groceries"`
}

// AddItemRequest is the body of POST /shopping-lists/{id}/items.
type AddItemRequest struct {
	Name     string   `json:"name" validate:"required,min=1,max=120" example:"eggs"`
	Quantity *float64 `json:"quantity,omitempty" validate:"omitempty,gt=0" example:"12"`
	Unit     string   `json:"unit,omitempty" validate:"max=32"`
}

// UpdateItemRequest is the body of PATCH /shopping-lists/{id}/items/{itemID}.
type UpdateItemRequest struct {
	Checked  *bool    `json:"checked,omitempty"`
	Name     *string  `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Quantity *float64 `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	Unit     *string  `json:"unit,omitempty" validate:"omitempty,max=32"`
}

func (r UpdateItemRequest) isEmpty() bool {
	return r.Checked == nil && r.Name == nil && r.Quantity == nil && r.Unit == nil
}

// AddRecipeResponse reports what copying a recipe did to the list.
type AddRecipeResponse struct {
	List   *List `json:"list"`
	Added  int   `json:"added"`
	Merged int   `json:"merged"`
}

// ClearResponse is the body returned after clearing checked items.
type ClearResponse struct {
	Removed int64 `json:"removed"`
}

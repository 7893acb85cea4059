package shoppinglists

import (
	"math"
	"strings"
)

// Ingredient is a recipe line about to be copied onto a list.
type Ingredient struct {
	Name     string
	Quantity *float64
	Unit     string
}

// NewItem is a line to insert.
type NewItem struct {
	Name     string
	Quantity *float64
	Unit     string
}

// QuantityUpdate sets a new quantity on an existing item.
type QuantityUpdate struct {
	ItemID   int
	Quantity *float64
}

// MergePlan is the outcome of merging recipe ingredients into a list.
type MergePlan struct {
	Updates []QuantityUpdate
	Inserts []NewItem
}

// mergeKey identifies lines that can be summed: same name and unit, ignoring case.
func mergeKey(name, unit string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "\x00" + strings.ToLower(strings.TrimSpace(unit))
}

// Scale multiplies a quantity and rounds to two decimals. Nil stays nil.
func Scale(q *float64, factor float64) *float64 {
	if q == nil {
		return nil
	}
	v := math.Round(*q*factor*100) / 100
	return &v
}

// addQuantities sums two optional quantities; an unknown quantity adds nothing.
func addQuantities(a, b *float64) *float64 {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		v := *b
		return &v
	case b == nil:
		v := *a
		return &v
	}
	v := math.Round((*a+*b)*100) / 100
	return &v
}

// Merge plans how ingredients, scaled by factor, land on a list that already
// holds existing items. A line whose key matches an unchecked item adds to
// its quantity; checked items are never touched. Lines that match nothing
// become inserts, and repeated lines within the recipe are merged together.
func Merge(existing []Item, ingredients []Ingredient, factor float64) MergePlan {
	open := make(map[string]int, len(existing))
	quantities := make(map[int]*float64, len(existing))
	for _, it := range existing {
		if it.Checked {
			continue
		}
		key := mergeKey(it.Name, it.Unit)
		if _, dup := open[key]; dup {
			continue
		}
		open[key] = it.ID
		quantities[it.ID] = it.Quantity
	}

	var plan MergePlan
	updated := map[int]int{}
	inserted := map[string]int{}

	for _, ing := range ingredients {
		name := strings.TrimSpace(ing.Name)
		if name == "" {
			continue
		}
		key := mergeKey(name, ing.Unit)
		qty := Scale(ing.Quantity, factor)

		if itemID, ok := open[key]; ok {
			quantities[itemID] = addQuantities(quantities[itemID], qty)
			if idx, seen := updated[itemID]; seen {
				plan.Updates[idx].Quantity = quantities[itemID]
			} else {
				updated[itemID] = len(plan.Updates)
				plan.Updates = append(plan.Updates, QuantityUpdate{ItemID: itemID, Quantity: quantities[itemID]})
			}
			continue
		}
		if idx, ok := inserted[key]; ok {
			plan.Inserts[idx].Quantity = addQuantities(plan.Inserts[idx].Quantity, qty)
			continue
		}
		inserted[key] = len(plan.Inserts)
		plan.Inserts = append(plan.Inserts, NewItem{Name: name, Quantity: qty, Unit: strings.TrimSpace(ing.Unit)})
	}
	return plan
}

package models

import "strings"

// Conventional categories. Category is stored as free text; these are what the
// clients offer in their pickers.
const (
	CategoryWork       = "work"
	CategoryHome       = "home"
	CategoryTravel     = "travel"
	CategoryShopping   = "shopping"
	CategoryRestaurant = "restaurant"
	CategoryExercise   = "exercise"
	CategoryOther      = "other"
)

// Categories lists the conventional categories in picker order.
func Categories() []string {
	return []string{
		CategoryWork,
		CategoryHome,
		CategoryTravel,
		CategoryShopping,
		CategoryRestaurant,
		CategoryExercise,
		CategoryOther,
	}
}

// NormalizeCategory maps an empty category to "other" and leaves anything else as given.
func NormalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return CategoryOther
	}
	return category
}

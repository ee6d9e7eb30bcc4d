package models

import "time"

// BaseRecipe shares the global-vs-user-scoped ownership model of
// BaseIngredient: CreatedBy nil means global, (Name, CreatedBy) is unique.
type BaseRecipe struct {
	ID              string
	Name            string
	CreatedBy       *string
	DefaultServings float64
	PrepTime        int
	PrepTimeUnit    string
	Steps           string
	CreatedAt       time.Time
}

// RecipeIngredient is one required ingredient of a recipe, in the
// recipe author's unit of choice.
type RecipeIngredient struct {
	RecipeID     string
	IngredientID string
	Quantity     float64
	Unit         string
}

// UserRecipe holds one user's annotations on a recipe. Rating, when set,
// ranges 1..5. PhotoKey is the object-storage key of the user's photo.
type UserRecipe struct {
	UserID   string
	RecipeID string
	Notes    string
	PhotoKey string
	Rating   *int
}

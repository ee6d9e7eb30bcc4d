package recipes

import (
	"context"

	"github.com/JoaoMarques95/dinners/internal/server/models"
)

// Requirement is one recipe line joined with the ingredient's category, as
// needed by the requirement resolver.
type Requirement struct {
	IngredientID string
	Quantity     float64
	Unit         string
	Category     string
}

type Repository interface {
	Create(ctx context.Context, recipe *models.BaseRecipe, lines []*models.RecipeIngredient) (*models.BaseRecipe, error)
	Get(ctx context.Context, id string) (*models.BaseRecipe, error)
	Update(ctx context.Context, recipe *models.BaseRecipe) error
	// ListRequirements returns the recipe's lines in author order, joined
	// with each ingredient's category.
	ListRequirements(ctx context.Context, recipeID string) ([]Requirement, error)
}

package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/JoaoMarques95/dinners/internal/common"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/repomanager"
	"github.com/JoaoMarques95/dinners/internal/units"
)

// Requirement is one ingredient's required quantity in its category's
// canonical unit.
type Requirement struct {
	IngredientID string
	Quantity     float64
	Unit         string
}

// RecipeService resolves recipes into normalized ingredient requirements.
type RecipeService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewRecipeService(db *sql.DB, m repomanager.RepositoryManager) *RecipeService {
	return &RecipeService{db: db, repomanager: m}
}

// Resolve expands the recipe into its required ingredients, each scaled by
// targetServings/defaultServings and normalized to the category's canonical
// unit. The result preserves the recipe author's line order. A line whose
// unit cannot be normalized fails with ErrorUnitMismatch carrying the recipe
// and ingredient IDs, so the recipe's curator can be pointed at the exact
// broken line.
func (s *RecipeService) Resolve(ctx context.Context, recipeID string, targetServings float64) ([]Requirement, error) {
	if targetServings <= 0 {
		return nil, fmt.Errorf("target servings must be positive, got %v: %w", targetServings, common.ErrorValidation)
	}

	repo := s.repomanager.Recipes(s.db)

	recipe, err := repo.Get(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	lines, err := repo.ListRequirements(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	// default_servings > 0 is a schema invariant, so the ratio is safe.
	scale := targetServings / recipe.DefaultServings

	result := make([]Requirement, 0, len(lines))
	for _, line := range lines {
		normalized, unit, err := units.Normalize(line.Quantity, line.Unit, line.Category)
		if err != nil {
			return nil, fmt.Errorf("recipe %s ingredient %s: %w", recipeID, line.IngredientID, err)
		}
		result = append(result, Requirement{
			IngredientID: line.IngredientID,
			Quantity:     normalized * scale,
			Unit:         unit,
		})
	}

	return result, nil
}

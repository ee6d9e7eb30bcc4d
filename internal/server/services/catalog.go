package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/JoaoMarques95/dinners/internal/common"
	"github.com/JoaoMarques95/dinners/internal/dbx"
	"github.com/JoaoMarques95/dinners/internal/server/models"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/repomanager"
)

// CatalogService curates base ingredients and recipes. Global and
// user-scoped rows are one entity type with an optional owner; all mutation
// goes through a single authorization check rather than separate types.
type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager) *CatalogService {
	return &CatalogService{db: db, repomanager: m}
}

// canMutate is the single ownership gate: global rows (no owner) are mutable
// only by admins, user-scoped rows only by their creator.
func canMutate(user *models.User, owner *string) bool {
	if owner == nil {
		return user.Role == models.RoleAdmin
	}
	return *owner == user.ID
}

func (s *CatalogService) getActor(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("unknown user %s: %w", userID, common.ErrorValidation)
		}
		return nil, err
	}
	return user, nil
}

// CreateIngredient adds an ingredient to the catalog. Admins may create
// global rows (global = true); everyone else creates rows owned by
// themselves. Duplicate names within the same scope fail with
// ErrorAlreadyExists.
func (s *CatalogService) CreateIngredient(ctx context.Context, userID string, name, category string, defaultSpoils, global bool) (*models.BaseIngredient, error) {
	if name == "" {
		return nil, fmt.Errorf("ingredient name is required: %w", common.ErrorValidation)
	}

	user, err := s.getActor(ctx, userID)
	if err != nil {
		return nil, err
	}

	ingredient := &models.BaseIngredient{
		ID:            uuid.NewString(),
		Name:          name,
		Category:      category,
		DefaultSpoils: defaultSpoils,
	}
	if global {
		if user.Role != models.RoleAdmin {
			return nil, fmt.Errorf("only admins create global ingredients: %w", common.ErrorForbidden)
		}
	} else {
		ingredient.CreatedBy = &user.ID
	}

	return s.repomanager.Ingredients(s.db).Create(ctx, ingredient)
}

// UpdateIngredient mutates a catalog row, gated by ownership.
func (s *CatalogService) UpdateIngredient(ctx context.Context, userID string, ingredient *models.BaseIngredient) error {
	user, err := s.getActor(ctx, userID)
	if err != nil {
		return err
	}

	current, err := s.repomanager.Ingredients(s.db).Get(ctx, ingredient.ID)
	if err != nil {
		return err
	}
	if !canMutate(user, current.CreatedBy) {
		return fmt.Errorf("ingredient %s: %w", ingredient.ID, common.ErrorForbidden)
	}

	return s.repomanager.Ingredients(s.db).Update(ctx, ingredient)
}

// ListIngredients returns the catalog visible to the user: global rows plus
// their own.
func (s *CatalogService) ListIngredients(ctx context.Context, userID string) ([]*models.BaseIngredient, error) {
	return s.repomanager.Ingredients(s.db).ListVisible(ctx, userID)
}

// CreateRecipe adds a recipe with its ingredient lines. Every referenced
// ingredient must exist; default servings must be positive. The recipe and
// its lines are inserted in one transaction.
func (s *CatalogService) CreateRecipe(ctx context.Context, userID string, recipe *models.BaseRecipe, lines []*models.RecipeIngredient, global bool) (*models.BaseRecipe, error) {
	if recipe.Name == "" {
		return nil, fmt.Errorf("recipe name is required: %w", common.ErrorValidation)
	}
	if recipe.DefaultServings <= 0 {
		return nil, fmt.Errorf("default servings must be positive, got %v: %w", recipe.DefaultServings, common.ErrorValidation)
	}

	user, err := s.getActor(ctx, userID)
	if err != nil {
		return nil, err
	}

	recipe.ID = uuid.NewString()
	if global {
		if user.Role != models.RoleAdmin {
			return nil, fmt.Errorf("only admins create global recipes: %w", common.ErrorForbidden)
		}
		recipe.CreatedBy = nil
	} else {
		recipe.CreatedBy = &user.ID
	}

	for _, line := range lines {
		if line.Quantity < 0 {
			return nil, fmt.Errorf("ingredient %s quantity must be non-negative: %w", line.IngredientID, common.ErrorValidation)
		}
		if _, err := s.repomanager.Ingredients(s.db).Get(ctx, line.IngredientID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, fmt.Errorf("unknown ingredient %s: %w", line.IngredientID, common.ErrorValidation)
			}
			return nil, err
		}
	}

	var created *models.BaseRecipe
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err = s.repomanager.Recipes(tx).Create(ctx, recipe, lines)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateRecipe mutates a recipe row, gated by ownership.
func (s *CatalogService) UpdateRecipe(ctx context.Context, userID string, recipe *models.BaseRecipe) error {
	if recipe.DefaultServings <= 0 {
		return fmt.Errorf("default servings must be positive, got %v: %w", recipe.DefaultServings, common.ErrorValidation)
	}

	user, err := s.getActor(ctx, userID)
	if err != nil {
		return err
	}

	current, err := s.repomanager.Recipes(s.db).Get(ctx, recipe.ID)
	if err != nil {
		return err
	}
	if !canMutate(user, current.CreatedBy) {
		return fmt.Errorf("recipe %s: %w", recipe.ID, common.ErrorForbidden)
	}

	return s.repomanager.Recipes(s.db).Update(ctx, recipe)
}

package userrecipes

import (
	"context"

	"github.com/JoaoMarques95/dinners/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, userID, recipeID string) (*models.UserRecipe, error)
	// Upsert creates or replaces the user's annotations on a recipe.
	Upsert(ctx context.Context, row *models.UserRecipe) error
	SetPhotoKey(ctx context.Context, userID, recipeID, photoKey string) error
}

package stock

import (
	"context"

	"github.com/JoaoMarques95/dinners/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, userID, ingredientID string) (*models.UserIngredient, error)
	Create(ctx context.Context, row *models.UserIngredient) (*models.UserIngredient, error)
	// Update persists row guarded by its Version and increments it.
	// A concurrent writer wins the race by making Update return ErrorConflict.
	Update(ctx context.Context, row *models.UserIngredient) error
	ListByUser(ctx context.Context, userID string) ([]*models.UserIngredient, error)
	// ListOpenUnflagged returns opened, not-yet-flagged rows across all users,
	// for the periodic spoilage sweep.
	ListOpenUnflagged(ctx context.Context) ([]*models.UserIngredient, error)
}

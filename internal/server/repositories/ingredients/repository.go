package ingredients

import (
	"context"

	"github.com/JoaoMarques95/dinners/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, ingredient *models.BaseIngredient) (*models.BaseIngredient, error)
	Get(ctx context.Context, id string) (*models.BaseIngredient, error)
	Update(ctx context.Context, ingredient *models.BaseIngredient) error
	ListVisible(ctx context.Context, userID string) ([]*models.BaseIngredient, error)
}

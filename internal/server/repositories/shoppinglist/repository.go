package shoppinglist

import (
	"context"

	"github.com/JoaoMarques95/dinners/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, item *models.ShoppingListItem) (*models.ShoppingListItem, error)
	// ListUnpurchased returns the user's open items, manual and auto alike.
	ListUnpurchased(ctx context.Context, userID string) ([]*models.ShoppingListItem, error)
	UpdateQuantity(ctx context.Context, id string, quantity float64) error
	Delete(ctx context.Context, id string) error
	MarkPurchased(ctx context.Context, id, userID string) error
}

package services

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/JoaoMarques95/dinners/internal/server/models"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/repomanager"
)

// Notifier is the sink for informational events emitted by the core.
// Formatting and delivery of messages belong to an external collaborator.
type Notifier interface {
	ShoppingListUpdated(ctx context.Context, userID string, itemCount int) error
	IngredientSpoiling(ctx context.Context, userID, ingredientID string) error
}

// RepoNotifier records events as notification rows.
type RepoNotifier struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewRepoNotifier(db *sql.DB, m repomanager.RepositoryManager) *RepoNotifier {
	return &RepoNotifier{db: db, repomanager: m}
}

func (n *RepoNotifier) ShoppingListUpdated(ctx context.Context, userID string, itemCount int) error {
	payload, _ := json.Marshal(map[string]any{"item_count": itemCount})
	return n.repomanager.Notifications(n.db).Create(ctx, &models.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Kind:    models.NotificationShoppingListUpdated,
		Payload: string(payload),
	})
}

func (n *RepoNotifier) IngredientSpoiling(ctx context.Context, userID, ingredientID string) error {
	payload, _ := json.Marshal(map[string]any{"ingredient_id": ingredientID})
	return n.repomanager.Notifications(n.db).Create(ctx, &models.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Kind:    models.NotificationIngredientSpoiling,
		Payload: string(payload),
	})
}

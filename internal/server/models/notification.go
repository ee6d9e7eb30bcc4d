package models

import "time"

// Notification kinds emitted by the core. Delivery is an external concern.
const (
	NotificationShoppingListUpdated = "shopping_list_updated"
	NotificationIngredientSpoiling  = "ingredient_spoiling_soon"
)

type Notification struct {
	ID        string
	UserID    string
	Kind      string
	Payload   string
	CreatedAt time.Time
}

package models

import "time"

// ShoppingListItem is one entry on a user's shopping list. AutoGenerated
// distinguishes reconciler-managed rows from entries the user added by hand;
// the reconciler never updates or deletes manual rows.
type ShoppingListItem struct {
	ID            string
	UserID        string
	IngredientID  string
	Quantity      float64
	Unit          string
	Purchased     bool
	AutoGenerated bool
	AddedAt       time.Time
}

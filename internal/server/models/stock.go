package models

import "time"

// UserIngredient is one user's current stock of one ingredient. Quantities
// are stored in the category's canonical unit. Rows are never hard-deleted;
// quantities may reach zero.
type UserIngredient struct {
	ID              string
	UserID          string
	IngredientID    string
	TotalQuantity   float64
	PortionQuantity float64
	Opened          bool
	OpenedAt        *time.Time
	SpoilageFlagged bool
	// Version backs optimistic locking; every successful update increments it.
	Version   int64
	UpdatedAt time.Time
}

package models

import "time"

// BaseIngredient is a catalog ingredient. CreatedBy is nil for global rows
// and holds the owner's user ID for user-scoped rows. (Name, CreatedBy) is
// unique, so a global ingredient and a user's custom ingredient may share a
// name but one user cannot create two ingredients with the same name.
type BaseIngredient struct {
	ID       string
	Name     string
	Category string
	// CreatedBy is nil for global (curated) ingredients.
	CreatedBy *string
	// DefaultSpoils is the fallback perishability switch used when no
	// per-category shelf life is configured.
	DefaultSpoils bool
	CreatedAt     time.Time
}

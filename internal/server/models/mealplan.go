package models

import "time"

type MealPlan struct {
	ID           string
	UserID       string
	RecipeID     string
	ScheduledFor time.Time
	MealType     string
	Servings     float64
	// CompletedAt marks the plan cooked; completed plans are excluded
	// from requirement aggregation.
	CompletedAt *time.Time
	Notes       string
}

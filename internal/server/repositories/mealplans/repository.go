package mealplans

import (
	"context"
	"time"

	"github.com/JoaoMarques95/dinners/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, plan *models.MealPlan) (*models.MealPlan, error)
	Get(ctx context.Context, id string) (*models.MealPlan, error)
	// Complete sets completed_at; completing an already-completed plan is a no-op.
	Complete(ctx context.Context, id, userID string, completedAt time.Time) error
	// ListScheduled returns uncompleted plans for the user with
	// scheduled_for inside [from, to], bounds inclusive.
	ListScheduled(ctx context.Context, userID string, from, to time.Time) ([]*models.MealPlan, error)
}

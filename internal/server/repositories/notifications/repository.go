package notifications

import (
	"context"

	"github.com/JoaoMarques95/dinners/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

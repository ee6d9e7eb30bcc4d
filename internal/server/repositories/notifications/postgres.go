package notifications

import (
	"context"
	"fmt"

	"github.com/JoaoMarques95/dinners/internal/dbx"
	"github.com/JoaoMarques95/dinners/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, notification *models.Notification) error {
	query :=
		`INSERT INTO notifications (id, user_id, kind, payload)
		 VALUES ($1, $2, $3, $4)
		 `

	if _, err := r.db.ExecContext(ctx, query,
		notification.ID, notification.UserID, notification.Kind, notification.Payload); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

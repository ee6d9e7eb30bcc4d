// Package stock provides the PostgreSQL-backed store of per-user ingredient
// stock rows, with optimistic locking on a version column.
package stock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/JoaoMarques95/dinners/internal/common"
	"github.com/JoaoMarques95/dinners/internal/dbx"
	"github.com/JoaoMarques95/dinners/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `id, user_id, ingredient_id, total_quantity, portion_quantity,
	opened, opened_at, spoilage_flagged, version, updated_at`

func (r *PostgresRepository) Get(ctx context.Context, userID, ingredientID string) (*models.UserIngredient, error) {
	query := `SELECT ` + selectColumns + ` FROM user_ingredients
		 WHERE user_id = $1 AND ingredient_id = $2
		 `

	row := &models.UserIngredient{}
	err := r.db.QueryRowContext(ctx, query, userID, ingredientID).Scan(
		&row.ID, &row.UserID, &row.IngredientID, &row.TotalQuantity, &row.PortionQuantity,
		&row.Opened, &row.OpenedAt, &row.SpoilageFlagged, &row.Version, &row.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return row, nil
}

func (r *PostgresRepository) Create(ctx context.Context, row *models.UserIngredient) (*models.UserIngredient, error) {
	query :=
		`INSERT INTO user_ingredients
		     (id, user_id, ingredient_id, total_quantity, portion_quantity, opened, opened_at, spoilage_flagged)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING version, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		row.ID, row.UserID, row.IngredientID, row.TotalQuantity, row.PortionQuantity,
		row.Opened, row.OpenedAt, row.SpoilageFlagged).
		Scan(&row.Version, &row.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return row, nil
}

// Update writes the row guarded by its current Version. Zero rows affected
// means a concurrent writer got there first and the caller should re-read
// and retry; that is reported as ErrorConflict.
func (r *PostgresRepository) Update(ctx context.Context, row *models.UserIngredient) error {
	query :=
		`UPDATE user_ingredients
		 SET total_quantity = $2, portion_quantity = $3, opened = $4, opened_at = $5,
		     spoilage_flagged = $6, version = version + 1, updated_at = now()
		 WHERE id = $1 AND version = $7
		 `

	res, err := r.db.ExecContext(ctx, query,
		row.ID, row.TotalQuantity, row.PortionQuantity, row.Opened, row.OpenedAt,
		row.SpoilageFlagged, row.Version)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		row.Version++
		return nil
	case 0:
		return common.ErrorConflict
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.UserIngredient, error) {
	query := `SELECT ` + selectColumns + ` FROM user_ingredients
		 WHERE user_id = $1
		 `

	return r.list(ctx, query, userID)
}

func (r *PostgresRepository) ListOpenUnflagged(ctx context.Context) ([]*models.UserIngredient, error) {
	query := `SELECT ` + selectColumns + ` FROM user_ingredients
		 WHERE opened AND NOT spoilage_flagged AND total_quantity > 0
		 `

	return r.list(ctx, query)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.UserIngredient, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select stock rows: %w", err)
	}
	defer rows.Close()

	var result []*models.UserIngredient
	for rows.Next() {
		item := &models.UserIngredient{}
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.IngredientID, &item.TotalQuantity, &item.PortionQuantity,
			&item.Opened, &item.OpenedAt, &item.SpoilageFlagged, &item.Version, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

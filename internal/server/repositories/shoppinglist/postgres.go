// Package shoppinglist provides the PostgreSQL-backed store of shopping-list
// items. Reconciler-managed and manually-added rows share one table,
// distinguished by the auto_generated flag.
package shoppinglist

import (
	"context"
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

func (r *PostgresRepository) Create(ctx context.Context, item *models.ShoppingListItem) (*models.ShoppingListItem, error) {
	query :=
		`INSERT INTO shopping_list_items (id, user_id, ingredient_id, quantity, unit, purchased, auto_generated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING added_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		item.ID, item.UserID, item.IngredientID, item.Quantity, item.Unit,
		item.Purchased, item.AutoGenerated).
		Scan(&item.AddedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return item, nil
}

func (r *PostgresRepository) ListUnpurchased(ctx context.Context, userID string) ([]*models.ShoppingListItem, error) {
	query :=
		`SELECT id, user_id, ingredient_id, quantity, unit, purchased, auto_generated, added_at
		 FROM shopping_list_items
		 WHERE user_id = $1 AND NOT purchased
		 ORDER BY added_at, id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select shopping list items: %w", err)
	}
	defer rows.Close()

	var result []*models.ShoppingListItem
	for rows.Next() {
		item := &models.ShoppingListItem{}
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.IngredientID, &item.Quantity, &item.Unit,
			&item.Purchased, &item.AutoGenerated, &item.AddedAt,
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

func (r *PostgresRepository) UpdateQuantity(ctx context.Context, id string, quantity float64) error {
	query := `UPDATE shopping_list_items SET quantity = $2 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, quantity)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM shopping_list_items WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) MarkPurchased(ctx context.Context, id, userID string) error {
	query := `UPDATE shopping_list_items SET purchased = true WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

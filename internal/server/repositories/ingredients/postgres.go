// Package ingredients provides the PostgreSQL-backed catalog of base
// ingredients, both global and user-scoped.
package ingredients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

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

func (r *PostgresRepository) Create(ctx context.Context, ingredient *models.BaseIngredient) (*models.BaseIngredient, error) {
	query :=
		`INSERT INTO base_ingredients (id, name, category, created_by, default_spoils)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		ingredient.ID, ingredient.Name, ingredient.Category, ingredient.CreatedBy, ingredient.DefaultSpoils).
		Scan(&ingredient.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return ingredient, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.BaseIngredient, error) {
	query :=
		`SELECT id, name, category, created_by, default_spoils, created_at FROM base_ingredients
		 WHERE id = $1
		 `

	ingredient := &models.BaseIngredient{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ingredient.ID, &ingredient.Name, &ingredient.Category,
		&ingredient.CreatedBy, &ingredient.DefaultSpoils, &ingredient.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return ingredient, nil
}

func (r *PostgresRepository) Update(ctx context.Context, ingredient *models.BaseIngredient) error {
	query :=
		`UPDATE base_ingredients
		 SET name = $2, category = $3, default_spoils = $4
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		ingredient.ID, ingredient.Name, ingredient.Category, ingredient.DefaultSpoils)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return common.ErrorAlreadyExists
		}
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

// ListVisible returns the global catalog plus the user's own ingredients.
func (r *PostgresRepository) ListVisible(ctx context.Context, userID string) ([]*models.BaseIngredient, error) {
	query :=
		`SELECT id, name, category, created_by, default_spoils, created_at FROM base_ingredients
		 WHERE created_by IS NULL OR created_by = $1
		 ORDER BY name
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.BaseIngredient
	for rows.Next() {
		item := &models.BaseIngredient{}
		if err := rows.Scan(&item.ID, &item.Name, &item.Category,
			&item.CreatedBy, &item.DefaultSpoils, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

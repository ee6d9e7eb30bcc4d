package userrecipes

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

func (r *PostgresRepository) Get(ctx context.Context, userID, recipeID string) (*models.UserRecipe, error) {
	query :=
		`SELECT user_id, recipe_id, notes, photo_key, rating FROM user_recipes
		 WHERE user_id = $1 AND recipe_id = $2
		 `

	row := &models.UserRecipe{}
	err := r.db.QueryRowContext(ctx, query, userID, recipeID).Scan(
		&row.UserID, &row.RecipeID, &row.Notes, &row.PhotoKey, &row.Rating)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return row, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, row *models.UserRecipe) error {
	query :=
		`INSERT INTO user_recipes (user_id, recipe_id, notes, photo_key, rating)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, recipe_id)
		 DO UPDATE SET notes = EXCLUDED.notes, rating = EXCLUDED.rating
		 `

	if _, err := r.db.ExecContext(ctx, query,
		row.UserID, row.RecipeID, row.Notes, row.PhotoKey, row.Rating); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetPhotoKey(ctx context.Context, userID, recipeID, photoKey string) error {
	query :=
		`INSERT INTO user_recipes (user_id, recipe_id, photo_key)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, recipe_id)
		 DO UPDATE SET photo_key = EXCLUDED.photo_key
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, recipeID, photoKey); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

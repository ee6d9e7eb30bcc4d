// Package recipes provides the PostgreSQL-backed recipe catalog and the
// joined requirement query used by the resolver.
package recipes

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

// Create inserts the recipe and its ingredient lines. Callers are expected
// to run it inside a transaction so a failing line insert rolls back the
// recipe row as well.
func (r *PostgresRepository) Create(ctx context.Context, recipe *models.BaseRecipe, lines []*models.RecipeIngredient) (*models.BaseRecipe, error) {
	query :=
		`INSERT INTO base_recipes (id, name, created_by, default_servings, prep_time, prep_time_unit, steps)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		recipe.ID, recipe.Name, recipe.CreatedBy, recipe.DefaultServings,
		recipe.PrepTime, recipe.PrepTimeUnit, recipe.Steps).
		Scan(&recipe.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	lineQuery :=
		`INSERT INTO recipe_ingredients (recipe_id, ingredient_id, quantity, unit, position)
		 VALUES ($1, $2, $3, $4, $5)
		 `

	for i, line := range lines {
		line.RecipeID = recipe.ID
		if _, err := r.db.ExecContext(ctx, lineQuery,
			line.RecipeID, line.IngredientID, line.Quantity, line.Unit, i); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
	}

	return recipe, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.BaseRecipe, error) {
	query :=
		`SELECT id, name, created_by, default_servings, prep_time, prep_time_unit, steps, created_at
		 FROM base_recipes
		 WHERE id = $1
		 `

	recipe := &models.BaseRecipe{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&recipe.ID, &recipe.Name, &recipe.CreatedBy, &recipe.DefaultServings,
		&recipe.PrepTime, &recipe.PrepTimeUnit, &recipe.Steps, &recipe.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return recipe, nil
}

func (r *PostgresRepository) Update(ctx context.Context, recipe *models.BaseRecipe) error {
	query :=
		`UPDATE base_recipes
		 SET name = $2, default_servings = $3, prep_time = $4, prep_time_unit = $5, steps = $6
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query,
		recipe.ID, recipe.Name, recipe.DefaultServings, recipe.PrepTime, recipe.PrepTimeUnit, recipe.Steps)
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

func (r *PostgresRepository) ListRequirements(ctx context.Context, recipeID string) ([]Requirement, error) {
	query :=
		`SELECT ri.ingredient_id, ri.quantity, ri.unit, bi.category
		 FROM recipe_ingredients ri
		 JOIN base_ingredients bi ON bi.id = ri.ingredient_id
		 WHERE ri.recipe_id = $1
		 ORDER BY ri.position
		 `

	rows, err := r.db.QueryContext(ctx, query, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to select recipe requirements: %w", err)
	}
	defer rows.Close()

	var result []Requirement
	for rows.Next() {
		var item Requirement
		if err := rows.Scan(&item.IngredientID, &item.Quantity, &item.Unit, &item.Category); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

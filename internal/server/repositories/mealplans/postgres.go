package mealplans

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

func (r *PostgresRepository) Create(ctx context.Context, plan *models.MealPlan) (*models.MealPlan, error) {
	query :=
		`INSERT INTO meal_plans (id, user_id, recipe_id, scheduled_for, meal_type, servings, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `

	if _, err := r.db.ExecContext(ctx, query,
		plan.ID, plan.UserID, plan.RecipeID, plan.ScheduledFor, plan.MealType, plan.Servings, plan.Notes); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return plan, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.MealPlan, error) {
	query :=
		`SELECT id, user_id, recipe_id, scheduled_for, meal_type, servings, completed_at, notes
		 FROM meal_plans
		 WHERE id = $1
		 `

	plan := &models.MealPlan{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&plan.ID, &plan.UserID, &plan.RecipeID, &plan.ScheduledFor,
		&plan.MealType, &plan.Servings, &plan.CompletedAt, &plan.Notes)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return plan, nil
}

func (r *PostgresRepository) Complete(ctx context.Context, id, userID string, completedAt time.Time) error {
	query :=
		`UPDATE meal_plans SET completed_at = $3
		 WHERE id = $1 AND user_id = $2 AND completed_at IS NULL
		 `

	res, err := r.db.ExecContext(ctx, query, id, userID, completedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		// Either absent or already completed; distinguish for the caller.
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return nil
	}
	return nil
}

func (r *PostgresRepository) ListScheduled(ctx context.Context, userID string, from, to time.Time) ([]*models.MealPlan, error) {
	query :=
		`SELECT id, user_id, recipe_id, scheduled_for, meal_type, servings, completed_at, notes
		 FROM meal_plans
		 WHERE user_id = $1 AND completed_at IS NULL AND scheduled_for BETWEEN $2 AND $3
		 ORDER BY scheduled_for, id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to select meal plans: %w", err)
	}
	defer rows.Close()

	var result []*models.MealPlan
	for rows.Next() {
		item := &models.MealPlan{}
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.RecipeID, &item.ScheduledFor,
			&item.MealType, &item.Servings, &item.CompletedAt, &item.Notes,
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

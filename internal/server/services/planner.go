package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JoaoMarques95/dinners/internal/common"
	"github.com/JoaoMarques95/dinners/internal/server/models"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/repomanager"
)

// requirementResolver is what PlannerService needs from RecipeService.
type requirementResolver interface {
	Resolve(ctx context.Context, recipeID string, targetServings float64) ([]Requirement, error)
}

// PlannerService schedules meal plans and aggregates their ingredient
// requirements over a date window.
type PlannerService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	resolver    requirementResolver
	now         func() time.Time
}

func NewPlannerService(db *sql.DB, m repomanager.RepositoryManager, resolver requirementResolver) *PlannerService {
	return &PlannerService{db: db, repomanager: m, resolver: resolver, now: time.Now}
}

// Schedule creates a meal plan for the user. Servings must be positive and
// the recipe must exist; a dangling recipe reference is a ValidationError.
func (s *PlannerService) Schedule(ctx context.Context, plan *models.MealPlan) (*models.MealPlan, error) {
	if plan.Servings <= 0 {
		return nil, fmt.Errorf("servings must be positive, got %v: %w", plan.Servings, common.ErrorValidation)
	}

	if _, err := s.repomanager.Recipes(s.db).Get(ctx, plan.RecipeID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("unknown recipe %s: %w", plan.RecipeID, common.ErrorValidation)
		}
		return nil, err
	}

	plan.ID = uuid.NewString()
	plan.CompletedAt = nil
	return s.repomanager.MealPlans(s.db).Create(ctx, plan)
}

// Complete marks the plan cooked. Completion is terminal: the plan drops out
// of all future aggregation. Completing twice is a no-op.
func (s *PlannerService) Complete(ctx context.Context, planID, userID string) error {
	return s.repomanager.MealPlans(s.db).Complete(ctx, planID, userID, s.now())
}

// Aggregate sums the resolved ingredient requirements of every uncompleted
// meal plan the user has scheduled within [from, to], bounds inclusive. The
// result maps ingredient ID to its total requirement in the canonical unit.
// An empty window yields an empty map. Identical inputs produce identical
// output; the only time dependence is which plans are in range and
// uncompleted at call time.
func (s *PlannerService) Aggregate(ctx context.Context, userID string, from, to time.Time) (map[string]Requirement, error) {
	plans, err := s.repomanager.MealPlans(s.db).ListScheduled(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	required := make(map[string]Requirement)
	for _, plan := range plans {
		reqs, err := s.resolver.Resolve(ctx, plan.RecipeID, plan.Servings)
		if err != nil {
			return nil, fmt.Errorf("meal plan %s: %w", plan.ID, err)
		}
		for _, req := range reqs {
			total := required[req.IngredientID]
			total.IngredientID = req.IngredientID
			total.Quantity += req.Quantity
			total.Unit = req.Unit
			required[req.IngredientID] = total
		}
	}

	return required, nil
}

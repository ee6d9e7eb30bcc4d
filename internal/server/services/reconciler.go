package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/JoaoMarques95/dinners/internal/common"
	"github.com/JoaoMarques95/dinners/internal/dbx"
	"github.com/JoaoMarques95/dinners/internal/logging"
	"github.com/JoaoMarques95/dinners/internal/server/config"
	"github.com/JoaoMarques95/dinners/internal/server/models"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/repomanager"
	"github.com/JoaoMarques95/dinners/internal/units"
)

// ShoppingListService keeps a user's shopping list aligned with their
// aggregated meal-plan requirements and current stock.
//
// The reconciler owns only the rows it generated (auto_generated = true).
// Manually-added rows are never updated or deleted, and purchased rows are
// never touched: "purchased" marks shopping intent fulfilled, while the
// stock update is a separate explicit AddStock.
type ShoppingListService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	notifier    Notifier
	logger      logging.Logger
	retryCount  uint64
}

func NewShoppingListService(db *sql.DB, m repomanager.RepositoryManager, notifier Notifier, logger logging.Logger, cfg *config.Config) *ShoppingListService {
	return &ShoppingListService{
		db:          db,
		repomanager: m,
		notifier:    notifier,
		logger:      logger.With("module", "shopping_list"),
		retryCount:  cfg.ConflictRetryCount,
	}
}

// Reconcile diffs required against the user's stock and rewrites the
// reconciler-owned part of the shopping list to match:
//
//   - deficit = required - available stock, floored at zero;
//   - deficit > 0: the existing unpurchased auto row is set to the
//     recomputed deficit (never accumulated), or a new row is created;
//   - deficit = 0: unpurchased auto rows for that ingredient are removed;
//   - auto rows for ingredients no longer required at all are removed.
//
// The whole pass runs in one transaction, so cancelling mid-way commits
// nothing, and running it twice with the same inputs yields the same list.
// Returns the auto rows that remain for the required ingredients.
func (s *ShoppingListService) Reconcile(ctx context.Context, userID string, required map[string]Requirement) ([]*models.ShoppingListItem, error) {
	var result []*models.ShoppingListItem
	changed := false

	err := runWithConflictRetry(ctx, s.retryCount, func(ctx context.Context) error {
		result = result[:0]
		changed = false

		return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			stockRepo := s.repomanager.Stock(tx)
			listRepo := s.repomanager.ShoppingList(tx)

			stockRows, err := stockRepo.ListByUser(ctx, userID)
			if err != nil {
				return err
			}
			available := make(map[string]float64, len(stockRows))
			for _, row := range stockRows {
				available[row.IngredientID] = row.TotalQuantity
			}

			items, err := listRepo.ListUnpurchased(ctx, userID)
			if err != nil {
				return err
			}
			autoItems := make(map[string][]*models.ShoppingListItem)
			for _, item := range items {
				if item.AutoGenerated {
					autoItems[item.IngredientID] = append(autoItems[item.IngredientID], item)
				}
			}

			// Stable order keeps logs and created-row order deterministic.
			ingredientIDs := make([]string, 0, len(required))
			for id := range required {
				ingredientIDs = append(ingredientIDs, id)
			}
			sort.Strings(ingredientIDs)

			for _, ingredientID := range ingredientIDs {
				req := required[ingredientID]

				deficit := req.Quantity - available[ingredientID]
				if deficit < quantityEpsilon {
					deficit = 0
				}

				autos := autoItems[ingredientID]
				delete(autoItems, ingredientID)

				if deficit == 0 {
					for _, item := range autos {
						if err := listRepo.Delete(ctx, item.ID); err != nil {
							return fmt.Errorf("ingredient %s: %w", ingredientID, err)
						}
						changed = true
					}
					continue
				}

				if len(autos) == 0 {
					unit := req.Unit
					if unit == "" {
						unit = units.CanonicalMass
					}
					item := &models.ShoppingListItem{
						ID:            uuid.NewString(),
						UserID:        userID,
						IngredientID:  ingredientID,
						Quantity:      deficit,
						Unit:          unit,
						AutoGenerated: true,
					}
					if _, err := listRepo.Create(ctx, item); err != nil {
						return fmt.Errorf("ingredient %s: %w", ingredientID, err)
					}
					result = append(result, item)
					changed = true
					continue
				}

				// One auto row per ingredient; fold accidental duplicates.
				primary := autos[0]
				if math.Abs(primary.Quantity-deficit) > quantityEpsilon {
					if err := listRepo.UpdateQuantity(ctx, primary.ID, deficit); err != nil {
						return fmt.Errorf("ingredient %s: %w", ingredientID, err)
					}
					primary.Quantity = deficit
					changed = true
				}
				result = append(result, primary)
				for _, extra := range autos[1:] {
					if err := listRepo.Delete(ctx, extra.ID); err != nil {
						return fmt.Errorf("ingredient %s: %w", ingredientID, err)
					}
					changed = true
				}
			}

			// Leftover auto rows belong to ingredients no requirement names.
			for ingredientID, autos := range autoItems {
				for _, item := range autos {
					if err := listRepo.Delete(ctx, item.ID); err != nil {
						return fmt.Errorf("ingredient %s: %w", ingredientID, err)
					}
					changed = true
				}
			}

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if changed {
		if err := s.notifier.ShoppingListUpdated(ctx, userID, len(result)); err != nil {
			s.logger.Error(ctx, "failed to emit shopping list notification", "user_id", userID, "error", err.Error())
		}
	}

	return result, nil
}

// AddManualItem appends a user-authored entry to the list, kept in the
// user's unit of choice. Manual entries are invisible to Reconcile.
func (s *ShoppingListService) AddManualItem(ctx context.Context, userID, ingredientID string, quantity float64, unit string) (*models.ShoppingListItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %v: %w", quantity, common.ErrorValidation)
	}

	if _, err := s.repomanager.Ingredients(s.db).Get(ctx, ingredientID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("unknown ingredient %s: %w", ingredientID, common.ErrorValidation)
		}
		return nil, err
	}

	item := &models.ShoppingListItem{
		ID:            uuid.NewString(),
		UserID:        userID,
		IngredientID:  ingredientID,
		Quantity:      quantity,
		Unit:          unit,
		AutoGenerated: false,
	}
	return s.repomanager.ShoppingList(s.db).Create(ctx, item)
}

// MarkPurchased records shopping intent fulfilled. Stock is credited only by
// a separate, explicit AddStock.
func (s *ShoppingListService) MarkPurchased(ctx context.Context, userID, itemID string) error {
	return s.repomanager.ShoppingList(s.db).MarkPurchased(ctx, itemID, userID)
}

// List returns the user's open shopping list, manual and auto rows alike.
func (s *ShoppingListService) List(ctx context.Context, userID string) ([]*models.ShoppingListItem, error) {
	return s.repomanager.ShoppingList(s.db).ListUnpurchased(ctx, userID)
}

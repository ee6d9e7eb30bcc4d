// Package services contains the server-side business logic of the food
// management core. This file implements LedgerService, which owns per-user
// ingredient stock: additions, consumption, the opened flag, and the
// spoilage lifecycle.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JoaoMarques95/dinners/internal/common"
	"github.com/JoaoMarques95/dinners/internal/dbx"
	"github.com/JoaoMarques95/dinners/internal/server/config"
	"github.com/JoaoMarques95/dinners/internal/server/models"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/repomanager"
	"github.com/JoaoMarques95/dinners/internal/units"
)

// quantityEpsilon absorbs float rounding when checking stock against zero.
const quantityEpsilon = 1e-9

type LedgerService struct {
	db               *sql.DB
	repomanager      repomanager.RepositoryManager
	shelfLife        map[string]time.Duration
	defaultShelfLife time.Duration
	retryCount       uint64
	now              func() time.Time
}

func NewLedgerService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *LedgerService {
	return &LedgerService{
		db:               db,
		repomanager:      m,
		shelfLife:        cfg.ShelfLife,
		defaultShelfLife: cfg.DefaultShelfLife,
		retryCount:       cfg.ConflictRetryCount,
		now:              time.Now,
	}
}

// AddStock normalizes quantity to the ingredient category's canonical unit
// and adds it to the user's stock, creating the stock row on first addition.
// Restocking clears the spoilage flag; restocking an empty row also resets
// the opened state, since the old (possibly spoiled) contents are gone.
func (s *LedgerService) AddStock(ctx context.Context, userID, ingredientID string, quantity float64, unit string) (*models.UserIngredient, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("quantity must be non-negative, got %v: %w", quantity, common.ErrorValidation)
	}

	normalized, _, err := s.normalizeFor(ctx, ingredientID, quantity, unit)
	if err != nil {
		return nil, err
	}

	var result *models.UserIngredient
	err = runWithConflictRetry(ctx, s.retryCount, func(ctx context.Context) error {
		return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := s.repomanager.Stock(tx)

			row, err := repo.Get(ctx, userID, ingredientID)
			if errors.Is(err, common.ErrorNotFound) {
				row = &models.UserIngredient{
					ID:            uuid.NewString(),
					UserID:        userID,
					IngredientID:  ingredientID,
					TotalQuantity: normalized,
				}
				result, err = repo.Create(ctx, row)
				return err
			}
			if err != nil {
				return err
			}

			if row.TotalQuantity <= quantityEpsilon {
				row.Opened = false
				row.OpenedAt = nil
			}
			row.TotalQuantity += normalized
			row.SpoilageFlagged = false

			if err := repo.Update(ctx, row); err != nil {
				return err
			}
			result = row
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Consume normalizes quantity and subtracts it from the user's stock. It
// fails with ErrorInsufficientStock when the result would be negative,
// leaving the row unchanged; callers decide whether to reduce the request
// or abort. Nothing is silently clamped.
func (s *LedgerService) Consume(ctx context.Context, userID, ingredientID string, quantity float64, unit string) (*models.UserIngredient, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("quantity must be non-negative, got %v: %w", quantity, common.ErrorValidation)
	}

	normalized, _, err := s.normalizeFor(ctx, ingredientID, quantity, unit)
	if err != nil {
		return nil, err
	}

	var result *models.UserIngredient
	err = runWithConflictRetry(ctx, s.retryCount, func(ctx context.Context) error {
		return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := s.repomanager.Stock(tx)

			row, err := repo.Get(ctx, userID, ingredientID)
			if errors.Is(err, common.ErrorNotFound) {
				if normalized > quantityEpsilon {
					return fmt.Errorf("no stock of ingredient %s: %w", ingredientID, common.ErrorInsufficientStock)
				}
				result = &models.UserIngredient{UserID: userID, IngredientID: ingredientID}
				return nil
			}
			if err != nil {
				return err
			}

			remaining := row.TotalQuantity - normalized
			if remaining < -quantityEpsilon {
				return fmt.Errorf("requested %v but only %v available: %w",
					normalized, row.TotalQuantity, common.ErrorInsufficientStock)
			}
			if remaining < 0 {
				remaining = 0
			}
			row.TotalQuantity = remaining

			if err := repo.Update(ctx, row); err != nil {
				return err
			}
			result = row
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MarkOpened sets the opened flag and timestamp. Marking an already-opened
// row is a no-op, not an error.
func (s *LedgerService) MarkOpened(ctx context.Context, userID, ingredientID string) (*models.UserIngredient, error) {
	var result *models.UserIngredient
	err := runWithConflictRetry(ctx, s.retryCount, func(ctx context.Context) error {
		return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := s.repomanager.Stock(tx)

			row, err := repo.Get(ctx, userID, ingredientID)
			if err != nil {
				return err
			}
			if row.Opened {
				result = row
				return nil
			}

			openedAt := s.now()
			row.Opened = true
			row.OpenedAt = &openedAt

			if err := repo.Update(ctx, row); err != nil {
				return err
			}
			result = row
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// List returns the user's stock rows.
func (s *LedgerService) List(ctx context.Context, userID string) ([]*models.UserIngredient, error) {
	return s.repomanager.Stock(s.db).ListByUser(ctx, userID)
}

// EvaluateSpoilage decides whether the stock row has spoiled as of now: a
// row spoils once it is opened and now-openedAt exceeds the category's shelf
// life. The decision is monotonic (an already-flagged row stays flagged) and
// the only side effect is persisting the flag. Returns the flag state.
func (s *LedgerService) EvaluateSpoilage(ctx context.Context, userID, ingredientID string, now time.Time) (bool, error) {
	ingredient, err := s.repomanager.Ingredients(s.db).Get(ctx, ingredientID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, fmt.Errorf("unknown ingredient %s: %w", ingredientID, common.ErrorValidation)
		}
		return false, err
	}

	flagged := false
	err = runWithConflictRetry(ctx, s.retryCount, func(ctx context.Context) error {
		return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := s.repomanager.Stock(tx)

			row, err := repo.Get(ctx, userID, ingredientID)
			if err != nil {
				return err
			}
			if row.SpoilageFlagged {
				flagged = true
				return nil
			}

			if !s.spoiledAt(ingredient, row, now) {
				flagged = false
				return nil
			}

			row.SpoilageFlagged = true
			if err := repo.Update(ctx, row); err != nil {
				return err
			}
			flagged = true
			return nil
		})
	})
	if err != nil {
		return false, err
	}
	return flagged, nil
}

// spoiledAt is the pure shelf-life rule. The per-category table wins; for
// unlisted categories the catalog's DefaultSpoils switch decides between the
// configured default shelf life and "non-perishable".
func (s *LedgerService) spoiledAt(ingredient *models.BaseIngredient, row *models.UserIngredient, now time.Time) bool {
	if !row.Opened || row.OpenedAt == nil {
		return false
	}

	threshold, ok := s.shelfLife[ingredient.Category]
	if !ok {
		if !ingredient.DefaultSpoils {
			return false
		}
		threshold = s.defaultShelfLife
	}

	return now.Sub(*row.OpenedAt) > threshold
}

// normalizeFor converts quantity/unit to the canonical unit of the
// ingredient's category. A reference to a nonexistent ingredient is a
// ValidationError, not a crash.
func (s *LedgerService) normalizeFor(ctx context.Context, ingredientID string, quantity float64, unit string) (float64, string, error) {
	ingredient, err := s.repomanager.Ingredients(s.db).Get(ctx, ingredientID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, "", fmt.Errorf("unknown ingredient %s: %w", ingredientID, common.ErrorValidation)
		}
		return 0, "", err
	}
	return units.Normalize(quantity, unit, ingredient.Category)
}

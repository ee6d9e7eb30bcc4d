// Package jobs holds the server's background loops.
package jobs

import (
	"context"
	"database/sql"
	"time"

	"github.com/JoaoMarques95/dinners/internal/logging"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/repomanager"
	"github.com/JoaoMarques95/dinners/internal/server/services"
)

// spoilageEvaluator is what the sweeper needs from LedgerService.
type spoilageEvaluator interface {
	EvaluateSpoilage(ctx context.Context, userID, ingredientID string, now time.Time) (bool, error)
}

// SpoilageSweeper periodically re-evaluates every opened, not-yet-flagged
// stock row against its shelf life and notifies owners of newly flagged
// rows. Sweeping is best-effort: a row that fails evaluation is logged and
// skipped, never blocking the rest of the pass.
type SpoilageSweeper struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	evaluator   spoilageEvaluator
	notifier    services.Notifier
	logger      logging.Logger
	interval    time.Duration
	now         func() time.Time
}

func NewSpoilageSweeper(db *sql.DB, m repomanager.RepositoryManager, evaluator spoilageEvaluator,
	notifier services.Notifier, logger logging.Logger, interval time.Duration) *SpoilageSweeper {
	return &SpoilageSweeper{
		db:          db,
		repomanager: m,
		evaluator:   evaluator,
		notifier:    notifier,
		logger:      logger.With("module", "spoilage_sweeper"),
		interval:    interval,
		now:         time.Now,
	}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (s *SpoilageSweeper) Run(ctx context.Context) {
	s.logger.Info(ctx, "starting spoilage sweeper", "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "stopping spoilage sweeper")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *SpoilageSweeper) sweep(ctx context.Context) {
	rows, err := s.repomanager.Stock(s.db).ListOpenUnflagged(ctx)
	if err != nil {
		s.logger.Error(ctx, "failed to list stock rows", "error", err.Error())
		return
	}

	now := s.now()
	flagged := 0
	for _, row := range rows {
		if ctx.Err() != nil {
			return
		}

		spoiled, err := s.evaluator.EvaluateSpoilage(ctx, row.UserID, row.IngredientID, now)
		if err != nil {
			s.logger.Error(ctx, "failed to evaluate stock row",
				"user_id", row.UserID, "ingredient_id", row.IngredientID, "error", err.Error())
			continue
		}
		if !spoiled {
			continue
		}

		flagged++
		if err := s.notifier.IngredientSpoiling(ctx, row.UserID, row.IngredientID); err != nil {
			s.logger.Error(ctx, "failed to emit spoilage notification",
				"user_id", row.UserID, "ingredient_id", row.IngredientID, "error", err.Error())
		}
	}

	if flagged > 0 {
		s.logger.Info(ctx, "sweep done", "checked", len(rows), "flagged", flagged)
	}
}

package jobs

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoaoMarques95/dinners/internal/dbx"
	"github.com/JoaoMarques95/dinners/internal/logging"
	"github.com/JoaoMarques95/dinners/internal/server/models"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/repomanager"
	stockrepo "github.com/JoaoMarques95/dinners/internal/server/repositories/stock"
)

type fakeStockRepo struct {
	stockrepo.Repository
	rows []*models.UserIngredient
	err  error
}

func (f *fakeStockRepo) ListOpenUnflagged(ctx context.Context) ([]*models.UserIngredient, error) {
	return f.rows, f.err
}

type fakeRepoManager struct {
	repomanager.RepositoryManager
	stock *fakeStockRepo
}

func (m *fakeRepoManager) Stock(db dbx.DBTX) stockrepo.Repository { return m.stock }

type fakeEvaluator struct {
	spoiled map[string]bool
	err     error
	calls   int
}

func (f *fakeEvaluator) EvaluateSpoilage(ctx context.Context, userID, ingredientID string, now time.Time) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.spoiled[userID+"|"+ingredientID], nil
}

type fakeNotifier struct {
	spoiling []string
}

func (f *fakeNotifier) ShoppingListUpdated(ctx context.Context, userID string, itemCount int) error {
	return nil
}

func (f *fakeNotifier) IngredientSpoiling(ctx context.Context, userID, ingredientID string) error {
	f.spoiling = append(f.spoiling, userID+"|"+ingredientID)
	return nil
}

func newSweeperForTest(t *testing.T, stock *fakeStockRepo, evaluator *fakeEvaluator, notifier *fakeNotifier) (*SpoilageSweeper, *sql.DB) {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	m := &fakeRepoManager{stock: stock}
	return NewSpoilageSweeper(db, m, evaluator, notifier, logger, time.Hour), db
}

func TestSweepNotifiesNewlyFlaggedRows(t *testing.T) {
	stock := &fakeStockRepo{rows: []*models.UserIngredient{
		{UserID: "u1", IngredientID: "milk"},
		{UserID: "u1", IngredientID: "rice"},
		{UserID: "u2", IngredientID: "milk"},
	}}
	evaluator := &fakeEvaluator{spoiled: map[string]bool{
		"u1|milk": true,
		"u2|milk": true,
	}}
	notifier := &fakeNotifier{}

	sweeper, db := newSweeperForTest(t, stock, evaluator, notifier)
	defer db.Close()

	sweeper.sweep(context.Background())

	assert.Equal(t, 3, evaluator.calls)
	assert.Equal(t, []string{"u1|milk", "u2|milk"}, notifier.spoiling)
}

func TestSweepSkipsFailingRows(t *testing.T) {
	stock := &fakeStockRepo{rows: []*models.UserIngredient{
		{UserID: "u1", IngredientID: "milk"},
		{UserID: "u1", IngredientID: "rice"},
	}}
	evaluator := &fakeEvaluator{err: errors.New("boom")}
	notifier := &fakeNotifier{}

	sweeper, db := newSweeperForTest(t, stock, evaluator, notifier)
	defer db.Close()

	sweeper.sweep(context.Background())

	assert.Equal(t, 2, evaluator.calls)
	assert.Empty(t, notifier.spoiling)
}

func TestSweepListError(t *testing.T) {
	stock := &fakeStockRepo{err: errors.New("db down")}
	evaluator := &fakeEvaluator{}
	notifier := &fakeNotifier{}

	sweeper, db := newSweeperForTest(t, stock, evaluator, notifier)
	defer db.Close()

	sweeper.sweep(context.Background())
	assert.Zero(t, evaluator.calls)
}

func TestRunStopsOnCancel(t *testing.T) {
	stock := &fakeStockRepo{}
	evaluator := &fakeEvaluator{}
	notifier := &fakeNotifier{}

	sweeper, db := newSweeperForTest(t, stock, evaluator, notifier)
	defer db.Close()
	sweeper.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}

	assert.Zero(t, evaluator.calls)
}

// Package server initializes and runs the application: it opens the
// database, applies migrations, wires the services and starts the HTTP API
// together with the spoilage sweeper, handling graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/JoaoMarques95/dinners/internal/logging"
	"github.com/JoaoMarques95/dinners/internal/server/config"
	apihttp "github.com/JoaoMarques95/dinners/internal/server/http"
	"github.com/JoaoMarques95/dinners/internal/server/jobs"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/repomanager"
	"github.com/JoaoMarques95/dinners/internal/server/services"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler *apihttp.Handler
	sweeper *jobs.SpoilageSweeper
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	notifier := services.NewRepoNotifier(db, m)

	userService := services.NewUserService(db, m)
	ledgerService := services.NewLedgerService(db, m, cfg)
	recipeService := services.NewRecipeService(db, m)
	plannerService := services.NewPlannerService(db, m, recipeService)
	shoppingService := services.NewShoppingListService(db, m, notifier, logger, cfg)
	catalogService := services.NewCatalogService(db, m)
	userRecipeService := services.NewUserRecipeService(db, m, cfg)

	handler := apihttp.NewHandler(logger,
		userService, ledgerService, recipeService, plannerService,
		shoppingService, catalogService, userRecipeService)

	sweeper := jobs.NewSpoilageSweeper(db, m, ledgerService, notifier, logger, cfg.SpoilageSweepInterval)

	return &App{
		config:  cfg,
		logger:  logger,
		db:      db,
		handler: handler,
		sweeper: sweeper,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		server := apihttp.NewServer(app.config.EndpointAddrHTTP,
			app.handler.Routes([]byte(app.config.SecretKey)), app.logger)
		if err := server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.sweeper.Run(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}

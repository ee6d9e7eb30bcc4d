// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/JoaoMarques95/dinners/internal/dbx"
	"github.com/JoaoMarques95/dinners/internal/server/migrations"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/ingredients"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/mealplans"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/notifications"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/recipes"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/shoppinglist"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/stock"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/userrecipes"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/users"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// bound to a DBTX, plus a schema migration hook.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Ingredients(db dbx.DBTX) ingredients.Repository {
	return ingredients.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Stock(db dbx.DBTX) stock.Repository {
	return stock.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Recipes(db dbx.DBTX) recipes.Repository {
	return recipes.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) UserRecipes(db dbx.DBTX) userrecipes.Repository {
	return userrecipes.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) MealPlans(db dbx.DBTX) mealplans.Repository {
	return mealplans.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) ShoppingList(db dbx.DBTX) shoppinglist.Repository {
	return shoppinglist.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Notifications(db dbx.DBTX) notifications.Repository {
	return notifications.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetDialect("pgx")
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}

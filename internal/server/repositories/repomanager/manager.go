package repomanager

import (
	"context"
	"database/sql"

	"github.com/JoaoMarques95/dinners/internal/dbx"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/ingredients"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/mealplans"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/notifications"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/recipes"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/shoppinglist"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/stock"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/userrecipes"
	"github.com/JoaoMarques95/dinners/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Ingredients(db dbx.DBTX) ingredients.Repository
	Stock(db dbx.DBTX) stock.Repository
	Recipes(db dbx.DBTX) recipes.Repository
	UserRecipes(db dbx.DBTX) userrecipes.Repository
	MealPlans(db dbx.DBTX) mealplans.Repository
	ShoppingList(db dbx.DBTX) shoppinglist.Repository
	Notifications(db dbx.DBTX) notifications.Repository
}

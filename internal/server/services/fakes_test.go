package services

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/JoaoMarques95/dinners/internal/common"
	"github.com/JoaoMarques95/dinners/internal/dbx"
	"github.com/JoaoMarques95/dinners/internal/server/models"
	ingredientsrepo "github.com/JoaoMarques95/dinners/internal/server/repositories/ingredients"
	mealplansrepo "github.com/JoaoMarques95/dinners/internal/server/repositories/mealplans"
	notificationsrepo "github.com/JoaoMarques95/dinners/internal/server/repositories/notifications"
	recipesrepo "github.com/JoaoMarques95/dinners/internal/server/repositories/recipes"
	shoppinglistrepo "github.com/JoaoMarques95/dinners/internal/server/repositories/shoppinglist"
	stockrepo "github.com/JoaoMarques95/dinners/internal/server/repositories/stock"
	userrecipesrepo "github.com/JoaoMarques95/dinners/internal/server/repositories/userrecipes"
	usersrepo "github.com/JoaoMarques95/dinners/internal/server/repositories/users"
)

// --- helpers ---

// sqlmockCloser bundles the mock DB handed to a service under test.
type sqlmockCloser struct {
	db   *sql.DB
	mock sqlmock.Sqlmock
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

// --- in-memory fakes implementing the repository interfaces ---

func stockKey(userID, ingredientID string) string { return userID + "|" + ingredientID }

type fakeStockRepo struct {
	rows map[string]*models.UserIngredient
	// conflictsLeft makes the next N updates fail with ErrorConflict,
	// simulating a concurrent writer.
	conflictsLeft int
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{rows: make(map[string]*models.UserIngredient)}
}

func (f *fakeStockRepo) Get(ctx context.Context, userID, ingredientID string) (*models.UserIngredient, error) {
	row, ok := f.rows[stockKey(userID, ingredientID)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	clone := *row
	return &clone, nil
}

func (f *fakeStockRepo) Create(ctx context.Context, row *models.UserIngredient) (*models.UserIngredient, error) {
	row.Version = 1
	row.UpdatedAt = time.Now()
	clone := *row
	f.rows[stockKey(row.UserID, row.IngredientID)] = &clone
	return row, nil
}

func (f *fakeStockRepo) Update(ctx context.Context, row *models.UserIngredient) error {
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		return common.ErrorConflict
	}
	stored, ok := f.rows[stockKey(row.UserID, row.IngredientID)]
	if !ok || stored.Version != row.Version {
		return common.ErrorConflict
	}
	row.Version++
	row.UpdatedAt = time.Now()
	clone := *row
	f.rows[stockKey(row.UserID, row.IngredientID)] = &clone
	return nil
}

func (f *fakeStockRepo) ListByUser(ctx context.Context, userID string) ([]*models.UserIngredient, error) {
	var result []*models.UserIngredient
	for _, row := range f.rows {
		if row.UserID == userID {
			clone := *row
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].IngredientID < result[j].IngredientID })
	return result, nil
}

func (f *fakeStockRepo) ListOpenUnflagged(ctx context.Context) ([]*models.UserIngredient, error) {
	var result []*models.UserIngredient
	for _, row := range f.rows {
		if row.Opened && !row.SpoilageFlagged && row.TotalQuantity > 0 {
			clone := *row
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type fakeIngredientsRepo struct {
	rows map[string]*models.BaseIngredient
}

func newFakeIngredientsRepo(rows ...*models.BaseIngredient) *fakeIngredientsRepo {
	f := &fakeIngredientsRepo{rows: make(map[string]*models.BaseIngredient)}
	for _, row := range rows {
		f.rows[row.ID] = row
	}
	return f
}

func (f *fakeIngredientsRepo) Create(ctx context.Context, ingredient *models.BaseIngredient) (*models.BaseIngredient, error) {
	for _, row := range f.rows {
		sameScope := (row.CreatedBy == nil && ingredient.CreatedBy == nil) ||
			(row.CreatedBy != nil && ingredient.CreatedBy != nil && *row.CreatedBy == *ingredient.CreatedBy)
		if sameScope && row.Name == ingredient.Name {
			return nil, common.ErrorAlreadyExists
		}
	}
	f.rows[ingredient.ID] = ingredient
	return ingredient, nil
}

func (f *fakeIngredientsRepo) Get(ctx context.Context, id string) (*models.BaseIngredient, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return row, nil
}

func (f *fakeIngredientsRepo) Update(ctx context.Context, ingredient *models.BaseIngredient) error {
	if _, ok := f.rows[ingredient.ID]; !ok {
		return common.ErrorNotFound
	}
	f.rows[ingredient.ID] = ingredient
	return nil
}

func (f *fakeIngredientsRepo) ListVisible(ctx context.Context, userID string) ([]*models.BaseIngredient, error) {
	var result []*models.BaseIngredient
	for _, row := range f.rows {
		if row.CreatedBy == nil || *row.CreatedBy == userID {
			result = append(result, row)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type fakeRecipesRepo struct {
	recipes      map[string]*models.BaseRecipe
	requirements map[string][]recipesrepo.Requirement
}

func newFakeRecipesRepo() *fakeRecipesRepo {
	return &fakeRecipesRepo{
		recipes:      make(map[string]*models.BaseRecipe),
		requirements: make(map[string][]recipesrepo.Requirement),
	}
}

func (f *fakeRecipesRepo) Create(ctx context.Context, recipe *models.BaseRecipe, lines []*models.RecipeIngredient) (*models.BaseRecipe, error) {
	f.recipes[recipe.ID] = recipe
	return recipe, nil
}

func (f *fakeRecipesRepo) Get(ctx context.Context, id string) (*models.BaseRecipe, error) {
	recipe, ok := f.recipes[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return recipe, nil
}

func (f *fakeRecipesRepo) Update(ctx context.Context, recipe *models.BaseRecipe) error {
	if _, ok := f.recipes[recipe.ID]; !ok {
		return common.ErrorNotFound
	}
	f.recipes[recipe.ID] = recipe
	return nil
}

func (f *fakeRecipesRepo) ListRequirements(ctx context.Context, recipeID string) ([]recipesrepo.Requirement, error) {
	return f.requirements[recipeID], nil
}

type fakeMealPlansRepo struct {
	plans []*models.MealPlan
}

func (f *fakeMealPlansRepo) Create(ctx context.Context, plan *models.MealPlan) (*models.MealPlan, error) {
	f.plans = append(f.plans, plan)
	return plan, nil
}

func (f *fakeMealPlansRepo) Get(ctx context.Context, id string) (*models.MealPlan, error) {
	for _, plan := range f.plans {
		if plan.ID == id {
			return plan, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeMealPlansRepo) Complete(ctx context.Context, id, userID string, completedAt time.Time) error {
	for _, plan := range f.plans {
		if plan.ID == id && plan.UserID == userID {
			if plan.CompletedAt == nil {
				plan.CompletedAt = &completedAt
			}
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeMealPlansRepo) ListScheduled(ctx context.Context, userID string, from, to time.Time) ([]*models.MealPlan, error) {
	var result []*models.MealPlan
	for _, plan := range f.plans {
		if plan.UserID != userID || plan.CompletedAt != nil {
			continue
		}
		if plan.ScheduledFor.Before(from) || plan.ScheduledFor.After(to) {
			continue
		}
		result = append(result, plan)
	}
	return result, nil
}

type fakeShoppingListRepo struct {
	items map[string]*models.ShoppingListItem
}

func newFakeShoppingListRepo() *fakeShoppingListRepo {
	return &fakeShoppingListRepo{items: make(map[string]*models.ShoppingListItem)}
}

func (f *fakeShoppingListRepo) Create(ctx context.Context, item *models.ShoppingListItem) (*models.ShoppingListItem, error) {
	item.AddedAt = time.Now()
	clone := *item
	f.items[item.ID] = &clone
	return item, nil
}

func (f *fakeShoppingListRepo) ListUnpurchased(ctx context.Context, userID string) ([]*models.ShoppingListItem, error) {
	var result []*models.ShoppingListItem
	for _, item := range f.items {
		if item.UserID == userID && !item.Purchased {
			clone := *item
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakeShoppingListRepo) UpdateQuantity(ctx context.Context, id string, quantity float64) error {
	item, ok := f.items[id]
	if !ok {
		return common.ErrorNotFound
	}
	item.Quantity = quantity
	return nil
}

func (f *fakeShoppingListRepo) Delete(ctx context.Context, id string) error {
	delete(f.items, id)
	return nil
}

func (f *fakeShoppingListRepo) MarkPurchased(ctx context.Context, id, userID string) error {
	item, ok := f.items[id]
	if !ok || item.UserID != userID {
		return common.ErrorNotFound
	}
	item.Purchased = true
	return nil
}

type fakeUsersRepo struct {
	rows map[string]*models.User
}

func newFakeUsersRepo(rows ...*models.User) *fakeUsersRepo {
	f := &fakeUsersRepo{rows: make(map[string]*models.User)}
	for _, row := range rows {
		f.rows[row.ID] = row
	}
	return f
}

func (f *fakeUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	for _, row := range f.rows {
		if row.Email == user.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	f.rows[user.ID] = user
	return user, nil
}

func (f *fakeUsersRepo) Get(ctx context.Context, id string) (*models.User, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return row, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, row := range f.rows {
		if row.Email == email {
			return row, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeUserRecipesRepo struct {
	rows map[string]*models.UserRecipe
}

func newFakeUserRecipesRepo() *fakeUserRecipesRepo {
	return &fakeUserRecipesRepo{rows: make(map[string]*models.UserRecipe)}
}

func (f *fakeUserRecipesRepo) Get(ctx context.Context, userID, recipeID string) (*models.UserRecipe, error) {
	row, ok := f.rows[userID+"|"+recipeID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return row, nil
}

func (f *fakeUserRecipesRepo) Upsert(ctx context.Context, row *models.UserRecipe) error {
	key := row.UserID + "|" + row.RecipeID
	if existing, ok := f.rows[key]; ok {
		existing.Notes = row.Notes
		existing.Rating = row.Rating
		return nil
	}
	clone := *row
	f.rows[key] = &clone
	return nil
}

func (f *fakeUserRecipesRepo) SetPhotoKey(ctx context.Context, userID, recipeID, photoKey string) error {
	key := userID + "|" + recipeID
	if existing, ok := f.rows[key]; ok {
		existing.PhotoKey = photoKey
		return nil
	}
	f.rows[key] = &models.UserRecipe{UserID: userID, RecipeID: recipeID, PhotoKey: photoKey}
	return nil
}

type fakeNotificationsRepo struct {
	created []*models.Notification
}

func (f *fakeNotificationsRepo) Create(ctx context.Context, notification *models.Notification) error {
	f.created = append(f.created, notification)
	return nil
}

type fakeNotifier struct {
	listUpdates []int
	spoiling    []string
}

func (f *fakeNotifier) ShoppingListUpdated(ctx context.Context, userID string, itemCount int) error {
	f.listUpdates = append(f.listUpdates, itemCount)
	return nil
}

func (f *fakeNotifier) IngredientSpoiling(ctx context.Context, userID, ingredientID string) error {
	f.spoiling = append(f.spoiling, ingredientID)
	return nil
}

// fakeRepoManager hands out the fakes above regardless of the DBTX, which is
// enough because the fakes keep state in memory rather than the database.
type fakeRepoManager struct {
	users         *fakeUsersRepo
	ingredients   *fakeIngredientsRepo
	stock         *fakeStockRepo
	recipes       *fakeRecipesRepo
	userRecipes   *fakeUserRecipesRepo
	mealPlans     *fakeMealPlansRepo
	shoppingList  *fakeShoppingListRepo
	notifications *fakeNotificationsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:         newFakeUsersRepo(),
		ingredients:   newFakeIngredientsRepo(),
		stock:         newFakeStockRepo(),
		recipes:       newFakeRecipesRepo(),
		userRecipes:   newFakeUserRecipesRepo(),
		mealPlans:     &fakeMealPlansRepo{},
		shoppingList:  newFakeShoppingListRepo(),
		notifications: &fakeNotificationsRepo{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository             { return m.users }
func (m *fakeRepoManager) Ingredients(db dbx.DBTX) ingredientsrepo.Repository { return m.ingredients }
func (m *fakeRepoManager) Stock(db dbx.DBTX) stockrepo.Repository             { return m.stock }
func (m *fakeRepoManager) Recipes(db dbx.DBTX) recipesrepo.Repository         { return m.recipes }
func (m *fakeRepoManager) UserRecipes(db dbx.DBTX) userrecipesrepo.Repository { return m.userRecipes }
func (m *fakeRepoManager) MealPlans(db dbx.DBTX) mealplansrepo.Repository     { return m.mealPlans }
func (m *fakeRepoManager) ShoppingList(db dbx.DBTX) shoppinglistrepo.Repository {
	return m.shoppingList
}
func (m *fakeRepoManager) Notifications(db dbx.DBTX) notificationsrepo.Repository {
	return m.notifications
}

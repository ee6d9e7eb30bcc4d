package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/JoaoMarques95/dinners/internal/common"
	"github.com/JoaoMarques95/dinners/internal/logging"
	"github.com/JoaoMarques95/dinners/internal/server/models"
	"github.com/JoaoMarques95/dinners/internal/server/services"
)

// The handler depends on narrow service interfaces so transport tests can
// fake the business layer.
type userSvc interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
}

type ledgerSvc interface {
	AddStock(ctx context.Context, userID, ingredientID string, quantity float64, unit string) (*models.UserIngredient, error)
	Consume(ctx context.Context, userID, ingredientID string, quantity float64, unit string) (*models.UserIngredient, error)
	MarkOpened(ctx context.Context, userID, ingredientID string) (*models.UserIngredient, error)
	List(ctx context.Context, userID string) ([]*models.UserIngredient, error)
}

type recipeSvc interface {
	Resolve(ctx context.Context, recipeID string, targetServings float64) ([]services.Requirement, error)
}

type plannerSvc interface {
	Schedule(ctx context.Context, plan *models.MealPlan) (*models.MealPlan, error)
	Complete(ctx context.Context, planID, userID string) error
	Aggregate(ctx context.Context, userID string, from, to time.Time) (map[string]services.Requirement, error)
}

type shoppingSvc interface {
	Reconcile(ctx context.Context, userID string, required map[string]services.Requirement) ([]*models.ShoppingListItem, error)
	AddManualItem(ctx context.Context, userID, ingredientID string, quantity float64, unit string) (*models.ShoppingListItem, error)
	MarkPurchased(ctx context.Context, userID, itemID string) error
	List(ctx context.Context, userID string) ([]*models.ShoppingListItem, error)
}

type catalogSvc interface {
	CreateIngredient(ctx context.Context, userID, name, category string, defaultSpoils, global bool) (*models.BaseIngredient, error)
	UpdateIngredient(ctx context.Context, userID string, ingredient *models.BaseIngredient) error
	ListIngredients(ctx context.Context, userID string) ([]*models.BaseIngredient, error)
	CreateRecipe(ctx context.Context, userID string, recipe *models.BaseRecipe, lines []*models.RecipeIngredient, global bool) (*models.BaseRecipe, error)
	UpdateRecipe(ctx context.Context, userID string, recipe *models.BaseRecipe) error
}

type userRecipeSvc interface {
	Annotate(ctx context.Context, userID, recipeID, notes string, rating *int) error
	PhotoUploadURL(ctx context.Context, userID, recipeID string) (string, string, error)
	PhotoDownloadURL(ctx context.Context, userID, recipeID string) (string, error)
}

// Handler routes API requests to the services.
type Handler struct {
	logger      logging.Logger
	users       userSvc
	ledger      ledgerSvc
	recipes     recipeSvc
	planner     plannerSvc
	shopping    shoppingSvc
	catalog     catalogSvc
	userRecipes userRecipeSvc
}

func NewHandler(logger logging.Logger,
	users userSvc,
	ledger ledgerSvc,
	recipes recipeSvc,
	planner plannerSvc,
	shopping shoppingSvc,
	catalog catalogSvc,
	userRecipes userRecipeSvc,
) *Handler {
	return &Handler{
		logger:      logger.With("module", "http_handler"),
		users:       users,
		ledger:      ledger,
		recipes:     recipes,
		planner:     planner,
		shopping:    shopping,
		catalog:     catalog,
		userRecipes: userRecipes,
	}
}

// Routes assembles the full API surface. Everything except registration
// requires a bearer token.
func (h *Handler) Routes(secretKey []byte) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/users/register", h.registerUser)

	authed := http.NewServeMux()
	authed.HandleFunc("GET /api/stock", h.listStock)
	authed.HandleFunc("POST /api/stock/add", h.addStock)
	authed.HandleFunc("POST /api/stock/consume", h.consumeStock)
	authed.HandleFunc("POST /api/stock/open", h.openStock)

	authed.HandleFunc("GET /api/ingredients", h.listIngredients)
	authed.HandleFunc("POST /api/ingredients", h.createIngredient)
	authed.HandleFunc("PUT /api/ingredients/{id}", h.updateIngredient)

	authed.HandleFunc("POST /api/recipes", h.createRecipe)
	authed.HandleFunc("PUT /api/recipes/{id}", h.updateRecipe)
	authed.HandleFunc("GET /api/recipes/{id}/requirements", h.resolveRecipe)
	authed.HandleFunc("PUT /api/recipes/{id}/annotation", h.annotateRecipe)
	authed.HandleFunc("POST /api/recipes/{id}/photo-upload-url", h.photoUploadURL)
	authed.HandleFunc("GET /api/recipes/{id}/photo-url", h.photoDownloadURL)

	authed.HandleFunc("POST /api/meal-plans", h.scheduleMealPlan)
	authed.HandleFunc("POST /api/meal-plans/{id}/complete", h.completeMealPlan)
	authed.HandleFunc("GET /api/requirements", h.aggregateRequirements)

	authed.HandleFunc("GET /api/shopping-list", h.listShoppingList)
	authed.HandleFunc("POST /api/shopping-list/reconcile", h.reconcileShoppingList)
	authed.HandleFunc("POST /api/shopping-list/items", h.addManualItem)
	authed.HandleFunc("POST /api/shopping-list/items/{id}/purchase", h.purchaseItem)

	mux.Handle("/api/", authMiddleware(secretKey, authed))

	return loggingMiddleware(h.logger, mux)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error(context.Background(), "failed to encode response", "error", err.Error())
	}
}

// writeError maps the error taxonomy onto HTTP statuses. Internal errors are
// logged but never echoed to the client.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, common.ErrInvalidToken):
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
	case errors.Is(err, common.ErrorForbidden):
		h.writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, common.ErrorNotFound):
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, common.ErrorAlreadyExists), errors.Is(err, common.ErrorConflict):
		h.writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, common.ErrorUnitMismatch), errors.Is(err, common.ErrorInsufficientStock):
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		h.logger.Error(r.Context(), "internal error", "path", r.URL.Path, "error", err.Error())
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return false
	}
	return true
}

func parseFloatParam(value string) (float64, error) {
	return strconv.ParseFloat(value, 64)
}

// parseTimeParam accepts RFC 3339 timestamps or bare dates.
func parseTimeParam(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

func (h *Handler) parseWindow(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	from, err := parseTimeParam(r.URL.Query().Get("from"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid from"})
		return time.Time{}, time.Time{}, false
	}
	to, err := parseTimeParam(r.URL.Query().Get("to"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid to"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// --- users ---

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) registerUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"id": user.ID, "email": user.Email})
}

// --- stock ---

type stockRequest struct {
	IngredientID string  `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
}

type stockResponse struct {
	IngredientID    string     `json:"ingredient_id"`
	TotalQuantity   float64    `json:"total_quantity"`
	Opened          bool       `json:"opened"`
	OpenedAt        *time.Time `json:"opened_at,omitempty"`
	SpoilageFlagged bool       `json:"spoilage_flagged"`
}

func toStockResponse(row *models.UserIngredient) stockResponse {
	return stockResponse{
		IngredientID:    row.IngredientID,
		TotalQuantity:   row.TotalQuantity,
		Opened:          row.Opened,
		OpenedAt:        row.OpenedAt,
		SpoilageFlagged: row.SpoilageFlagged,
	}
}

func (h *Handler) listStock(w http.ResponseWriter, r *http.Request) {
	rows, err := h.ledger.List(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result := make([]stockResponse, 0, len(rows))
	for _, row := range rows {
		result = append(result, toStockResponse(row))
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) addStock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if !h.decode(w, r, &req) {
		return
	}

	row, err := h.ledger.AddStock(r.Context(), userIDFromContext(r.Context()), req.IngredientID, req.Quantity, req.Unit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toStockResponse(row))
}

func (h *Handler) consumeStock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if !h.decode(w, r, &req) {
		return
	}

	row, err := h.ledger.Consume(r.Context(), userIDFromContext(r.Context()), req.IngredientID, req.Quantity, req.Unit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toStockResponse(row))
}

func (h *Handler) openStock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if !h.decode(w, r, &req) {
		return
	}

	row, err := h.ledger.MarkOpened(r.Context(), userIDFromContext(r.Context()), req.IngredientID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toStockResponse(row))
}

// --- ingredients ---

type ingredientRequest struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	DefaultSpoils bool   `json:"default_spoils"`
	Global        bool   `json:"global"`
}

type ingredientResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	DefaultSpoils bool   `json:"default_spoils"`
	Global        bool   `json:"global"`
}

func toIngredientResponse(row *models.BaseIngredient) ingredientResponse {
	return ingredientResponse{
		ID:            row.ID,
		Name:          row.Name,
		Category:      row.Category,
		DefaultSpoils: row.DefaultSpoils,
		Global:        row.CreatedBy == nil,
	}
}

func (h *Handler) listIngredients(w http.ResponseWriter, r *http.Request) {
	rows, err := h.catalog.ListIngredients(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result := make([]ingredientResponse, 0, len(rows))
	for _, row := range rows {
		result = append(result, toIngredientResponse(row))
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) createIngredient(w http.ResponseWriter, r *http.Request) {
	var req ingredientRequest
	if !h.decode(w, r, &req) {
		return
	}

	row, err := h.catalog.CreateIngredient(r.Context(), userIDFromContext(r.Context()),
		req.Name, req.Category, req.DefaultSpoils, req.Global)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toIngredientResponse(row))
}

func (h *Handler) updateIngredient(w http.ResponseWriter, r *http.Request) {
	var req ingredientRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.catalog.UpdateIngredient(r.Context(), userIDFromContext(r.Context()), &models.BaseIngredient{
		ID:            r.PathValue("id"),
		Name:          req.Name,
		Category:      req.Category,
		DefaultSpoils: req.DefaultSpoils,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- recipes ---

type recipeLineRequest struct {
	IngredientID string  `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
}

type recipeRequest struct {
	Name            string              `json:"name"`
	DefaultServings float64             `json:"default_servings"`
	PrepTime        int                 `json:"prep_time"`
	PrepTimeUnit    string              `json:"prep_time_unit"`
	Steps           string              `json:"steps"`
	Global          bool                `json:"global"`
	Ingredients     []recipeLineRequest `json:"ingredients"`
}

func (h *Handler) createRecipe(w http.ResponseWriter, r *http.Request) {
	var req recipeRequest
	if !h.decode(w, r, &req) {
		return
	}

	recipe := &models.BaseRecipe{
		Name:            req.Name,
		DefaultServings: req.DefaultServings,
		PrepTime:        req.PrepTime,
		PrepTimeUnit:    req.PrepTimeUnit,
		Steps:           req.Steps,
	}
	lines := make([]*models.RecipeIngredient, 0, len(req.Ingredients))
	for _, line := range req.Ingredients {
		lines = append(lines, &models.RecipeIngredient{
			IngredientID: line.IngredientID,
			Quantity:     line.Quantity,
			Unit:         line.Unit,
		})
	}

	created, err := h.catalog.CreateRecipe(r.Context(), userIDFromContext(r.Context()), recipe, lines, req.Global)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"id": created.ID})
}

func (h *Handler) updateRecipe(w http.ResponseWriter, r *http.Request) {
	var req recipeRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.catalog.UpdateRecipe(r.Context(), userIDFromContext(r.Context()), &models.BaseRecipe{
		ID:              r.PathValue("id"),
		Name:            req.Name,
		DefaultServings: req.DefaultServings,
		PrepTime:        req.PrepTime,
		PrepTimeUnit:    req.PrepTimeUnit,
		Steps:           req.Steps,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type requirementResponse struct {
	IngredientID string  `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
}

func (h *Handler) resolveRecipe(w http.ResponseWriter, r *http.Request) {
	servings, err := parseFloatParam(r.URL.Query().Get("servings"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid servings"})
		return
	}

	reqs, err := h.recipes.Resolve(r.Context(), r.PathValue("id"), servings)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result := make([]requirementResponse, 0, len(reqs))
	for _, req := range reqs {
		result = append(result, requirementResponse(req))
	}
	h.writeJSON(w, http.StatusOK, result)
}

type annotationRequest struct {
	Notes  string `json:"notes"`
	Rating *int   `json:"rating"`
}

func (h *Handler) annotateRecipe(w http.ResponseWriter, r *http.Request) {
	var req annotationRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.userRecipes.Annotate(r.Context(), userIDFromContext(r.Context()), r.PathValue("id"), req.Notes, req.Rating)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) photoUploadURL(w http.ResponseWriter, r *http.Request) {
	key, url, err := h.userRecipes.PhotoUploadURL(r.Context(), userIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"key": key, "url": url})
}

func (h *Handler) photoDownloadURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.userRecipes.PhotoDownloadURL(r.Context(), userIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// --- meal plans ---

type mealPlanRequest struct {
	RecipeID     string  `json:"recipe_id"`
	ScheduledFor string  `json:"scheduled_for"`
	MealType     string  `json:"meal_type"`
	Servings     float64 `json:"servings"`
	Notes        string  `json:"notes"`
}

func (h *Handler) scheduleMealPlan(w http.ResponseWriter, r *http.Request) {
	var req mealPlanRequest
	if !h.decode(w, r, &req) {
		return
	}

	scheduledFor, err := parseTimeParam(req.ScheduledFor)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid scheduled_for"})
		return
	}

	plan, err := h.planner.Schedule(r.Context(), &models.MealPlan{
		UserID:       userIDFromContext(r.Context()),
		RecipeID:     req.RecipeID,
		ScheduledFor: scheduledFor,
		MealType:     req.MealType,
		Servings:     req.Servings,
		Notes:        req.Notes,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"id": plan.ID})
}

func (h *Handler) completeMealPlan(w http.ResponseWriter, r *http.Request) {
	err := h.planner.Complete(r.Context(), r.PathValue("id"), userIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) aggregateRequirements(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseWindow(w, r)
	if !ok {
		return
	}

	required, err := h.planner.Aggregate(r.Context(), userIDFromContext(r.Context()), from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result := make([]requirementResponse, 0, len(required))
	for _, req := range required {
		result = append(result, requirementResponse(req))
	}
	h.writeJSON(w, http.StatusOK, result)
}

// --- shopping list ---

type shoppingItemResponse struct {
	ID            string  `json:"id"`
	IngredientID  string  `json:"ingredient_id"`
	Quantity      float64 `json:"quantity"`
	Unit          string  `json:"unit"`
	AutoGenerated bool    `json:"auto_generated"`
}

func toShoppingItemResponse(item *models.ShoppingListItem) shoppingItemResponse {
	return shoppingItemResponse{
		ID:            item.ID,
		IngredientID:  item.IngredientID,
		Quantity:      item.Quantity,
		Unit:          item.Unit,
		AutoGenerated: item.AutoGenerated,
	}
}

func (h *Handler) listShoppingList(w http.ResponseWriter, r *http.Request) {
	items, err := h.shopping.List(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result := make([]shoppingItemResponse, 0, len(items))
	for _, item := range items {
		result = append(result, toShoppingItemResponse(item))
	}
	h.writeJSON(w, http.StatusOK, result)
}

// reconcileShoppingList aggregates the requirements of the window and
// rewrites the auto-generated part of the list to match.
func (h *Handler) reconcileShoppingList(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseWindow(w, r)
	if !ok {
		return
	}
	userID := userIDFromContext(r.Context())

	required, err := h.planner.Aggregate(r.Context(), userID, from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items, err := h.shopping.Reconcile(r.Context(), userID, required)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result := make([]shoppingItemResponse, 0, len(items))
	for _, item := range items {
		result = append(result, toShoppingItemResponse(item))
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) addManualItem(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if !h.decode(w, r, &req) {
		return
	}

	item, err := h.shopping.AddManualItem(r.Context(), userIDFromContext(r.Context()), req.IngredientID, req.Quantity, req.Unit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toShoppingItemResponse(item))
}

func (h *Handler) purchaseItem(w http.ResponseWriter, r *http.Request) {
	err := h.shopping.MarkPurchased(r.Context(), userIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

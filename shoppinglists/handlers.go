package shoppinglists

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
	"github.com/akshayUniverse/cook-ease-sub001/auth"
)

// Handlers serves /shopping-lists. Every route requires a token.
type Handlers struct {
	service Service
}

// NewHandlers creates shopping-list Handlers.
func NewHandlers(service Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts /shopping-lists behind the JWT middleware.
func (h *Handlers) RegisterRoutes(r chi.Router, tokens *auth.TokenIssuer) {
	r.Route("/shopping-lists", func(r chi.Router) {
		r.Use(auth.JWTMiddleware(tokens))
		r.Get("/", h.handleLists)
		r.Post("/", h.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleRename)
			r.Delete("/", h.handleDelete)
			r.Post("/items", h.handleAddItem)
			r.Delete("/items", h.handleClearChecked)
			r.Patch("/items/{itemID}", h.handleUpdateItem)
			r.Delete("/items/{itemID}", h.handleDeleteItem)
			r.Post("/recipes/{recipeID}", h.handleAddRecipe)
		})
	})
}

// listParams reads the caller and the {id} parameter.
func listParams(w http.ResponseWriter, r *http.Request) (ownerID, listID int, ok bool) {
	ownerID, ok = auth.RequireUserID(w, r)
	if !ok {
		return 0, 0, false
	}
	listID, err := auth.URLParamInt(r, "id")
	if err != nil {
		auth.WriteError(w, r, err)
		return 0, 0, false
	}
	return ownerID, listID, true
}

// handleLists godoc
// @Summary The caller's shopping lists
// @Description Newest first, with item counts.
// @Tags shopping-lists
// @Produce json
// @Security BearerAuth
// @Success 200 {array} Summary
// @Failure 401 {object} apperror.ErrorResponse
// @Router /api/v1/shopping-lists [get]
func (h *Handlers) handleLists(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.RequireUserID(w, r)
	if !ok {
		return
	}
	lists, err := h.service.Lists(r.Context(), ownerID)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, lists)
}

// handleCreate godoc
// @Summary Create a shopping list
// @Tags shopping-lists
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param list body ListRequest true "List"
// @Success 201 {object} List
// @Failure 400 {object} apperror.ErrorResponse
// @Router /api/v1/shopping-lists [post]
func (h *Handlers) handleCreate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.RequireUserID(w, r)
	if !ok {
		return
	}
	var req ListRequest
	if err := auth.DecodeJSON(w, r, &req); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	list, err := h.service.Create(r.Context(), ownerID, req.Name)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusCreated, list)
}

// handleGet godoc
// @Summary A shopping list with its items
// @Tags shopping-lists
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Success 200 {object} List
// @Failure 403 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/v1/shopping-lists/{id} [get]
func (h *Handlers) handleGet(w http.ResponseWriter, r *http.Request) {
	ownerID, listID, ok := listParams(w, r)
	if !ok {
		return
	}
	list, err := h.service.Get(r.Context(), ownerID, listID)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, list)
}

// handleRename godoc
// @Summary Rename a shopping list
// @Tags shopping-lists
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Param list body ListRequest true "New name"
// @Success 200 {object} List
// @Failure 403 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/v1/shopping-lists/{id} [put]
func (h *Handlers) handleRename(w http.ResponseWriter, r *http.Request) {
	ownerID, listID, ok := listParams(w, r)
	if !ok {
		return
	}
	var req ListRequest
	if err := auth.DecodeJSON(w, r, &req); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	list, err := h.service.Rename(r.Context(), ownerID, listID, req.Name)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, list)
}

// handleDelete godoc
// @Summary Delete a shopping list
// @Tags shopping-lists
// @Security BearerAuth
// @Param id path int true "List ID"
// @Success 204
// @Failure 403 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/v1/shopping-lists/{id} [delete]
func (h *Handlers) handleDelete(w http.ResponseWriter, r *http.Request) {
	ownerID, listID, ok := listParams(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), ownerID, listID); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusNoContent, nil)
}

// handleAddItem godoc
// @Summary Add an item
// @Tags shopping-lists
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Param item body AddItemRequest true "Item"
// @Success 201 {object} Item
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 403 {object} apperror.ErrorResponse
// @Router /api/v1/shopping-lists/{id}/items [post]
func (h *Handlers) handleAddItem(w http.ResponseWriter, r *http.Request) {
	ownerID, listID, ok := listParams(w, r)
	if !ok {
		return
	}
	var req AddItemRequest
	if err := auth.DecodeJSON(w, r, &req); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	item, err := h.service.AddItem(r.Context(), ownerID, listID, req)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusCreated, item)
}

// handleUpdateItem godoc
// @Summary Update an item
// @Description Check it off, rename it or change its quantity.
// @Tags shopping-lists
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Param itemID path int true "Item ID"
// @Param item body UpdateItemRequest true "Fields to change"
// @Success 200 {object} Item
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/v1/shopping-lists/{id}/items/{itemID} [patch]
func (h *Handlers) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	ownerID, listID, ok := listParams(w, r)
	if !ok {
		return
	}
	itemID, err := auth.URLParamInt(r, "itemID")
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	var req UpdateItemRequest
	if err := auth.DecodeJSON(w, r, &req); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	if req.isEmpty() {
		auth.WriteError(w, r, apperror.NewBadRequestError("no fields provided for update", nil))
		return
	}
	item, err := h.service.UpdateItem(r.Context(), ownerID, listID, itemID, req)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, item)
}

// handleDeleteItem godoc
// @Summary Remove an item
// @Tags shopping-lists
// @Security BearerAuth
// @Param id path int true "List ID"
// @Param itemID path int true "Item ID"
// @Success 204
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/v1/shopping-lists/{id}/items/{itemID} [delete]
func (h *Handlers) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	ownerID, listID, ok := listParams(w, r)
	if !ok {
		return
	}
	itemID, err := auth.URLParamInt(r, "itemID")
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	if err := h.service.DeleteItem(r.Context(), ownerID, listID, itemID); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusNoContent, nil)
}

// handleClearChecked godoc
// @Summary Remove all checked items
// @Tags shopping-lists
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Param checked query bool true "Must be true"
// @Success 200 {object} ClearResponse
// @Failure 400 {object} apperror.ErrorResponse
// @Router /api/v1/shopping-lists/{id}/items [delete]
func (h *Handlers) handleClearChecked(w http.ResponseWriter, r *http.Request) {
	ownerID, listID, ok := listParams(w, r)
	if !ok {
		return
	}
	// Deleting every item is not offered; the filter is mandatory.
	if r.URL.Query().Get("checked") != "true" {
		auth.WriteError(w, r, apperror.NewBadRequestError("only checked=true is supported", nil))
		return
	}
	removed, err := h.service.ClearChecked(r.Context(), ownerID, listID)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, ClearResponse{Removed: removed})
}

// handleAddRecipe godoc
// @Summary Copy a recipe's ingredients onto the list
// @Description Quantities are scaled to the requested servings and merged into unchecked items with the same name and unit.
// @Tags shopping-lists
// @Produce json
// @Security BearerAuth
// @Param id path int true "List ID"
// @Param recipeID path int true "Recipe ID"
// @Param servings query int false "Servings, 1..100; absent or 0 uses the recipe's own"
// @Success 200 {object} AddRecipeResponse
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 403 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/v1/shopping-lists/{id}/recipes/{recipeID} [post]
func (h *Handlers) handleAddRecipe(w http.ResponseWriter, r *http.Request) {
	ownerID, listID, ok := listParams(w, r)
	if !ok {
		return
	}
	recipeID, err := auth.URLParamInt(r, "recipeID")
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	servings, err := auth.QueryInt(r, "servings", 0)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	if servings < 0 || servings > 100 {
		auth.WriteError(w, r, apperror.NewBadRequestError("servings must be between 0 and 100", nil))
		return
	}
	resp, err := h.service.AddRecipe(r.Context(), ownerID, listID, recipeID, servings)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, resp)
}

package recipes

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
	"github.com/akshayUniverse/cook-ease-sub001/auth"
	"github.com/akshayUniverse/cook-ease-sub001/pagination"
)

// Trending limits.
const (
	defaultTrendingLimit = 10
	maxTrendingLimit     = TrendingSize
)

// Handlers serves /recipes.
type Handlers struct {
	service Service
}

// NewHandlers creates recipe Handlers.
func NewHandlers(service Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts /recipes. Read endpoints accept an optional token so
// the detail page can report is_liked/is_saved; writes require one.
func (h *Handlers) RegisterRoutes(r chi.Router, tokens *auth.TokenIssuer) {
	r.Route("/recipes", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalJWTMiddleware(tokens))
			r.Get("/", h.handleSearch)
			r.Get("/trending", h.handleTrending)
			r.Get("/{id}", h.handleGet)
			r.Get("/{id}/reviews", h.handleListReviews)
		})
		r.Group(func(r chi.Router) {
			r.Use(auth.JWTMiddleware(tokens))
			r.Get("/recommended", h.handleRecommended)
			r.Get("/saved", h.handleSaved)
			r.Post("/", h.handleCreate)
			r.Put("/{id}", h.handleUpdate)
			r.Delete("/{id}", h.handleDelete)
			r.Post("/{id}/like", h.handleLike)
			r.Delete("/{id}/like", h.handleUnlike)
			r.Post("/{id}/save", h.handleSave)
			r.Delete("/{id}/save", h.handleUnsave)
			r.Post("/{id}/reviews", h.handleUpsertReview)
			r.Post("/{id}/image", h.handleUploadImage)
		})
	})
}

// handleSearch godoc
// @Summary Search recipes
// @Tags recipes
// @Produce json
// @Param q query string false "Text in title or description"
// @Param cuisine query string false "Cuisine"
// @Param difficulty query string false "easy, medium or hard"
// @Param tag query string false "Tag"
// @Param diet query string false "Diet tag"
// @Param max_minutes query int false "Maximum prep plus cook minutes"
// @Param author_id query int false "Author id"
// @Param sort query string false "newest, popular, rating or quickest"
// @Param page query int false "Page, from 1"
// @Param per_page query int false "Page size, 1..100"
// @Success 200 {object} SearchResponse
// @Failure 400 {object} apperror.ErrorResponse
// @Router /api/v1/recipes [get]
func (h *Handlers) handleSearch(w http.ResponseWriter, r *http.Request) {
	params, err := ParseSearchParams(r)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	resp, err := h.service.Search(r.Context(), params)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, resp)
}

// handleTrending godoc
// @Summary Trending recipes
// @Tags recipes
// @Produce json
// @Param limit query int false "1..20, default 10"
// @Success 200 {array} Summary
// @Failure 400 {object} apperror.ErrorResponse
// @Router /api/v1/recipes/trending [get]
func (h *Handlers) handleTrending(w http.ResponseWriter, r *http.Request) {
	limit, err := auth.QueryInt(r, "limit", defaultTrendingLimit)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	if limit < 1 || limit > maxTrendingLimit {
		auth.WriteError(w, r, apperror.NewBadRequestError("limit must be between 1 and 20", nil))
		return
	}
	list, err := h.service.Trending(r.Context(), limit)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, list)
}

// handleRecommended godoc
// @Summary Recipes matching the caller's onboarding preferences
// @Tags recipes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SearchResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Router /api/v1/recipes/recommended [get]
func (h *Handlers) handleRecommended(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUserID(w, r)
	if !ok {
		return
	}
	page, err := pagination.FromRequest(r)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	resp, err := h.service.Recommended(r.Context(), userID, page)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, resp)
}

// handleSaved godoc
// @Summary The caller's saved recipes
// @Tags recipes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SearchResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Router /api/v1/recipes/saved [get]
func (h *Handlers) handleSaved(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUserID(w, r)
	if !ok {
		return
	}
	page, err := pagination.FromRequest(r)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	resp, err := h.service.Saved(r.Context(), userID, page)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, resp)
}

// handleGet godoc
// @Summary Recipe detail
// @Description Includes author, ingredients and steps. With a token, is_liked and is_saved are set.
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} Recipe
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/v1/recipes/{id} [get]
func (h *Handlers) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := auth.URLParamInt(r, "id")
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	viewerID, _ := auth.GetUserIDFromContext(r.Context())
	recipe, err := h.service.Get(r.Context(), id, viewerID)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, recipe)
}

// handleCreate godoc
// @Summary Create a recipe
// @Tags recipes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param recipe body CreateRecipeRequest true "Recipe"
// @Success 201 {object} Recipe
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Router /api/v1/recipes [post]
func (h *Handlers) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUserID(w, r)
	if !ok {
		return
	}
	var req CreateRecipeRequest
	if err := auth.DecodeJSON(w, r, &req); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	recipe, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusCreated, recipe)
}

// handleUpdate godoc
// @Summary Update a recipe
// @Description Author only. Ingredients and steps, when present, replace the existing lists.
// @Tags recipes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Param recipe body UpdateRecipeRequest true "Fields to change"
// @Success 200 {object} Recipe
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 403 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/v1/recipes/{id} [put]
func (h *Handlers) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUserID(w, r)
	if !ok {
		return
	}
	id, err := auth.URLParamInt(r, "id")
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	var req UpdateRecipeRequest
	if err := auth.DecodeJSON(w, r, &req); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	recipe, err := h.service.Update(r.Context(), userID, id, req)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, recipe)
}

// handleDelete godoc
// @Summary Delete a recipe
// @Tags recipes
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 403 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/v1/recipes/{id} [delete]
func (h *Handlers) handleDelete(w http.ResponseWriter, r *http.Request) {
	h.withRecipe(w, r, func(userID, id int) error {
		return h.service.Delete(r.Context(), userID, id, auth.IsAdminFromContext(r.Context()))
	})
}

// handleLike godoc
// @Summary Like a recipe
// @Tags recipes
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/v1/recipes/{id}/like [post]
func (h *Handlers) handleLike(w http.ResponseWriter, r *http.Request) {
	h.withRecipe(w, r, func(userID, id int) error {
		return h.service.Like(r.Context(), userID, id)
	})
}

// handleUnlike godoc
// @Summary Remove a like
// @Tags recipes
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Success 204
// @Router /api/v1/recipes/{id}/like [delete]
func (h *Handlers) handleUnlike(w http.ResponseWriter, r *http.Request) {
	h.withRecipe(w, r, func(userID, id int) error {
		return h.service.Unlike(r.Context(), userID, id)
	})
}

// handleSave godoc
// @Summary Save a recipe
// @Tags recipes
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Success 204
// @Router /api/v1/recipes/{id}/save [post]
func (h *Handlers) handleSave(w http.ResponseWriter, r *http.Request) {
	h.withRecipe(w, r, func(userID, id int) error {
		return h.service.Save(r.Context(), userID, id)
	})
}

// handleUnsave godoc
// @Summary Remove a saved recipe
// @Tags recipes
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Success 204
// @Router /api/v1/recipes/{id}/save [delete]
func (h *Handlers) handleUnsave(w http.ResponseWriter, r *http.Request) {
	h.withRecipe(w, r, func(userID, id int) error {
		return h.service.Unsave(r.Context(), userID, id)
	})
}

// withRecipe runs an action that takes the caller and the {id} parameter
// and answers 204 on success.
func (h *Handlers) withRecipe(w http.ResponseWriter, r *http.Request, action func(userID, recipeID int) error) {
	userID, ok := auth.RequireUserID(w, r)
	if !ok {
		return
	}
	id, err := auth.URLParamInt(r, "id")
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	if err := action(userID, id); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusNoContent, nil)
}

// handleListReviews godoc
// @Summary Reviews of a recipe
// @Tags recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} ReviewsResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/v1/recipes/{id}/reviews [get]
func (h *Handlers) handleListReviews(w http.ResponseWriter, r *http.Request) {
	id, err := auth.URLParamInt(r, "id")
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	page, err := pagination.FromRequest(r)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	resp, err := h.service.ListReviews(r.Context(), id, page)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, resp)
}

// handleUpsertReview godoc
// @Summary Create or replace the caller's review
// @Tags recipes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Param review body ReviewRequest true "Review"
// @Success 200 {object} Review
// @Failure 400 {object} apperror.ErrorResponse "Invalid rating or own recipe"
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/v1/recipes/{id}/reviews [post]
func (h *Handlers) handleUpsertReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUserID(w, r)
	if !ok {
		return
	}
	id, err := auth.URLParamInt(r, "id")
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	var req ReviewRequest
	if err := auth.DecodeJSON(w, r, &req); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	review, err := h.service.UpsertReview(r.Context(), userID, id, req)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, review)
}

// handleUploadImage godoc
// @Summary Upload the recipe image
// @Description Multipart field "image", at most 5 MiB, jpeg, png or webp. Author only.
// @Tags recipes
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Param image formData file true "Image"
// @Success 200 {object} ImageResponse
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 403 {object} apperror.ErrorResponse
// @Failure 503 {object} apperror.ErrorResponse "Storage not configured"
// @Router /api/v1/recipes/{id}/image [post]
func (h *Handlers) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUserID(w, r)
	if !ok {
		return
	}
	id, err := auth.URLParamInt(r, "id")
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}

	data, contentType, err := readImageField(w, r)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}

	resp, err := h.service.SetImage(r.Context(), userID, id, data, contentType)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, resp)
}

// readImageField pulls the "image" part out of a multipart body. The body is
// capped a little above MaxImageBytes to leave room for the multipart framing.
func readImageField(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageBytes+(64<<10))
	if err := r.ParseMultipartForm(MaxImageBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, "", apperror.NewValidationError("image must be at most 5 MiB", nil)
		}
		return nil, "", apperror.NewBadRequestError("expected a multipart/form-data body", nil)
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, "", apperror.NewBadRequestError("image field is required", nil)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxImageBytes+1))
	if err != nil {
		return nil, "", apperror.NewBadRequestError("failed to read image", nil)
	}
	if len(data) > MaxImageBytes {
		return nil, "", apperror.NewValidationError("image must be at most 5 MiB", nil)
	}
	return data, header.Header.Get("Content-Type"), nil
}

package onboarding

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/akshayUniverse/cook-ease-sub001/auth"
)

// Handlers serves /api/v1/onboarding.
type Handlers struct {
	service Service
}

// NewHandlers creates Handlers.
func NewHandlers(service Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts the quiz routes. The question list is public so the
// quiz can render before sign-up finishes; everything else needs a token.
func (h *Handlers) RegisterRoutes(r chi.Router, tokens *auth.TokenIssuer) {
	r.Get("/questions", h.questions)
	r.Group(func(r chi.Router) {
		r.Use(auth.JWTMiddleware(tokens))
		r.Post("/complete", h.complete)
		r.Get("/status", h.status)
		r.Get("/preferences", h.preferences)
		r.Delete("/preferences", h.reset)
	})
}

// questions godoc
// @Summary Onboarding questions
// @Description The swipe cards in display order.
// @Tags onboarding
// @Produce json
// @Success 200 {array} Question
// @Router /api/v1/onboarding/questions [get]
func (h *Handlers) questions(w http.ResponseWriter, r *http.Request) {
	auth.WriteJSON(w, http.StatusOK, Questions())
}

// complete godoc
// @Summary Complete onboarding
// @Description Submits one answer per question and stores the aggregated preferences.
// @Tags onboarding
// @Accept json
// @Produce json
// @Param body body CompleteRequest true "All answers"
// @Success 200 {object} Preferences
// @Failure 400 {object} apperror.ErrorResponse "Missing, duplicate or unknown answers"
// @Failure 401 {object} apperror.ErrorResponse
// @Router /api/v1/onboarding/complete [post]
// @Security BearerAuth
func (h *Handlers) complete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUserID(w, r)
	if !ok {
		return
	}
	var req CompleteRequest
	if err := auth.DecodeJSON(w, r, &req); err != nil {
		auth.WriteError(w, r, err)
		return
	}

	prefs, err := h.service.Complete(r.Context(), userID, req.Answers)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, prefs)
}

// status godoc
// @Summary Onboarding status
// @Tags onboarding
// @Produce json
// @Success 200 {object} StatusResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Router /api/v1/onboarding/status [get]
// @Security BearerAuth
func (h *Handlers) status(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUserID(w, r)
	if !ok {
		return
	}
	done, err := h.service.Completed(r.Context(), userID)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, StatusResponse{Completed: done})
}

// preferences godoc
// @Summary Stored preferences
// @Tags onboarding
// @Produce json
// @Success 200 {object} Preferences
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse "Quiz not completed"
// @Router /api/v1/onboarding/preferences [get]
// @Security BearerAuth
func (h *Handlers) preferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUserID(w, r)
	if !ok {
		return
	}
	prefs, err := h.service.GetPreferences(r.Context(), userID)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, prefs)
}

// reset godoc
// @Summary Reset onboarding
// @Description Deletes the stored preferences so the quiz can be taken again.
// @Tags onboarding
// @Success 204
// @Failure 401 {object} apperror.ErrorResponse
// @Router /api/v1/onboarding/preferences [delete]
// @Security BearerAuth
func (h *Handlers) reset(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUserID(w, r)
	if !ok {
		return
	}
	if err := h.service.Reset(r.Context(), userID); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

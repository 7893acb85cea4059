package messages

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
	"github.com/akshayUniverse/cook-ease-sub001/auth"
)

// Handlers serves /messages.
type Handlers struct {
	service Service
}

// NewHandlers creates message Handlers.
func NewHandlers(service Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts /messages behind the JWT middleware.
func (h *Handlers) RegisterRoutes(r chi.Router, tokens *auth.TokenIssuer) {
	r.Route("/messages", func(r chi.Router) {
		r.Use(auth.JWTMiddleware(tokens))
		r.Post("/", h.handleSend)
		r.Get("/conversations", h.handleConversations)
		r.Get("/conversations/{id}", h.handleConversation)
		r.Post("/conversations/{id}/read", h.handleMarkRead)
	})
}

// handleSend godoc
// @Summary Send a direct message
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param message body SendRequest true "Message"
// @Success 201 {object} Message
// @Failure 400 {object} apperror.ErrorResponse "Blank body or messaging yourself"
// @Failure 404 {object} apperror.ErrorResponse "Recipient not found"
// @Router /api/v1/messages [post]
func (h *Handlers) handleSend(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUserID(w, r)
	if !ok {
		return
	}
	var req SendRequest
	if err := auth.DecodeJSON(w, r, &req); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	msg, err := h.service.Send(r.Context(), userID, req)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusCreated, msg)
}

// handleConversations godoc
// @Summary The caller's conversations
// @Description Most recent first, with the last message and the unread count.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Success 200 {array} ConversationSummary
// @Router /api/v1/messages/conversations [get]
func (h *Handlers) handleConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUserID(w, r)
	if !ok {
		return
	}
	list, err := h.service.Conversations(r.Context(), userID)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, list)
}

// handleConversation godoc
// @Summary Messages of a conversation
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Param before query string false "next_before of the previous page, exclusive"
// @Param limit query int false "1..100, default 50"
// @Success 200 {object} ConversationResponse
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 403 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/v1/messages/conversations/{id} [get]
func (h *Handlers) handleConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUserID(w, r)
	if !ok {
		return
	}
	limit, err := auth.QueryInt(r, "limit", DefaultPageSize)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	var before Cursor
	if raw := r.URL.Query().Get("before"); raw != "" {
		before, err = ParseCursor(raw)
		if err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("before must be the next_before value of a previous page", nil))
			return
		}
	}
	resp, err := h.service.Conversation(r.Context(), userID, chi.URLParam(r, "id"), before, limit)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, resp)
}

// handleMarkRead godoc
// @Summary Mark a conversation read
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Success 200 {object} ReadResponse
// @Failure 403 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/v1/messages/conversations/{id}/read [post]
func (h *Handlers) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUserID(w, r)
	if !ok {
		return
	}
	n, err := h.service.MarkRead(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, ReadResponse{Updated: n})
}

package notifications

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
	"github.com/akshayUniverse/cook-ease-sub001/auth"
	"github.com/akshayUniverse/cook-ease-sub001/pagination"
)

// defaultHeartbeat keeps proxies from closing idle streams.
const defaultHeartbeat = 25 * time.Second

// Handlers serves the notification endpoints.
type Handlers struct {
	service     Service
	broadcaster *Broadcaster
	heartbeat   time.Duration
}

// NewHandlers creates Handlers. The broadcaster backs the SSE stream.
func NewHandlers(service Service, broadcaster *Broadcaster) *Handlers {
	return &Handlers{service: service, broadcaster: broadcaster, heartbeat: defaultHeartbeat}
}

// RegisterRoutes mounts the JSON endpoints. Every route needs a token.
func (h *Handlers) RegisterRoutes(r chi.Router, tokens *auth.TokenIssuer) {
	r.Group(func(r chi.Router) {
		r.Use(auth.JWTMiddleware(tokens))
		r.Get("/", h.listNotifications)
		r.Get("/unread-count", h.unreadCount)
		r.Post("/read-all", h.markAllRead)
		r.Post("/{id}/read", h.markRead)
	})
}

// RegisterStreamRoute mounts GET /stream. It is kept apart from the JSON routes
// so the caller can mount it outside any request timeout middleware.
func (h *Handlers) RegisterStreamRoute(r chi.Router, tokens *auth.TokenIssuer) {
	r.With(auth.StreamJWTMiddleware(tokens)).Get("/stream", h.stream)
}

// listNotifications godoc
// @Summary List notifications
// @Description Newest first. `unread=true` limits the list to unread ones.
// @Tags notifications
// @Produce json
// @Param unread query bool false "Only unread"
// @Param page query int false "Page (default 1)"
// @Param per_page query int false "Page size (1-100, default 20)"
// @Success 200 {object} ListResponse
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Router /api/v1/notifications [get]
// @Security BearerAuth
func (h *Handlers) listNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUserID(w, r)
	if !ok {
		return
	}
	page, err := pagination.FromRequest(r)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	unreadOnly := false
	if raw := r.URL.Query().Get("unread"); raw != "" {
		unreadOnly, err = strconv.ParseBool(raw)
		if err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("unread must be true or false", nil))
			return
		}
	}

	resp, err := h.service.List(r.Context(), userID, unreadOnly, page)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, resp)
}

// unreadCount godoc
// @Summary Unread notification count
// @Tags notifications
// @Produce json
// @Success 200 {object} UnreadCountResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Router /api/v1/notifications/unread-count [get]
// @Security BearerAuth
func (h *Handlers) unreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUserID(w, r)
	if !ok {
		return
	}
	count, err := h.service.UnreadCount(r.Context(), userID)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, UnreadCountResponse{Unread: count})
}

// markRead godoc
// @Summary Mark a notification read
// @Tags notifications
// @Param id path int true "Notification ID"
// @Success 204
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 403 {object} apperror.ErrorResponse "Not your notification"
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/v1/notifications/{id}/read [post]
// @Security BearerAuth
func (h *Handlers) markRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUserID(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		auth.WriteError(w, r, apperror.NewBadRequestError("invalid notification id", nil))
		return
	}
	if err := h.service.MarkRead(r.Context(), userID, id); err != nil {
		auth.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// markAllRead godoc
// @Summary Mark all notifications read
// @Tags notifications
// @Produce json
// @Success 200 {object} MarkAllReadResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Router /api/v1/notifications/read-all [post]
// @Security BearerAuth
func (h *Handlers) markAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUserID(w, r)
	if !ok {
		return
	}
	updated, err := h.service.MarkAllRead(r.Context(), userID)
	if err != nil {
		auth.WriteError(w, r, err)
		return
	}
	auth.WriteJSON(w, http.StatusOK, MarkAllReadResponse{Updated: updated})
}

// stream godoc
// @Summary Notification stream
// @Description Server-Sent Events. Each new notification arrives as a `notification` event;
// @Description a comment line is sent every 25s as a heartbeat. Browsers may pass the token
// @Description as the `access_token` query parameter.
// @Tags notifications
// @Produce text/event-stream
// @Success 200 {string} string "event stream"
// @Failure 401 {object} apperror.ErrorResponse
// @Router /api/v1/notifications/stream [get]
// @Security BearerAuth
func (h *Handlers) stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.RequireUserID(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		auth.WriteError(w, r, apperror.NewInternalError("streaming unsupported", nil))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	clientID, events := h.broadcaster.NewClient(userID)
	defer h.broadcaster.RemoveClient(clientID)

	if _, err := NewSSEEvent("connected", `{"client_id":"`+clientID+`"}`).WriteTo(w); err != nil {
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			if _, err := event.WriteTo(w); err != nil {
				log.Printf("Error writing SSE event to client %s: %v", clientID, err)
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

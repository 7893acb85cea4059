// Package health serves GET /health with a per-backend status report.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/akshayUniverse/cook-ease-sub001/auth"
)

// Check states reported per backend.
const (
	StatusOK       = "ok"
	StatusDown     = "down"
	StatusDisabled = "disabled"
)

const checkTimeout = 2 * time.Second

// PingFunc checks one backend.
type PingFunc func(ctx context.Context) error

// Check is one named backend. A nil Ping means the backend is not configured.
type Check struct {
	Name string
	Ping PingFunc
	// Required checks turn the whole report into a 503 when they fail.
	Required bool
}

// Response is the /health body.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Handler runs every check on each request.
type Handler struct {
	checks []Check
}

// NewHandler creates a Handler.
func NewHandler(checks ...Check) *Handler {
	return &Handler{checks: checks}
}

// Report pings every backend.
func (h *Handler) Report(ctx context.Context) (*Response, bool) {
	resp := &Response{Status: StatusOK, Checks: make(map[string]string, len(h.checks))}
	healthy := true
	for _, c := range h.checks {
		if c.Ping == nil {
			resp.Checks[c.Name] = StatusDisabled
			continue
		}
		pingCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := c.Ping(pingCtx)
		cancel()
		if err != nil {
			resp.Checks[c.Name] = StatusDown
			if c.Required {
				healthy = false
			}
			continue
		}
		resp.Checks[c.Name] = StatusOK
	}
	if !healthy {
		resp.Status = StatusDown
	}
	return resp, healthy
}

// ServeHTTP godoc
// @Summary Health check
// @Description Reports the state of Postgres and the optional backends. Only a Postgres failure makes the service unhealthy.
// @Tags health
// @Produce json
// @Success 200 {object} Response
// @Failure 503 {object} Response
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp, healthy := h.Report(r.Context())
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	auth.WriteJSON(w, status, resp)
}

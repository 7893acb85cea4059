// Package setup exposes the administrative setup-database endpoint which
// brings a fresh deployment's schema up to date and optionally loads the
// demo seed data.
package setup

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
	"github.com/akshayUniverse/cook-ease-sub001/auth"
	"github.com/akshayUniverse/cook-ease-sub001/db"
	"github.com/akshayUniverse/cook-ease-sub001/seed"
)

// TokenHeader carries the shared setup secret.
const TokenHeader = "X-Setup-Token"

// MigrateFunc applies pending migrations.
type MigrateFunc func() (*db.MigrationStatus, error)

// SeedFunc loads the demo data.
type SeedFunc func(ctx context.Context) (*seed.Result, error)

// Response is returned by a successful setup run.
type Response struct {
	MigrationVersion uint `json:"migration_version"`
	Dirty            bool `json:"dirty"`
	Applied          bool `json:"applied"`
	SeededRecipes    int  `json:"seeded_recipes"`
	SeededUsers      int  `json:"seeded_users"`
}

// Handlers serves POST /api/setup-database.
type Handlers struct {
	token   string
	migrate MigrateFunc
	seed    SeedFunc
	running sync.Mutex
}

// NewHandlers creates the setup handler. An empty token disables the route.
func NewHandlers(token string, migrate MigrateFunc, seed SeedFunc) *Handlers {
	return &Handlers{token: token, migrate: migrate, seed: seed}
}

// RegisterRoutes mounts the setup endpoint.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Post("/setup-database", h.HandleSetupDatabase())
}

func (h *Handlers) authorize(r *http.Request) error {
	if h.token == "" {
		return apperror.NewNotFoundError("not found", nil)
	}
	given := r.Header.Get(TokenHeader)
	if subtle.ConstantTimeCompare([]byte(given), []byte(h.token)) != 1 {
		return apperror.NewAuthError("invalid setup token", nil)
	}
	return nil
}

// HandleSetupDatabase godoc
// @Summary Apply migrations and seed data
// @Description Runs every pending schema migration. With seed=true the demo users and recipes are loaded too; existing rows are left alone.
// @Tags setup
// @Produce json
// @Param X-Setup-Token header string true "Setup secret"
// @Param seed query bool false "Also load the demo seed data"
// @Success 200 {object} Response
// @Failure 400 {object} apperror.ErrorResponse "Invalid seed flag"
// @Failure 401 {object} apperror.ErrorResponse "Wrong setup token"
// @Failure 404 {object} apperror.ErrorResponse "Setup is disabled"
// @Failure 409 {object} apperror.ErrorResponse "A setup run is already in progress"
// @Failure 500 {object} apperror.ErrorResponse "Migration or seed failure"
// @Router /api/setup-database [post]
func (h *Handlers) HandleSetupDatabase() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.authorize(r); err != nil {
			auth.WriteError(w, r, err)
			return
		}

		withSeed := false
		if raw := r.URL.Query().Get("seed"); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				auth.WriteError(w, r, apperror.NewBadRequestError("seed must be true or false", nil))
				return
			}
			withSeed = v
		}

		if !h.running.TryLock() {
			auth.WriteError(w, r, apperror.NewConflictError("a setup run is already in progress", nil))
			return
		}
		defer h.running.Unlock()

		status, err := h.migrate()
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}
		log.Printf("Setup: schema at version %d (applied: %t, dirty: %t)", status.Version, status.Applied, status.Dirty)

		resp := Response{
			MigrationVersion: status.Version,
			Dirty:            status.Dirty,
			Applied:          status.Applied,
		}
		if withSeed {
			result, err := h.seed(r.Context())
			if err != nil {
				auth.WriteError(w, r, err)
				return
			}
			resp.SeededRecipes = result.Recipes
			resp.SeededUsers = result.Users
		}
		auth.WriteJSON(w, http.StatusOK, resp)
	}
}

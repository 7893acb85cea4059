package setup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
	"github.com/akshayUniverse/cook-ease-sub001/db"
	"github.com/akshayUniverse/cook-ease-sub001/seed"
)

type recorder struct {
	migrations int
	seeds      int
	migrateErr error
}

func (rec *recorder) migrate() (*db.MigrationStatus, error) {
	rec.migrations++
	if rec.migrateErr != nil {
		return nil, rec.migrateErr
	}
	return &db.MigrationStatus{Version: 4, Applied: true}, nil
}

func (rec *recorder) seed(context.Context) (*seed.Result, error) {
	rec.seeds++
	return &seed.Result{Users: 3, Recipes: 6}, nil
}

func newRouter(token string, rec *recorder) http.Handler {
	r := chi.NewRouter()
	NewHandlers(token, rec.migrate, rec.seed).RegisterRoutes(r)
	return r
}

func post(h http.Handler, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, nil)
	if token != "" {
		req.Header.Set(TokenHeader, token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSetupDisabledWithoutToken(t *testing.T) {
	rec := &recorder{}
	w := post(newRouter("", rec), "/setup-database", "anything")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, rec.migrations)
}

func TestSetupRejectsWrongToken(t *testing.T) {
	rec := &recorder{}
	h := newRouter("s3cret", rec)

	assert.Equal(t, http.StatusUnauthorized, post(h, "/setup-database", "").Code)
	assert.Equal(t, http.StatusUnauthorized, post(h, "/setup-database", "s3cre").Code)
	assert.Zero(t, rec.migrations)
}

func TestSetupMigratesOnly(t *testing.T) {
	rec := &recorder{}
	w := post(newRouter("s3cret", rec), "/setup-database", "s3cret")
	require.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint(4), resp.MigrationVersion)
	assert.True(t, resp.Applied)
	assert.Zero(t, resp.SeededRecipes)
	assert.Equal(t, 1, rec.migrations)
	assert.Zero(t, rec.seeds)
}

func TestSetupWithSeed(t *testing.T) {
	rec := &recorder{}
	w := post(newRouter("s3cret", rec), "/setup-database?seed=true", "s3cret")
	require.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 6, resp.SeededRecipes)
	assert.Equal(t, 3, resp.SeededUsers)
	assert.Equal(t, 1, rec.seeds)
}

func TestSetupBadSeedFlag(t *testing.T) {
	rec := &recorder{}
	w := post(newRouter("s3cret", rec), "/setup-database?seed=maybe", "s3cret")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, rec.migrations)
}

func TestSetupMigrationFailure(t *testing.T) {
	rec := &recorder{migrateErr: apperror.NewMigrationError("failed to run migrations", errors.New("boom"))}
	w := post(newRouter("s3cret", rec), "/setup-database?seed=true", "s3cret")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "boom")
	assert.Zero(t, rec.seeds)
}

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error   { return nil }
func fail(context.Context) error { return errors.New("connection refused") }

func get(t *testing.T, h http.Handler) (int, Response) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestHealthy(t *testing.T) {
	code, resp := get(t, NewHandler(
		Check{Name: "postgres", Ping: ok, Required: true},
		Check{Name: "redis", Ping: ok},
		Check{Name: "mongo"},
	))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusOK, resp.Status)
	assert.Equal(t, map[string]string{"postgres": "ok", "redis": "ok", "mongo": "disabled"}, resp.Checks)
}

func TestOptionalBackendDown(t *testing.T) {
	code, resp := get(t, NewHandler(
		Check{Name: "postgres", Ping: ok, Required: true},
		Check{Name: "redis", Ping: fail},
	))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusDown, resp.Checks["redis"])
}

func TestPostgresDown(t *testing.T) {
	code, resp := get(t, NewHandler(Check{Name: "postgres", Ping: fail, Required: true}))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, StatusDown, resp.Status)
}

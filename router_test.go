package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshayUniverse/cook-ease-sub001/auth"
	"github.com/akshayUniverse/cook-ease-sub001/db"
	"github.com/akshayUniverse/cook-ease-sub001/health"
	"github.com/akshayUniverse/cook-ease-sub001/messages"
	"github.com/akshayUniverse/cook-ease-sub001/notifications"
	"github.com/akshayUniverse/cook-ease-sub001/onboarding"
	"github.com/akshayUniverse/cook-ease-sub001/recipes"
	"github.com/akshayUniverse/cook-ease-sub001/seed"
	"github.com/akshayUniverse/cook-ease-sub001/setup"
	"github.com/akshayUniverse/cook-ease-sub001/shoppinglists"
	"github.com/akshayUniverse/cook-ease-sub001/users"
)

// testRouter mounts every feature with nil services. Only requests that are
// answered before reaching a service are safe to send.
func testRouter() http.Handler {
	tokens := auth.NewTokenIssuer("test-secret", time.Minute, time.Hour)
	return newRouter(routes{
		tokens:        tokens,
		corsOrigins:   []string{"https://app.cookease.dev"},
		auth:          auth.NewHandlers(nil, tokens, nil),
		users:         users.NewUserHandlers(nil),
		recipes:       recipes.NewHandlers(nil),
		shoppingLists: shoppinglists.NewHandlers(nil),
		onboarding:    onboarding.NewHandlers(nil),
		messages:      messages.NewHandlers(nil),
		notifications: notifications.NewHandlers(nil, notifications.NewBroadcaster()),
		setup: setup.NewHandlers("",
			func() (*db.MigrationStatus, error) { return &db.MigrationStatus{}, nil },
			func(context.Context) (*seed.Result, error) { return &seed.Result{}, nil },
		),
		health: health.NewHandler(health.Check{Name: "postgres", Ping: func(context.Context) error { return nil }, Required: true}),
	})
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestRouterPublicRoutes(t *testing.T) {
	h := testRouter()

	w := do(h, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(h, http.MethodGet, "/api/v1/onboarding/questions")
	require.Equal(t, http.StatusOK, w.Code)
	var questions []onboarding.Question
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &questions))
	assert.NotEmpty(t, questions)

	w = do(h, http.MethodGet, "/swagger/doc.json")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "CookEase API")
}

func TestRouterProtectedRoutesNeedToken(t *testing.T) {
	h := testRouter()
	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/auth/me"},
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodGet, "/api/v1/recipes/saved"},
		{http.MethodPost, "/api/v1/recipes"},
		{http.MethodGet, "/api/v1/shopping-lists"},
		{http.MethodGet, "/api/v1/onboarding/status"},
		{http.MethodGet, "/api/v1/messages/conversations"},
		{http.MethodGet, "/api/v1/notifications"},
		{http.MethodGet, "/api/v1/notifications/stream"},
	} {
		t.Run(tc.method+" "+tc.target, func(t *testing.T) {
			w := do(h, tc.method, tc.target)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"error":"Authorization header is missing"}`, w.Body.String())
		})
	}
}

func TestRouterSetupDisabled(t *testing.T) {
	w := do(testRouter(), http.MethodPost, "/api/setup-database")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/recipes", nil)
	req.Header.Set("Origin", "https://app.cookease.dev")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	testRouter().ServeHTTP(w, req)

	assert.Equal(t, "https://app.cookease.dev", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoverPanics(t *testing.T) {
	h := recoverPanics(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))
	w := do(h, http.MethodGet, "/")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestRouterUsersLiveUnderAPIV1(t *testing.T) {
	h := testRouter()
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/users/me").Code)
	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/api/v1/users/me").Code)

	w := do(h, http.MethodGet, "/swagger/doc.json")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"/api/v1/users/me"`)
	assert.Contains(t, w.Body.String(), `"/api/v1/users/{id}"`)
	assert.NotContains(t, w.Body.String(), `"/users/me"`)
}

func TestRouterIgnoresQueryTokenOutsideStream(t *testing.T) {
	issuer := auth.NewTokenIssuer("test-secret", time.Minute, time.Hour)
	token, _, err := issuer.IssueAccess(3, false)
	require.NoError(t, err)

	w := do(testRouter(), http.MethodGet, "/api/v1/users/me?access_token="+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogFormatterRedactsAccessToken(t *testing.T) {
	var buf bytes.Buffer
	var seen string
	h := middleware.RequestLogger(newLogFormatter(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL.Query().Get("access_token")
		w.WriteHeader(http.StatusOK)
	}))

	do(h, http.MethodGet, "/api/v1/notifications/stream?access_token=secret.jwt&since=4")
	assert.Equal(t, "secret.jwt", seen, "the handler still sees the token")
	assert.NotContains(t, buf.String(), "secret.jwt")
	assert.Contains(t, buf.String(), "access_token=REDACTED")
	assert.Contains(t, buf.String(), "since=4")

	buf.Reset()
	do(h, http.MethodGet, "/api/v1/recipes?q=soup")
	assert.Contains(t, buf.String(), "/api/v1/recipes?q=soup")
}

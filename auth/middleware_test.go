package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
	"github.com/akshayUniverse/cook-ease-sub001/config"
)

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret:            "test-secret",
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 24 * time.Hour,
	}
}

// echoUser writes the user id the middleware stored, or "anonymous".
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if id, ok := GetUserIDFromContext(r.Context()); ok {
		WriteJSON(w, http.StatusOK, map[string]interface{}{"user_id": id, "admin": IsAdminFromContext(r.Context())})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"user": "anonymous"})
})

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body apperror.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestJWTMiddleware(t *testing.T) {
	issuer := newTestIssuer()
	pair, err := issuer.IssuePair(11, true)
	require.NoError(t, err)
	handler := JWTMiddleware(issuer)(echoUser)

	t.Run("valid header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"user_id":11,"admin":true}`, rec.Body.String())
	})

	t.Run("query parameter is ignored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?access_token="+pair.AccessToken, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"missing header", "", "Authorization header is missing"},
		{"wrong scheme", "Basic abc", "Authorization header format must be Bearer {token}"},
		{"garbage token", "Bearer not-a-jwt", "Invalid token"},
		{"refresh token", "Bearer " + pair.RefreshToken, "invalid token type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, decodeError(t, rec), tc.want)
		})
	}
}

func TestStreamJWTMiddleware(t *testing.T) {
	issuer := newTestIssuer()
	pair, err := issuer.IssuePair(8, false)
	require.NoError(t, err)
	handler := StreamJWTMiddleware(issuer)(echoUser)

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	rec := serve(httptest.NewRequest(http.MethodGet, "/stream?access_token="+pair.AccessToken, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":8,"admin":false}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusOK, serve(req).Code)

	assert.Equal(t, http.StatusUnauthorized, serve(httptest.NewRequest(http.MethodGet, "/stream", nil)).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(httptest.NewRequest(http.MethodGet, "/stream?access_token="+pair.RefreshToken, nil)).Code)
}

func TestOptionalJWTMiddlewareIgnoresQueryToken(t *testing.T) {
	issuer := newTestIssuer()
	pair, err := issuer.IssuePair(5, false)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	OptionalJWTMiddleware(issuer)(echoUser).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?access_token="+pair.AccessToken, nil))
	assert.JSONEq(t, `{"user":"anonymous"}`, rec.Body.String())
}

func TestOptionalJWTMiddleware(t *testing.T) {
	issuer := newTestIssuer()
	pair, err := issuer.IssuePair(5, false)
	require.NoError(t, err)
	handler := OptionalJWTMiddleware(issuer)(echoUser)

	for name, header := range map[string]string{
		"no header":     "",
		"invalid token": "Bearer nope",
		"bad scheme":    "Token abc",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"user":"anonymous"}`, rec.Body.String())
		})
	}

	t.Run("valid token attaches user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.JSONEq(t, `{"user_id":5,"admin":false}`, rec.Body.String())
	})
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Now()
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"), "burst exhausted")
	assert.True(t, rl.Allow("2.2.2.2"), "buckets are per key")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("1.1.1.1"), "one token refilled")

	now = now.Add(2 * limiterIdleTTL)
	rl.Allow("3.3.3.3")
	assert.Len(t, rl.visitors, 1, "idle buckets are swept")
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	handler := rl.Middleware(echoUser)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)
	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

// fakeService is an in-memory Service for handler tests.
type fakeService struct {
	users map[string]*User
}

func (f *fakeService) Register(_ context.Context, req RegisterRequest) (*User, error) {
	if _, ok := f.users[req.Username]; ok {
		return nil, apperror.NewConflictError("username already exists", nil)
	}
	u := &User{ID: len(f.users) + 1, Username: req.Username, Email: req.Email, HashedPassword: "hash"}
	f.users[req.Username] = u
	return u, nil
}

func (f *fakeService) Login(_ context.Context, req LoginRequest) (*TokenResponse, error) {
	if _, ok := f.users[req.Login]; !ok || req.Password != "correct-horse" {
		return nil, apperror.NewAuthError(invalidCredentials, nil)
	}
	return &TokenResponse{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"}, nil
}

func (f *fakeService) RefreshToken(_ context.Context, token string) (*TokenResponse, error) {
	return nil, errors.New("not used")
}

func (f *fakeService) GetUserByID(_ context.Context, id int) (*User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperror.NewNotFoundError("user not found", nil)
}

func newTestRouter(svc Service, issuer *TokenIssuer) http.Handler {
	r := chi.NewRouter()
	NewHandlers(svc, issuer, nil).RegisterRoutes(r)
	return r
}

func TestHandlers(t *testing.T) {
	issuer := newTestIssuer()
	svc := &fakeService{users: map[string]*User{}}
	router := newTestRouter(svc, issuer)

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("register never exposes the password", func(t *testing.T) {
		rec := post("/auth/register", `{"username":"chef_ana","email":"ana@example.com","password":"correct-horse"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.NotContains(t, rec.Body.String(), "hash")
		assert.Contains(t, rec.Body.String(), `"username":"chef_ana"`)
	})

	t.Run("register validates", func(t *testing.T) {
		rec := post("/auth/register", `{"username":"x","email":"bad","password":"short"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		msg := decodeError(t, rec)
		assert.Contains(t, msg, "username must be at least 3 characters")
		assert.Contains(t, msg, "email must be a valid email")
	})

	t.Run("register conflict", func(t *testing.T) {
		rec := post("/auth/register", `{"username":"chef_ana","email":"other@example.com","password":"correct-horse"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		rec := post("/auth/login", `{"login":"chef_ana","password":"x","extra":1}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		rec := post("/auth/login", ``)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "request body is required", decodeError(t, rec))
	})

	t.Run("login", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, post("/auth/login", `{"login":"chef_ana","password":"correct-horse"}`).Code)
		rec := post("/auth/login", `{"login":"chef_ana","password":"wrong"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, invalidCredentials, decodeError(t, rec))
	})

	t.Run("me requires a token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		token, _, err := issuer.IssueAccess(1, false)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"id":1`)
	})
}

func TestWriteErrorHidesPlainErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: secret detail"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "an unexpected error occurred", decodeError(t, rec))
}

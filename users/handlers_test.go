package users

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
	"github.com/akshayUniverse/cook-ease-sub001/auth"
)

type fakeService struct {
	profiles map[int]*UserProfileResponse
	updated  *UpdateUserProfileRequest
}

func (f *fakeService) GetUserProfile(_ context.Context, id int) (*UserProfileResponse, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, apperror.NewNotFoundError("user not found", nil)
	}
	return p, nil
}

func (f *fakeService) UpdateUserProfile(_ context.Context, id int, req *UpdateUserProfileRequest) (*UserProfileResponse, error) {
	f.updated = req
	p := f.profiles[id]
	if req.Bio != nil {
		p.Bio = req.Bio
	}
	return p, nil
}

func (f *fakeService) GetPublicProfile(_ context.Context, id int) (*PublicProfileResponse, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, apperror.NewNotFoundError("user not found", nil)
	}
	return &PublicProfileResponse{ID: p.ID, Username: p.Username, RecipeCount: 3, JoinedAt: p.CreatedAt}, nil
}

func (f *fakeService) Exists(_ context.Context, id int) (bool, error) {
	_, ok := f.profiles[id]
	return ok, nil
}

func setup(t *testing.T) (http.Handler, *fakeService, string) {
	t.Helper()
	svc := &fakeService{profiles: map[int]*UserProfileResponse{
		1: {ID: 1, Username: "chef_ana", Email: "ana@example.com", CreatedAt: time.Now()},
	}}
	issuer := auth.NewTokenIssuer("secret", time.Minute, time.Hour)
	token, _, err := issuer.IssueAccess(1, false)
	require.NoError(t, err)

	r := chi.NewRouter()
	NewUserHandlers(svc).RegisterRoutes(r, issuer)
	return r, svc, token
}

func TestUserHandlers(t *testing.T) {
	router, svc, token := setup(t)

	do := func(method, path, body string, withToken bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if withToken {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("me requires auth", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/users/me", "", false).Code)
	})

	t.Run("me", func(t *testing.T) {
		rec := do(http.MethodGet, "/users/me", "", true)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"email":"ana@example.com"`)
	})

	t.Run("update with no fields", func(t *testing.T) {
		rec := do(http.MethodPut, "/users/me", `{}`, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, svc.updated)
	})

	t.Run("update validates email", func(t *testing.T) {
		rec := do(http.MethodPut, "/users/me", `{"email":"not-an-email"}`, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("update", func(t *testing.T) {
		rec := do(http.MethodPut, "/users/me", `{"bio":"Soup person"}`, true)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"bio":"Soup person"`)
	})

	t.Run("public profile hides email", func(t *testing.T) {
		rec := do(http.MethodGet, "/users/1", "", false)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "email")
		assert.Contains(t, rec.Body.String(), `"recipe_count":3`)
	})

	t.Run("public profile bad id", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, do(http.MethodGet, "/users/abc", "", false).Code)
		assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/users/99", "", false).Code)
	})
}

package recipes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
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
	"github.com/akshayUniverse/cook-ease-sub001/pagination"
)

// fakeService keeps recipes in a map and records the calls that matter.
type fakeService struct {
	recipes map[int]*Recipe
	likes   map[int]map[int]bool

	lastSearch   SearchParams
	lastViewer   int
	lastTrending int
	uploaded     []byte
}

func newFakeService() *fakeService {
	return &fakeService{
		recipes: map[int]*Recipe{
			1: {Summary: Summary{ID: 1, Title: "Pad Thai", Slug: "pad-thai", Difficulty: DifficultyMedium, Servings: 2, Author: Author{ID: 10, Username: "chef"}}},
		},
		likes: map[int]map[int]bool{},
	}
}

func (f *fakeService) get(id int) (*Recipe, error) {
	r, ok := f.recipes[id]
	if !ok {
		return nil, notFound(id)
	}
	return r, nil
}

func (f *fakeService) owned(userID, id int) error {
	r, err := f.get(id)
	if err != nil {
		return err
	}
	if r.Author.ID != userID {
		return apperror.NewUnauthorizedError("only the author can modify this recipe", nil)
	}
	return nil
}

func (f *fakeService) Search(_ context.Context, p SearchParams) (*SearchResponse, error) {
	f.lastSearch = p
	list := []Summary{}
	for _, r := range f.recipes {
		list = append(list, r.Summary)
	}
	return &SearchResponse{Recipes: list, Total: int64(len(list)), Page: p.Page.Page, PerPage: p.Page.PerPage, TotalPages: p.Page.TotalPages(int64(len(list)))}, nil
}

func (f *fakeService) Get(_ context.Context, id, viewerID int) (*Recipe, error) {
	f.lastViewer = viewerID
	r, err := f.get(id)
	if err != nil {
		return nil, err
	}
	if viewerID > 0 {
		liked := f.likes[id][viewerID]
		r.IsLiked = &liked
	}
	return r, nil
}

func (f *fakeService) Create(_ context.Context, authorID int, req CreateRecipeRequest) (*Recipe, error) {
	id := len(f.recipes) + 1
	r := &Recipe{Summary: Summary{ID: id, Title: req.Title, Slug: Slugify(req.Title), Difficulty: req.Difficulty, Servings: req.Servings, Author: Author{ID: authorID}}}
	f.recipes[id] = r
	return r, nil
}

func (f *fakeService) Update(_ context.Context, userID, id int, req UpdateRecipeRequest) (*Recipe, error) {
	if err := f.owned(userID, id); err != nil {
		return nil, err
	}
	r := f.recipes[id]
	if req.Title != nil {
		r.Title = *req.Title
	}
	return r, nil
}

func (f *fakeService) Delete(_ context.Context, userID, id int, moderator bool) error {
	if _, err := f.get(id); err != nil {
		return err
	}
	if !moderator {
		if err := f.owned(userID, id); err != nil {
			return err
		}
	}
	delete(f.recipes, id)
	return nil
}

func (f *fakeService) Like(_ context.Context, userID, id int) error {
	if _, err := f.get(id); err != nil {
		return err
	}
	if f.likes[id] == nil {
		f.likes[id] = map[int]bool{}
	}
	f.likes[id][userID] = true
	return nil
}

func (f *fakeService) Unlike(_ context.Context, userID, id int) error {
	delete(f.likes[id], userID)
	return nil
}

func (f *fakeService) Save(context.Context, int, int) error   { return nil }
func (f *fakeService) Unsave(context.Context, int, int) error { return nil }

func (f *fakeService) Saved(ctx context.Context, userID int, page pagination.Params) (*SearchResponse, error) {
	return f.Search(ctx, SearchParams{SavedBy: userID, Page: page})
}

func (f *fakeService) Trending(_ context.Context, limit int) ([]Summary, error) {
	f.lastTrending = limit
	return []Summary{f.recipes[1].Summary}, nil
}

func (f *fakeService) Recommended(ctx context.Context, _ int, page pagination.Params) (*SearchResponse, error) {
	return f.Search(ctx, SearchParams{Sort: SortPopular, Page: page})
}

func (f *fakeService) ListReviews(_ context.Context, id int, page pagination.Params) (*ReviewsResponse, error) {
	if _, err := f.get(id); err != nil {
		return nil, err
	}
	return &ReviewsResponse{Reviews: []Review{}, Page: page.Page, PerPage: page.PerPage}, nil
}

func (f *fakeService) UpsertReview(_ context.Context, userID, id int, req ReviewRequest) (*Review, error) {
	r, err := f.get(id)
	if err != nil {
		return nil, err
	}
	if r.Author.ID == userID {
		return nil, apperror.NewBadRequestError("you cannot review your own recipe", nil)
	}
	return &Review{ID: 1, RecipeID: id, User: Author{ID: userID}, Rating: req.Rating, Comment: req.Comment}, nil
}

func (f *fakeService) SetImage(_ context.Context, userID, id int, data []byte, _ string) (*ImageResponse, error) {
	if err := f.owned(userID, id); err != nil {
		return nil, err
	}
	f.uploaded = data
	return &ImageResponse{ImageURL: "http://cdn.test/recipes/1/x.png"}, nil
}

type harness struct {
	router http.Handler
	svc    *fakeService
	author string
	other  string
	admin  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	issuer := auth.NewTokenIssuer("secret", time.Minute, time.Hour)
	author, _, err := issuer.IssueAccess(10, false)
	require.NoError(t, err)
	other, _, err := issuer.IssueAccess(20, false)
	require.NoError(t, err)
	admin, _, err := issuer.IssueAccess(30, true)
	require.NoError(t, err)

	svc := newFakeService()
	r := chi.NewRouter()
	NewHandlers(svc).RegisterRoutes(r, issuer)
	return &harness{router: r, svc: svc, author: author, other: other, admin: admin}
}

func (h *harness) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func TestSearchAndDetail(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/recipes?cuisine=Thai&per_page=5", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page SearchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Len(t, page.Recipes, 1)
	assert.Equal(t, []string{"thai"}, h.svc.lastSearch.Cuisines)
	assert.Equal(t, 5, h.svc.lastSearch.Page.PerPage)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/recipes?sort=weird", "", "").Code)

	// Anonymous detail has no viewer flags.
	rec = h.do(http.MethodGet, "/recipes/1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, h.svc.lastViewer)
	assert.NotContains(t, rec.Body.String(), "is_liked")

	// A valid token on a public route identifies the viewer.
	rec = h.do(http.MethodGet, "/recipes/1", "", h.other)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, h.svc.lastViewer)
	assert.Contains(t, rec.Body.String(), `"is_liked":false`)

	// A bad token on a public route is ignored, not rejected.
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/recipes/1", "", "garbage").Code)

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/recipes/99", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/recipes/abc", "", "").Code)
}

func TestTrendingLimit(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/recipes/trending", "", "").Code)
	assert.Equal(t, defaultTrendingLimit, h.svc.lastTrending)

	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/recipes/trending?limit=3", "", "").Code)
	assert.Equal(t, 3, h.svc.lastTrending)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/recipes/trending?limit=0", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/recipes/trending?limit=21", "", "").Code)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	h := newHarness(t)
	for _, rt := range []struct{ method, path string }{
		{http.MethodGet, "/recipes/recommended"},
		{http.MethodGet, "/recipes/saved"},
		{http.MethodPost, "/recipes"},
		{http.MethodPut, "/recipes/1"},
		{http.MethodDelete, "/recipes/1"},
		{http.MethodPost, "/recipes/1/like"},
		{http.MethodPost, "/recipes/1/save"},
		{http.MethodPost, "/recipes/1/reviews"},
		{http.MethodPost, "/recipes/1/image"},
	} {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, h.do(rt.method, rt.path, "{}", "").Code)
		})
	}
}

func TestCreateUpdateDelete(t *testing.T) {
	h := newHarness(t)

	body := `{"title":"Green Curry","difficulty":"medium","servings":4,
		"ingredients":[{"name":"coconut milk","quantity":400,"unit":"ml"}],
		"steps":["Simmer everything"]}`
	rec := h.do(http.MethodPost, "/recipes", body, h.author)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created Recipe
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, "green-curry", created.Slug)
	assert.Equal(t, 10, created.Author.ID)

	// Validation runs before the service.
	rec = h.do(http.MethodPost, "/recipes", `{"title":"No","difficulty":"impossible","servings":0,"ingredients":[],"steps":[]}`, h.author)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation failed")

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPut, "/recipes/1", `{"title":"Stolen"}`, h.other).Code)
	rec = h.do(http.MethodPut, "/recipes/1", `{"title":"Pad Thai Deluxe"}`, h.author)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Pad Thai Deluxe")

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodDelete, "/recipes/1", "", h.other).Code)
	assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, "/recipes/1", "", h.author).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, "/recipes/1", "", h.author).Code)
}

func TestAdminCanDeleteAnyRecipe(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/recipes", `{"title":"Spam Musubi","difficulty":"easy","servings":2,
		"ingredients":[{"name":"spam"}],"steps":["Slice and wrap."]}`, h.author).Code)

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodDelete, "/recipes/1", "", h.other).Code)
	assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, "/recipes/1", "", h.admin).Code)
	assert.NotContains(t, h.svc.recipes, 1)
}

func TestLikeAndReview(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, http.StatusNoContent, h.do(http.MethodPost, "/recipes/1/like", "", h.other).Code)
	assert.Equal(t, http.StatusNoContent, h.do(http.MethodPost, "/recipes/1/like", "", h.other).Code)
	assert.True(t, h.svc.likes[1][20])
	assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, "/recipes/1/like", "", h.other).Code)
	assert.False(t, h.svc.likes[1][20])
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/recipes/42/like", "", h.other).Code)

	rec := h.do(http.MethodPost, "/recipes/1/reviews", `{"rating":5,"comment":"Great"}`, h.other)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rating":5`)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/recipes/1/reviews", `{"rating":6}`, h.other).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/recipes/1/reviews", `{"rating":4}`, h.author).Code)

	rec = h.do(http.MethodGet, "/recipes/1/reviews?page=2", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"page":2`)
}

func multipartImage(t *testing.T, field string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, "photo.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadImage(t *testing.T) {
	h := newHarness(t)
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

	upload := func(field, token string) *httptest.ResponseRecorder {
		body, contentType := multipartImage(t, field, png)
		req := httptest.NewRequest(http.MethodPost, "/recipes/1/image", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.router.ServeHTTP(rec, req)
		return rec
	}

	rec := upload("image", h.author)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "image_url")
	assert.Equal(t, png, h.svc.uploaded)

	assert.Equal(t, http.StatusForbidden, upload("image", h.other).Code)
	assert.Equal(t, http.StatusBadRequest, upload("photo", h.author).Code)

	// Not multipart at all.
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/recipes/1/image", `{"image":"x"}`, h.author).Code)
}

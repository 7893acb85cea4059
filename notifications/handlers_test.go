package notifications

import (
	"bufio"
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
	"github.com/akshayUniverse/cook-ease-sub001/pagination"
)

type fakeService struct {
	unreadOnly bool
	page       pagination.Params
	marked     int64
}

func (f *fakeService) Notify(context.Context, NewNotification) error { return nil }

func (f *fakeService) List(_ context.Context, userID int, unreadOnly bool, page pagination.Params) (*ListResponse, error) {
	f.unreadOnly, f.page = unreadOnly, page
	return &ListResponse{
		Notifications: []Notification{{ID: 1, UserID: userID, Kind: KindRecipeLiked, Message: "ana liked your recipe"}},
		Total:         1, Page: page.Page, PerPage: page.PerPage, TotalPages: 1,
	}, nil
}

func (f *fakeService) UnreadCount(context.Context, int) (int64, error) { return 4, nil }

func (f *fakeService) MarkRead(_ context.Context, userID int, id int64) error {
	if id == 404 {
		return apperror.NewNotFoundError("notification not found", nil)
	}
	f.marked = id
	return nil
}

func (f *fakeService) MarkAllRead(context.Context, int) (int64, error) { return 4, nil }

func newRouter(t *testing.T, svc Service, b *Broadcaster) (http.Handler, string) {
	t.Helper()
	issuer := auth.NewTokenIssuer("secret", time.Minute, time.Hour)
	token, _, err := issuer.IssueAccess(1, false)
	require.NoError(t, err)

	h := NewHandlers(svc, b)
	h.heartbeat = 20 * time.Millisecond
	r := chi.NewRouter()
	r.Route("/api/v1/notifications", func(r chi.Router) {
		h.RegisterStreamRoute(r, issuer)
		h.RegisterRoutes(r, issuer)
	})
	return r, token
}

func TestNotificationHandlers(t *testing.T) {
	svc := &fakeService{}
	router, token := newRouter(t, svc, NewBroadcaster())

	do := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("list", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/v1/notifications?unread=true&per_page=5")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, svc.unreadOnly)
		assert.Equal(t, 5, svc.page.PerPage)
		assert.Contains(t, rec.Body.String(), `"kind":"recipe_liked"`)
	})

	t.Run("bad unread flag", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, do(http.MethodGet, "/api/v1/notifications?unread=maybe").Code)
	})

	t.Run("unread count", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/v1/notifications/unread-count")
		assert.JSONEq(t, `{"unread":4}`, rec.Body.String())
	})

	t.Run("mark read", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, do(http.MethodPost, "/api/v1/notifications/12/read").Code)
		assert.Equal(t, int64(12), svc.marked)
		assert.Equal(t, http.StatusNotFound, do(http.MethodPost, "/api/v1/notifications/404/read").Code)
		assert.Equal(t, http.StatusBadRequest, do(http.MethodPost, "/api/v1/notifications/x/read").Code)
	})

	t.Run("read all", func(t *testing.T) {
		assert.JSONEq(t, `{"updated":4}`, do(http.MethodPost, "/api/v1/notifications/read-all").Body.String())
	})

	t.Run("requires auth", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("query token only opens the stream", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/notifications?access_token="+token, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestStreamPushesEventsAndHeartbeats(t *testing.T) {
	b := NewBroadcaster()
	router, token := newRouter(t, &fakeService{}, b)
	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/notifications/stream?access_token="+token, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readUntil := func(prefix string) string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, prefix) {
				return strings.TrimSpace(line)
			}
		}
	}

	assert.Equal(t, "event: connected", readUntil("event:"))
	require.Eventually(t, func() bool { return b.ClientCount(1) == 1 }, time.Second, 10*time.Millisecond)

	b.SendToUser(1, NewSSEEvent("notification", `{"id":5}`))
	assert.Equal(t, "event: notification", readUntil("event:"))
	assert.Equal(t, `data: {"id":5}`, readUntil("data:"))

	assert.Equal(t, ": ping", readUntil(":"))

	cancel()
	assert.Eventually(t, func() bool { return b.ClientCount(1) == 0 }, 2*time.Second, 10*time.Millisecond)
}

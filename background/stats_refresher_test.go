package background

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshayUniverse/cook-ease-sub001/recipes"
)

type fakeStore struct {
	mu      sync.Mutex
	raw     map[int]RawStats
	failing map[int]bool
	saved   map[int]Stats
}

func newFakeStore(raw ...RawStats) *fakeStore {
	s := &fakeStore{raw: map[int]RawStats{}, failing: map[int]bool{}, saved: map[int]Stats{}}
	for _, r := range raw {
		s.raw[r.RecipeID] = r
	}
	return s
}

func (s *fakeStore) StaleRecipeIDs(_ context.Context, _ time.Time, limit int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int
	for id := range s.raw {
		if _, done := s.saved[id]; !done {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *fakeStore) ComputeStats(_ context.Context, recipeID int, _ time.Time) (*RawStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing[recipeID] {
		return nil, errors.New("boom")
	}
	raw := s.raw[recipeID]
	return &raw, nil
}

func (s *fakeStore) SaveStats(_ context.Context, st Stats, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[st.RecipeID] = st
	return nil
}

func (s *fakeStore) TopTrending(_ context.Context, n int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.saved))
	for id := range s.saved {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return s.saved[ids[i]].TrendingScore > s.saved[ids[j]].TrendingScore
	})
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids, nil
}

type fakeCache struct {
	mu   sync.Mutex
	sets chan []int
	keys []string
}

func newFakeCache() *fakeCache { return &fakeCache{sets: make(chan []int, 8)} }

func (c *fakeCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	c.keys = append(c.keys, key)
	c.mu.Unlock()
	c.sets <- value.([]int)
	return nil
}

func TestTrendingScore(t *testing.T) {
	assert.Equal(t, 0.0, TrendingScore(RawStats{}))
	assert.InDelta(t, 2*4+3*2+4.5, TrendingScore(RawStats{Likes: 100, Likes7d: 4, Reviews7d: 2, AvgRating: 4.5}), 1e-9)
}

func TestRunOnce(t *testing.T) {
	store := newFakeStore(
		RawStats{RecipeID: 1, Likes: 10, Likes7d: 1, Reviews: 2, AvgRating: 3},
		RawStats{RecipeID: 2, Likes: 3, Likes7d: 3, Reviews: 1, Reviews7d: 1, AvgRating: 5},
		RawStats{RecipeID: 3},
	)
	store.failing[3] = true
	c := newFakeCache()
	r := NewStatsRefresher(store, c, time.Hour)

	n, err := r.RunOnce(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, Stats{RecipeID: 1, LikeCount: 10, ReviewCount: 2, AvgRating: 3, TrendingScore: 5}, store.saved[1])
	assert.InDelta(t, 14.0, store.saved[2].TrendingScore, 1e-9)
	assert.NotContains(t, store.saved, 3)

	select {
	case ids := <-c.sets:
		assert.Equal(t, []int{2, 1}, ids)
	default:
		t.Fatal("trending ids were not cached")
	}
	assert.Equal(t, []string{recipes.TrendingCacheKey}, c.keys)
}

func TestRunOnceWithoutCache(t *testing.T) {
	store := newFakeStore(RawStats{RecipeID: 1, Likes7d: 1})
	r := NewStatsRefresher(store, nil, time.Hour)

	n, err := r.RunOnce(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStartRefreshesAndStops(t *testing.T) {
	var raw []RawStats
	for i := 1; i <= 25; i++ {
		raw = append(raw, RawStats{RecipeID: i, Likes7d: i})
	}
	store := newFakeStore(raw...)
	c := newFakeCache()
	r := NewStatsRefresher(store, c, time.Hour)

	r.Start()
	select {
	case ids := <-c.sets:
		require.Len(t, ids, recipes.TrendingSize)
		assert.Equal(t, 25, ids[0])
	case <-time.After(5 * time.Second):
		t.Fatal("first refresh did not finish")
	}

	done := make(chan struct{})
	go func() {
		r.Stop()
		r.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.saved, 25)
}

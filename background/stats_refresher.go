// Package background contains services that run outside the request/response
// cycle. The stats refresher periodically recomputes the denormalized counters
// in recipe_stats and ranks the trending recipes.
//
// The refresher is a small pipeline:
//
//	ticker -> fetcher -> jobs -> N workers -> results -> updater
//
// The fetcher never blocks: when the jobs channel is full the remaining ids
// are left for the next tick, where they are still stale.
package background

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/akshayUniverse/cook-ease-sub001/recipes"
)

const (
	numStatsWorkers = 3
	// fetchBatchSize bounds the ids pulled per tick.
	fetchBatchSize = 200
	// trendingWindow is how far back likes and reviews count towards trending.
	trendingWindow = 7 * 24 * time.Hour
)

// RawStats are the counts read for one recipe.
type RawStats struct {
	RecipeID  int
	Likes     int
	Reviews   int
	Likes7d   int
	Reviews7d int
	AvgRating float64
}

// Stats is the row written to recipe_stats.
type Stats struct {
	RecipeID      int
	LikeCount     int
	ReviewCount   int
	AvgRating     float64
	TrendingScore float64
}

// TrendingScore weighs recent activity: a review is worth more than a like,
// and the average rating breaks ties between equally active recipes.
func TrendingScore(raw RawStats) float64 {
	return float64(raw.Likes7d)*2 + float64(raw.Reviews7d)*3 + raw.AvgRating
}

// StatsStore is the persistence the refresher needs.
type StatsStore interface {
	// StaleRecipeIDs returns recipes whose stats were refreshed before
	// olderThan, or never, oldest first.
	StaleRecipeIDs(ctx context.Context, olderThan time.Time, limit int) ([]int, error)
	ComputeStats(ctx context.Context, recipeID int, since time.Time) (*RawStats, error)
	SaveStats(ctx context.Context, stats Stats, at time.Time) error
	TopTrending(ctx context.Context, n int) ([]int, error)
}

// TrendingCache receives the ranked ids. *cache.Cache satisfies it.
type TrendingCache interface {
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

type statsResult struct {
	recipeID int
	stats    Stats
	err      error
}

// StatsRefresher runs the pipeline. Create it with NewStatsRefresher, then
// call Start once and Stop once.
type StatsRefresher struct {
	store    StatsStore
	cache    TrendingCache
	interval time.Duration
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	jobs    chan int
	results chan statsResult
	// batch counts ids of the current tick that the updater has not finished.
	batch sync.WaitGroup

	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewStatsRefresher creates a refresher. cache may be nil.
func NewStatsRefresher(store StatsStore, cache TrendingCache, interval time.Duration) *StatsRefresher {
	ctx, cancel := context.WithCancel(context.Background())
	return &StatsRefresher{
		store:    store,
		cache:    cache,
		interval: interval,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		jobs:     make(chan int, fetchBatchSize),
		results:  make(chan statsResult, fetchBatchSize),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the orchestrator, the workers and the updater. The first
// refresh runs immediately.
func (s *StatsRefresher) Start() {
	log.Printf("Stats refresher starting (interval %s, %d workers)", s.interval, numStatsWorkers)

	var processorsWg sync.WaitGroup
	for i := 0; i < numStatsWorkers; i++ {
		processorsWg.Add(1)
		go func() {
			defer processorsWg.Done()
			for id := range s.jobs {
				stats, err := s.compute(s.ctx, id)
				s.results <- statsResult{recipeID: id, stats: stats, err: err}
			}
		}()
	}

	var mainWg sync.WaitGroup
	mainWg.Add(1)
	go func() {
		defer mainWg.Done()
		for res := range s.results {
			s.save(s.ctx, res)
			s.batch.Done()
		}
	}()

	// The results channel closes only after every worker has drained jobs.
	go func() {
		processorsWg.Wait()
		close(s.results)
	}()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.tick()
		for {
			select {
			case <-ticker.C:
				s.tick()
			case <-s.stopChan:
				close(s.jobs)
				mainWg.Wait()
				log.Println("Stats refresher stopped")
				return
			}
		}
	}()
}

// Stop cancels in-flight work and waits for the pipeline to drain.
// It is safe to call more than once.
func (s *StatsRefresher) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		close(s.stopChan)
	})
	<-s.done
}

// tick runs on the orchestrator goroutine: fetch, fan out, wait for the
// batch, then rank.
func (s *StatsRefresher) tick() {
	ids, err := s.store.StaleRecipeIDs(s.ctx, s.now().Add(-s.interval), fetchBatchSize)
	if err != nil {
		if s.ctx.Err() == nil {
			log.Printf("Warning: stats refresher failed to fetch stale recipes: %v", err)
		}
		return
	}

	sent := 0
	for _, id := range ids {
		s.batch.Add(1)
		select {
		case s.jobs <- id:
			sent++
		default:
			s.batch.Done()
		}
	}
	if skipped := len(ids) - sent; skipped > 0 {
		log.Printf("Stats refresher: job queue full, %d recipes left for the next tick", skipped)
	}

	s.batch.Wait()
	s.rankTrending(s.ctx)
}

// RunOnce refreshes every stale recipe synchronously and re-ranks trending.
// It returns how many recipes were refreshed.
func (s *StatsRefresher) RunOnce(ctx context.Context) (int, error) {
	ids, err := s.store.StaleRecipeIDs(ctx, s.now().Add(-s.interval), fetchBatchSize)
	if err != nil {
		return 0, err
	}
	refreshed := 0
	for _, id := range ids {
		stats, err := s.compute(ctx, id)
		if s.save(ctx, statsResult{recipeID: id, stats: stats, err: err}) {
			refreshed++
		}
	}
	s.rankTrending(ctx)
	return refreshed, nil
}

func (s *StatsRefresher) compute(ctx context.Context, recipeID int) (Stats, error) {
	raw, err := s.store.ComputeStats(ctx, recipeID, s.now().Add(-trendingWindow))
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		RecipeID:      recipeID,
		LikeCount:     raw.Likes,
		ReviewCount:   raw.Reviews,
		AvgRating:     raw.AvgRating,
		TrendingScore: TrendingScore(*raw),
	}, nil
}

func (s *StatsRefresher) save(ctx context.Context, res statsResult) bool {
	if res.err == nil {
		res.err = s.store.SaveStats(ctx, res.stats, s.now())
	}
	if res.err != nil {
		if ctx.Err() == nil {
			log.Printf("Warning: failed to refresh stats for recipe %d: %v", res.recipeID, res.err)
		}
		return false
	}
	return true
}

func (s *StatsRefresher) rankTrending(ctx context.Context) {
	if s.cache == nil || ctx.Err() != nil {
		return
	}
	ids, err := s.store.TopTrending(ctx, recipes.TrendingSize)
	if err != nil {
		log.Printf("Warning: failed to rank trending recipes: %v", err)
		return
	}
	// Outlive one missed tick so readers do not fall back between refreshes.
	if err := s.cache.SetJSON(ctx, recipes.TrendingCacheKey, ids, 2*s.interval); err != nil {
		log.Printf("Warning: failed to cache trending recipes: %v", err)
	}
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/akshayUniverse/cook-ease-sub001/auth"
	"github.com/akshayUniverse/cook-ease-sub001/background"
	"github.com/akshayUniverse/cook-ease-sub001/cache"
	"github.com/akshayUniverse/cook-ease-sub001/config"
	"github.com/akshayUniverse/cook-ease-sub001/db"
	"github.com/akshayUniverse/cook-ease-sub001/events"
	"github.com/akshayUniverse/cook-ease-sub001/health"
	"github.com/akshayUniverse/cook-ease-sub001/messages"
	"github.com/akshayUniverse/cook-ease-sub001/notifications"
	"github.com/akshayUniverse/cook-ease-sub001/onboarding"
	"github.com/akshayUniverse/cook-ease-sub001/recipes"
	"github.com/akshayUniverse/cook-ease-sub001/seed"
	"github.com/akshayUniverse/cook-ease-sub001/setup"
	"github.com/akshayUniverse/cook-ease-sub001/shoppinglists"
	"github.com/akshayUniverse/cook-ease-sub001/storage"
	"github.com/akshayUniverse/cook-ease-sub001/users"
)

// server owns every long-lived connection of a running API process.
type server struct {
	appPool         *pgxpool.Pool
	maintenancePool *pgxpool.Pool
	cache           *cache.Cache
	mongo           *mongo.Client
	minio           *storage.MinioStore
	nats            *events.NATSPublisher
	refresher       *background.StatsRefresher
	handler         http.Handler
}

// trendingCache hides a disabled cache from the refresher.
func trendingCache(c *cache.Cache) background.TrendingCache {
	if !c.Enabled() {
		return nil
	}
	return c
}

// newServer connects the backends and builds the router. Optional backends
// that are configured must be reachable; unconfigured ones are skipped.
func newServer(ctx context.Context, cfg *config.AppConfig) (_ *server, err error) {
	s := &server{}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	s.appPool, s.maintenancePool, err = db.NewDBPools(cfg.DBPools)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pools: %w", err)
	}

	if s.cache, err = cache.New(ctx, cfg.Redis); err != nil {
		return nil, err
	}
	if !s.cache.Enabled() {
		log.Println("Redis not configured; trending recipes are read from Postgres")
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATS.URL != "" {
		if s.nats, err = events.Connect(cfg.NATS.URL); err != nil {
			return nil, err
		}
		publisher = s.nats
	}

	var images storage.ImageStore
	if cfg.Minio.Enabled() {
		if s.minio, err = storage.NewMinioStore(ctx, cfg.Minio); err != nil {
			return nil, err
		}
		images = s.minio
	} else {
		log.Println("MinIO not configured; recipe image uploads are disabled")
	}

	var messageStore messages.Store
	if cfg.Mongo.URI != "" {
		if s.mongo, err = messages.Connect(ctx, cfg.Mongo); err != nil {
			return nil, err
		}
		store := messages.NewMongoStore(s.mongo.Database(cfg.Mongo.Database))
		if err = store.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		messageStore = store
	} else {
		log.Println("Warning: MONGO_URI not set; messages are kept in memory and lost on restart")
		messageStore = messages.NewMemoryStore()
	}

	authService := auth.NewAuthService(s.appPool, cfg.Auth)
	tokens := authService.Tokens()

	broadcaster := notifications.NewBroadcaster()
	notificationService := notifications.NewNotificationService(s.appPool, broadcaster, cfg.Server.FrontendURL)
	userService := users.NewUserService(s.appPool)
	onboardingService := onboarding.NewPreferenceService(s.appPool)
	recipeService := recipes.NewRecipeService(s.appPool, recipes.Dependencies{
		Cache:       s.cache,
		Images:      images,
		Events:      publisher,
		Notifier:    notificationService,
		Preferences: onboardingService,
	})

	maintenance := cfg.DBPools.MaintenancePool
	setupHandlers := setup.NewHandlers(cfg.Setup.Token,
		func() (*db.MigrationStatus, error) { return db.RunMigrations(maintenance) },
		func(ctx context.Context) (*seed.Result, error) { return seed.Run(ctx, maintenance) },
	)

	s.handler = newRouter(routes{
		tokens:        tokens,
		corsOrigins:   cfg.Server.CORSAllowedOrigins,
		auth:          auth.NewHandlers(authService, tokens, auth.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)),
		users:         users.NewUserHandlers(userService),
		recipes:       recipes.NewHandlers(recipeService),
		shoppingLists: shoppinglists.NewHandlers(shoppinglists.NewListService(s.appPool)),
		onboarding:    onboarding.NewHandlers(onboardingService),
		messages:      messages.NewHandlers(messages.NewMessageService(messageStore, userService, notificationService)),
		notifications: notifications.NewHandlers(notificationService, broadcaster),
		setup:         setupHandlers,
		health:        health.NewHandler(s.healthChecks()...),
	})

	s.refresher = background.NewStatsRefresher(
		background.NewPgStatsStore(s.maintenancePool),
		trendingCache(s.cache),
		cfg.Background.StatsRefreshInterval,
	)
	return s, nil
}

// healthChecks lists every backend. Only Postgres is required; the others
// report "disabled" when they are not configured.
func (s *server) healthChecks() []health.Check {
	checks := []health.Check{
		{Name: "postgres", Ping: s.appPool.Ping, Required: true},
		{Name: "redis"},
		{Name: "mongo"},
		{Name: "minio"},
	}
	if s.cache.Enabled() {
		checks[1].Ping = s.cache.Ping
	}
	if s.mongo != nil {
		client := s.mongo
		checks[2].Ping = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	}
	if s.minio != nil {
		checks[3].Ping = s.minio.Ping
	}
	return checks
}

// close releases every connection in reverse order of opening.
func (s *server) close() {
	if s.mongo != nil {
		if err := s.mongo.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}
	if s.nats != nil {
		s.nats.Close()
	}
	if err := s.cache.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}
	if s.maintenancePool != nil {
		s.maintenancePool.Close()
	}
	if s.appPool != nil {
		s.appPool.Close()
	}
}

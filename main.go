// This is the main entry point of the CookEase API.
// It wires configuration, database pools, the optional backends and every
// feature package into one chi router, and exposes a small CLI around it:
//
//	cookease serve           run the HTTP server (default)
//	cookease migrate [--down] apply or roll back schema migrations
//	cookease seed            load the demo users and recipes
//	cookease refresh-stats   recompute recipe stats once and exit
//
// @title CookEase API
// @version 1.0
// @description Recipe discovery, shopping lists, onboarding preferences and direct messages.
// @contact.name API Support
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// `godotenv` loads environment variables from a .env file, useful for development.
	"github.com/joho/godotenv"
	// `urfave/cli` provides the subcommands and their flags.
	"github.com/urfave/cli/v2"

	"github.com/akshayUniverse/cook-ease-sub001/background"
	"github.com/akshayUniverse/cook-ease-sub001/cache"
	"github.com/akshayUniverse/cook-ease-sub001/config"
	"github.com/akshayUniverse/cook-ease-sub001/db"
	"github.com/akshayUniverse/cook-ease-sub001/seed"
)

func main() {
	// In production variables are set directly, so a missing .env is only a warning.
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading it: %v", err)
	}

	app := &cli.App{
		Name:   "cookease",
		Usage:  "CookEase API server and maintenance commands",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "apply pending schema migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "down", Usage: "roll back instead of applying"},
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "number of migrations to roll back with --down"},
				},
				Action: migrateCommand,
			},
			{
				Name:   "seed",
				Usage:  "load the demo users and recipes",
				Action: seedCommand,
			},
			{
				Name:   "refresh-stats",
				Usage:  "recompute stale recipe stats once",
				Action: refreshStatsCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	srv, err := newServer(c.Context, cfg)
	if err != nil {
		return err
	}
	defer srv.close()

	srv.refresher.Start()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// No WriteTimeout: the notification stream stays open indefinitely.
		// Every other route is bounded by the Timeout middleware.
		IdleTimeout: 60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		srv.refresher.Stop()
		return fmt.Errorf("failed to start server: %w", err)
	}

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Println("Stopping background stats refresher...")
	srv.refresher.Stop()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Println("Server stopped gracefully")
	return nil
}

func migrateCommand(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pool := cfg.DBPools.MaintenancePool

	if c.Bool("down") {
		if err := db.RollbackMigrations(pool, c.Int("steps")); err != nil {
			return err
		}
		log.Printf("Rolled back %d migration(s)", c.Int("steps"))
		return nil
	}

	status, err := db.RunMigrations(pool)
	if err != nil {
		return err
	}
	if status.Applied {
		log.Printf("Migrated to version %d", status.Version)
	} else {
		log.Printf("Schema already at version %d", status.Version)
	}
	return nil
}

func seedCommand(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	result, err := seed.Run(c.Context, cfg.DBPools.MaintenancePool)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "seeded %d users and %d recipes\n", result.Users, result.Recipes)
	return nil
}

func refreshStatsCommand(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	appPool, maintenancePool, err := db.NewDBPools(cfg.DBPools)
	if err != nil {
		return err
	}
	defer appPool.Close()
	defer maintenancePool.Close()

	redisCache, err := cache.New(c.Context, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisCache.Close()

	// A zero interval treats every recipe as stale, so one run refreshes a full batch.
	refresher := background.NewStatsRefresher(background.NewPgStatsStore(maintenancePool), trendingCache(redisCache), 0)
	n, err := refresher.RunOnce(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "refreshed stats for %d recipes\n", n)
	return nil
}

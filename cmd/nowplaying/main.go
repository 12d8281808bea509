package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/voyagen/nowplaying/internal/cache"
	"github.com/voyagen/nowplaying/internal/config"
	nplog "github.com/voyagen/nowplaying/internal/log"
	"github.com/voyagen/nowplaying/internal/server"
	"github.com/voyagen/nowplaying/internal/service"
	"github.com/voyagen/nowplaying/internal/store"
)

const seedInterval = time.Hour

func main() {
	configPath := flag.String("config", "", "Optional config file path (YAML); else use env")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	nplog.Configure(nplog.Config{Level: cfg.LogLevel})
	logger := nplog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var appStore store.Store
	if cfg.DatabaseURL != "" {
		if err := store.RunMigrations(cfg.DatabaseURL, migrationsPath()); err != nil {
			logger.Fatal().Err(err).Msg("migrate")
		}
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("db")
		}
		defer pg.Close()
		appStore = pg
	} else {
		logger.Warn().Msg("DATABASE_URL not set, using in-memory store")
		appStore = store.NewMemory()
	}

	// Connect to Redis if REDIS_URL is configured.
	var rds *cache.Redis
	if cfg.RedisURL != "" {
		rds, err = cache.New(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer rds.Close()

		if err := rds.Ping(ctx); err != nil {
			logger.Fatal().Err(err).Msg("redis ping")
		}
		appStore = store.NewCachedStore(appStore, rds)
		logger.Info().Msg("redis connected (caching enabled)")

		go runContactWorker(ctx, rds)
	} else {
		logger.Info().Msg("redis disabled (REDIS_URL not set)")
	}

	ch, err := service.EnsureDefaultChannel(ctx, appStore)
	if err != nil {
		logger.Fatal().Err(err).Msg("default channel")
	}

	if len(cfg.SeedTemplate) > 0 {
		seeder := service.NewSeeder(appStore, rds, ch.ID, cfg.SeedTemplate, cfg.Location)
		go seeder.Run(ctx, seedInterval)
	}

	logger.Info().
		Str("timezone", cfg.Location.String()).
		Int64(nplog.FieldChannelID, ch.ID).
		Msg("starting")

	srv := server.New(appStore, cfg, rds)
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server")
	}
}

// migrationsPath resolves ./migrations relative to the working directory, then
// to the executable.
func migrationsPath() string {
	abs, err := filepath.Abs("migrations")
	if err != nil {
		abs = "migrations"
	}
	if _, err := os.Stat(abs); err != nil {
		if exe, e := os.Executable(); e == nil {
			abs = filepath.Join(filepath.Dir(exe), "migrations")
		}
	}
	return "file://" + abs
}

// runContactWorker drains the contact notification queue until ctx is cancelled.
// Delivery is a structured log line; a mail relay can consume the same queue.
func runContactWorker(ctx context.Context, rds *cache.Redis) {
	logger := nplog.WithComponent("contact-worker")
	logger.Info().Msg("started")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("stopping")
			return
		default:
		}

		job, err := cache.Dequeue(ctx, rds, cache.ContactQueue, 5*time.Second)
		if err != nil {
			logger.Error().Err(err).Msg("dequeue")
			time.Sleep(2 * time.Second)
			continue
		}
		if job == nil {
			continue // timeout, loop back to check ctx
		}

		logger.Info().
			Int64("contact_id", job.Message.ID).
			Str("from", job.Message.Email).
			Dur("queued_for", time.Since(job.EnqueuedAt)).
			Msg("contact message received")
	}
}

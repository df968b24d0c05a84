package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/KILATIV100/perkup-ecosystem/internal/config"
	"github.com/KILATIV100/perkup-ecosystem/internal/database"
	"github.com/KILATIV100/perkup-ecosystem/internal/loyalty"
	"github.com/KILATIV100/perkup-ecosystem/internal/migrations"
	"github.com/KILATIV100/perkup-ecosystem/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	if err := server.EnsureAdmin(ctx, db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("bootstrapping admin: %w", err)
	}

	// --- Redis (optional) ---
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")
	}

	// --- Services ---
	store := loyalty.NewSQLiteStore(db)
	broker := server.NewBroker()
	notifier := server.NewStoreNotifier(logger, store, broker)

	loyaltyCfg := loyalty.Config{
		CheckinBasePoints: cfg.CheckinBasePoints,
		CheckinBaseXP:     cfg.CheckinBaseXP,
		LeaderboardLimit:  cfg.LeaderboardLimit,
	}
	leaderboard := loyalty.NewLeaderboardService(store, loyaltyCfg)

	deps := server.Deps{
		Logger:       logger,
		DB:           db,
		Redis:        rdb,
		Broker:       broker,
		Store:        store,
		Checkins:     loyalty.NewCheckinService(store, loyaltyCfg, notifier),
		Games:        loyalty.NewGameService(store, notifier, leaderboard),
		Leaderboard:  leaderboard,
		Events:       loyalty.NewEventService(store, notifier),
		Achievements: loyalty.NewAchievementService(store, notifier),
		BotToken:     cfg.TelegramBotToken,
	}

	srv := server.New(cfg.HTTPAddr, deps)

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

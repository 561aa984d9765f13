package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"trasim/internal/api"
	"trasim/internal/observability"
	"trasim/internal/storage"
	"trasim/internal/storage/memory"
	"trasim/internal/storage/migrations"
	pgstore "trasim/internal/storage/postgres"
	"trasim/internal/storage/rediscache"
)

func main() {
	_ = godotenv.Load()

	listenAddr := flag.String("listen-addr", ":8080", "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	redisURL := flag.String("redis-url", os.Getenv("REDIS_URL"), "Redis connection URL (empty to disable caching)")
	walletCap := flag.Int64("wallet-cap", api.DefaultWalletCap, "Default sell window capacity in lamports")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	var (
		trades    storage.TradeStore
		markets   storage.MarketStore
		seasons   storage.SeasonStore
		snapshots storage.SnapshotStore
		claims    storage.RewardClaimStore
	)

	if *useMemory {
		store := memory.NewStore()
		trades = store.Trades()
		markets = store.Markets()
		seasons = store.Seasons()
		snapshots = store.Snapshots()
		claims = store.RewardClaims()
	} else {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("Connect to postgres: %v", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("Run postgres migrations: %v", err)
		}

		trades = pgstore.NewTradeStore(pool)
		markets = pgstore.NewMarketStore(pool)
		seasons = pgstore.NewSeasonStore(pool)
		snapshots = pgstore.NewSnapshotStore(pool)
		claims = pgstore.NewRewardClaimStore(pool)
	}

	if *redisURL != "" {
		redisOpts, err := redis.ParseURL(*redisURL)
		if err != nil {
			logger.Fatalf("Parse redis URL: %v", err)
		}
		rdb := redis.NewClient(redisOpts)
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatalf("Ping redis: %v", err)
		}

		markets = rediscache.NewMarketStore(markets, rdb, rediscache.DefaultTTL)
		snapshots = rediscache.NewSnapshotStore(snapshots, rdb, rediscache.DefaultTTL)
		logger.Println("Redis caching enabled")
	}

	svc := api.NewService(api.ServiceOptions{
		Trades:    trades,
		Markets:   markets,
		Seasons:   seasons,
		Snapshots: snapshots,
		Claims:    claims,
		WalletCap: *walletCap,
		Metrics:   observability.Default(),
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:         *listenAddr,
		Handler:      svc.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("Listening on %s", *listenAddr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server error: %v", err)
		}
	case sig := <-sigCh:
		logger.Printf("Received signal %v, shutting down...", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
			if cerr := srv.Close(); cerr != nil {
				logger.Printf("Close error: %v", cerr)
			}
		}
	}

	logger.Println("Shutdown complete")
}

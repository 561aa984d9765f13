package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"trasim/internal/events"
	"trasim/internal/indexer"
	"trasim/internal/ingestion"
	"trasim/internal/observability"
	"trasim/internal/solana"
	"trasim/internal/storage"
	chstore "trasim/internal/storage/clickhouse"
	"trasim/internal/storage/memory"
	"trasim/internal/storage/migrations"
	pgstore "trasim/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	wsEndpoint := flag.String("ws-endpoint", os.Getenv("SOLANA_WS_ENDPOINT"), "Ledger WebSocket endpoint")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (empty to disable the trade archive)")
	programs := flag.String("programs", strings.Join(events.DefaultPrograms(), ","), "Comma-separated program addresses to monitor")
	commitment := flag.String("commitment", "confirmed", "Log subscription commitment level")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")

	flag.Parse()

	logger := log.New(os.Stdout, "[indexer] ", log.LstdFlags|log.Lshortfile)
	metrics := observability.Default()

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	programList := splitPrograms(*programs)
	if len(programList) == 0 {
		logger.Fatal("No program addresses specified. Use --programs")
	}
	logger.Printf("Monitoring programs: %v", programList)

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err := run(ctx, logger, metrics, *wsEndpoint, *postgresDSN, *clickhouseDSN, *commitment, programList, *useMemory)

	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

func splitPrograms(programs string) []string {
	var list []string
	for _, p := range strings.Split(programs, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			list = append(list, p)
		}
	}
	return list
}

func run(ctx context.Context, logger *log.Logger, metrics *observability.Metrics, wsEndpoint, postgresDSN, clickhouseDSN, commitment string, programs []string, useMemory bool) error {
	if wsEndpoint == "" {
		return fmt.Errorf("--ws-endpoint is required")
	}
	if !useMemory && postgresDSN == "" {
		return fmt.Errorf("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	var (
		trades   storage.TradeStore
		markets  storage.MarketStore
		seasons  storage.SeasonStore
		adminLog storage.AdminActionStore
	)

	if useMemory {
		store := memory.NewStore()
		trades = store.Trades()
		markets = store.Markets()
		seasons = store.Seasons()
		adminLog = store.AdminActions()
	} else {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("run postgres migrations: %w", err)
		}

		trades = pgstore.NewTradeStore(pool)
		markets = pgstore.NewMarketStore(pool)
		seasons = pgstore.NewSeasonStore(pool)
		adminLog = pgstore.NewAdminActionStore(pool)
	}

	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			return fmt.Errorf("run clickhouse migrations: %w", err)
		}
		defer conn.Close()

		trades = chstore.NewArchivingTradeStore(trades, chstore.NewTradeArchive(conn), logger)
		logger.Println("Trade archive enabled")
	}

	client, err := solana.NewClient(ctx, wsEndpoint, &solana.WSClientConfig{
		Commitment:  commitment,
		Logger:      logger,
		OnReconnect: metrics.WSReconnects.Inc,
	})
	if err != nil {
		return fmt.Errorf("connect websocket: %w", err)
	}
	defer client.Close()

	reducer := indexer.NewReducer(indexer.ReducerOptions{
		Trades:   trades,
		Markets:  markets,
		Seasons:  seasons,
		AdminLog: adminLog,
		Metrics:  metrics,
		Logger:   logger,
	})

	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Client:   client,
		Programs: programs,
		Reducer:  reducer,
		Metrics:  metrics,
		Logger:   logger,
	})

	logger.Println("Starting ingestion...")
	return runner.Run(ctx)
}

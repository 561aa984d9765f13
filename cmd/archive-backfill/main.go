// Command archive-backfill copies trades from PostgreSQL into the
// ClickHouse trade archive. Run it after enabling the archive on an
// indexer that has already been ingesting, or to repair a gap; the
// archive table collapses duplicate signatures, so re-running is safe.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	chstore "trasim/internal/storage/clickhouse"
	"trasim/internal/storage/migrations"
	pgstore "trasim/internal/storage/postgres"
)

func main() {
	_ = godotenv.Load()

	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	limit := flag.Int("limit", 100000, "Maximum trades to copy per market")

	flag.Parse()

	logger := log.New(os.Stdout, "[archive-backfill] ", log.LstdFlags)

	if *postgresDSN == "" || *clickhouseDSN == "" {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required")
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("Connect to postgres: %v", err)
	}
	defer pool.Close()

	conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("Run clickhouse migrations: %v", err)
	}
	defer conn.Close()

	markets := pgstore.NewMarketStore(pool)
	trades := pgstore.NewTradeStore(pool)
	archive := chstore.NewTradeArchive(conn)

	marketList, err := markets.List(ctx)
	if err != nil {
		logger.Fatalf("List markets: %v", err)
	}

	var total int
	for _, m := range marketList {
		batch, err := trades.ListByMarket(ctx, m.MarketID, *limit)
		if err != nil {
			logger.Fatalf("List trades for %s: %v", m.MarketID, err)
		}
		if len(batch) == 0 {
			continue
		}
		if err := archive.InsertBulk(ctx, batch); err != nil {
			logger.Fatalf("Archive trades for %s: %v", m.MarketID, err)
		}
		logger.Printf("Archived %d trades for market %s", len(batch), m.MarketID)
		total += len(batch)
	}

	logger.Printf("Done: %d trades archived across %d markets", total, len(marketList))

	volumes, err := archive.VolumeByMarket(ctx, 10)
	if err != nil {
		logger.Fatalf("Query archive volumes: %v", err)
	}
	for marketID, volume := range volumes {
		logger.Printf("Archive volume %s: %d lamports", marketID, volume)
	}
}

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

	"breakout-lab/internal/config"
	"breakout-lab/internal/feed"
	"breakout-lab/internal/observability"
	"breakout-lab/internal/storage"
	chstore "breakout-lab/internal/storage/clickhouse"
	"breakout-lab/internal/storage/migrations"
	pgstore "breakout-lab/internal/storage/postgres"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		log.Fatalf("load env: %v", err)
	}

	// Parse flags
	symbol := flag.String("symbol", env.Symbol, "Trading pair")
	interval := flag.String("interval", feed.DefaultInterval, "Kline interval")
	from := flag.String("from", "2017-11-01", "First day to download (YYYY-MM-DD, UTC)")
	to := flag.String("to", "", "First day not to download (YYYY-MM-DD, UTC); empty means up to now")
	out := flag.String("out", "", "Write candles to this CSV file instead of ClickHouse")
	clickhouseDSN := flag.String("clickhouse-dsn", env.ClickhouseDSN, "ClickHouse connection string")
	postgresDSN := flag.String("postgres-dsn", env.PostgresDSN, "PostgreSQL connection string for the resume cursor (optional)")
	pause := flag.Duration("pause", feed.DefaultPagePause, "Minimum delay between kline pages")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[fetch] ", log.LstdFlags)

	// Start metrics server if enabled
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

	start, err := time.Parse("2006-01-02", *from)
	if err != nil {
		logger.Fatalf("--from: %v", err)
	}
	var end int64
	if *to != "" {
		t, err := time.Parse("2006-01-02", *to)
		if err != nil {
			logger.Fatalf("--to: %v", err)
		}
		end = t.UnixMilli() - 1
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	src := feed.Binance{
		Client:   feed.NewSpotClient(env.BinanceAPIKey, env.BinanceSecretKey),
		Symbol:   *symbol,
		Interval: *interval,
		Start:    start.UnixMilli(),
		End:      end,
		Pause:    *pause,
	}
	began := time.Now()

	// CSV target: one shot, no resume
	if *out != "" {
		logger.Printf("Downloading %s %s klines from %s", *symbol, *interval, *from)
		candles, err := src.Load(ctx)
		if err != nil {
			logger.Fatalf("download klines: %v", err)
		}
		f, err := os.Create(*out)
		if err != nil {
			logger.Fatalf("create %s: %v", *out, err)
		}
		defer f.Close()
		if err := feed.WriteCSV(f, candles); err != nil {
			logger.Fatalf("write csv: %v", err)
		}
		observability.DefaultMetrics.RecordFetch(src.Name(), len(candles), time.Since(began).Seconds())
		logger.Printf("Wrote %d candles to %s", len(candles), *out)
		return
	}

	// ClickHouse target: migrate, then resume after the last stored candle
	if *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required when --out is not set")
	}
	conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("migrate clickhouse: %v", err)
	}
	defer conn.Close()
	candleStore := chstore.NewCandleStore(conn)

	var progress storage.FetchProgressStore
	if *postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("migrate postgres: %v", err)
		}
		progress = pgstore.NewFetchProgressStore(pool)
	}

	logger.Printf("Syncing %s %s klines into ClickHouse", *symbol, *interval)
	n, err := feed.Sync(ctx, src, candleStore, progress)
	observability.DefaultMetrics.RecordFetch(src.Name(), n, time.Since(began).Seconds())
	if err != nil {
		logger.Fatalf("sync klines after %d new candles: %v", n, err)
	}
	logger.Printf("Stored %d new candles in %v", n, time.Since(began).Round(time.Second))
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"breakout-lab/internal/config"
	"breakout-lab/internal/feed"
	"breakout-lab/internal/observability"
	"breakout-lab/internal/optimize"
	chstore "breakout-lab/internal/storage/clickhouse"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		log.Fatalf("load env: %v", err)
	}

	// Parse flags
	configPath := flag.String("config", "", "Base strategy JSON file (long/short K and stop loss come from the grid)")
	csvPath := flag.String("csv", "", "Candle CSV file (otherwise ClickHouse is read)")
	symbol := flag.String("symbol", env.Symbol, "Trading pair (ClickHouse feed)")
	interval := flag.String("interval", feed.DefaultInterval, "Candle interval (ClickHouse feed)")
	clickhouseDSN := flag.String("clickhouse-dsn", env.ClickhouseDSN, "ClickHouse connection string")
	split := flag.String("split", "train", "Feed part to search: train (before 2021-01-01), test, all")
	objectiveName := flag.String("objective", string(optimize.ObjectiveDrawdown), "Objective: drawdown or return")
	kMin := flag.Float64("k-min", optimize.DefaultSpace().K.Min, "Smallest K")
	kMax := flag.Float64("k-max", optimize.DefaultSpace().K.Max, "Largest K")
	kStep := flag.Float64("k-step", optimize.DefaultSpace().K.Step, "K step")
	slMin := flag.Float64("sl-min", optimize.DefaultSpace().StopLoss.Min, "Smallest stop loss")
	slMax := flag.Float64("sl-max", optimize.DefaultSpace().StopLoss.Max, "Largest stop loss")
	slStep := flag.Float64("sl-step", optimize.DefaultSpace().StopLoss.Step, "Stop loss step")
	workers := flag.Int("workers", 0, "Parallel simulations (0 = GOMAXPROCS)")
	top := flag.Int("top", 10, "Number of results to print")
	outputJSON := flag.Bool("json", false, "Output results as JSON")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[optimize] ", log.LstdFlags)

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

	objective, err := optimize.ParseObjective(*objectiveName)
	if err != nil {
		logger.Fatal(err)
	}
	base, err := config.LoadStrategy(*configPath)
	if err != nil {
		logger.Fatalf("load strategy: %v", err)
	}
	if base.ShortK != base.LongK {
		logger.Printf("Grid K sets both long and short K; short_k=%v from the config is ignored", base.ShortK)
	}
	space := optimize.Space{
		K:        optimize.Range{Min: *kMin, Max: *kMax, Step: *kStep},
		StopLoss: optimize.Range{Min: *slMin, Max: *slMax, Step: *slStep},
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

	var src feed.Source
	if *csvPath != "" {
		src = feed.CSV{Path: *csvPath}
	} else {
		if *clickhouseDSN == "" {
			logger.Fatal("--csv or --clickhouse-dsn is required")
		}
		conn, err := chstore.NewConn(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("connect to clickhouse: %v", err)
		}
		defer conn.Close()
		src = feed.Store{Store: chstore.NewCandleStore(conn), Symbol: *symbol, Interval: *interval}
	}

	began := time.Now()
	candles, err := src.Load(ctx)
	if err != nil {
		logger.Fatalf("load %s feed: %v", src.Name(), err)
	}
	observability.DefaultMetrics.RecordFetch(src.Name(), len(candles), time.Since(began).Seconds())

	train, test := feed.Split(candles, feed.DefaultSplitMs)
	switch *split {
	case "train":
		candles = train
	case "test":
		candles = test
	case "all":
	default:
		logger.Fatalf("Invalid split: %s. Must be train, test, or all", *split)
	}

	points, err := space.Points()
	if err != nil {
		logger.Fatal(err)
	}
	logger.Printf("Searching %d points over %d candles (objective=%s)", len(points), len(candles), objective)

	began = time.Now()
	results, err := optimize.GridSearch(ctx, candles, base, space, objective, optimize.Options{
		Workers: *workers,
		Metrics: observability.DefaultMetrics,
	})
	if err != nil {
		logger.Fatalf("grid search failed: %v", err)
	}
	logger.Printf("Search finished in %v", time.Since(began).Round(time.Millisecond))

	if *top > 0 && len(results) > *top {
		results = results[:*top]
	}

	// Output result
	if *outputJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return
	}
	printResults(results, objective)
}

// printResults outputs a human-readable ranking.
func printResults(results []optimize.Result, objective optimize.Objective) {
	fmt.Println()
	fmt.Printf("=== Top %d by %s ===\n", len(results), objective)
	fmt.Printf("%-4s %-8s %-9s %-12s %-12s %-12s %-8s %-7s\n",
		"#", "K", "StopLoss", "Score", "TotalRet", "MaxDD", "Trades", "Sharpe")
	for i, r := range results {
		fmt.Printf("%-4d %-8.3f %-9.4f %-12.4f %-12.4f %-12.4f %-8d %-7.2f\n",
			i+1, r.Point.K, r.Point.StopLoss, r.Score,
			r.Stats.TotalReturn, r.Stats.MaxDrawdown, r.Stats.TradeCount, r.Stats.Sharpe)
	}
}

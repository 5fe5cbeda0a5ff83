package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"breakout-lab/internal/config"
	"breakout-lab/internal/domain"
	"breakout-lab/internal/eventlog"
	"breakout-lab/internal/feed"
	"breakout-lab/internal/observability"
	"breakout-lab/internal/reporting"
	"breakout-lab/internal/simulation"
	"breakout-lab/internal/storage"
	chstore "breakout-lab/internal/storage/clickhouse"
	"breakout-lab/internal/storage/migrations"
	pgstore "breakout-lab/internal/storage/postgres"
)

func main() {
	// Load .env before flags so env values become flag defaults
	env, err := config.LoadEnv()
	if err != nil {
		log.Fatalf("load env: %v", err)
	}

	// Strategy parameters
	configPath := flag.String("config", "", "Strategy JSON file (defaults are used for omitted keys)")
	longK := flag.Float64("long-k", domain.DefaultLongK, "Long breakout K")
	shortK := flag.Float64("short-k", domain.DefaultShortK, "Short breakout K")
	stopLoss := flag.Float64("stoploss", domain.DefaultStopLoss, "Stop distance as a fraction of entry")
	leverage := flag.Float64("leverage", domain.DefaultLeverage, "Default leverage")
	maWindow := flag.Int("ma-window", domain.DefaultMAWindowDays, "Moving average window in days")
	enableMA := flag.Bool("enable-ma", false, "Gate entries on the moving average")
	enableShorting := flag.Bool("enable-shorting", false, "Allow short entries")
	tradeEveryDay := flag.Bool("trade-every-day", true, "Trade the day after an overnight exit")
	fee := flag.Float64("fee", domain.DefaultFee, "Per-side fee fraction")
	slippage := flag.Float64("slippage", domain.DefaultSlippage, "Per-side slippage fraction")
	initialBalance := flag.Float64("initial-balance", domain.DefaultInitialBalance, "Starting balance")

	// Feed
	source := flag.String("source", "csv", "Candle source: csv, clickhouse, binance")
	csvPath := flag.String("csv", "", "Candle CSV file (source=csv)")
	symbol := flag.String("symbol", env.Symbol, "Trading pair")
	interval := flag.String("interval", feed.DefaultInterval, "Candle interval")
	from := flag.String("from", "", "First day to include (YYYY-MM-DD)")
	to := flag.String("to", "", "First day to exclude (YYYY-MM-DD)")
	cache := flag.Bool("cache", false, "Cache Binance downloads in ClickHouse (source=binance)")
	timezone := flag.String("timezone", "UTC", "IANA zone where trading days start")

	// Storage
	postgresDSN := flag.String("postgres-dsn", env.PostgresDSN, "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", env.ClickhouseDSN, "ClickHouse connection string")
	persist := flag.Bool("persist", false, "Persist the run record to PostgreSQL")

	// Output
	logFile := flag.String("log-file", "", "Write the event log to this file")
	zapEvents := flag.Bool("zap", false, "Emit events as structured JSON logs on stderr")
	outputJSON := flag.Bool("json", false, "Output the run record as JSON")
	outputMarkdown := flag.Bool("markdown", false, "Output the report as Markdown")
	seriesCSV := flag.String("series-csv", "", "Write the daily balance/benchmark series to this CSV file")
	tradesCSV := flag.String("trades-csv", "", "Write the trade journal to this CSV file")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	// Build strategy config: file, then explicitly set flags
	cfg, err := config.LoadStrategy(*configPath)
	if err != nil {
		logger.Fatalf("load strategy: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "long-k":
			cfg.LongK = *longK
		case "short-k":
			cfg.ShortK = *shortK
		case "stoploss":
			cfg.StopLoss = *stopLoss
		case "leverage":
			cfg.Leverage = *leverage
		case "ma-window":
			cfg.MAWindowDays = *maWindow
		case "enable-ma":
			cfg.EnableMA = *enableMA
		case "enable-shorting":
			cfg.EnableShorting = *enableShorting
		case "trade-every-day":
			cfg.TradeEveryDay = *tradeEveryDay
		case "fee":
			cfg.FeeFraction = *fee
		case "slippage":
			cfg.SlippageFraction = *slippage
		case "initial-balance":
			cfg.InitialBalance = *initialBalance
		}
	})
	if err := cfg.Validate(); err != nil {
		logger.Fatal(err)
	}

	kind, err := parseSource(*source)
	if err != nil {
		logger.Fatal(err)
	}

	loc, err := time.LoadLocation(*timezone)
	if err != nil {
		logger.Fatalf("load timezone: %v", err)
	}
	fromMs, err := parseDay(*from, loc)
	if err != nil {
		logger.Fatalf("--from: %v", err)
	}
	toMs, err := parseDay(*to, loc)
	if err != nil {
		logger.Fatalf("--to: %v", err)
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

	// ClickHouse backs the clickhouse source and the Binance cache
	var candleStore storage.CandleStore
	if needsCandleStore(kind, *cache) {
		if *clickhouseDSN == "" {
			logger.Fatal("--clickhouse-dsn is required for the clickhouse source and --cache")
		}
		conn, err := chstore.NewConn(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("connect to clickhouse: %v", err)
		}
		defer conn.Close()
		candleStore = chstore.NewCandleStore(conn)
	}

	var src feed.Source
	switch kind {
	case "csv":
		if *csvPath == "" {
			logger.Fatal("--csv is required for source=csv")
		}
		src = feed.CSV{Path: *csvPath}
	case "clickhouse":
		src = feed.Store{Store: candleStore, Symbol: *symbol, Interval: *interval}
	case "binance":
		var end int64
		if toMs != 0 {
			end = toMs - 1
		}
		src = feed.Binance{
			Client:   feed.NewSpotClient(env.BinanceAPIKey, env.BinanceSecretKey),
			Symbol:   *symbol,
			Interval: *interval,
			Start:    fromMs,
			End:      end,
		}
		if *cache {
			src = feed.Cached{Store: candleStore, Upstream: src, Symbol: *symbol, Interval: *interval}
		}
	}
	if fromMs != 0 || toMs != 0 {
		src = feed.Windowed{Source: src, FromMs: fromMs, ToMs: toMs}
	}

	// Event sinks. Buffered sinks are flushed on every exit path, including
	// a failed run.
	var sinks eventlog.Multi
	var flush flushers
	defer func() { flush.run(logger) }()
	if *logFile != "" {
		f, err := os.Create(*logFile)
		if err != nil {
			logger.Fatalf("create log file: %v", err)
		}
		text := eventlog.NewText(f)
		flush = append(flush, text.Flush, f.Close)
		if err := text.WriteHeader(fmt.Sprintf("Backtest run at %s", time.Now().Format(time.RFC3339))); err != nil {
			logger.Fatalf("write log header: %v", err)
		}
		sinks = append(sinks, text)
	}
	if *zapEvents {
		zl, err := zap.NewProduction()
		if err != nil {
			logger.Fatalf("create zap logger: %v", err)
		}
		flush = append(flush, func() error {
			_ = zl.Sync()
			return nil
		})
		sinks = append(sinks, eventlog.NewZap(zl))
	}

	// Run store
	var runStore storage.RunStore
	if *persist {
		if *postgresDSN == "" {
			logger.Fatal("--postgres-dsn is required with --persist")
		}
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("migrate postgres: %v", err)
		}
		runStore = pgstore.NewRunStore(pool)
	}

	runner := simulation.NewRunner(simulation.RunnerOptions{
		Source:   src,
		RunStore: runStore,
		Metrics:  observability.DefaultMetrics,
		Sink:     sinks,
		Location: loc,
		Symbol:   *symbol,
	})

	logger.Printf("Running backtest: symbol=%s source=%s k=%.3f/%.3f stoploss=%.4f",
		*symbol, src.Name(), cfg.LongK, cfg.ShortK, cfg.StopLoss)

	record, err := runner.Run(ctx, cfg)
	if err != nil {
		flush.run(logger)
		logger.Fatalf("backtest failed: %v", err)
	}
	if *persist {
		logger.Printf("Persisted run %s", record.RunID)
	}

	report := reporting.Build(record, time.Now().UTC())

	if *seriesCSV != "" {
		if err := os.WriteFile(*seriesCSV, []byte(reporting.RenderSeriesCSV(report)), 0o644); err != nil {
			logger.Fatalf("write series csv: %v", err)
		}
	}
	if *tradesCSV != "" {
		if err := os.WriteFile(*tradesCSV, []byte(reporting.RenderTradesCSV(report)), 0o644); err != nil {
			logger.Fatalf("write trades csv: %v", err)
		}
	}

	// Output result
	switch {
	case *outputJSON:
		output, _ := json.MarshalIndent(record, "", "  ")
		fmt.Println(string(output))
	case *outputMarkdown:
		fmt.Print(reporting.RenderMarkdown(report))
		fmt.Print(reporting.RenderTradesMarkdown(report))
	default:
		fmt.Print(reporting.RenderText(report))
	}
}

// parseSource normalizes the --source flag.
func parseSource(s string) (string, error) {
	kind := strings.ToLower(strings.TrimSpace(s))
	switch kind {
	case "csv", "clickhouse", "binance":
		return kind, nil
	}
	return "", fmt.Errorf("invalid source %q: must be csv, clickhouse, or binance", s)
}

// needsCandleStore reports whether a source kind reads from or caches into
// ClickHouse.
func needsCandleStore(kind string, cache bool) bool {
	return kind == "clickhouse" || (kind == "binance" && cache)
}

// flushers drains and closes event sinks in order. Every func runs even if
// an earlier one fails, and a second run is a no-op.
type flushers []func() error

func (f *flushers) run(logger *log.Logger) {
	for _, fn := range *f {
		if err := fn(); err != nil {
			logger.Printf("flush event log: %v", err)
		}
	}
	*f = nil
}

// parseDay returns midnight of a YYYY-MM-DD day in loc as Unix ms, or 0 for
// an empty string.
func parseDay(s string, loc *time.Location) (int64, error) {
	if s == "" {
		return 0, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}

// Package config loads environment settings and strategy parameter files.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"breakout-lab/internal/domain"
)

// Environment variable names.
const (
	EnvPostgresDSN      = "POSTGRES_DSN"
	EnvClickhouseDSN    = "CLICKHOUSE_DSN"
	EnvBinanceAPIKey    = "BINANCE_API_KEY"
	EnvBinanceSecretKey = "BINANCE_SECRET_KEY"
	EnvSymbol           = "BREAKOUT_SYMBOL"
)

// DefaultSymbol is the pair researched when none is configured.
const DefaultSymbol = "ETHUSDT"

// Env holds connection settings read from the environment.
type Env struct {
	PostgresDSN      string
	ClickhouseDSN    string
	BinanceAPIKey    string
	BinanceSecretKey string
	Symbol           string
}

// LoadEnv reads the given dotenv files (".env" when none are given) into
// the process environment, then reads Env from it. Missing files are
// skipped; variables already set in the environment win.
func LoadEnv(files ...string) (*Env, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	env := &Env{
		PostgresDSN:      os.Getenv(EnvPostgresDSN),
		ClickhouseDSN:    os.Getenv(EnvClickhouseDSN),
		BinanceAPIKey:    os.Getenv(EnvBinanceAPIKey),
		BinanceSecretKey: os.Getenv(EnvBinanceSecretKey),
		Symbol:           os.Getenv(EnvSymbol),
	}
	if env.Symbol == "" {
		env.Symbol = DefaultSymbol
	}
	return env, nil
}

// LoadStrategy reads a JSON strategy file. Fields the file omits keep their
// defaults from domain.DefaultStrategyConfig. An empty path returns the
// defaults. The result is validated.
func LoadStrategy(path string) (domain.StrategyConfig, error) {
	cfg := domain.DefaultStrategyConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.StrategyConfig{}, fmt.Errorf("read strategy file: %w", err)
	}
	cfg, err = ParseStrategy(data)
	if err != nil {
		return domain.StrategyConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseStrategy decodes a JSON strategy over the defaults and validates it.
// Unknown keys are rejected.
func ParseStrategy(data []byte) (domain.StrategyConfig, error) {
	cfg := domain.DefaultStrategyConfig()

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return domain.StrategyConfig{}, fmt.Errorf("decode strategy: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return domain.StrategyConfig{}, err
	}
	return cfg, nil
}

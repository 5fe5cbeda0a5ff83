package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breakout-lab/internal/domain"
)

func TestLoadEnv_FromFile(t *testing.T) {
	for _, k := range []string{EnvPostgresDSN, EnvClickhouseDSN, EnvBinanceAPIKey, EnvBinanceSecretKey, EnvSymbol} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	path := filepath.Join(t.TempDir(), "test.env")
	content := "POSTGRES_DSN=postgres://u:p@localhost/db\n" +
		"CLICKHOUSE_DSN=clickhouse://localhost:9000/market\n" +
		"BREAKOUT_SYMBOL=BTCUSDT\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	env, err := LoadEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost/db", env.PostgresDSN)
	assert.Equal(t, "clickhouse://localhost:9000/market", env.ClickhouseDSN)
	assert.Equal(t, "BTCUSDT", env.Symbol)
	assert.Empty(t, env.BinanceAPIKey)
}

func TestLoadEnv_ProcessEnvWins(t *testing.T) {
	t.Setenv(EnvSymbol, "SOLUSDT")

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("BREAKOUT_SYMBOL=BTCUSDT\n"), 0o600))

	env, err := LoadEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "SOLUSDT", env.Symbol)
}

func TestLoadEnv_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvSymbol, "")
	os.Unsetenv(EnvSymbol)

	env, err := LoadEnv(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSymbol, env.Symbol)
}

func TestLoadStrategy_EmptyPath(t *testing.T) {
	cfg, err := LoadStrategy("")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultStrategyConfig(), cfg)
}

func TestParseStrategy_OverridesDefaults(t *testing.T) {
	cfg, err := ParseStrategy([]byte(`{
		"longK": 0.5,
		"enableMA": true,
		"distanceToLeverage": [{"threshold": 0.01, "leverage": 2}]
	}`))
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.LongK)
	assert.Equal(t, domain.DefaultShortK, cfg.ShortK)
	assert.True(t, cfg.EnableMA)
	assert.Equal(t, []domain.LeverageTier{{Threshold: 0.01, Leverage: 2}}, cfg.DistanceToLeverage)
}

func TestParseStrategy_Rejects(t *testing.T) {
	_, err := ParseStrategy([]byte(`{"momentum": 0.5}`))
	assert.Error(t, err, "unknown key")

	_, err = ParseStrategy([]byte(`{"stoploss": -1}`))
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = ParseStrategy([]byte(`not json`))
	assert.Error(t, err)
}

func TestLoadStrategy_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strategy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"stoploss": 0.03, "tradeEveryDay": false}`), 0o600))

	cfg, err := LoadStrategy(path)
	require.NoError(t, err)
	assert.Equal(t, 0.03, cfg.StopLoss)
	assert.False(t, cfg.TradeEveryDay)
}

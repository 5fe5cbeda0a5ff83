package main

import (
	"bytes"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breakout-lab/internal/eventlog"
)

func TestParseSource_CaseInsensitive(t *testing.T) {
	for _, in := range []string{"ClickHouse", "CLICKHOUSE", " clickhouse "} {
		kind, err := parseSource(in)
		require.NoError(t, err, in)
		assert.Equal(t, "clickhouse", kind)
		assert.True(t, needsCandleStore(kind, false), in)
	}

	kind, err := parseSource("Binance")
	require.NoError(t, err)
	assert.False(t, needsCandleStore(kind, false))
	assert.True(t, needsCandleStore(kind, true))

	kind, err = parseSource("CSV")
	require.NoError(t, err)
	assert.False(t, needsCandleStore(kind, true))

	_, err = parseSource("kraken")
	assert.Error(t, err)
}

func TestFlushers_DrainTextLogBeforeExit(t *testing.T) {
	var buf bytes.Buffer
	text := eventlog.NewText(&buf)
	require.NoError(t, text.Record(time.Date(2021, 3, 2, 0, 0, 0, 0, time.UTC),
		[]eventlog.Field{eventlog.F("event", "open position")}))
	assert.Zero(t, buf.Len(), "records stay buffered until flushed")

	closed := 0
	f := flushers{
		func() error { return errors.New("zap sync failed") },
		text.Flush,
		func() error { closed++; return nil },
	}
	f.run(log.New(io.Discard, "", 0))

	assert.Contains(t, buf.String(), "2021-03-02\nevent\topen position\n")
	assert.Equal(t, 1, closed)

	// A deferred second run after an explicit one must not close twice.
	f.run(log.New(io.Discard, "", 0))
	assert.Equal(t, 1, closed)
}

func TestParseDay(t *testing.T) {
	ms, err := parseDay("2021-01-01", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, int64(1609459200000), ms)

	ms, err = parseDay("", time.UTC)
	require.NoError(t, err)
	assert.Zero(t, ms)

	_, err = parseDay("01/01/2021", time.UTC)
	assert.Error(t, err)
}

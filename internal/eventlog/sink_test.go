package eventlog

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var testDay = time.Date(2021, 3, 2, 0, 0, 0, 0, time.UTC)

func openFields() []Field {
	return []Field{
		F(KeyEvent, EventOpenPosition),
		F("side", "LONG"),
		F("day open", 101.5),
		F("entry price", 110.0),
	}
}

func TestText_Format(t *testing.T) {
	var buf bytes.Buffer
	sink := NewText(&buf)

	require.NoError(t, sink.WriteHeader("Backtest run"))
	require.NoError(t, sink.Record(testDay, openFields()))
	require.NoError(t, sink.Flush())

	expected := "Backtest run\n\n" +
		"\n2021-03-02\n" +
		"event\topen position\n" +
		"side\tLONG\n" +
		"day open\t101.5\n" +
		"entry price\t110\n"
	assert.Equal(t, expected, buf.String())
}

func TestMemory_RecordsCopies(t *testing.T) {
	sink := NewMemory()
	fields := openFields()
	require.NoError(t, sink.Record(testDay, fields))
	require.NoError(t, sink.Record(testDay, []Field{F(KeyEvent, EventClosePosition)}))

	fields[1].Value = "SHORT"

	records := sink.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "LONG", records[0].Get("side"))
	assert.Equal(t, EventOpenPosition, records[0].Event())
	assert.Nil(t, records[0].Get("missing"))

	closes := sink.ByEvent(EventClosePosition)
	require.Len(t, closes, 1)
	assert.Equal(t, testDay, closes[0].Day)
}

type failingSink struct{ err error }

func (f failingSink) Record(time.Time, []Field) error { return f.err }

func TestMulti_FansOutAndJoinsErrors(t *testing.T) {
	mem := NewMemory()
	boom := errors.New("boom")

	err := Multi{failingSink{err: boom}, nil, mem, Nop{}}.Record(testDay, openFields())

	assert.ErrorIs(t, err, boom)
	assert.Len(t, mem.Records(), 1, "later sinks still receive the record")
}

func TestZap_StructuredEntry(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sink := NewZap(zap.New(core))

	require.NoError(t, sink.Record(testDay, openFields()))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, EventOpenPosition, entries[0].Message)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "2021-03-02", ctx["day"])
	assert.Equal(t, "LONG", ctx["side"])
	assert.Equal(t, 110.0, ctx["entry price"])
	_, hasEvent := ctx[KeyEvent]
	assert.False(t, hasEvent)
}

func TestZap_NilLogger(t *testing.T) {
	assert.NoError(t, NewZap(nil).Record(testDay, openFields()))
}

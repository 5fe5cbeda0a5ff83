// Package eventlog provides sinks for structured simulation events keyed by day.
package eventlog

import (
	"errors"
	"sync"
	"time"
)

// Event kinds emitted by the simulation.
const (
	EventOpenPosition  = "open position"
	EventClosePosition = "close position"
)

// KeyEvent is the key of the first field of every record.
const KeyEvent = "event"

// Field is one key/value pair of a record. Records keep field order.
type Field struct {
	Key   string
	Value any
}

// F is shorthand for building a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Sink accepts event records.
type Sink interface {
	Record(day time.Time, fields []Field) error
}

// Record is a stored event.
type Record struct {
	Day    time.Time
	Fields []Field
}

// Event returns the value of the event field, or "" if absent.
func (r Record) Event() string {
	s, _ := r.Get(KeyEvent).(string)
	return s
}

// Get returns the value of the first field with key, or nil.
func (r Record) Get(key string) any {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}

// Nop discards all records.
type Nop struct{}

// Record implements Sink.
func (Nop) Record(time.Time, []Field) error { return nil }

// Memory keeps records in memory. Safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	records []Record
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

// Record implements Sink.
func (m *Memory) Record(day time.Time, fields []Field) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, Record{Day: day, Fields: append([]Field(nil), fields...)})
	return nil
}

// Records returns a copy of all stored records.
func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// ByEvent returns stored records of one event kind.
func (m *Memory) ByEvent(event string) []Record {
	var out []Record
	for _, r := range m.Records() {
		if r.Event() == event {
			out = append(out, r)
		}
	}
	return out
}

// Multi fans records out to several sinks. All sinks receive every record;
// errors are joined.
type Multi []Sink

// Record implements Sink.
func (m Multi) Record(day time.Time, fields []Field) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(day, fields); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

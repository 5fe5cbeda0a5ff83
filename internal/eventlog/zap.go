package eventlog

import (
	"time"

	"go.uber.org/zap"
)

// Zap writes each record as one structured log entry.
// The event field becomes the message; the day and the remaining fields
// become zap fields.
type Zap struct {
	logger *zap.Logger
}

// NewZap creates a zap sink. A nil logger falls back to zap.NewNop().
func NewZap(logger *zap.Logger) *Zap {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Zap{logger: logger}
}

// Record implements Sink.
func (z *Zap) Record(day time.Time, fields []Field) error {
	msg := "event"
	zfields := make([]zap.Field, 0, len(fields)+1)
	zfields = append(zfields, zap.String("day", day.Format(DayLayout)))
	for _, f := range fields {
		if f.Key == KeyEvent {
			if s, ok := f.Value.(string); ok {
				msg = s
				continue
			}
		}
		zfields = append(zfields, zap.Any(f.Key, f.Value))
	}
	z.logger.Info(msg, zfields...)
	return nil
}

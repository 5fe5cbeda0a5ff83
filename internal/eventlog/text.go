package eventlog

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"
)

// DayLayout is the date header format of the text log.
const DayLayout = "2006-01-02"

// Text writes records as a date header followed by one tab-separated
// key/value line per field:
//
//	2021-03-02
//	event	open position
//	side	LONG
type Text struct {
	mu sync.Mutex
	w  *bufio.Writer
}

// NewText creates a text sink writing to w. Call Flush before closing w.
func NewText(w io.Writer) *Text {
	return &Text{w: bufio.NewWriter(w)}
}

// WriteHeader writes a free-form first line, e.g. the run timestamp.
func (t *Text) WriteHeader(header string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintf(t.w, "%s\n\n", header)
	return err
}

// Record implements Sink.
func (t *Text) Record(day time.Time, fields []Field) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := fmt.Fprintf(t.w, "\n%s\n", day.Format(DayLayout)); err != nil {
		return fmt.Errorf("write record header: %w", err)
	}
	for _, f := range fields {
		if _, err := fmt.Fprintf(t.w, "%s\t%s\n", f.Key, formatValue(f.Value)); err != nil {
			return fmt.Errorf("write field %s: %w", f.Key, err)
		}
	}
	return nil
}

// Flush writes buffered records to the underlying writer.
func (t *Text) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.w.Flush()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}

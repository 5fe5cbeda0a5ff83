package feed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"breakout-lab/internal/domain"
)

// CSV loads candles from a file with the columns
// timestamp,open,high,low,close,volume. Extra trailing columns are ignored,
// so raw Binance kline exports load as-is.
type CSV struct {
	Path string
}

// Name returns "csv".
func (CSV) Name() string { return "csv" }

// Load reads and parses the file.
func (s CSV) Load(ctx context.Context) ([]domain.Candle, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open candle csv: %w", err)
	}
	defer f.Close()

	candles, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return candles, ctx.Err()
}

// ParseCSV parses candles from r. A UTF-8 or UTF-16 byte order mark is
// honoured and a non-numeric first row is treated as a header.
func ParseCSV(r io.Reader) ([]domain.Candle, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var candles []domain.Candle
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if line == 1 && isHeader(rec) {
			continue
		}

		c, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		candles = append(candles, c)
	}
	return candles, nil
}

// WriteCSV writes candles in the layout ParseCSV reads, with a header.
func WriteCSV(w io.Writer, candles []domain.Candle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, c := range candles {
		row := []string{
			strconv.FormatInt(c.TimestampMs, 10),
			formatFloat(c.Open),
			formatFloat(c.High),
			formatFloat(c.Low),
			formatFloat(c.Close),
			formatFloat(c.Volume),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func isHeader(rec []string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
	return err != nil
}

func parseRecord(rec []string) (domain.Candle, error) {
	if len(rec) < 6 {
		return domain.Candle{}, fmt.Errorf("%w: want 6 columns, got %d", ErrMalformedRow, len(rec))
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("%w: timestamp %q", ErrMalformedRow, rec[0])
	}

	var v [5]float64
	for i := range v {
		v[i], err = strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("%w: column %d %q", ErrMalformedRow, i+2, rec[i+1])
		}
	}

	return domain.Candle{
		TimestampMs: ts,
		Open:        v[0],
		High:        v[1],
		Low:         v[2],
		Close:       v[3],
		Volume:      v[4],
	}, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

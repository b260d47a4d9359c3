// Package csvfile reads daily closes from a local "date,close" CSV file.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/crossover/internal/core"
)

// CSV serves one file for every symbol.
type CSV struct {
	path string
}

// New creates a collector reading path.
func New(path string) *CSV {
	return &CSV{path: path}
}

func (c *CSV) Name() string {
	return "csv"
}

// FetchHistory reads the file and keeps the bars within [start, end]. The
// symbol is ignored.
func (c *CSV) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.PriceBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(c.path)
	if err != nil {
		return nil, core.WrapError(core.ErrSourceFailed, fmt.Errorf("opening %s: %w", c.path, err))
	}
	defer f.Close()

	bars, err := Parse(f)
	if err != nil {
		return nil, err
	}
	return core.FilterRange(bars, start, end), nil
}

// Parse reads a CSV with a header naming "date" and "close" columns in any
// order; other columns are ignored. Rows keep file order.
func Parse(r io.Reader) ([]core.PriceBar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, core.WrapError(core.ErrNoData, errors.New("empty csv"))
	}
	if err != nil {
		return nil, core.WrapError(core.ErrSourceFailed, fmt.Errorf("reading header: %w", err))
	}

	dateCol, closeCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "date":
			dateCol = i
		case "close":
			closeCol = i
		}
	}
	if dateCol < 0 || closeCol < 0 {
		return nil, core.Errorf(core.ErrSourceFailed, "csv header %v must name date and close columns", header)
	}

	var bars []core.PriceBar
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, core.WrapError(core.ErrSourceFailed, fmt.Errorf("line %d: %w", line, err))
		}
		if len(rec) <= max(dateCol, closeCol) {
			return nil, core.Errorf(core.ErrSourceFailed, "line %d: expected at least %d fields", line, max(dateCol, closeCol)+1)
		}
		if strings.TrimSpace(rec[closeCol]) == "" {
			continue
		}

		date, err := parseDate(strings.TrimSpace(rec[dateCol]))
		if err != nil {
			return nil, core.WrapError(core.ErrSourceFailed, fmt.Errorf("line %d: %w", line, err))
		}
		closePrice, err := strconv.ParseFloat(strings.TrimSpace(rec[closeCol]), 64)
		if err != nil {
			return nil, core.WrapError(core.ErrSourceFailed, fmt.Errorf("line %d: close: %w", line, err))
		}
		if math.IsNaN(closePrice) || math.IsInf(closePrice, 0) {
			return nil, core.Errorf(core.ErrInvalidParameters, "line %d: close %q is not a finite number", line, rec[closeCol])
		}
		bars = append(bars, core.PriceBar{Date: date, Close: closePrice})
	}

	if len(bars) == 0 {
		return nil, core.WrapError(core.ErrNoData, errors.New("csv has no rows"))
	}
	return bars, nil
}

// parseDate accepts YYYY-MM-DD with an optional time part, as pandas writes.
func parseDate(s string) (time.Time, error) {
	if d, _, ok := strings.Cut(s, " "); ok {
		s = d
	}
	if d, _, ok := strings.Cut(s, "T"); ok {
		s = d
	}
	return core.ParseDate(s)
}

// Write renders bars in the format Parse reads.
func Write(w io.Writer, bars []core.PriceBar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "close"}); err != nil {
		return err
	}
	for _, b := range bars {
		if err := cw.Write([]string{core.FormatDate(b.Date), strconv.FormatFloat(b.Close, 'f', -1, 64)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

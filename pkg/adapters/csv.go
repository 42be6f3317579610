package adapters

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
)

// CSVAdapter reads a series from a CSV file with a header row. Every
// column except the timestamp column is parsed as a number; blank cells
// become missing values. The collection window is ignored.
type CSVAdapter struct {
	// Path of the file (required).
	Path string
	// TimestampColumn is the header of the date column (defaults to "Date").
	TimestampColumn string
	// Layout is the time layout of the date column (defaults to 2006-01-02).
	// RFC3339 values are accepted as well.
	Layout string
}

func (c *CSVAdapter) Name() string { return "csv" }

// Collect implements Adapter.
func (c *CSVAdapter) Collect(ctx context.Context, _ int) (*DataFrame, error) {
	if c.Path == "" {
		return &DataFrame{}, errors.New("csv adapter: Path is required")
	}
	if err := ctx.Err(); err != nil {
		return &DataFrame{}, err
	}

	f, err := os.Open(c.Path)
	if err != nil {
		return &DataFrame{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	return c.read(ctx, f)
}

func (c *CSVAdapter) read(ctx context.Context, r io.Reader) (*DataFrame, error) {
	tsColumn := c.TimestampColumn
	if tsColumn == "" {
		tsColumn = "Date"
	}
	layout := c.Layout
	if layout == "" {
		layout = time.DateOnly
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return &DataFrame{}, fmt.Errorf("read csv header: %w", err)
	}
	tsIndex := -1
	for i, name := range header {
		header[i] = strings.TrimSpace(name)
		if header[i] == tsColumn {
			tsIndex = i
		}
	}
	if tsIndex < 0 {
		return &DataFrame{}, fmt.Errorf("csv adapter: timestamp column %q not in header %v", tsColumn, header)
	}

	var rows []Row
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return &DataFrame{}, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &DataFrame{}, fmt.Errorf("read csv: %w", err)
		}

		ts, err := parseTime(strings.TrimSpace(record[tsIndex]), layout)
		if err != nil {
			return &DataFrame{}, fmt.Errorf("line %d: %w", line, err)
		}
		row := Row{TimestampField: ts}
		for i, cell := range record {
			if i == tsIndex {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				row[header[i]] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return &DataFrame{}, fmt.Errorf("line %d column %s: %w", line, header[i], err)
			}
			row[header[i]] = v
		}
		rows = append(rows, row)
	}

	return &DataFrame{Rows: rows}, nil
}

func parseTime(s, layout string) (time.Time, error) {
	ts, err := time.Parse(layout, s)
	if err == nil {
		return ts, nil
	}
	if ts, rfcErr := time.Parse(time.RFC3339, s); rfcErr == nil {
		return ts, nil
	}
	return time.Time{}, err
}

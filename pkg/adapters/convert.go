package adapters

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/HatiCode/finplan/pkg/series"
)

// ToSeries extracts one field of df as a series named name, ordered by
// timestamp. Rows without the field, or with a null or blank value, become
// missing values. When no row carries a timestamp the series is positional.
func ToSeries(df *DataFrame, field, name string) (series.Series, error) {
	if df == nil || len(df.Rows) == 0 {
		return series.Series{}, fmt.Errorf("%w: no rows", series.ErrEmptySeries)
	}

	type point struct {
		ts    time.Time
		value float64
	}

	points := make([]point, len(df.Rows))
	withTS, present := 0, 0
	for i, row := range df.Rows {
		if raw, ok := row[TimestampField]; ok && raw != nil {
			ts, err := toTime(raw)
			if err != nil {
				return series.Series{}, fmt.Errorf("%w: row %d: %v", series.ErrData, i, err)
			}
			points[i].ts = ts
			withTS++
		}

		raw, ok := row[field]
		if !ok {
			points[i].value = math.NaN()
			continue
		}
		present++
		v, err := toFloat(raw)
		if err != nil {
			return series.Series{}, fmt.Errorf("%w: row %d field %s: %v", series.ErrData, i, field, err)
		}
		points[i].value = v
	}

	if present == 0 {
		return series.Series{}, fmt.Errorf("%w: field %q not found", series.ErrAllMissing, field)
	}
	if withTS != 0 && withTS != len(points) {
		return series.Series{}, fmt.Errorf("%w: %d of %d rows lack a timestamp", series.ErrData, len(points)-withTS, len(points))
	}

	out := series.Series{Name: name, Values: make([]float64, len(points))}
	if withTS > 0 {
		sort.SliceStable(points, func(i, j int) bool {
			return points[i].ts.Before(points[j].ts)
		})
		out.Timestamps = make([]time.Time, len(points))
	}
	for i, p := range points {
		out.Values[i] = p.value
		if out.Timestamps != nil {
			out.Timestamps[i] = p.ts
		}
	}
	return out, nil
}

// Fields lists the value columns present in df, sorted by name.
func Fields(df *DataFrame) []string {
	seen := make(map[string]struct{})
	for _, row := range df.Rows {
		for k := range row {
			if k != TimestampField {
				seen[k] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func toTime(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			return ts.UTC(), nil
		}
		return time.Parse(time.DateOnly, v)
	case int64:
		return time.Unix(v, 0).UTC(), nil
	case int:
		return time.Unix(int64(v), 0).UTC(), nil
	case float64:
		return time.Unix(int64(v), 0).UTC(), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(int64(f), 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", raw)
	}
}

func toFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case nil:
		return math.NaN(), nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		if strings.TrimSpace(v) == "" {
			return math.NaN(), nil
		}
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, fmt.Errorf("unsupported value type %T", raw)
	}
}

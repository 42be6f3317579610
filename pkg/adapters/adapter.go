// Package adapters provides data source connectors that retrieve the raw
// history of a financial series and normalize it into a common DataFrame.
//
// Available adapters:
//   - PrometheusAdapter: range queries against the Prometheus HTTP API
//   - HTTPAdapter: any REST API with JSON responses, via gjson paths
//   - CSVAdapter: a local CSV file with a date column
//   - SyntheticAdapter: a seeded generator of daily Sales/Cost/Revenue
//   - FallbackAdapter: wraps a primary source with a fallback source
//
// Adapters only pull and shape data. ToSeries converts one field of a
// DataFrame into a series.Series for the forecasting pipeline.
package adapters

import (
	"context"
)

// TimestampField is the Row key holding the observation time.
const TimestampField = "ts"

// DefaultField is the value field used when an adapter is not told otherwise.
const DefaultField = "value"

// Row is a single observation: the timestamp under "ts" plus named fields.
// Example: {"ts": time.Time, "Sales": 104523.1, "Cost": 62110.4}
type Row map[string]any

// DataFrame is a lightweight structure for tabular data returned by adapters.
type DataFrame struct {
	Rows []Row
}

// Adapter is implemented by every data source.
//
// Collect is synchronous and should respect context cancellation and
// deadlines.
type Adapter interface {
	// Collect fetches the observations of the last windowSeconds. Sources
	// without a notion of "now" (files, generators) may ignore the window.
	Collect(ctx context.Context, windowSeconds int) (*DataFrame, error)

	// Name returns a short identifier such as "prometheus" or "csv".
	Name() string
}

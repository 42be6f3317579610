package adapters

import (
	"context"
	"log/slog"
)

// FallbackAdapter collects from Primary and switches to Fallback when the
// primary fails or returns no rows.
type FallbackAdapter struct {
	Primary  Adapter
	Fallback Adapter
	Logger   *slog.Logger
}

func (f *FallbackAdapter) Name() string {
	return f.Primary.Name() + "|" + f.Fallback.Name()
}

// Collect implements Adapter.
func (f *FallbackAdapter) Collect(ctx context.Context, windowSeconds int) (*DataFrame, error) {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}

	df, err := f.Primary.Collect(ctx, windowSeconds)
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return df, err
		}
		logger.Warn("primary adapter failed, using fallback",
			"primary", f.Primary.Name(),
			"fallback", f.Fallback.Name(),
			"error", err,
		)
	case df == nil || len(df.Rows) == 0:
		logger.Warn("primary adapter returned no rows, using fallback",
			"primary", f.Primary.Name(),
			"fallback", f.Fallback.Name(),
		)
	default:
		return df, nil
	}

	return f.Fallback.Collect(ctx, windowSeconds)
}

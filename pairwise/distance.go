package pairwise

import (
	"context"

	"github.com/23skdu/quiver/internal/errors"
	"github.com/23skdu/quiver/internal/metrics"
	"github.com/23skdu/quiver/internal/parallel"
)

// Default tile shape for partitioning the output domain. Tile shape is a
// scheduling detail: results are identical for any shape.
const (
	DefaultTileRows = 16
	DefaultTileCols = 32
)

type dispatchConfig struct {
	tileRows    int
	tileCols    int
	parallelism int
}

// Option adjusts how Distance schedules its work.
type Option func(*dispatchConfig)

// WithTileShape overrides the default 16×32 tile shape. Non-positive
// values select the full extent in that direction.
func WithTileShape(rows, cols int) Option {
	return func(c *dispatchConfig) {
		c.tileRows = rows
		c.tileCols = cols
	}
}

// WithParallelism bounds the number of tiles computed concurrently.
// Non-positive means GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(c *dispatchConfig) {
		c.parallelism = n
	}
}

// Distance fills out (m×n, row-major) with the metric distance between
// every row of x (m×k) and every row of y (n×k). Each output element is
// computed independently; the domain is partitioned into tiles executed in
// parallel, and Distance returns only after all elements are written.
// fin, when non-nil, post-processes each element.
//
// Any of m, n, k may be zero, producing an empty (or zero-valued) output
// without error. An unrecognized metric or mismatched slice lengths are
// configuration errors; a cancelled context is a computation error.
func Distance[T Float](ctx context.Context, metric Metric, x, y, out []T, m, n, k int, fin Finalizer[T], opts ...Option) error {
	if err := validateShape(metric, len(x), len(y), len(out), m, n, k); err != nil {
		return err
	}

	kernel, err := Kernel[T](metric)
	if err != nil {
		return err
	}

	metrics.KernelInvocationsTotal.WithLabelValues(metric.String(), precisionLabel[T](), "reference").Inc()
	if m == 0 || n == 0 {
		return nil
	}

	cfg := dispatchConfig{tileRows: DefaultTileRows, tileCols: DefaultTileCols}
	for _, opt := range opts {
		opt(&cfg)
	}

	err = parallel.Tiles(ctx, m, n, cfg.tileRows, cfg.tileCols, cfg.parallelism, func(tile parallel.Tile) error {
		for i := tile.Row0; i < tile.Row1; i++ {
			xi := x[i*k : i*k+k]
			for j := tile.Col0; j < tile.Col1; j++ {
				d := kernel(xi, y[j*k:j*k+k])
				if fin != nil {
					d = fin.Apply(d, i*n+j)
				}
				out[i*n+j] = d
			}
		}
		return nil
	})
	if err != nil {
		return errors.WrapComputationError(err, "pairwise.distance", "kernel execution aborted").
			WithContext("metric", metric.String()).
			WithContext("m", m).
			WithContext("n", n).
			WithContext("k", k)
	}

	metrics.KernelElementsTotal.WithLabelValues("reference").Add(float64(m * n))
	return nil
}

func validateShape(metric Metric, lenX, lenY, lenOut, m, n, k int) error {
	op := "pairwise.distance"
	if m < 0 || n < 0 || k < 0 {
		return errors.NewConfigurationError(op, "negative dimension").
			WithContext("m", m).
			WithContext("n", n).
			WithContext("k", k)
	}
	if lenX != m*k {
		return errors.NewConfigurationError(op, "query collection length does not match m*k").
			WithContext("metric", metric.String()).
			WithContext("len", lenX).
			WithContext("want", m*k)
	}
	if lenY != n*k {
		return errors.NewConfigurationError(op, "reference collection length does not match n*k").
			WithContext("metric", metric.String()).
			WithContext("len", lenY).
			WithContext("want", n*k)
	}
	if lenOut != m*n {
		return errors.NewConfigurationError(op, "output length does not match m*n").
			WithContext("metric", metric.String()).
			WithContext("len", lenOut).
			WithContext("want", m*n)
	}
	return nil
}

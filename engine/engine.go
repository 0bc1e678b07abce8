// Package engine is the optimized pairwise-distance implementation
// verified against the reference kernels in package pairwise. Expanded
// metrics use the algebraically expanded formulation backed by a row-norms
// workspace; unexpanded metrics use unrolled direct kernels.
package engine

import (
	"context"
	"unsafe"

	"go.uber.org/zap"

	"github.com/23skdu/quiver/internal/errors"
	"github.com/23skdu/quiver/internal/fmath"
	"github.com/23skdu/quiver/internal/metrics"
	"github.com/23skdu/quiver/internal/parallel"
	"github.com/23skdu/quiver/pairwise"
)

// rowBlock is the number of output rows one parallel unit computes.
const rowBlock = 16

// Engine computes distance matrices using expanded-form kernels where the
// metric permits it. It implements pairwise.Adapter[T].
type Engine[T pairwise.Float] struct {
	logger *zap.Logger
}

// Ensure interface satisfaction
var _ pairwise.Adapter[float32] = (*Engine[float32])(nil)

// New returns an Engine logging through logger (zap.NewNop when nil).
// Detected CPU features are logged once at debug level.
func New[T pairwise.Float](logger *zap.Logger) *Engine[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := detectCPU()
	logger.Debug("engine initialized",
		zap.String("cpu_vendor", f.Vendor),
		zap.Bool("avx2", f.HasAVX2),
		zap.Bool("avx512", f.HasAVX512),
		zap.Bool("neon", f.HasNEON),
	)
	return &Engine[T]{logger: logger}
}

// SizeWorkspace reports the scratch bytes Compute needs. Expanded metrics
// store one norm per row of x and y, so they need (m+n)*sizeof(T) bytes;
// unexpanded metrics need none.
func (e *Engine[T]) SizeWorkspace(metric pairwise.Metric, _, _ []T, m, n, _ int) (int, error) {
	if !metric.IsValid() {
		return 0, errors.NewConfigurationError("engine.size_workspace", "unrecognized metric").
			WithContext("metric", int(metric))
	}
	if !metric.Expanded() {
		return 0, nil
	}
	var zero T
	return (m + n) * int(unsafe.Sizeof(zero)), nil
}

// Compute fills out (m×n, row-major) with distances between the rows of
// x (m×k) and y (n×k), applying fin per element when non-nil. workspace
// must hold at least the bytes reported by SizeWorkspace; Compute fails
// before touching out if it is smaller. Rows are processed in parallel
// blocks and Compute returns only after every element is written.
func (e *Engine[T]) Compute(ctx context.Context, metric pairwise.Metric, x, y, out []T, m, n, k int, workspace []byte, fin pairwise.Finalizer[T]) error {
	op := "engine.compute"
	if err := validateShape(op, metric, len(x), len(y), len(out), m, n, k); err != nil {
		return err
	}
	required, err := e.SizeWorkspace(metric, x, y, m, n, k)
	if err != nil {
		return err
	}
	if len(workspace) < required {
		return errors.NewConfigurationError(op, "workspace smaller than required").
			WithContext("metric", metric.String()).
			WithContext("got_bytes", len(workspace)).
			WithContext("required_bytes", required)
	}

	metrics.KernelInvocationsTotal.WithLabelValues(metric.String(), precisionLabel[T](), "engine").Inc()
	if m == 0 || n == 0 {
		return nil
	}

	var element func(xi, yj []T, normX, normY T) T
	var norms []T
	switch metric {
	case pairwise.MetricUnexpandedL1:
		element = func(xi, yj []T, _, _ T) T { return l1Unrolled4x(xi, yj) }
	case pairwise.MetricUnexpandedL2:
		element = func(xi, yj []T, _, _ T) T { return squaredL2Unrolled4x(xi, yj) }
	case pairwise.MetricUnexpandedL2Sqrt:
		element = func(xi, yj []T, _, _ T) T { return fmath.Sqrt(squaredL2Unrolled4x(xi, yj)) }
	case pairwise.MetricExpandedL2, pairwise.MetricExpandedL2Sqrt:
		// ||x-y||^2 = ||x||^2 + ||y||^2 - 2 x.y. Cancellation can push
		// tiny true distances below zero; clamp before the sqrt.
		norms = workspaceSlice[T](workspace, m+n)
		squaredNorms(x, norms[:m], k)
		squaredNorms(y, norms[m:], k)
		sqrt := metric == pairwise.MetricExpandedL2Sqrt
		element = func(xi, yj []T, normX, normY T) T {
			d := normX + normY - 2*dotUnrolled4x(xi, yj)
			if d < 0 {
				d = 0
			}
			if sqrt {
				d = fmath.Sqrt(d)
			}
			return d
		}
	case pairwise.MetricExpandedCosine:
		norms = workspaceSlice[T](workspace, m+n)
		squaredNorms(x, norms[:m], k)
		squaredNorms(y, norms[m:], k)
		for i := range norms {
			norms[i] = fmath.Sqrt(norms[i])
		}
		element = func(xi, yj []T, normX, normY T) T {
			if normX == 0 || normY == 0 {
				return 0
			}
			return dotUnrolled4x(xi, yj) / (normX * normY)
		}
	default:
		return errors.NewConfigurationError(op, "unrecognized metric").
			WithContext("metric", int(metric))
	}

	err = parallel.Tiles(ctx, m, n, rowBlock, 0, 0, func(tile parallel.Tile) error {
		for i := tile.Row0; i < tile.Row1; i++ {
			xi := x[i*k : i*k+k]
			var normX T
			if norms != nil {
				normX = norms[i]
			}
			for j := tile.Col0; j < tile.Col1; j++ {
				var normY T
				if norms != nil {
					normY = norms[m+j]
				}
				d := element(xi, y[j*k:j*k+k], normX, normY)
				if fin != nil {
					d = fin.Apply(d, i*n+j)
				}
				out[i*n+j] = d
			}
		}
		return nil
	})
	if err != nil {
		return errors.WrapComputationError(err, op, "kernel execution aborted").
			WithContext("metric", metric.String()).
			WithContext("m", m).
			WithContext("n", n).
			WithContext("k", k)
	}

	metrics.KernelElementsTotal.WithLabelValues("engine").Add(float64(m * n))
	return nil
}

// squaredNorms writes the squared norm of each k-dimensional row of rows
// into dst, one entry per row.
func squaredNorms[T pairwise.Float](rows, dst []T, k int) {
	for i := range dst {
		r := rows[i*k : i*k+k]
		dst[i] = dotUnrolled4x(r, r)
	}
}

// workspaceSlice reinterprets the workspace bytes as n elements of T.
// Callers have already proven the byte length is sufficient.
func workspaceSlice[T pairwise.Float](workspace []byte, n int) []T {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&workspace[0])), n)
}

func validateShape(op string, metric pairwise.Metric, lenX, lenY, lenOut, m, n, k int) error {
	if m < 0 || n < 0 || k < 0 {
		return errors.NewConfigurationError(op, "negative dimension").
			WithContext("m", m).
			WithContext("n", n).
			WithContext("k", k)
	}
	if lenX != m*k || lenY != n*k || lenOut != m*n {
		return errors.NewConfigurationError(op, "slice lengths do not match dimensions").
			WithContext("metric", metric.String()).
			WithContext("len_x", lenX).
			WithContext("len_y", lenY).
			WithContext("len_out", lenOut).
			WithContext("m", m).
			WithContext("n", n).
			WithContext("k", k)
	}
	return nil
}

func precisionLabel[T pairwise.Float]() string {
	var zero T
	if unsafe.Sizeof(zero) == 4 {
		return "float32"
	}
	return "float64"
}

package pairwise

import "context"

// Adapter is the contract an accelerated distance implementation must
// satisfy to be verified against the reference dispatcher. The harness
// treats implementations as opaque: it sizes and allocates the workspace
// they request and never inspects its contents.
type Adapter[T Float] interface {
	// SizeWorkspace returns the scratch bytes Compute requires for the
	// given metric and shape. Zero means no workspace is needed.
	SizeWorkspace(metric Metric, x, y []T, m, n, k int) (int, error)

	// Compute fills out (m×n, row-major) with distances between the rows
	// of x (m×k) and y (n×k), applying fin per element when non-nil.
	// workspace must hold at least the bytes reported by SizeWorkspace
	// and be aligned for T; Compute fails without touching out if it is
	// smaller. Compute returns only after every element is written.
	Compute(ctx context.Context, metric Metric, x, y, out []T, m, n, k int, workspace []byte, fin Finalizer[T]) error
}

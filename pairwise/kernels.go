package pairwise

import (
	"unsafe"

	"github.com/23skdu/quiver/internal/errors"
	"github.com/23skdu/quiver/internal/fmath"
)

// Func computes the distance between two rows of equal dimensionality.
// Callers must pass slices of the same length; the dispatcher guarantees
// this by construction.
type Func[T Float] func(a, b []T) T

// Kernel returns the reference kernel for the given metric. An
// unrecognized metric is a configuration error, never a silent default.
func Kernel[T Float](metric Metric) (Func[T], error) {
	switch metric {
	case MetricUnexpandedL1:
		return l1Distance[T], nil
	case MetricUnexpandedL2, MetricExpandedL2:
		// The reference computes both L2 variants by direct
		// subtraction; the expanded formulation is the accelerated
		// implementation's prerogative.
		return l2SquaredDistance[T], nil
	case MetricUnexpandedL2Sqrt, MetricExpandedL2Sqrt:
		return l2Distance[T], nil
	case MetricExpandedCosine:
		return cosineSimilarity[T], nil
	default:
		return nil, errors.NewConfigurationError("pairwise.kernel", "unrecognized metric").
			WithContext("metric", int(metric))
	}
}

func l1Distance[T Float](a, b []T) T {
	var sum T
	for d := range a {
		sum += fmath.Abs(a[d] - b[d])
	}
	return sum
}

func l2SquaredDistance[T Float](a, b []T) T {
	var sum T
	for d := range a {
		diff := a[d] - b[d]
		sum += diff * diff
	}
	return sum
}

func l2Distance[T Float](a, b []T) T {
	return fmath.Sqrt(l2SquaredDistance(a, b))
}

// cosineSimilarity accumulates the dot product and both squared norms in a
// single pass. Zero-norm rows (including k == 0) yield 0 rather than NaN.
func cosineSimilarity[T Float](a, b []T) T {
	var dot, normA, normB T
	for d := range a {
		dot += a[d] * b[d]
		normA += a[d] * a[d]
		normB += b[d] * b[d]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (fmath.Sqrt(normA) * fmath.Sqrt(normB))
}

// precisionLabel names the element precision for metrics and logs.
func precisionLabel[T Float]() string {
	var zero T
	if unsafe.Sizeof(zero) == 4 {
		return "float32"
	}
	return "float64"
}

// Package pairwise computes dense distance matrices between two vector
// collections and defines the contract accelerated implementations are
// verified against. The reference kernels here favor clarity over speed;
// they are the oracle optimized engines must agree with.
package pairwise

import (
	"strings"

	"github.com/23skdu/quiver/internal/errors"
)

// Float is the set of element types kernels operate on. Accumulation
// happens in the element type itself, never in a wider precision.
type Float interface {
	~float32 | ~float64
}

// Metric selects the distance variant. "Unexpanded" variants accumulate
// differences directly; "Expanded" variants permit the algebraically
// expanded squared-Euclidean formulation, which accelerated
// implementations typically exploit.
type Metric int

const (
	MetricUnexpandedL1 Metric = iota
	MetricUnexpandedL2
	MetricUnexpandedL2Sqrt
	MetricExpandedL2
	MetricExpandedL2Sqrt
	MetricExpandedCosine
	numMetrics
)

func (m Metric) String() string {
	switch m {
	case MetricUnexpandedL1:
		return "unexpanded_l1"
	case MetricUnexpandedL2:
		return "unexpanded_l2"
	case MetricUnexpandedL2Sqrt:
		return "unexpanded_l2_sqrt"
	case MetricExpandedL2:
		return "expanded_l2"
	case MetricExpandedL2Sqrt:
		return "expanded_l2_sqrt"
	case MetricExpandedCosine:
		return "expanded_cosine"
	default:
		return "unknown"
	}
}

// IsValid reports whether m names a supported metric.
func (m Metric) IsValid() bool {
	return m >= 0 && m < numMetrics
}

// Expanded reports whether m permits the expanded formulation, which
// determines whether an accelerated implementation needs a norms workspace.
func (m Metric) Expanded() bool {
	switch m {
	case MetricExpandedL2, MetricExpandedL2Sqrt, MetricExpandedCosine:
		return true
	default:
		return false
	}
}

// Metrics returns all supported metrics in declaration order.
func Metrics() []Metric {
	return []Metric{
		MetricUnexpandedL1,
		MetricUnexpandedL2,
		MetricUnexpandedL2Sqrt,
		MetricExpandedL2,
		MetricExpandedL2Sqrt,
		MetricExpandedCosine,
	}
}

// ParseMetric converts a metric name as produced by String back into a
// Metric. Unknown names are a configuration error.
func ParseMetric(s string) (Metric, error) {
	for _, m := range Metrics() {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, errors.NewConfigurationError("pairwise.parse_metric", "unknown metric name").
		WithContext("name", s)
}

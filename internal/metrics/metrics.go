package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Kernel Metrics
// =============================================================================

var (
	// KernelInvocationsTotal counts distance matrix computations by metric,
	// element precision and implementation ("reference" or "engine")
	KernelInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiver_kernel_invocations_total",
			Help: "Total number of distance matrix computations",
		},
		[]string{"metric", "precision", "implementation"},
	)

	// KernelElementsTotal counts output elements produced by implementation
	KernelElementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiver_kernel_elements_total",
			Help: "Total number of distance matrix elements computed",
		},
		[]string{"implementation"},
	)
)

// =============================================================================
// Verification Metrics
// =============================================================================

var (
	// VerifyRunsTotal counts completed comparisons by metric and outcome
	// ("pass" or "fail")
	VerifyRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiver_verify_runs_total",
			Help: "Total number of reference vs under-test comparisons",
		},
		[]string{"metric", "outcome"},
	)

	// ToleranceViolationsTotal counts individual elements that exceeded the
	// configured tolerance
	ToleranceViolationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiver_tolerance_violations_total",
			Help: "Total number of elements exceeding the comparison tolerance",
		},
	)

	// VerifyStageDurationSeconds measures the duration of each harness stage
	VerifyStageDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quiver_verify_stage_duration_seconds",
			Help:    "Duration of verification harness stages",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)
)

// =============================================================================
// Allocator Metrics
// =============================================================================

var (
	// AllocatorBytesAllocatedTotal counts bytes handed out by tracking allocators
	AllocatorBytesAllocatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiver_allocator_bytes_allocated_total",
			Help: "Total bytes allocated through tracking allocators",
		},
	)

	// AllocatorBytesFreedTotal counts bytes returned to tracking allocators
	AllocatorBytesFreedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quiver_allocator_bytes_freed_total",
			Help: "Total bytes freed through tracking allocators",
		},
	)

	// AllocatorAllocationsActive tracks currently outstanding allocations
	AllocatorAllocationsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quiver_allocator_allocations_active",
			Help: "Number of currently outstanding allocations",
		},
	)
)

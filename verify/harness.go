// Package verify drives an accelerated distance implementation and the
// reference dispatcher over identical randomized inputs and checks that
// their outputs agree within tolerance. A Harness walks a fixed sequence
// of states; every path through it releases the memory it allocated.
package verify

import (
	"context"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/23skdu/quiver/internal/errors"
	"github.com/23skdu/quiver/internal/fmath"
	"github.com/23skdu/quiver/internal/membuf"
	"github.com/23skdu/quiver/internal/metrics"
	"github.com/23skdu/quiver/pairwise"
	"github.com/23skdu/quiver/randgen"
)

// State names the harness lifecycle stage. Transitions only move forward;
// Release is reachable from every state.
type State int

const (
	StateUninitialized State = iota
	StateInputsGenerated
	StateReferenceComputed
	StateUnderTestComputed
	StateCompared
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInputsGenerated:
		return "inputs_generated"
	case StateReferenceComputed:
		return "reference_computed"
	case StateUnderTestComputed:
		return "under_test_computed"
	case StateCompared:
		return "compared"
	case StateReleased:
		return "released"
	default:
		return "unknown"
	}
}

// Params describes one verification case. The seed fully determines the
// generated inputs; identical params reproduce identical runs.
type Params[T pairwise.Float] struct {
	Metric    pairwise.Metric
	M, N, K   int
	Tolerance T
	Seed      int64
	// Threshold configures the side-channel finalizer installed on the
	// under-test computation.
	Threshold T
}

// Violation records one element where reference and under-test outputs
// disagreed beyond tolerance.
type Violation[T pairwise.Float] struct {
	Index     int
	Row, Col  int
	Reference T
	UnderTest T
}

// maxReportedViolations bounds how many offending elements a tolerance
// error carries; the total count is always exact.
const maxReportedViolations = 8

// Harness owns the buffers of one verification case and walks the state
// machine. It is not safe for concurrent use; each case gets its own
// Harness, its own buffers and its own workspace.
type Harness[T pairwise.Float] struct {
	params  Params[T]
	adapter pairwise.Adapter[T]
	alloc   memory.Allocator
	logger  *zap.Logger

	state State

	x, y      *membuf.Buffer[T]
	ref       *membuf.Buffer[T]
	underTest *membuf.Buffer[T]
	side      *membuf.Buffer[T]
	workspace *membuf.Bytes

	violations []Violation[T]
}

// NewHarness validates params and returns a harness in the uninitialized
// state. A nil alloc falls back to the default Go allocator; a nil logger
// discards output.
func NewHarness[T pairwise.Float](params Params[T], adapter pairwise.Adapter[T], alloc memory.Allocator, logger *zap.Logger) (*Harness[T], error) {
	op := "verify.new_harness"
	if adapter == nil {
		return nil, errors.NewConfigurationError(op, "nil adapter")
	}
	if !params.Metric.IsValid() {
		return nil, errors.NewConfigurationError(op, "unrecognized metric").
			WithContext("metric", int(params.Metric))
	}
	if params.Tolerance <= 0 {
		return nil, errors.NewConfigurationError(op, "tolerance must be positive").
			WithContext("tolerance", float64(params.Tolerance))
	}
	if params.M < 0 || params.N < 0 || params.K < 0 {
		return nil, errors.NewConfigurationError(op, "negative dimension").
			WithContext("m", params.M).
			WithContext("n", params.N).
			WithContext("k", params.K)
	}
	if alloc == nil {
		alloc = memory.DefaultAllocator
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harness[T]{
		params:  params,
		adapter: adapter,
		alloc:   alloc,
		logger: logger.With(
			zap.String("metric", params.Metric.String()),
			zap.Int("m", params.M),
			zap.Int("n", params.N),
			zap.Int("k", params.K),
			zap.Int64("seed", params.Seed),
		),
	}, nil
}

// State returns the current lifecycle stage.
func (h *Harness[T]) State() State {
	return h.state
}

// Violations returns the recorded mismatches after Compare, capped at
// maxReportedViolations entries.
func (h *Harness[T]) Violations() []Violation[T] {
	return h.violations
}

func (h *Harness[T]) requireState(op string, want State) error {
	if h.state != want {
		return errors.NewConfigurationError(op, "invalid state transition").
			WithContext("state", h.state.String()).
			WithContext("want", want.String())
	}
	return nil
}

func observeStage(stage string, start time.Time) {
	metrics.VerifyStageDurationSeconds.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// GenerateInputs allocates the query and reference collections and fills
// both from one seeded uniform stream in [-1, 1). The same seed always
// reproduces bit-identical inputs.
func (h *Harness[T]) GenerateInputs() (err error) {
	op := "verify.generate_inputs"
	if err := h.requireState(op, StateUninitialized); err != nil {
		return err
	}
	defer observeStage("generate_inputs", time.Now())

	if h.x, err = membuf.NewBuffer[T](h.alloc, h.params.M*h.params.K); err != nil {
		return errors.WrapAllocationError(err, op, "query collection")
	}
	if h.y, err = membuf.NewBuffer[T](h.alloc, h.params.N*h.params.K); err != nil {
		return errors.WrapAllocationError(err, op, "reference collection")
	}

	src := randgen.New(h.params.Seed)
	randgen.Uniform(src, h.x.Data(), -1, 1)
	randgen.Uniform(src, h.y.Data(), -1, 1)

	h.state = StateInputsGenerated
	h.logger.Debug("inputs generated")
	return nil
}

// ComputeReference fills the reference distance matrix via the reference
// dispatcher, with no finalizer installed.
func (h *Harness[T]) ComputeReference(ctx context.Context) (err error) {
	op := "verify.compute_reference"
	if err := h.requireState(op, StateInputsGenerated); err != nil {
		return err
	}
	defer observeStage("compute_reference", time.Now())

	if h.ref, err = membuf.NewBuffer[T](h.alloc, h.params.M*h.params.N); err != nil {
		return errors.WrapAllocationError(err, op, "reference output matrix")
	}
	if err := pairwise.Distance(ctx, h.params.Metric, h.x.Data(), h.y.Data(), h.ref.Data(),
		h.params.M, h.params.N, h.params.K, nil); err != nil {
		return err
	}

	h.state = StateReferenceComputed
	h.logger.Debug("reference computed")
	return nil
}

// ComputeUnderTest sizes and allocates the adapter's workspace (only when
// it asks for one), then invokes the adapter with a threshold finalizer
// writing the side-channel matrix.
func (h *Harness[T]) ComputeUnderTest(ctx context.Context) (err error) {
	op := "verify.compute_under_test"
	if err := h.requireState(op, StateReferenceComputed); err != nil {
		return err
	}
	defer observeStage("compute_under_test", time.Now())

	if h.underTest, err = membuf.NewBuffer[T](h.alloc, h.params.M*h.params.N); err != nil {
		return errors.WrapAllocationError(err, op, "under-test output matrix")
	}
	if h.side, err = membuf.NewBuffer[T](h.alloc, h.params.M*h.params.N); err != nil {
		return errors.WrapAllocationError(err, op, "side-channel matrix")
	}

	size, err := h.adapter.SizeWorkspace(h.params.Metric, h.x.Data(), h.y.Data(),
		h.params.M, h.params.N, h.params.K)
	if err != nil {
		return err
	}
	if size > 0 {
		if h.workspace, err = membuf.NewBytes(h.alloc, size); err != nil {
			return errors.WrapAllocationError(err, op, "adapter workspace")
		}
	}

	fin := &pairwise.ThresholdFinalizer[T]{Threshold: h.params.Threshold, Side: h.side.Data()}
	if err := h.adapter.Compute(ctx, h.params.Metric, h.x.Data(), h.y.Data(), h.underTest.Data(),
		h.params.M, h.params.N, h.params.K, h.workspace.Data(), fin); err != nil {
		return err
	}

	h.state = StateUnderTestComputed
	h.logger.Debug("under-test computed", zap.Int("workspace_bytes", size))
	return nil
}

// Compare checks every element of the under-test matrix against the
// reference matrix with an absolute tolerance. The state advances to
// Compared whether or not violations were found; a tolerance error
// reporting the offending elements is returned when they were.
func (h *Harness[T]) Compare() error {
	op := "verify.compare"
	if err := h.requireState(op, StateUnderTestComputed); err != nil {
		return err
	}
	defer observeStage("compare", time.Now())

	ref := h.ref.Data()
	got := h.underTest.Data()
	total := 0
	for i := range ref {
		// A NaN on either side makes the difference NaN, which fails
		// the comparison and is reported like any other violation.
		if fmath.Abs(ref[i]-got[i]) <= h.params.Tolerance {
			continue
		}
		total++
		if len(h.violations) < maxReportedViolations {
			h.violations = append(h.violations, Violation[T]{
				Index:     i,
				Row:       i / max(h.params.N, 1),
				Col:       i % max(h.params.N, 1),
				Reference: ref[i],
				UnderTest: got[i],
			})
		}
	}

	h.state = StateCompared
	if total == 0 {
		metrics.VerifyRunsTotal.WithLabelValues(h.params.Metric.String(), "pass").Inc()
		h.logger.Debug("compared", zap.Int("elements", len(ref)))
		return nil
	}

	metrics.VerifyRunsTotal.WithLabelValues(h.params.Metric.String(), "fail").Inc()
	metrics.ToleranceViolationsTotal.Add(float64(total))
	err := errors.NewToleranceError(op, "outputs disagree beyond tolerance").
		WithContext("metric", h.params.Metric.String()).
		WithContext("m", h.params.M).
		WithContext("n", h.params.N).
		WithContext("k", h.params.K).
		WithContext("tolerance", float64(h.params.Tolerance)).
		WithContext("violations", total)
	for _, v := range h.violations {
		h.logger.Warn("tolerance violation",
			zap.Int("index", v.Index),
			zap.Int("row", v.Row),
			zap.Int("col", v.Col),
			zap.Float64("reference", float64(v.Reference)),
			zap.Float64("under_test", float64(v.UnderTest)),
		)
	}
	return err
}

// Reference returns the reference distance matrix. Valid between
// ComputeReference and Release.
func (h *Harness[T]) Reference() []T {
	if h.ref == nil {
		return nil
	}
	return h.ref.Data()
}

// UnderTest returns the adapter's primary output matrix. Valid between
// ComputeUnderTest and Release.
func (h *Harness[T]) UnderTest() []T {
	if h.underTest == nil {
		return nil
	}
	return h.underTest.Data()
}

// Side returns the side-channel matrix written by the threshold finalizer.
// Valid between ComputeUnderTest and Release.
func (h *Harness[T]) Side() []T {
	if h.side == nil {
		return nil
	}
	return h.side.Data()
}

// Release frees every buffer the harness allocated, through the allocator
// that allocated them. Idempotent and callable from any state.
func (h *Harness[T]) Release() {
	h.workspace.Release()
	h.workspace = nil
	for _, b := range []*membuf.Buffer[T]{h.x, h.y, h.ref, h.underTest, h.side} {
		b.Release()
	}
	h.x, h.y, h.ref, h.underTest, h.side = nil, nil, nil, nil, nil
	if h.state != StateReleased {
		h.state = StateReleased
		h.logger.Debug("released")
	}
}

// Run drives the full state machine in order and returns the first error.
// Release always runs, whichever transition failed.
func (h *Harness[T]) Run(ctx context.Context) error {
	defer h.Release()

	if err := h.GenerateInputs(); err != nil {
		return err
	}
	if err := h.ComputeReference(ctx); err != nil {
		return err
	}
	if err := h.ComputeUnderTest(ctx); err != nil {
		return err
	}
	return h.Compare()
}

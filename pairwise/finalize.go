package pairwise

// Finalizer post-processes each raw distance before it is stored. Apply
// receives the raw value and the flattened row-major output index and
// returns the value to store in the primary output. Implementations may
// write side-channel buffers; each index is applied exactly once, so side
// writes need no synchronization.
type Finalizer[T Float] interface {
	Apply(raw T, idx int) T
}

// ThresholdFinalizer passes raw distances through to the primary output
// and writes a thresholded copy to Side: values below Threshold become 0,
// everything else is stored unchanged. It exercises fused-epilogue
// behavior in accelerated implementations independent of the metric.
type ThresholdFinalizer[T Float] struct {
	Threshold T
	Side      []T
}

func (f *ThresholdFinalizer[T]) Apply(raw T, idx int) T {
	if raw < f.Threshold {
		f.Side[idx] = 0
	} else {
		f.Side[idx] = raw
	}
	return raw
}

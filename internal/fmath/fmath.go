package fmath

import (
	"math"
	"unsafe"

	"github.com/chewxy/math32"
)

// Float is the set of element types the distance kernels operate on.
type Float interface {
	~float32 | ~float64
}

// Sqrt returns the square root of v, computed in the precision of T.
// float32 values stay in float32 arithmetic so accumulation precision
// matches the element type.
func Sqrt[T Float](v T) T {
	if unsafe.Sizeof(v) == 4 {
		return T(math32.Sqrt(float32(v)))
	}
	return T(math.Sqrt(float64(v)))
}

// Abs returns the absolute value of v in the precision of T.
func Abs[T Float](v T) T {
	if unsafe.Sizeof(v) == 4 {
		return T(math32.Abs(float32(v)))
	}
	return T(math.Abs(float64(v)))
}

// IsNaN reports whether v is an IEEE 754 NaN.
func IsNaN[T Float](v T) bool {
	return v != v
}

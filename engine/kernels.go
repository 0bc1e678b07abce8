package engine

import (
	"github.com/23skdu/quiver/internal/fmath"
	"github.com/23skdu/quiver/pairwise"
)

// Unrolled scalar kernels. Four independent accumulators keep the
// dependency chains short; a scalar tail loop handles the remainder.
// Accumulation stays in T, matching the element precision.

func dotUnrolled4x[T pairwise.Float](a, b []T) T {
	var sum0, sum1, sum2, sum3 T
	n := len(a)
	i := 0
	for ; i <= n-4; i += 4 {
		sum0 += a[i] * b[i]
		sum1 += a[i+1] * b[i+1]
		sum2 += a[i+2] * b[i+2]
		sum3 += a[i+3] * b[i+3]
	}
	for ; i < n; i++ {
		sum0 += a[i] * b[i]
	}
	return sum0 + sum1 + sum2 + sum3
}

func squaredL2Unrolled4x[T pairwise.Float](a, b []T) T {
	var sum0, sum1, sum2, sum3 T
	n := len(a)
	i := 0
	for ; i <= n-4; i += 4 {
		d0 := a[i] - b[i]
		d1 := a[i+1] - b[i+1]
		d2 := a[i+2] - b[i+2]
		d3 := a[i+3] - b[i+3]
		sum0 += d0 * d0
		sum1 += d1 * d1
		sum2 += d2 * d2
		sum3 += d3 * d3
	}
	for ; i < n; i++ {
		d := a[i] - b[i]
		sum0 += d * d
	}
	return sum0 + sum1 + sum2 + sum3
}

func l1Unrolled4x[T pairwise.Float](a, b []T) T {
	var sum0, sum1, sum2, sum3 T
	n := len(a)
	i := 0
	for ; i <= n-4; i += 4 {
		sum0 += fmath.Abs(a[i] - b[i])
		sum1 += fmath.Abs(a[i+1] - b[i+1])
		sum2 += fmath.Abs(a[i+2] - b[i+2])
		sum3 += fmath.Abs(a[i+3] - b[i+3])
	}
	for ; i < n; i++ {
		sum0 += fmath.Abs(a[i] - b[i])
	}
	return sum0 + sum1 + sum2 + sum3
}

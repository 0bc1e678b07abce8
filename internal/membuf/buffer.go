package membuf

import (
	"math"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/23skdu/quiver/internal/errors"
)

// Float is the set of element types buffers can hold.
type Float interface {
	~float32 | ~float64
}

// Buffer is a typed float view over bytes obtained from an Arrow allocator.
// Zero-length buffers hold no memory and Release is a no-op for them.
type Buffer[T Float] struct {
	alloc memory.Allocator
	raw   []byte
	data  []T
}

// NewBuffer allocates space for n elements of T through alloc.
// A nil alloc falls back to memory.DefaultAllocator.
func NewBuffer[T Float](alloc memory.Allocator, n int) (*Buffer[T], error) {
	if alloc == nil {
		alloc = memory.DefaultAllocator
	}
	if n < 0 {
		return nil, errors.NewAllocationError("membuf.new_buffer", "negative element count").
			WithContext("elements", n)
	}

	b := &Buffer[T]{alloc: alloc}
	if n == 0 {
		return b, nil
	}

	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	if n > math.MaxInt/elemSize {
		return nil, errors.NewAllocationError("membuf.new_buffer", "element count overflows byte size").
			WithContext("elements", n)
	}

	b.raw = alloc.Allocate(n * elemSize)
	if len(b.raw) < n*elemSize {
		alloc.Free(b.raw)
		return nil, errors.NewAllocationError("membuf.new_buffer", "allocator returned short buffer").
			WithContext("requested_bytes", n*elemSize).
			WithContext("got_bytes", len(b.raw))
	}
	b.data = unsafe.Slice((*T)(unsafe.Pointer(&b.raw[0])), n)
	return b, nil
}

// Data returns the typed element view. Nil after Release.
func (b *Buffer[T]) Data() []T {
	return b.data
}

// Len returns the number of elements.
func (b *Buffer[T]) Len() int {
	return len(b.data)
}

// Release returns the backing bytes to the allocator. Safe to call more
// than once and on nil receivers.
func (b *Buffer[T]) Release() {
	if b == nil || b.raw == nil {
		return
	}
	b.alloc.Free(b.raw)
	b.raw = nil
	b.data = nil
}

// Bytes is an opaque byte buffer with the same lifecycle as Buffer. Used
// for adapter workspaces whose contents the harness never interprets.
type Bytes struct {
	alloc memory.Allocator
	raw   []byte
}

// NewBytes allocates n bytes through alloc.
func NewBytes(alloc memory.Allocator, n int) (*Bytes, error) {
	if alloc == nil {
		alloc = memory.DefaultAllocator
	}
	if n < 0 {
		return nil, errors.NewAllocationError("membuf.new_bytes", "negative byte count").
			WithContext("bytes", n)
	}

	b := &Bytes{alloc: alloc}
	if n == 0 {
		return b, nil
	}
	b.raw = alloc.Allocate(n)
	return b, nil
}

// Data returns the byte view. Nil after Release.
func (b *Bytes) Data() []byte {
	if b == nil {
		return nil
	}
	return b.raw
}

// Len returns the byte count.
func (b *Bytes) Len() int {
	if b == nil {
		return 0
	}
	return len(b.raw)
}

// Release returns the bytes to the allocator. Idempotent, nil-safe.
func (b *Bytes) Release() {
	if b == nil || b.raw == nil {
		return
	}
	b.alloc.Free(b.raw)
	b.raw = nil
}

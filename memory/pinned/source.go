package pinned

import (
	"fmt"
	"reflect"
	"sync/atomic"
	"unsafe"

	"github.com/virtushda/vlib/internal/pinmem"
)

// Source selects where chunk memory comes from.
type Source uint8

const (
	// HeapSource allocates chunks as Go slices. The Go collector never moves
	// heap objects, so slot addresses are stable for the chunk's lifetime.
	HeapSource Source = iota

	// OSSource allocates chunks as anonymous OS mappings outside the Go heap.
	// Only pointer-free element types may use it.
	OSSource
)

func (s Source) String() string {
	switch s {
	case HeapSource:
		return "heap"
	case OSSource:
		return "os"
	default:
		return fmt.Sprintf("Source(%d)", uint8(s))
	}
}

// chunk is one fixed block of elements. items never changes after creation;
// length is the logical (zero-initialised) prefix handed out so far.
type chunk[T any] struct {
	items   []T
	length  atomic.Int64
	release func() error
}

func newChunk[T any](src Source, n int) (*chunk[T], error) {
	var zero T
	size := unsafe.Sizeof(zero)
	if src == HeapSource || size == 0 {
		return &chunk[T]{items: make([]T, n)}, nil
	}

	data, release, err := pinmem.Map(n * int(size))
	if err != nil {
		return nil, err
	}
	items := unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(data))), n)
	return &chunk[T]{items: items, release: release}, nil
}

// hasPointers reports whether values of t hold anything the Go collector
// must trace.
func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

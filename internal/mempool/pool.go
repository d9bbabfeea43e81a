// Package mempool provides size-classed buffer pools for the filter's hot
// path, where every image needs scratch buffers of width*height elements.
package mempool

import (
	"sync"
)

var (
	float64Pools sync.Map // key: size class (int), value: *sync.Pool
	uint8Pools   sync.Map // key: size class (int), value: *sync.Pool
)

// sizeClass rounds n up to the next multiple of 4096 so that images of
// similar size share buffers.
func sizeClass(n int) int {
	const step = 4096
	if n <= step {
		return step
	}
	return (n + step - 1) / step * step
}

func poolFor[T any](pools *sync.Map, cls int) *sync.Pool {
	pAny, _ := pools.LoadOrStore(cls, &sync.Pool{New: func() any {
		buf := make([]T, cls)
		return &buf
	}})
	return pAny.(*sync.Pool)
}

func get[T any](pools *sync.Map, n int) []T {
	cls := sizeClass(n)
	bp, ok := poolFor[T](pools, cls).Get().(*[]T)
	if !ok || cap(*bp) < cls {
		return make([]T, n, cls)
	}
	return (*bp)[:n]
}

func put[T any](pools *sync.Map, buf []T) {
	if cap(buf) == 0 {
		return
	}
	// A buffer only goes back into the class it fully covers.
	cls := sizeClass(cap(buf))
	if cls != cap(buf) {
		return
	}
	buf = buf[:cap(buf)]
	poolFor[T](pools, cls).Put(&buf)
}

// GetFloat64 returns a buffer of length n. Its contents are undefined; the
// caller must overwrite every element before reading it.
func GetFloat64(n int) []float64 { return get[float64](&float64Pools, n) }

// PutFloat64 returns a buffer obtained from GetFloat64. Nil is ignored.
func PutFloat64(buf []float64) { put(&float64Pools, buf) }

// GetUint8 returns a buffer of length n with undefined contents.
func GetUint8(n int) []uint8 { return get[uint8](&uint8Pools, n) }

// PutUint8 returns a buffer obtained from GetUint8. Nil is ignored.
func PutUint8(buf []uint8) { put(&uint8Pools, buf) }

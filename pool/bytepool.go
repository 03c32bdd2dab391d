// File: pool/bytepool.go
// Package pool provides reusable byte slice allocation for staging areas.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"sync"

	"github.com/rohankumardubey/xnio-core/api"
)

// size classes in bytes; requests above the largest class fall back to make.
var classes = []int{256, 1024, 4096, 16384, 65536}

// BytePool is a size-classed pool of byte slices.
type BytePool struct {
	pools [5]sync.Pool // one per size class
}

// Ensure compliance with the api contract.
var _ api.BytePool = (*BytePool)(nil)

// NewBytePool creates an empty pool.
func NewBytePool() *BytePool {
	p := &BytePool{}
	for i, size := range classes {
		size := size
		p.pools[i].New = func() any {
			return make([]byte, size)
		}
	}
	return p
}

// Acquire returns a slice of at least n bytes, drawn from the smallest
// fitting size class.
func (p *BytePool) Acquire(n int) []byte {
	for i, size := range classes {
		if n <= size {
			return p.pools[i].Get().([]byte)[:size]
		}
	}
	return make([]byte, n)
}

// Release returns buf to its size class. Slices that match no class are left
// for the garbage collector.
func (p *BytePool) Release(buf []byte) {
	c := cap(buf)
	for i, size := range classes {
		if c == size {
			p.pools[i].Put(buf[:size])
			return
		}
	}
}

var defaultPool = NewBytePool()

// Default returns the shared process-wide pool.
func Default() *BytePool { return defaultPool }

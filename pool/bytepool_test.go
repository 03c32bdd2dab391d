package pool_test

import (
	"testing"

	"github.com/rohankumardubey/xnio-core/pool"
)

func TestAcquireSizes(t *testing.T) {
	p := pool.NewBytePool()
	for _, n := range []int{0, 1, 256, 257, 4096, 70000} {
		buf := p.Acquire(n)
		if len(buf) < n {
			t.Fatalf("Acquire(%d) returned %d bytes", n, len(buf))
		}
		p.Release(buf)
	}
}

func TestReleaseRoundTrip(t *testing.T) {
	p := pool.NewBytePool()
	a := p.Acquire(512)
	p.Release(a)
	b := p.Acquire(512)
	if len(b) < 512 {
		t.Fatalf("reacquired %d bytes", len(b))
	}
}

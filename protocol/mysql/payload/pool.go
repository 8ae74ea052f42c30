package payload

import (
	"sync"
)

// Buffer capacity tiers for outbound payloads
var bufferTiers = [...]int{64, 256, 1024, 4096, 16384}

// BufferPool manages size-tiered buffers for outbound payloads
type BufferPool struct {
	tiers       [len(bufferTiers)]sync.Pool
	initialSize int
}

// NewBufferPool creates a pool whose default buffers hold at least initialSize bytes
func NewBufferPool(initialSize int) *BufferPool {
	if initialSize <= 0 {
		initialSize = bufferTiers[1]
	}
	bp := &BufferPool{initialSize: initialSize}
	for i := range bp.tiers {
		size := bufferTiers[i]
		bp.tiers[i].New = func() interface{} {
			return make([]byte, 0, size)
		}
	}
	return bp
}

func tierFor(size int) int {
	for i, tier := range bufferTiers {
		if size <= tier {
			return i
		}
	}
	return -1
}

// Acquire returns an empty payload with capacity for at least sizeHint bytes.
// A non-positive hint uses the pool's initial size.
func (bp *BufferPool) Acquire(sizeHint int) *Payload {
	if sizeHint <= 0 {
		sizeHint = bp.initialSize
	}
	tier := tierFor(sizeHint)
	if tier < 0 {
		return NewPayload(make([]byte, 0, sizeHint))
	}
	buf := bp.tiers[tier].Get().([]byte)
	return NewPayload(buf[:0])
}

// Release returns the payload's buffer to the pool. The payload must not be used afterwards.
func (bp *BufferPool) Release(p *Payload) {
	if p == nil {
		return
	}
	buf := p.buf
	p.buf, p.pos = nil, 0
	// Buffers that grew past a tier go to the largest tier they still fill.
	for i := len(bufferTiers) - 1; i >= 0; i-- {
		if cap(buf) >= bufferTiers[i] {
			bp.tiers[i].Put(buf[:0])
			return
		}
	}
}

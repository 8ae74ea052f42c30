package payload

import (
	"bytes"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/guileen/shardproxy/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayload_FixedWidthRoundTrip(t *testing.T) {
	p := NewPayload(nil)
	p.WriteUint8(0xab)
	p.WriteUint16(0x1234)
	p.WriteUint24(0x00abcdef)
	p.WriteUint32(0xdeadbeef)
	p.WriteUint64(math.MaxUint64 - 1)

	assert.Equal(t, []byte{0xab, 0x34, 0x12, 0xef, 0xcd, 0xab, 0xef, 0xbe, 0xad, 0xde}, p.Bytes()[:10])

	u8, err := p.ReadUint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xab), u8)

	u16, err := p.ReadUint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), u16)

	u24, err := p.ReadUint24()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x00abcdef), u24)

	u32, err := p.ReadUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), u32)

	u64, err := p.ReadUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64-1), u64)

	assert.Equal(t, 0, p.Remaining())
}

func TestPayload_IntLenenc(t *testing.T) {
	tests := []struct {
		name  string
		value uint64
		wire  []byte
	}{
		{"one byte", 0xfa, []byte{0xfa}},
		{"two bytes", 0xfb, []byte{0xfc, 0xfb, 0x00}},
		{"two bytes max", 0xffff, []byte{0xfc, 0xff, 0xff}},
		{"three bytes", 0x10000, []byte{0xfd, 0x00, 0x00, 0x01}},
		{"eight bytes", 0x1000000, []byte{0xfe, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewPayload(nil)
			w.WriteIntLenenc(tt.value)
			assert.Equal(t, tt.wire, w.Bytes())

			r := NewPayload(tt.wire)
			got, err := r.ReadIntLenenc()
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
			assert.Equal(t, 0, r.Remaining())
		})
	}
}

func TestPayload_IntLenencRejectsMarkers(t *testing.T) {
	for _, marker := range []byte{0xfb, 0xff} {
		p := NewPayload([]byte{marker, 0x01})
		_, err := p.ReadIntLenenc()
		require.Error(t, err)
		assert.True(t, errors.IsProtocolError(err))
		assert.Equal(t, 0, p.Position())
	}
}

func TestPayload_StringLenenc(t *testing.T) {
	long := strings.Repeat("x", 300)

	p := NewPayload(nil)
	p.WriteStringLenenc("hello")
	p.WriteStringLenenc("")
	p.WriteStringLenenc(long)

	s, err := p.ReadStringLenenc()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	s, err = p.ReadStringLenenc()
	require.NoError(t, err)
	assert.Equal(t, "", s)

	s, err = p.ReadStringLenenc()
	require.NoError(t, err)
	assert.Equal(t, long, s)
}

func TestPayload_BytesLenencCopiesOut(t *testing.T) {
	wire := []byte{0x03, 'a', 'b', 'c'}
	p := NewPayload(wire)

	b, err := p.ReadBytesLenenc()
	require.NoError(t, err)
	wire[1] = 'z'
	assert.Equal(t, []byte("abc"), b)
}

func TestPayload_TruncatedReadsDoNotAdvance(t *testing.T) {
	tests := []struct {
		name string
		wire []byte
		read func(p *Payload) error
	}{
		{"uint16", []byte{0x01}, func(p *Payload) error { _, err := p.ReadUint16(); return err }},
		{"uint32", []byte{0x01, 0x02}, func(p *Payload) error { _, err := p.ReadUint32(); return err }},
		{"uint64", []byte{0x01, 0x02, 0x03}, func(p *Payload) error { _, err := p.ReadUint64(); return err }},
		{"lenenc prefix", []byte{0xfc, 0x01}, func(p *Payload) error { _, err := p.ReadIntLenenc(); return err }},
		{"lenenc body", []byte{0x05, 'a', 'b'}, func(p *Payload) error { _, err := p.ReadBytesLenenc(); return err }},
		{"skip", []byte{0x01}, func(p *Payload) error { return p.Skip(2) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPayload(tt.wire)
			err := tt.read(p)
			require.Error(t, err)
			assert.True(t, errors.IsTruncated(err))
			assert.Equal(t, 0, p.Position())
		})
	}

	_, err := NewPayload(nil).ReadUint8()
	assert.True(t, errors.IsTruncated(err))
}

func TestPayload_ReadBytesAndReset(t *testing.T) {
	p := NewPayload([]byte{1, 2, 3, 4})
	require.NoError(t, p.Skip(1))
	b, err := p.ReadBytes(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3}, b)
	assert.Equal(t, 3, p.Position())
	assert.Equal(t, 4, p.Len())

	p.Reset()
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, 0, p.Position())
}

func TestPayload_Truncate(t *testing.T) {
	p := NewPayload([]byte{1, 2, 3, 4})
	require.NoError(t, p.Skip(3))

	p.Truncate(2)
	assert.Equal(t, []byte{1, 2}, p.Bytes())
	assert.Equal(t, 2, p.Position())

	p.Truncate(5)
	p.Truncate(-1)
	assert.Equal(t, 2, p.Len())
}

func TestBufferPool_AcquireRelease(t *testing.T) {
	pool := NewBufferPool(128)

	p := pool.Acquire(0)
	assert.Equal(t, 0, p.Len())
	assert.GreaterOrEqual(t, cap(p.Bytes()), 128)
	p.WriteStringLenenc("abc")
	pool.Release(p)
	assert.Nil(t, p.Bytes())

	again := pool.Acquire(100)
	assert.Equal(t, 0, again.Len())
	assert.GreaterOrEqual(t, cap(again.Bytes()), 100)

	big := pool.Acquire(1 << 20)
	assert.GreaterOrEqual(t, cap(big.Bytes()), 1<<20)
	pool.Release(big)
	pool.Release(nil)
}

func TestBufferPool_Concurrent(t *testing.T) {
	pool := NewBufferPool(0)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p := pool.Acquire(j * 10)
				p.WriteUint32(uint32(i))
				if !bytes.Equal(p.Bytes(), []byte{byte(i), 0, 0, 0}) {
					t.Errorf("unexpected payload %v", p.Bytes())
				}
				pool.Release(p)
			}
		}(i)
	}
	wg.Wait()
}

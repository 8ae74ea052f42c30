// Package payload implements the MySQL packet payload cursor: fixed-width
// little-endian integers and length-encoded integers and strings.
package payload

import (
	"encoding/binary"

	"github.com/guileen/shardproxy/errors"
)

// Length-encoded integer prefixes
const (
	lenencOneMax      = 0xfb
	lenencTwo    byte = 0xfc
	lenencThree  byte = 0xfd
	lenencEight  byte = 0xfe
)

// Payload is a read position over a MySQL packet body plus an append-only
// write tail. A Payload is owned by a single connection goroutine.
type Payload struct {
	buf []byte
	pos int
}

// NewPayload wraps buf. Reads start at its first byte, writes append after its last.
func NewPayload(buf []byte) *Payload {
	return &Payload{buf: buf}
}

// Bytes returns the whole buffer, including bytes already read
func (p *Payload) Bytes() []byte {
	return p.buf
}

// Len returns the total number of bytes in the buffer
func (p *Payload) Len() int {
	return len(p.buf)
}

// Position returns the read offset
func (p *Payload) Position() int {
	return p.pos
}

// Remaining returns the number of unread bytes
func (p *Payload) Remaining() int {
	return len(p.buf) - p.pos
}

// Reset drops all content and keeps the capacity
func (p *Payload) Reset() {
	p.buf = p.buf[:0]
	p.pos = 0
}

// Truncate drops every byte after the first n. The read offset is clamped to n.
func (p *Payload) Truncate(n int) {
	if n < 0 || n > len(p.buf) {
		return
	}
	p.buf = p.buf[:n]
	if p.pos > n {
		p.pos = n
	}
}

func (p *Payload) take(op string, n int) ([]byte, error) {
	if n < 0 || p.Remaining() < n {
		return nil, errors.NewTruncatedError(op, n, p.Remaining())
	}
	b := p.buf[p.pos : p.pos+n]
	p.pos += n
	return b, nil
}

// ReadUint8 reads a 1-byte integer
func (p *Payload) ReadUint8() (uint8, error) {
	b, err := p.take("ReadUint8", 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16 reads a 2-byte little-endian integer
func (p *Payload) ReadUint16() (uint16, error) {
	b, err := p.take("ReadUint16", 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadUint24 reads a 3-byte little-endian integer
func (p *Payload) ReadUint24() (uint32, error) {
	b, err := p.take("ReadUint24", 3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16, nil
}

// ReadUint32 reads a 4-byte little-endian integer
func (p *Payload) ReadUint32() (uint32, error) {
	b, err := p.take("ReadUint32", 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadUint64 reads an 8-byte little-endian integer
func (p *Payload) ReadUint64() (uint64, error) {
	b, err := p.take("ReadUint64", 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadIntLenenc reads a length-encoded integer. The NULL (0xfb) and error
// (0xff) markers are rejected; the cursor does not move on failure.
func (p *Payload) ReadIntLenenc() (uint64, error) {
	if p.Remaining() < 1 {
		return 0, errors.NewTruncatedError("ReadIntLenenc", 1, 0)
	}
	first := p.buf[p.pos]
	var width int
	switch {
	case first < lenencOneMax:
		p.pos++
		return uint64(first), nil
	case first == lenencTwo:
		width = 2
	case first == lenencThree:
		width = 3
	case first == lenencEight:
		width = 8
	default:
		return 0, errors.NewProtocolErrorf("ReadIntLenenc", "invalid length-encoded integer prefix 0x%02x", first)
	}
	if p.Remaining() < 1+width {
		return 0, errors.NewTruncatedError("ReadIntLenenc", 1+width, p.Remaining())
	}
	b := p.buf[p.pos+1 : p.pos+1+width]
	var v uint64
	for i := width - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	p.pos += 1 + width
	return v, nil
}

// ReadBytesLenenc reads a length-encoded byte string. The result is a copy.
func (p *Payload) ReadBytesLenenc() ([]byte, error) {
	start := p.pos
	n, err := p.ReadIntLenenc()
	if err != nil {
		return nil, err
	}
	if n > uint64(p.Remaining()) {
		have := p.Remaining()
		p.pos = start
		return nil, errors.NewTruncatedError("ReadBytesLenenc", int(min(n, uint64(^uint(0)>>1))), have)
	}
	b := make([]byte, n)
	copy(b, p.buf[p.pos:p.pos+int(n)])
	p.pos += int(n)
	return b, nil
}

// ReadStringLenenc reads a length-encoded string
func (p *Payload) ReadStringLenenc() (string, error) {
	b, err := p.ReadBytesLenenc()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadBytes reads n raw bytes. The result is a copy.
func (p *Payload) ReadBytes(n int) ([]byte, error) {
	b, err := p.take("ReadBytes", n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// Skip advances the read position by n bytes
func (p *Payload) Skip(n int) error {
	_, err := p.take("Skip", n)
	return err
}

// WriteUint8 appends a 1-byte integer
func (p *Payload) WriteUint8(v uint8) {
	p.buf = append(p.buf, v)
}

// WriteUint16 appends a 2-byte little-endian integer
func (p *Payload) WriteUint16(v uint16) {
	p.buf = binary.LittleEndian.AppendUint16(p.buf, v)
}

// WriteUint24 appends a 3-byte little-endian integer
func (p *Payload) WriteUint24(v uint32) {
	p.buf = append(p.buf, byte(v), byte(v>>8), byte(v>>16))
}

// WriteUint32 appends a 4-byte little-endian integer
func (p *Payload) WriteUint32(v uint32) {
	p.buf = binary.LittleEndian.AppendUint32(p.buf, v)
}

// WriteUint64 appends an 8-byte little-endian integer
func (p *Payload) WriteUint64(v uint64) {
	p.buf = binary.LittleEndian.AppendUint64(p.buf, v)
}

// WriteIntLenenc appends a length-encoded integer using the shortest form
func (p *Payload) WriteIntLenenc(v uint64) {
	switch {
	case v < lenencOneMax:
		p.buf = append(p.buf, byte(v))
	case v < 1<<16:
		p.buf = append(p.buf, lenencTwo)
		p.WriteUint16(uint16(v))
	case v < 1<<24:
		p.buf = append(p.buf, lenencThree)
		p.WriteUint24(uint32(v))
	default:
		p.buf = append(p.buf, lenencEight)
		p.WriteUint64(v)
	}
}

// WriteBytesLenenc appends a length-encoded byte string
func (p *Payload) WriteBytesLenenc(b []byte) {
	p.WriteIntLenenc(uint64(len(b)))
	p.buf = append(p.buf, b...)
}

// WriteStringLenenc appends a length-encoded string
func (p *Payload) WriteStringLenenc(s string) {
	p.WriteIntLenenc(uint64(len(s)))
	p.buf = append(p.buf, s...)
}

// WriteBytes appends raw bytes
func (p *Payload) WriteBytes(b []byte) {
	p.buf = append(p.buf, b...)
}

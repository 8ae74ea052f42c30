package binproto

import (
	"math"
	"strconv"

	"github.com/guileen/shardproxy/protocol/mysql/constant"
)

// Kind identifies which variant of a Value is populated
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBytes
	KindInt64
	KindInt32
	KindInt16
	KindInt8
	KindTemporal
)

var kindNames = [...]string{
	KindInvalid:  "invalid",
	KindBytes:    "bytes",
	KindInt64:    "int64",
	KindInt32:    "int32",
	KindInt16:    "int16",
	KindInt8:     "int8",
	KindTemporal: "temporal",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is one decoded binary protocol value. Exactly one variant is set and
// the variant is chosen by the column type it was decoded as. A Value owns
// its bytes and is never mutated after decode.
type Value struct {
	typ      constant.ColumnType
	kind     Kind
	bytes    []byte
	num      int64
	temporal Temporal
}

func bytesValue(typ constant.ColumnType, b []byte) Value {
	return Value{typ: typ, kind: KindBytes, bytes: b}
}

func intValue(typ constant.ColumnType, kind Kind, n int64) Value {
	return Value{typ: typ, kind: kind, num: n}
}

func temporalValue(typ constant.ColumnType, t Temporal) Value {
	return Value{typ: typ, kind: KindTemporal, temporal: t}
}

// Type returns the column type the value was decoded as
func (v Value) Type() constant.ColumnType {
	return v.typ
}

// Kind returns the populated variant
func (v Value) Kind() Kind {
	return v.kind
}

// Bytes returns a copy of the length-encoded payload
func (v Value) Bytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	out := make([]byte, len(v.bytes))
	copy(out, v.bytes)
	return out, true
}

func (v Value) Int64() (int64, bool) {
	return v.num, v.kind == KindInt64
}

func (v Value) Int32() (int32, bool) {
	return int32(v.num), v.kind == KindInt32
}

func (v Value) Int16() (int16, bool) {
	return int16(v.num), v.kind == KindInt16
}

func (v Value) Int8() (int8, bool) {
	return int8(v.num), v.kind == KindInt8
}

// Temporal returns the DateTime or TimeOfDay variant
func (v Value) Temporal() (Temporal, bool) {
	return v.temporal, v.kind == KindTemporal
}

// Float64 reinterprets the raw bits of a DOUBLE or FLOAT column as IEEE-754.
// The decoded variant itself stays integral.
func (v Value) Float64() (float64, bool) {
	switch {
	case v.typ == constant.ColumnTypeDouble && v.kind == KindInt64:
		return math.Float64frombits(uint64(v.num)), true
	case v.typ == constant.ColumnTypeFloat && v.kind == KindInt32:
		return float64(math.Float32frombits(uint32(int32(v.num)))), true
	}
	return 0, false
}

// Interface returns the populated variant as a plain Go value: []byte,
// int64, int32, int16, int8, DateTime or TimeOfDay.
func (v Value) Interface() any {
	switch v.kind {
	case KindBytes:
		b, _ := v.Bytes()
		return b
	case KindInt64:
		return v.num
	case KindInt32:
		return int32(v.num)
	case KindInt16:
		return int16(v.num)
	case KindInt8:
		return int8(v.num)
	case KindTemporal:
		return v.temporal
	}
	return nil
}

// String returns the textual form used when the value is bound back as a parameter
func (v Value) String() string {
	switch v.kind {
	case KindBytes:
		return string(v.bytes)
	case KindInt64, KindInt32, KindInt16, KindInt8:
		return strconv.FormatInt(v.num, 10)
	case KindTemporal:
		return v.temporal.String()
	}
	return ""
}

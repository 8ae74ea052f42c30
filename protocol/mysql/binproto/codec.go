// Package binproto translates MySQL binary protocol values, as used by
// COM_STMT_EXECUTE parameters and binary result set rows, between wire bytes
// and typed Go values.
//
// See https://dev.mysql.com/doc/internals/en/binary-protocol-value.html
package binproto

import (
	"fmt"
	"strconv"
	"time"

	"github.com/guileen/shardproxy/errors"
	"github.com/guileen/shardproxy/protocol/mysql/constant"
)

// Reader is the read side of a payload cursor
type Reader interface {
	ReadUint8() (uint8, error)
	ReadUint16() (uint16, error)
	ReadUint32() (uint32, error)
	ReadUint64() (uint64, error)
	ReadBytesLenenc() ([]byte, error)
}

// Writer is the write side of a payload cursor
type Writer interface {
	WriteUint32(v uint32)
	WriteUint64(v uint64)
	WriteStringLenenc(s string)
}

// Codec reads and writes binary protocol values. It has no state, so the
// zero value is ready to use and one value may be shared by every connection.
type Codec struct{}

// NewCodec returns a Codec
func NewCodec() Codec {
	return Codec{}
}

// Decode reads one value of columnType from r. Unsupported types fail
// before anything is read.
func (Codec) Decode(columnType constant.ColumnType, r Reader) (Value, error) {
	switch columnType.Family() {
	case constant.FamilyLengthEncoded:
		b, err := r.ReadBytesLenenc()
		if err != nil {
			return Value{}, wrapRead(err, columnType)
		}
		return bytesValue(columnType, b), nil
	case constant.FamilyInt8:
		v, err := r.ReadUint64()
		if err != nil {
			return Value{}, wrapRead(err, columnType)
		}
		return intValue(columnType, KindInt64, int64(v)), nil
	case constant.FamilyInt4:
		v, err := r.ReadUint32()
		if err != nil {
			return Value{}, wrapRead(err, columnType)
		}
		return intValue(columnType, KindInt32, int64(int32(v))), nil
	case constant.FamilyInt2:
		v, err := r.ReadUint16()
		if err != nil {
			return Value{}, wrapRead(err, columnType)
		}
		return intValue(columnType, KindInt16, int64(int16(v))), nil
	case constant.FamilyInt1:
		v, err := r.ReadUint8()
		if err != nil {
			return Value{}, wrapRead(err, columnType)
		}
		return intValue(columnType, KindInt8, int64(int8(v))), nil
	case constant.FamilyDate:
		d, err := readDate(columnType, r)
		if err != nil {
			return Value{}, wrapRead(err, columnType)
		}
		return temporalValue(columnType, d), nil
	case constant.FamilyTime:
		t, err := readTime(columnType, r)
		if err != nil {
			return Value{}, wrapRead(err, columnType)
		}
		return temporalValue(columnType, t), nil
	default:
		return Value{}, errors.NewUnsupportedColumnType("Decode", byte(columnType))
	}
}

// Encode writes value to w as columnType. LONGLONG and LONG are written as
// fixed-width integers parsed from the value's text; every other type is
// written as a length-encoded string of that text. Nothing is written when
// the value cannot be formatted.
func (Codec) Encode(columnType constant.ColumnType, w Writer, value any) error {
	// TODO: write the remaining fixed-width and temporal types natively instead of as text.
	text, err := Text(value)
	if err != nil {
		return errors.NewValueFormatError("Encode", "<nil>", err)
	}

	switch columnType {
	case constant.ColumnTypeLongLong:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return errors.NewValueFormatError("Encode", text, err)
		}
		w.WriteUint64(uint64(n))
	case constant.ColumnTypeLong:
		n, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return errors.NewValueFormatError("Encode", text, err)
		}
		w.WriteUint32(uint32(int32(n)))
	default:
		w.WriteStringLenenc(text)
	}
	return nil
}

// Text returns the textual form of a bound value
func Text(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", fmt.Errorf("nil value has no textual form")
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case Value:
		return v.String(), nil
	case time.Time:
		return v.Format("2006-01-02 15:04:05.999999999"), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprint(v), nil
	}
}

func wrapRead(err error, columnType constant.ColumnType) error {
	return errors.Wrapf(err, errors.Code(err), "Decode", "read %s: %v", columnType, err)
}

package binproto

import (
	"fmt"
	"time"

	"github.com/guileen/shardproxy/errors"
	"github.com/guileen/shardproxy/protocol/mysql/constant"
)

// Temporal is either a DateTime or a TimeOfDay
type Temporal interface {
	fmt.Stringer
	isTemporal()
}

// DateTime is a DATE, DATETIME or TIMESTAMP value. Month is 0-based and
// fields the payload did not carry are zero.
type DateTime struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int

	// Nanosecond holds the 4-byte fractional field exactly as sent, which
	// MySQL servers fill with microseconds. It is never above MaxFraction.
	Nanosecond int
}

// MaxFraction is the largest fractional field a temporal payload may carry
const MaxFraction = 999_999_999

// EpochDateTime is the value of an empty date payload
var EpochDateTime = DateTime{Year: 1970, Month: 0, Day: 1}

func (DateTime) isTemporal() {}

// Time converts the value to a UTC time.Time, normalizing out-of-range fields
func (d DateTime) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month+1), d.Day, d.Hour, d.Minute, d.Second, d.Nanosecond, time.UTC)
}

// String pads the raw fractional field to nine digits without converting it
// from microseconds.
func (d DateTime) String() string {
	s := fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d", d.Year, d.Month+1, d.Day, d.Hour, d.Minute, d.Second)
	if d.Nanosecond != 0 {
		s += fmt.Sprintf(".%09d", d.Nanosecond)
	}
	return s
}

// TimeOfDay is a TIME value. Sign and day count are not carried.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int

	// Nanosecond holds the raw fractional field, as for DateTime
	Nanosecond int
}

func (TimeOfDay) isTemporal() {}

// Duration returns the offset from midnight
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t.Hour)*time.Hour +
		time.Duration(t.Minute)*time.Minute +
		time.Duration(t.Second)*time.Second +
		time.Duration(t.Nanosecond)
}

func (t TimeOfDay) String() string {
	s := fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	if t.Nanosecond != 0 {
		s += fmt.Sprintf(".%09d", t.Nanosecond)
	}
	return s
}

// Temporal payload lengths
const (
	dateLengthEmpty    = 0
	dateLengthDate     = 4
	dateLengthDatetime = 7
	dateLengthFraction = 11

	timeLengthEmpty    = 0
	timeLengthTime     = 8
	timeLengthFraction = 12
)

// fieldReader accumulates the first read error so field sequences stay flat
type fieldReader struct {
	r   Reader
	err error
}

func (f *fieldReader) int1() int {
	if f.err != nil {
		return 0
	}
	v, err := f.r.ReadUint8()
	f.err = err
	return int(v)
}

func (f *fieldReader) int2() int {
	if f.err != nil {
		return 0
	}
	v, err := f.r.ReadUint16()
	f.err = err
	return int(v)
}

// fraction reads the 4-byte fractional field, rejecting values no second can hold
func (f *fieldReader) fraction(op string, columnType constant.ColumnType) int {
	v := f.int4()
	if f.err == nil && (v < 0 || v > MaxFraction) {
		f.err = errors.NewMalformedFraction(op, columnType.String(), uint64(v), MaxFraction)
		return 0
	}
	return v
}

func (f *fieldReader) int4() int {
	if f.err != nil {
		return 0
	}
	v, err := f.r.ReadUint32()
	f.err = err
	return int(v)
}

func readDate(columnType constant.ColumnType, r Reader) (DateTime, error) {
	f := &fieldReader{r: r}
	length := f.int1()
	if f.err != nil {
		return DateTime{}, f.err
	}

	var d DateTime
	switch length {
	case dateLengthEmpty:
		return EpochDateTime, nil
	case dateLengthDate:
		d.Year, d.Month, d.Day = f.int2(), f.int1()-1, f.int1()
	case dateLengthDatetime:
		d.Year, d.Month, d.Day = f.int2(), f.int1()-1, f.int1()
		d.Hour, d.Minute, d.Second = f.int1(), f.int1(), f.int1()
	case dateLengthFraction:
		d.Year, d.Month, d.Day = f.int2(), f.int1()-1, f.int1()
		d.Hour, d.Minute, d.Second = f.int1(), f.int1(), f.int1()
		d.Nanosecond = f.fraction("readDate", columnType)
	default:
		return DateTime{}, errors.NewMalformedTemporal("readDate", columnType.String(), length,
			dateLengthEmpty, dateLengthDate, dateLengthDatetime, dateLengthFraction)
	}
	if f.err != nil {
		return DateTime{}, f.err
	}
	return d, nil
}

func readTime(columnType constant.ColumnType, r Reader) (TimeOfDay, error) {
	f := &fieldReader{r: r}
	length := f.int1()
	if f.err != nil {
		return TimeOfDay{}, f.err
	}
	if length == timeLengthEmpty {
		return TimeOfDay{}, skipTimeSign(r)
	}
	// sign and day count are always present and always dropped
	f.int1()
	f.int4()
	if f.err != nil {
		return TimeOfDay{}, f.err
	}

	var t TimeOfDay
	switch length {
	case timeLengthTime:
		t.Hour, t.Minute, t.Second = f.int1(), f.int1(), f.int1()
	case timeLengthFraction:
		t.Hour, t.Minute, t.Second = f.int1(), f.int1(), f.int1()
		t.Nanosecond = f.fraction("readTime", columnType)
	default:
		return TimeOfDay{}, errors.NewMalformedTemporal("readTime", columnType.String(), length,
			timeLengthEmpty, timeLengthTime, timeLengthFraction)
	}
	if f.err != nil {
		return TimeOfDay{}, f.err
	}
	return t, nil
}

// skipTimeSign drops the sign and day count following an empty time. The
// payload may end before all five bytes.
func skipTimeSign(r Reader) error {
	for i := 0; i < 5; i++ {
		if _, err := r.ReadUint8(); err != nil {
			if errors.IsTruncated(err) {
				return nil
			}
			return err
		}
	}
	return nil
}

// Package constant holds the MySQL wire constants the proxy's codecs dispatch on.
package constant

import (
	"fmt"
	"strconv"
	"strings"
)

// ColumnType is the one-byte column type tag carried on the MySQL wire
type ColumnType byte

const (
	ColumnTypeDecimal    ColumnType = 0x00
	ColumnTypeTiny       ColumnType = 0x01
	ColumnTypeShort      ColumnType = 0x02
	ColumnTypeLong       ColumnType = 0x03
	ColumnTypeFloat      ColumnType = 0x04
	ColumnTypeDouble     ColumnType = 0x05
	ColumnTypeNull       ColumnType = 0x06
	ColumnTypeTimestamp  ColumnType = 0x07
	ColumnTypeLongLong   ColumnType = 0x08
	ColumnTypeInt24      ColumnType = 0x09
	ColumnTypeDate       ColumnType = 0x0a
	ColumnTypeTime       ColumnType = 0x0b
	ColumnTypeDatetime   ColumnType = 0x0c
	ColumnTypeYear       ColumnType = 0x0d
	ColumnTypeNewDate    ColumnType = 0x0e // internal to MySQL, never on the wire
	ColumnTypeVarchar    ColumnType = 0x0f
	ColumnTypeBit        ColumnType = 0x10
	ColumnTypeTimestamp2 ColumnType = 0x11
	ColumnTypeDatetime2  ColumnType = 0x12
	ColumnTypeTime2      ColumnType = 0x13
	ColumnTypeJSON       ColumnType = 0xf5
	ColumnTypeNewDecimal ColumnType = 0xf6
	ColumnTypeEnum       ColumnType = 0xf7
	ColumnTypeSet        ColumnType = 0xf8
	ColumnTypeTinyBlob   ColumnType = 0xf9
	ColumnTypeMediumBlob ColumnType = 0xfa
	ColumnTypeLongBlob   ColumnType = 0xfb
	ColumnTypeBlob       ColumnType = 0xfc
	ColumnTypeVarString  ColumnType = 0xfd
	ColumnTypeString     ColumnType = 0xfe
	ColumnTypeGeometry   ColumnType = 0xff
)

// Family groups column types that share one binary protocol layout
type Family uint8

const (
	FamilyUnsupported Family = iota
	FamilyLengthEncoded
	FamilyInt8
	FamilyInt4
	FamilyInt2
	FamilyInt1
	FamilyDate
	FamilyTime
)

var familyNames = [...]string{
	FamilyUnsupported:   "unsupported",
	FamilyLengthEncoded: "length_encoded",
	FamilyInt8:          "int8",
	FamilyInt4:          "int4",
	FamilyInt2:          "int2",
	FamilyInt1:          "int1",
	FamilyDate:          "date",
	FamilyTime:          "time",
}

func (f Family) String() string {
	if int(f) < len(familyNames) {
		return familyNames[f]
	}
	return fmt.Sprintf("family(%d)", uint8(f))
}

type columnTypeInfo struct {
	name   string
	family Family
}

// registry is the closed set of types the binary protocol codec understands.
// Anything absent maps to FamilyUnsupported.
var registry = map[ColumnType]columnTypeInfo{
	ColumnTypeString:     {"MYSQL_TYPE_STRING", FamilyLengthEncoded},
	ColumnTypeVarchar:    {"MYSQL_TYPE_VARCHAR", FamilyLengthEncoded},
	ColumnTypeVarString:  {"MYSQL_TYPE_VAR_STRING", FamilyLengthEncoded},
	ColumnTypeEnum:       {"MYSQL_TYPE_ENUM", FamilyLengthEncoded},
	ColumnTypeSet:        {"MYSQL_TYPE_SET", FamilyLengthEncoded},
	ColumnTypeLongBlob:   {"MYSQL_TYPE_LONG_BLOB", FamilyLengthEncoded},
	ColumnTypeMediumBlob: {"MYSQL_TYPE_MEDIUM_BLOB", FamilyLengthEncoded},
	ColumnTypeBlob:       {"MYSQL_TYPE_BLOB", FamilyLengthEncoded},
	ColumnTypeTinyBlob:   {"MYSQL_TYPE_TINY_BLOB", FamilyLengthEncoded},
	ColumnTypeGeometry:   {"MYSQL_TYPE_GEOMETRY", FamilyLengthEncoded},
	ColumnTypeBit:        {"MYSQL_TYPE_BIT", FamilyLengthEncoded},
	ColumnTypeDecimal:    {"MYSQL_TYPE_DECIMAL", FamilyLengthEncoded},
	ColumnTypeNewDecimal: {"MYSQL_TYPE_NEWDECIMAL", FamilyLengthEncoded},
	ColumnTypeLongLong:   {"MYSQL_TYPE_LONGLONG", FamilyInt8},
	ColumnTypeDouble:     {"MYSQL_TYPE_DOUBLE", FamilyInt8},
	ColumnTypeLong:       {"MYSQL_TYPE_LONG", FamilyInt4},
	ColumnTypeInt24:      {"MYSQL_TYPE_INT24", FamilyInt4},
	ColumnTypeFloat:      {"MYSQL_TYPE_FLOAT", FamilyInt4},
	ColumnTypeShort:      {"MYSQL_TYPE_SHORT", FamilyInt2},
	ColumnTypeYear:       {"MYSQL_TYPE_YEAR", FamilyInt2},
	ColumnTypeTiny:       {"MYSQL_TYPE_TINY", FamilyInt1},
	ColumnTypeDate:       {"MYSQL_TYPE_DATE", FamilyDate},
	ColumnTypeDatetime:   {"MYSQL_TYPE_DATETIME", FamilyDate},
	ColumnTypeTimestamp:  {"MYSQL_TYPE_TIMESTAMP", FamilyDate},
	ColumnTypeTime:       {"MYSQL_TYPE_TIME", FamilyTime},
}

// Names for tags that exist in MySQL but have no binary protocol strategy
var unsupportedNames = map[ColumnType]string{
	ColumnTypeNull:       "MYSQL_TYPE_NULL",
	ColumnTypeNewDate:    "MYSQL_TYPE_NEWDATE",
	ColumnTypeTimestamp2: "MYSQL_TYPE_TIMESTAMP2",
	ColumnTypeDatetime2:  "MYSQL_TYPE_DATETIME2",
	ColumnTypeTime2:      "MYSQL_TYPE_TIME2",
	ColumnTypeJSON:       "MYSQL_TYPE_JSON",
}

// Family returns the binary protocol layout of the type
func (t ColumnType) Family() Family {
	return registry[t].family
}

// IsSupported reports whether the binary protocol codec can decode the type
func (t ColumnType) IsSupported() bool {
	return t.Family() != FamilyUnsupported
}

func (t ColumnType) String() string {
	if info, ok := registry[t]; ok {
		return info.name
	}
	if name, ok := unsupportedNames[t]; ok {
		return name
	}
	return fmt.Sprintf("MYSQL_TYPE_UNKNOWN(0x%02x)", byte(t))
}

// ColumnTypes returns every supported type in tag order
func ColumnTypes() []ColumnType {
	types := make([]ColumnType, 0, len(registry))
	for tag := 0; tag <= 0xff; tag++ {
		if _, ok := registry[ColumnType(tag)]; ok {
			types = append(types, ColumnType(tag))
		}
	}
	return types
}

// ParseColumnType accepts "MYSQL_TYPE_LONGLONG", "LONGLONG" (any case) or a
// numeric tag such as "8" or "0x08".
func ParseColumnType(s string) (ColumnType, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if tag, err := strconv.ParseUint(s, 0, 8); err == nil {
		return ColumnType(tag), true
	}
	name := strings.ToUpper(s)
	if !strings.HasPrefix(name, "MYSQL_TYPE_") {
		name = "MYSQL_TYPE_" + name
	}
	for tag, info := range registry {
		if info.name == name {
			return tag, true
		}
	}
	for tag, n := range unsupportedNames {
		if n == name {
			return tag, true
		}
	}
	return 0, false
}

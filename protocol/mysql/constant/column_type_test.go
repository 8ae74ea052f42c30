package constant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnType_Family(t *testing.T) {
	tests := []struct {
		typ    ColumnType
		family Family
	}{
		{ColumnTypeString, FamilyLengthEncoded},
		{ColumnTypeGeometry, FamilyLengthEncoded},
		{ColumnTypeNewDecimal, FamilyLengthEncoded},
		{ColumnTypeDecimal, FamilyLengthEncoded},
		{ColumnTypeLongLong, FamilyInt8},
		{ColumnTypeDouble, FamilyInt8},
		{ColumnTypeInt24, FamilyInt4},
		{ColumnTypeFloat, FamilyInt4},
		{ColumnTypeYear, FamilyInt2},
		{ColumnTypeTiny, FamilyInt1},
		{ColumnTypeTimestamp, FamilyDate},
		{ColumnTypeTime, FamilyTime},
		{ColumnTypeNull, FamilyUnsupported},
		{ColumnTypeJSON, FamilyUnsupported},
		{ColumnType(0x42), FamilyUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			assert.Equal(t, tt.family, tt.typ.Family())
			assert.Equal(t, tt.family != FamilyUnsupported, tt.typ.IsSupported())
		})
	}
}

func TestColumnTypes_Ordered(t *testing.T) {
	types := ColumnTypes()
	assert.Len(t, types, 25)
	assert.Equal(t, ColumnTypeDecimal, types[0])
	assert.Equal(t, ColumnTypeGeometry, types[len(types)-1])
	for i := 1; i < len(types); i++ {
		assert.Less(t, types[i-1], types[i])
	}
}

func TestColumnType_String(t *testing.T) {
	assert.Equal(t, "MYSQL_TYPE_LONGLONG", ColumnTypeLongLong.String())
	assert.Equal(t, "MYSQL_TYPE_JSON", ColumnTypeJSON.String())
	assert.Equal(t, "MYSQL_TYPE_UNKNOWN(0x42)", ColumnType(0x42).String())
}

func TestParseColumnType(t *testing.T) {
	tests := []struct {
		in   string
		want ColumnType
		ok   bool
	}{
		{"MYSQL_TYPE_LONG", ColumnTypeLong, true},
		{"var_string", ColumnTypeVarString, true},
		{"json", ColumnTypeJSON, true},
		{"8", ColumnTypeLongLong, true},
		{"0xfe", ColumnTypeString, true},
		{"256", 0, false},
		{"nope", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseColumnType(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

package execute

import (
	"testing"

	"github.com/guileen/shardproxy/errors"
	"github.com/guileen/shardproxy/protocol/mysql/binproto"
	"github.com/guileen/shardproxy/protocol/mysql/constant"
	"github.com/guileen/shardproxy/protocol/mysql/payload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const threeParamSQL = "SELECT * FROM orders WHERE id = ? AND owner = ? AND note = ?"

// executeHeader writes the fixed COM_STMT_EXECUTE prefix
func executeHeader(id uint32) *payload.Payload {
	p := payload.NewPayload(nil)
	p.WriteUint8(constant.ComStmtExecute)
	p.WriteUint32(id)
	p.WriteUint8(0)
	p.WriteUint32(1)
	return p
}

func boundPacket(id uint32) *payload.Payload {
	p := executeHeader(id)
	p.WriteUint8(0b100) // note is NULL
	p.WriteUint8(1)
	p.WriteBytes([]byte{byte(constant.ColumnTypeLongLong), constant.ParameterUnsignedFlag})
	p.WriteBytes([]byte{byte(constant.ColumnTypeVarString), 0})
	p.WriteBytes([]byte{byte(constant.ColumnTypeVarchar), 0})
	p.WriteUint64(42)
	p.WriteStringLenenc("bob")
	return p
}

func TestReadExecutePacket_NewParamsBound(t *testing.T) {
	registry := NewStatementRegistry(0)
	stmt, err := registry.Prepare(threeParamSQL)
	require.NoError(t, err)

	p := boundPacket(stmt.ID)
	pkt, err := ReadExecutePacket(p, registry, binproto.NewCodec())
	require.NoError(t, err)

	assert.Equal(t, stmt.ID, pkt.StatementID)
	assert.Equal(t, uint32(1), pkt.IterationCount)
	assert.True(t, pkt.NewParamsBound)
	require.Len(t, pkt.Parameters, 3)

	assert.Equal(t, ParameterType{Type: constant.ColumnTypeLongLong, Unsigned: true}, pkt.Parameters[0].Type)
	assert.Equal(t, []any{int64(42), []byte("bob"), nil}, pkt.Values())
	assert.True(t, pkt.Parameters[2].Null)
	assert.Equal(t, 0, p.Remaining())

	assert.Equal(t, []ParameterType{
		{Type: constant.ColumnTypeLongLong, Unsigned: true},
		{Type: constant.ColumnTypeVarString},
		{Type: constant.ColumnTypeVarchar},
	}, stmt.ParameterTypes())
}

func TestReadExecutePacket_UsesCachedTypes(t *testing.T) {
	registry := NewStatementRegistry(0)
	stmt, err := registry.Prepare(threeParamSQL)
	require.NoError(t, err)
	_, err = ReadExecutePacket(boundPacket(stmt.ID), registry, binproto.NewCodec())
	require.NoError(t, err)

	p := executeHeader(stmt.ID)
	p.WriteUint8(0b010)
	p.WriteUint8(0)
	p.WriteUint64(7)
	p.WriteStringLenenc("second run")

	pkt, err := ReadExecutePacket(p, registry, binproto.NewCodec())
	require.NoError(t, err)
	assert.False(t, pkt.NewParamsBound)
	assert.Equal(t, []any{int64(7), nil, []byte("second run")}, pkt.Values())
}

func TestReadExecutePacket_NoParameters(t *testing.T) {
	registry := NewStatementRegistry(0)
	stmt, err := registry.Prepare("SELECT 1")
	require.NoError(t, err)

	pkt, err := ReadExecutePacket(executeHeader(stmt.ID), registry, binproto.NewCodec())
	require.NoError(t, err)
	assert.Empty(t, pkt.Parameters)
}

func TestReadExecutePacket_Errors(t *testing.T) {
	registry := NewStatementRegistry(0)
	stmt, err := registry.Prepare(threeParamSQL)
	require.NoError(t, err)

	wrongCommand := payload.NewPayload([]byte{constant.ComStmtPrepare})

	unbound := executeHeader(stmt.ID)
	unbound.WriteUint8(0)
	unbound.WriteUint8(0)

	truncated := executeHeader(stmt.ID)
	truncated.WriteUint8(0)
	truncated.WriteUint8(1)
	truncated.WriteBytes([]byte{byte(constant.ColumnTypeLong), 0, byte(constant.ColumnTypeLong), 0, byte(constant.ColumnTypeLong), 0})
	truncated.WriteUint32(1)
	truncated.WriteUint8(2)

	unsupported := executeHeader(stmt.ID)
	unsupported.WriteUint8(0)
	unsupported.WriteUint8(1)
	unsupported.WriteBytes([]byte{byte(constant.ColumnTypeJSON), 0, byte(constant.ColumnTypeLong), 0, byte(constant.ColumnTypeLong), 0})
	unsupported.WriteStringLenenc("{}")

	tests := []struct {
		name  string
		p     *payload.Payload
		check func(error) bool
	}{
		{"unknown statement", executeHeader(stmt.ID + 100), errors.IsProtocolError},
		{"wrong command", wrongCommand, errors.IsProtocolError},
		{"short header", payload.NewPayload([]byte{constant.ComStmtExecute, 1, 0}), errors.IsTruncated},
		{"no cached types", unbound, errors.IsProtocolError},
		{"truncated parameter", truncated, errors.IsTruncated},
		{"unsupported parameter type", unsupported, errors.IsUnsupportedColumnType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadExecutePacket(tt.p, registry, binproto.NewCodec())
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)
		})
	}

	// failed executions must not cache their types
	assert.Nil(t, stmt.ParameterTypes())
}

func TestParameter_Text(t *testing.T) {
	decode := func(typ constant.ColumnType, wire []byte) binproto.Value {
		v, err := binproto.NewCodec().Decode(typ, payload.NewPayload(wire))
		require.NoError(t, err)
		return v
	}

	tests := []struct {
		name     string
		param    Parameter
		expected string
	}{
		{"unsigned tiny", Parameter{Type: ParameterType{Type: constant.ColumnTypeTiny, Unsigned: true}, Value: decode(constant.ColumnTypeTiny, []byte{200})}, "200"},
		{"signed tiny", Parameter{Type: ParameterType{Type: constant.ColumnTypeTiny}, Value: decode(constant.ColumnTypeTiny, []byte{200})}, "-56"},
		{"unsigned short", Parameter{Type: ParameterType{Type: constant.ColumnTypeShort, Unsigned: true}, Value: decode(constant.ColumnTypeShort, []byte{0xff, 0xff})}, "65535"},
		{"unsigned long", Parameter{Type: ParameterType{Type: constant.ColumnTypeLong, Unsigned: true}, Value: decode(constant.ColumnTypeLong, []byte{0xff, 0xff, 0xff, 0xff})}, "4294967295"},
		{"unsigned longlong", Parameter{Type: ParameterType{Type: constant.ColumnTypeLongLong, Unsigned: true}, Value: decode(constant.ColumnTypeLongLong, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff})}, "18446744073709551615"},
		{"unsigned flag on text", Parameter{Type: ParameterType{Type: constant.ColumnTypeVarchar, Unsigned: true}, Value: decode(constant.ColumnTypeVarchar, []byte{0x02, '-', '1'})}, "-1"},
		{"null", Parameter{Type: ParameterType{Type: constant.ColumnTypeTiny, Unsigned: true}, Null: true}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.param.Text())
		})
	}
}

func TestReadClosePacket(t *testing.T) {
	p := payload.NewPayload(nil)
	p.WriteUint8(constant.ComStmtClose)
	p.WriteUint32(7)

	id, err := ReadClosePacket(p)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), id)

	_, err = ReadClosePacket(payload.NewPayload([]byte{constant.ComStmtExecute, 7, 0, 0, 0}))
	assert.True(t, errors.IsProtocolError(err))

	_, err = ReadClosePacket(payload.NewPayload([]byte{constant.ComStmtClose, 7}))
	assert.True(t, errors.IsTruncated(err))
}

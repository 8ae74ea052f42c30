package execute

import (
	"strconv"

	"github.com/guileen/shardproxy/errors"
	"github.com/guileen/shardproxy/protocol/mysql/binproto"
	"github.com/guileen/shardproxy/protocol/mysql/constant"
	"github.com/guileen/shardproxy/protocol/mysql/payload"
)

// Parameter is one bound value of an execution. Value is the zero Value
// when Null is set.
type Parameter struct {
	Type  ParameterType
	Null  bool
	Value binproto.Value
}

// Text returns the parameter's textual form. Integers flagged unsigned are
// rendered from their unsigned bit pattern; NULL renders as "".
func (p Parameter) Text() string {
	if p.Null {
		return ""
	}
	if p.Type.Unsigned {
		switch p.Value.Kind() {
		case binproto.KindInt64:
			n, _ := p.Value.Int64()
			return strconv.FormatUint(uint64(n), 10)
		case binproto.KindInt32:
			n, _ := p.Value.Int32()
			return strconv.FormatUint(uint64(uint32(n)), 10)
		case binproto.KindInt16:
			n, _ := p.Value.Int16()
			return strconv.FormatUint(uint64(uint16(n)), 10)
		case binproto.KindInt8:
			n, _ := p.Value.Int8()
			return strconv.FormatUint(uint64(uint8(n)), 10)
		}
	}
	return p.Value.String()
}

// ExecutePacket is a parsed COM_STMT_EXECUTE
type ExecutePacket struct {
	StatementID    uint32
	Flags          uint8
	IterationCount uint32
	NewParamsBound bool
	Parameters     []Parameter
}

// Values returns the parameters as plain Go values, nil for NULL
func (e *ExecutePacket) Values() []any {
	out := make([]any, len(e.Parameters))
	for i, param := range e.Parameters {
		if !param.Null {
			out[i] = param.Value.Interface()
		}
	}
	return out
}

// ReadExecutePacket parses a COM_STMT_EXECUTE payload for a statement held
// by registry. Types sent with the packet replace the ones cached on the
// statement.
func ReadExecutePacket(p *payload.Payload, registry *StatementRegistry, codec binproto.Codec) (*ExecutePacket, error) {
	const op = "ReadExecutePacket"

	command, err := p.ReadUint8()
	if err != nil {
		return nil, errors.Wrapf(err, errors.Code(err), op, "read command: %v", err)
	}
	if command != constant.ComStmtExecute {
		return nil, errors.NewProtocolErrorf(op, "unexpected command 0x%02x", command)
	}

	pkt := &ExecutePacket{}
	if pkt.StatementID, err = p.ReadUint32(); err != nil {
		return nil, errors.Wrapf(err, errors.Code(err), op, "read statement id: %v", err)
	}
	if pkt.Flags, err = p.ReadUint8(); err != nil {
		return nil, errors.Wrapf(err, errors.Code(err), op, "read flags: %v", err)
	}
	if pkt.IterationCount, err = p.ReadUint32(); err != nil {
		return nil, errors.Wrapf(err, errors.Code(err), op, "read iteration count: %v", err)
	}

	stmt, ok := registry.Get(pkt.StatementID)
	if !ok {
		return nil, errors.NewProtocolErrorf(op, "unknown statement id %d", pkt.StatementID)
	}

	n := stmt.ParameterCount
	if n == 0 {
		return pkt, nil
	}

	nullBitmap, err := p.ReadBytes((n + 7) / 8)
	if err != nil {
		return nil, errors.Wrapf(err, errors.Code(err), op, "read null bitmap: %v", err)
	}
	bound, err := p.ReadUint8()
	if err != nil {
		return nil, errors.Wrapf(err, errors.Code(err), op, "read new-params-bound flag: %v", err)
	}
	pkt.NewParamsBound = bound == 1

	var types []ParameterType
	if pkt.NewParamsBound {
		types = make([]ParameterType, n)
		for i := range types {
			typ, err := p.ReadUint8()
			if err != nil {
				return nil, errors.Wrapf(err, errors.Code(err), op, "read type of parameter %d: %v", i, err)
			}
			flag, err := p.ReadUint8()
			if err != nil {
				return nil, errors.Wrapf(err, errors.Code(err), op, "read type of parameter %d: %v", i, err)
			}
			types[i] = ParameterType{
				Type:     constant.ColumnType(typ),
				Unsigned: flag&constant.ParameterUnsignedFlag != 0,
			}
		}
	} else {
		types = stmt.ParameterTypes()
		if len(types) != n {
			return nil, errors.NewProtocolErrorf(op, "statement %d executed without parameter types", pkt.StatementID)
		}
	}

	pkt.Parameters = make([]Parameter, n)
	for i := range pkt.Parameters {
		param := Parameter{Type: types[i]}
		if nullBitmap[i/8]&(1<<(uint(i)%8)) != 0 {
			param.Null = true
			pkt.Parameters[i] = param
			continue
		}
		param.Value, err = codec.Decode(types[i].Type, p)
		if err != nil {
			return nil, errors.Wrapf(err, errors.Code(err), op, "parameter %d: %v", i, err)
		}
		pkt.Parameters[i] = param
	}

	// cache only after every parameter decoded so a bad packet leaves the statement untouched
	if pkt.NewParamsBound {
		stmt.bindTypes(types)
	}
	return pkt, nil
}

// ReadClosePacket parses a COM_STMT_CLOSE payload and returns the statement id
func ReadClosePacket(p *payload.Payload) (uint32, error) {
	const op = "ReadClosePacket"

	command, err := p.ReadUint8()
	if err != nil {
		return 0, errors.Wrapf(err, errors.Code(err), op, "read command: %v", err)
	}
	if command != constant.ComStmtClose {
		return 0, errors.NewProtocolErrorf(op, "unexpected command 0x%02x", command)
	}
	id, err := p.ReadUint32()
	if err != nil {
		return 0, errors.Wrapf(err, errors.Code(err), op, "read statement id: %v", err)
	}
	return id, nil
}

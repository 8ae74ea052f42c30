package execute

import (
	"github.com/guileen/shardproxy/errors"
	"github.com/guileen/shardproxy/protocol/mysql/binproto"
	"github.com/guileen/shardproxy/protocol/mysql/constant"
	"github.com/guileen/shardproxy/protocol/mysql/payload"
)

// Binary rows reserve the first two bits of the null bitmap
const rowNullBitmapOffset = 2

// WriteBinaryRow appends one binary result set row to w. A nil value is
// written as NULL. On failure w is left as it was before the call.
func WriteBinaryRow(w *payload.Payload, codec binproto.Codec, columnTypes []constant.ColumnType, values []any) error {
	const op = "WriteBinaryRow"
	if len(columnTypes) != len(values) {
		return errors.NewProtocolErrorf(op, "%d column types for %d values", len(columnTypes), len(values))
	}

	nullBitmap := make([]byte, (len(values)+7+rowNullBitmapOffset)/8)
	for i, v := range values {
		if v == nil {
			pos := i + rowNullBitmapOffset
			nullBitmap[pos/8] |= 1 << (uint(pos) % 8)
		}
	}

	start := w.Len()
	w.WriteUint8(constant.BinaryRowHeader)
	w.WriteBytes(nullBitmap)
	for i, v := range values {
		if v == nil {
			continue
		}
		if err := codec.Encode(columnTypes[i], w, v); err != nil {
			w.Truncate(start)
			return errors.Wrapf(err, errors.Code(err), op, "column %d: %v", i, err)
		}
	}
	return nil
}

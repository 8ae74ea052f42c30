package execute

import (
	"context"

	"github.com/google/uuid"
	"github.com/guileen/shardproxy/errors"
	"github.com/guileen/shardproxy/logger"
	"github.com/guileen/shardproxy/protocol/mysql/binproto"
	"github.com/guileen/shardproxy/protocol/mysql/payload"
)

// Handler parses COM_STMT_EXECUTE packets against a statement registry
type Handler struct {
	registry       *StatementRegistry
	codec          binproto.Codec
	maxPayloadSize int
}

// NewHandler creates a handler over registry that rejects payloads longer
// than maxPayloadSize. A non-positive maxPayloadSize means no limit.
func NewHandler(registry *StatementRegistry, maxPayloadSize int) *Handler {
	return &Handler{
		registry:       registry,
		codec:          binproto.NewCodec(),
		maxPayloadSize: maxPayloadSize,
	}
}

// Registry returns the handler's statement registry
func (h *Handler) Registry() *StatementRegistry {
	return h.registry
}

// Handle parses one COM_STMT_EXECUTE payload. Failures are logged before
// they are returned.
func (h *Handler) Handle(ctx context.Context, data []byte) (*ExecutePacket, error) {
	if _, ok := logger.RequestID(ctx); !ok {
		ctx = logger.WithContextValue(ctx, logger.RequestIDKey, uuid.NewString())
	}

	pkt, err := h.read(data)
	if err != nil {
		errors.LogWarning(ctx, err)
		return nil, err
	}

	ctx = logger.WithContextValue(ctx, logger.StatementIDKey, pkt.StatementID)
	logger.DebugContext(ctx, "Execute packet parsed",
		logger.Int("parameters", len(pkt.Parameters)),
		logger.Bool("new_params_bound", pkt.NewParamsBound))
	return pkt, nil
}

// Close parses one COM_STMT_CLOSE payload and drops the statement it names.
// Closing an unknown statement succeeds, since the client gets no reply.
func (h *Handler) Close(ctx context.Context, data []byte) error {
	id, err := ReadClosePacket(payload.NewPayload(data))
	if err != nil {
		errors.LogWarning(ctx, err)
		return err
	}
	h.registry.Close(id)

	ctx = logger.WithContextValue(ctx, logger.StatementIDKey, id)
	logger.DebugContext(ctx, "Statement closed")
	return nil
}

func (h *Handler) read(data []byte) (*ExecutePacket, error) {
	if h.maxPayloadSize > 0 && len(data) > h.maxPayloadSize {
		return nil, errors.NewProtocolErrorf("Handle", "payload of %d bytes exceeds limit %d", len(data), h.maxPayloadSize)
	}
	return ReadExecutePacket(payload.NewPayload(data), h.registry, h.codec)
}

// Package api exposes the binary protocol codec over HTTP for debugging
// captured packets.
package api

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/guileen/shardproxy/errors"
	"github.com/guileen/shardproxy/logger"
	"github.com/guileen/shardproxy/protocol/mysql/binproto"
	"github.com/guileen/shardproxy/protocol/mysql/constant"
	"github.com/guileen/shardproxy/protocol/mysql/execute"
	"github.com/guileen/shardproxy/protocol/mysql/payload"
)

type RESTHandler struct {
	codec     binproto.Codec
	pool      *payload.BufferPool
	execute   *execute.Handler
	bodyLimit int64
}

func NewRESTHandler(handler *execute.Handler, pool *payload.BufferPool, bodyLimit int64) *RESTHandler {
	return &RESTHandler{
		codec:     binproto.NewCodec(),
		pool:      pool,
		execute:   handler,
		bodyLimit: bodyLimit,
	}
}

func (h *RESTHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/binary", func(r chi.Router) {
		r.Get("/types", h.ListTypes)
		r.Post("/decode", h.Decode)
		r.Post("/encode", h.Encode)
		r.Post("/row", h.WriteRow)
	})
	r.Route("/api/statements", func(r chi.Router) {
		r.Post("/", h.PrepareStatement)
		r.Post("/{statementID}/execute", h.ExecuteStatement)
		r.Delete("/{statementID}", h.CloseStatement)
	})
}

type TypeInfo struct {
	Name   string `json:"name"`
	Tag    uint8  `json:"tag"`
	Family string `json:"family"`
}

type DecodeRequest struct {
	ColumnType string `json:"column_type"`
	PayloadHex string `json:"payload_hex"`
}

type DecodeResponse struct {
	ColumnType string   `json:"column_type"`
	Kind       string   `json:"kind"`
	Value      string   `json:"value"`
	Float      *float64 `json:"float,omitempty"`
	Consumed   int      `json:"consumed"`
}

type EncodeRequest struct {
	ColumnType string `json:"column_type"`
	Value      any    `json:"value"`
}

type EncodeResponse struct {
	PayloadHex string `json:"payload_hex"`
}

type RowRequest struct {
	ColumnTypes []string `json:"column_types"`
	Values      []any    `json:"values"`
}

type PrepareRequest struct {
	SQL string `json:"sql"`
}

type PrepareResponse struct {
	StatementID    uint32 `json:"statement_id"`
	ParameterCount int    `json:"parameter_count"`
}

type ExecuteRequest struct {
	PayloadHex string `json:"payload_hex"`
}

type ParameterResponse struct {
	ColumnType string `json:"column_type"`
	Unsigned   bool   `json:"unsigned,omitempty"`
	Null       bool   `json:"null,omitempty"`
	Value      string `json:"value,omitempty"`
}

type ExecuteResponse struct {
	StatementID    uint32              `json:"statement_id"`
	IterationCount uint32              `json:"iteration_count"`
	NewParamsBound bool                `json:"new_params_bound"`
	Parameters     []ParameterResponse `json:"parameters"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (h *RESTHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types := constant.ColumnTypes()
	out := make([]TypeInfo, len(types))
	for i, typ := range types {
		out[i] = TypeInfo{Name: typ.String(), Tag: uint8(typ), Family: typ.Family().String()}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *RESTHandler) Decode(w http.ResponseWriter, r *http.Request) {
	var req DecodeRequest
	if !h.readJSON(w, r, &req) {
		return
	}

	typ, ok := constant.ParseColumnType(req.ColumnType)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown column type %q", req.ColumnType))
		return
	}
	raw, err := hex.DecodeString(req.PayloadHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid payload_hex: %w", err))
		return
	}

	p := payload.NewPayload(raw)
	v, err := h.codec.Decode(typ, p)
	if err != nil {
		logRejected(r, "decode", typ, err)
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp := DecodeResponse{
		ColumnType: typ.String(),
		Kind:       v.Kind().String(),
		Value:      v.String(),
		Consumed:   p.Position(),
	}
	if f, ok := v.Float64(); ok {
		resp.Float = &f
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *RESTHandler) Encode(w http.ResponseWriter, r *http.Request) {
	var req EncodeRequest
	if !h.readJSON(w, r, &req) {
		return
	}

	typ, ok := constant.ParseColumnType(req.ColumnType)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown column type %q", req.ColumnType))
		return
	}

	p := h.pool.Acquire(0)
	defer h.pool.Release(p)
	if err := h.codec.Encode(typ, p, req.Value); err != nil {
		logRejected(r, "encode", typ, err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, EncodeResponse{PayloadHex: hex.EncodeToString(p.Bytes())})
}

func (h *RESTHandler) WriteRow(w http.ResponseWriter, r *http.Request) {
	var req RowRequest
	if !h.readJSON(w, r, &req) {
		return
	}

	columnTypes := make([]constant.ColumnType, len(req.ColumnTypes))
	for i, name := range req.ColumnTypes {
		typ, ok := constant.ParseColumnType(name)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown column type %q", name))
			return
		}
		columnTypes[i] = typ
	}

	p := h.pool.Acquire(0)
	defer h.pool.Release(p)
	if err := execute.WriteBinaryRow(p, h.codec, columnTypes, req.Values); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, EncodeResponse{PayloadHex: hex.EncodeToString(p.Bytes())})
}

func (h *RESTHandler) PrepareStatement(w http.ResponseWriter, r *http.Request) {
	var req PrepareRequest
	if !h.readJSON(w, r, &req) {
		return
	}

	stmt, err := h.execute.Registry().Prepare(req.SQL)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	logger.InfoContext(r.Context(), "Statement prepared",
		logger.Int64("statement_id", int64(stmt.ID)),
		logger.Int("parameters", stmt.ParameterCount))
	writeJSON(w, http.StatusCreated, PrepareResponse{StatementID: stmt.ID, ParameterCount: stmt.ParameterCount})
}

func (h *RESTHandler) ExecuteStatement(w http.ResponseWriter, r *http.Request) {
	id, ok := statementID(w, r)
	if !ok {
		return
	}

	var req ExecuteRequest
	if !h.readJSON(w, r, &req) {
		return
	}
	raw, err := hex.DecodeString(req.PayloadHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid payload_hex: %w", err))
		return
	}
	if _, err := h.execute.Registry().Lookup(id); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	pkt, err := h.execute.Handle(r.Context(), raw)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if pkt.StatementID != id {
		writeError(w, http.StatusBadRequest, fmt.Errorf("payload addresses statement %d, not %d", pkt.StatementID, id))
		return
	}

	resp := ExecuteResponse{
		StatementID:    pkt.StatementID,
		IterationCount: pkt.IterationCount,
		NewParamsBound: pkt.NewParamsBound,
		Parameters:     make([]ParameterResponse, len(pkt.Parameters)),
	}
	for i, param := range pkt.Parameters {
		resp.Parameters[i] = ParameterResponse{
			ColumnType: param.Type.Type.String(),
			Unsigned:   param.Type.Unsigned,
			Null:       param.Null,
			Value:      param.Text(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *RESTHandler) CloseStatement(w http.ResponseWriter, r *http.Request) {
	id, ok := statementID(w, r)
	if !ok {
		return
	}
	// go through the wire path a client's COM_STMT_CLOSE takes
	p := h.pool.Acquire(5)
	defer h.pool.Release(p)
	p.WriteUint8(constant.ComStmtClose)
	p.WriteUint32(id)
	if err := h.execute.Close(r.Context(), p.Bytes()); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Helper functions
func logRejected(r *http.Request, op string, typ constant.ColumnType, err error) {
	logger.DebugContext(r.Context(), "Codec request rejected",
		logger.Component("api"),
		logger.Operation(op),
		logger.ColumnType(byte(typ)),
		logger.ErrorField(err))
}

func (h *RESTHandler) readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, h.bodyLimit)
	decoder := json.NewDecoder(body)
	// numbers stay textual so 64-bit integers survive
	decoder.UseNumber()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func statementID(w http.ResponseWriter, r *http.Request) (uint32, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "statementID"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid statement id: %w", err))
		return 0, false
	}
	return uint32(id), true
}

func statusFor(err error) int {
	switch {
	case errors.IsNotFound(err):
		return http.StatusNotFound
	case errors.IsResourceError(err):
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, err error) {
	resp := ErrorResponse{Error: err.Error()}
	if code := errors.Code(err); code != errors.ErrCodeUnknown {
		resp.Code = code
	}
	writeJSON(w, statusCode, resp)
}

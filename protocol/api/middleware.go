package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/guileen/shardproxy/logger"
)

// RequestIDHeader carries the request id in and out of the API
const RequestIDHeader = "X-Request-Id"

// RequestID tags each request context with the caller's request id, or a
// fresh uuid when the caller sent none, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := logger.WithContextValue(r.Context(), logger.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

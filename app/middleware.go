package app

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/putto11262002/websession/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID tags the request context and response with a request id.
// An inbound id is reused when it looks sane.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.ContextWithRequestID(r.Context(), id)))
	})
}

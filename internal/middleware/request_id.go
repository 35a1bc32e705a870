package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"postvault/internal/httputil"
)

// maxRequestIDLen caps ids accepted from clients
const maxRequestIDLen = 128

// RequestID reuses the caller's X-Request-ID or mints a new one
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(httputil.RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(httputil.RequestIDHeader, id)
		next.ServeHTTP(w, httputil.WithRequestID(r, id))
	})
}

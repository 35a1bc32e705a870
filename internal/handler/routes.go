package handler

import (
	"net/http"

	"postvault/internal/domain/models"
)

// Routes registers the API on mux. protect wraps the commit endpoints
// (auth, rate limiting); health stays open.
func Routes(mux *http.ServeMux, entries *EntryHandler, protect func(http.Handler) http.Handler) {
	if protect == nil {
		protect = func(h http.Handler) http.Handler { return h }
	}

	mux.HandleFunc("GET /health", HealthCheck)

	mux.Handle("POST /api/{category}", protect(http.HandlerFunc(entries.AddEntry)))
	for _, category := range models.Categories() {
		mux.Handle("POST /"+category.String(), protect(entries.AddTo(category)))
	}
}

package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"postvault/internal/domain"
	"postvault/internal/httputil"
	"postvault/internal/secrets"
)

// APIKeyHeader is the header callers present their key in
const APIKeyHeader = "X-Api-Key"

// APIKey loads the request's secrets, checks the caller's key against them
// and attaches them to the context. No key configured means no check.
func APIKey(source secrets.Source, logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sec, err := source.Load(r.Context())
			if err != nil {
				logger.Error("failed to load secrets",
					"error", err,
					"request_id", httputil.GetRequestID(r),
				)
				httputil.RespondError(w, http.StatusServiceUnavailable, "credentials unavailable")
				return
			}

			if sec.APIKey != "" {
				provided := r.Header.Get(APIKeyHeader)
				if subtle.ConstantTimeCompare([]byte(provided), []byte(sec.APIKey)) != 1 {
					httputil.RespondError(w, http.StatusUnauthorized, domain.ErrAuthFailure.Error())
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(secrets.WithContext(r.Context(), sec)))
		})
	}
}

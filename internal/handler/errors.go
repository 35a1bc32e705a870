package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"postvault/internal/domain"
	"postvault/internal/httputil"
)

// handleError maps the commit error taxonomy to RFC 7807 responses. Asset
// failures are checked before store failures since an asset error may wrap
// an unavailable store.
func handleError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	extras := map[string]interface{}{}
	var commitErr *domain.CommitError
	if errors.As(err, &commitErr) {
		extras["stage"] = commitErr.Stage
		if commitErr.PostID != "" {
			extras["postId"] = commitErr.PostID
		}
	}
	var assetErr *domain.AssetUploadError
	if errors.As(err, &assetErr) {
		extras["asset"] = assetErr.Path
	}

	var status int
	var detail string
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, detail = http.StatusBadRequest, invalidInputDetail(err)
	case errors.Is(err, domain.ErrAuthFailure):
		status, detail = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrPostUnavailable):
		status, detail = http.StatusUnprocessableEntity, "post has no text or images, or is not available"
	case errors.Is(err, domain.ErrUpstreamUnreachable):
		status, detail = http.StatusBadGateway, "failed to fetch post data"
	case errors.Is(err, domain.ErrAssetUploadFailed):
		status, detail = http.StatusBadGateway, "failed to store post images, safe to retry"
	case errors.Is(err, domain.ErrAppendConflict):
		status, detail = http.StatusConflict, "concurrent update conflict, please retry"
	case errors.Is(err, domain.ErrStoreUnavailable):
		status, detail = http.StatusServiceUnavailable, "vault storage unavailable"
	default:
		status, detail = http.StatusInternalServerError, "internal server error"
	}

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(r.Context(), level, "request failed",
		"error", err,
		"status", status,
		"request_id", httputil.GetRequestID(r),
	)

	httputil.RespondErrorWithExtras(w, status, detail, extras)
}

// invalidInputDetail surfaces the validation message itself, which is safe
// to show the caller
func invalidInputDetail(err error) string {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Error()
	}
	return err.Error()
}

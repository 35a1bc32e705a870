package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"postvault/internal/config"
	"postvault/internal/domain"
	"postvault/internal/domain/models"
	"postvault/internal/domain/services"
	"postvault/internal/httputil"
)

// EntryHandler records posts into the vault
type EntryHandler struct {
	committers     services.CommitterProvider
	requestTimeout time.Duration
	logger         *slog.Logger
}

// NewEntryHandler creates a new entry handler. requestTimeout bounds a whole
// commit, zero means no bound beyond the client's.
func NewEntryHandler(committers services.CommitterProvider, requestTimeout time.Duration, logger *slog.Logger) *EntryHandler {
	return &EntryHandler{
		committers:     committers,
		requestTimeout: requestTimeout,
		logger:         logger,
	}
}

// AddEntryRequest is the JSON body of an add call
type AddEntryRequest struct {
	URL  string `json:"url"`
	Note string `json:"note"`
}

// AddEntryResponse is returned once the entry is in the document
type AddEntryResponse struct {
	Status   string          `json:"status"`
	Message  string          `json:"message"`
	PostID   string          `json:"postId"`
	Category models.Category `json:"category"`
	Commits  []string        `json:"commits"`
}

// AddEntry records a post in the category named by the path
// POST /api/{category}
func (h *EntryHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	category := models.Category(r.PathValue("category"))
	if !category.IsValid() {
		httputil.RespondError(w, http.StatusNotFound, "unknown category")
		return
	}
	h.add(w, r, category)
}

// AddTo returns a handler bound to one category
// POST /wishlist, POST /liked
func (h *EntryHandler) AddTo(category models.Category) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.add(w, r, category)
	}
}

func (h *EntryHandler) add(w http.ResponseWriter, r *http.Request, category models.Category) {
	var body AddEntryRequest
	if err := httputil.ParseJSON(w, r, &body, config.MaxRequestBodyBytes); err != nil {
		if errors.Is(err, httputil.ErrBodyTooLarge) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		handleError(w, r, h.logger, &domain.ValidationError{Field: "body", Message: err.Error()})
		return
	}

	ctx := r.Context()
	if h.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.requestTimeout)
		defer cancel()
	}

	committer, err := h.committers.Committer(ctx)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	result, err := committer.Commit(ctx, &models.AddEntryRequest{
		Category: category,
		URL:      body.URL,
		Note:     body.Note,
	})
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, AddEntryResponse{
		Status:   "success",
		Message:  successMessage(category),
		PostID:   result.PostID,
		Category: result.Category,
		Commits:  result.Paths,
	})
}

func successMessage(category models.Category) string {
	switch category {
	case models.CategoryLiked:
		return "Post added to liked posts"
	default:
		return "Post added to wishlist"
	}
}

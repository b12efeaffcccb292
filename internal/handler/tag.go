package handler

import (
	"log/slog"
	"net/http"

	"inkwell/internal/httputil"
	"inkwell/internal/service/store"
)

// TagHandler handles tag projection HTTP requests
type TagHandler struct {
	tagService *store.TagService
	logger     *slog.Logger
}

// NewTagHandler creates a new tag handler
func NewTagHandler(tagService *store.TagService, logger *slog.Logger) *TagHandler {
	return &TagHandler{
		tagService: tagService,
		logger:     logger,
	}
}

// ListTags returns the sorted unique tags across the principal's
// visible notes
// GET /tags
func (h *TagHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	tags, err := h.tagService.Projection(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"tags": tags})
}

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"inkwell/internal/httputil"
	"inkwell/internal/service/store"
)

// BoxConfigHandler handles per-context view preference requests
type BoxConfigHandler struct {
	boxService *store.BoxConfigService
	logger     *slog.Logger
}

// NewBoxConfigHandler creates a new box config handler
func NewBoxConfigHandler(boxService *store.BoxConfigService, logger *slog.Logger) *BoxConfigHandler {
	return &BoxConfigHandler{
		boxService: boxService,
		logger:     logger,
	}
}

// GetBoxConfig returns the stored config, empty when never saved
// GET /boxes/{contextID}
func (h *BoxConfigHandler) GetBoxConfig(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	contextID := r.PathValue("contextID")
	config, err := h.boxService.Get(r.Context(), userID, contextID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, config)
}

// PutBoxConfig upserts the opaque config payload
// PUT /boxes/{contextID}
func (h *BoxConfigHandler) PutBoxConfig(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	contextID := r.PathValue("contextID")

	var payload json.RawMessage
	if err := httputil.ParseJSON(w, r, &payload); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	config, err := h.boxService.Put(r.Context(), userID, contextID, payload)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, config)
}

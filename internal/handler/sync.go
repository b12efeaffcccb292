package handler

import (
	"log/slog"
	"net/http"

	"inkwell/internal/domain/models"
	"inkwell/internal/httputil"
	"inkwell/internal/service/store"
)

// SyncHandler handles bulk reconcile requests
type SyncHandler struct {
	syncService *store.SyncService
	logger      *slog.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(syncService *store.SyncService, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
		logger:      logger,
	}
}

// Reconcile applies a full client snapshot of the principal's owned
// pages
// POST /sync
func (h *SyncHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var snapshot models.Snapshot
	if err := httputil.ParseJSON(w, r, &snapshot); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.syncService.Reconcile(r.Context(), userID, snapshot)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

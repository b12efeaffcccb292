package handler

import (
	"log/slog"
	"net/http"

	"inkwell/internal/httputil"
	"inkwell/internal/service/store"
)

// ShareHandler handles page sharing HTTP requests
type ShareHandler struct {
	shareService *store.ShareService
	logger       *slog.Logger
}

// NewShareHandler creates a new share handler
func NewShareHandler(shareService *store.ShareService, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
		logger:       logger,
	}
}

// ListShares lists the grants on a page
// GET /shares?page_id=
func (h *ShareHandler) ListShares(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	pageID := r.URL.Query().Get("page_id")
	if pageID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "page_id is required")
		return
	}

	shares, err := h.shareService.List(r.Context(), userID, pageID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"shares": shares})
}

// GrantShare invites a user to a page by email
// POST /shares
func (h *ShareHandler) GrantShare(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req store.GrantShareRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	share, err := h.shareService.Grant(r.Context(), userID, req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, map[string]interface{}{"share": share})
}

// RespondToShare accepts or declines the principal's own pending grant
// PATCH /shares/{pageID}
func (h *ShareHandler) RespondToShare(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	pageID := r.PathValue("pageID")
	if pageID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Page ID is required")
		return
	}

	var body struct {
		Accept *bool `json:"accept"`
	}
	if err := httputil.ParseJSON(w, r, &body); err != nil || body.Accept == nil {
		httputil.RespondError(w, http.StatusBadRequest, "accept is required")
		return
	}

	if err := h.shareService.Respond(r.Context(), userID, pageID, *body.Accept); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// RevokeShare removes a grant from a page
// DELETE /shares/{pageID}?user_id=
func (h *ShareHandler) RevokeShare(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	pageID := r.PathValue("pageID")
	targetUserID := r.URL.Query().Get("user_id")
	if pageID == "" || targetUserID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "page ID and user_id are required")
		return
	}

	if err := h.shareService.Revoke(r.Context(), userID, pageID, targetUserID); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

package handler

import (
	"log/slog"
	"net/http"

	"inkwell/internal/domain/models"
	"inkwell/internal/httputil"
	"inkwell/internal/service/trash"
)

// TrashHandler handles trash HTTP requests. The trash surface is
// session-only and always operates on the session principal; a userId
// in the request is accepted for client parity but must match.
type TrashHandler struct {
	trashService *trash.Service
	logger       *slog.Logger
}

// NewTrashHandler creates a new trash handler
func NewTrashHandler(trashService *trash.Service, logger *slog.Logger) *TrashHandler {
	return &TrashHandler{
		trashService: trashService,
		logger:       logger,
	}
}

// sessionPrincipal enforces the session-only rule and the userId match
func sessionPrincipal(w http.ResponseWriter, r *http.Request, claimedUserID string) (string, bool) {
	principal, ok := httputil.GetPrincipal(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	if principal.Scheme != models.AuthSchemeSession {
		httputil.RespondError(w, http.StatusForbidden, "session authentication required")
		return "", false
	}
	if claimedUserID != "" && claimedUserID != principal.UserID {
		httputil.RespondError(w, http.StatusForbidden, "userId does not match the session principal")
		return "", false
	}
	return principal.UserID, true
}

// ListTrash lists the principal's orphan-deleted rows
// GET /trash?userId=
func (h *TrashHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionPrincipal(w, r, r.URL.Query().Get("userId"))
	if !ok {
		return
	}

	contents, err := h.trashService.List(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, contents)
}

type restoreBody struct {
	UserID string `json:"userId"`
	Type   string `json:"type"`
	ID     string `json:"id"`
}

// Restore restores a tombstoned row with its cascade
// POST /trash
func (h *TrashHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var body restoreBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, ok := sessionPrincipal(w, r, body.UserID)
	if !ok {
		return
	}
	if body.ID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "id is required")
		return
	}

	var err error
	switch body.Type {
	case "page":
		err = h.trashService.RestorePage(r.Context(), userID, body.ID)
	case "section":
		err = h.trashService.RestoreSection(r.Context(), userID, body.ID)
	case "note":
		err = h.trashService.RestoreNote(r.Context(), userID, body.ID)
	default:
		httputil.RespondError(w, http.StatusBadRequest, "type must be page, section or note")
		return
	}
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

type emptyTrashBody struct {
	UserID string `json:"userId"`
	Type   string `json:"type,omitempty"`
	ID     string `json:"id,omitempty"`
}

// Empty permanently deletes trash contents. With type and id set it
// purges a single subtree, otherwise the whole trash.
// DELETE /trash
func (h *TrashHandler) Empty(w http.ResponseWriter, r *http.Request) {
	var body emptyTrashBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, ok := sessionPrincipal(w, r, body.UserID)
	if !ok {
		return
	}

	var err error
	switch body.Type {
	case "":
		err = h.trashService.Empty(r.Context(), userID)
	case "page":
		err = h.trashService.PurgePage(r.Context(), userID, body.ID)
	case "section":
		err = h.trashService.PurgeSection(r.Context(), userID, body.ID)
	case "note":
		err = h.trashService.PurgeNote(r.Context(), userID, body.ID)
	default:
		httputil.RespondError(w, http.StatusBadRequest, "type must be page, section or note")
		return
	}
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

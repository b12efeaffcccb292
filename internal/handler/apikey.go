package handler

import (
	"log/slog"
	"net/http"

	"inkwell/internal/auth"
	"inkwell/internal/domain/models"
	"inkwell/internal/httputil"
)

// APIKeyHandler handles API key lifecycle requests. Every operation
// requires session authentication; keys cannot mint or revoke keys.
type APIKeyHandler struct {
	keyService *auth.APIKeyService
	logger     *slog.Logger
}

// NewAPIKeyHandler creates a new API key handler
func NewAPIKeyHandler(keyService *auth.APIKeyService, logger *slog.Logger) *APIKeyHandler {
	return &APIKeyHandler{
		keyService: keyService,
		logger:     logger,
	}
}

func requireSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	principal, ok := httputil.GetPrincipal(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	if principal.Scheme != models.AuthSchemeSession {
		httputil.RespondError(w, http.StatusForbidden, "session authentication required")
		return "", false
	}
	return principal.UserID, true
}

// IssueKey generates a new API key; the plaintext appears only in this
// response
// POST /keys
func (h *APIKeyHandler) IssueKey(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireSession(w, r)
	if !ok {
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	issued, err := h.keyService.Issue(r.Context(), userID, body.Name)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, issued)
}

// ListKeys lists the principal's keys without hashes or plaintext
// GET /keys
func (h *APIKeyHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireSession(w, r)
	if !ok {
		return
	}

	keys, err := h.keyService.List(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"keys": keys})
}

// RevokeKey permanently disables one of the principal's keys
// DELETE /keys/{id}
func (h *APIKeyHandler) RevokeKey(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireSession(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Key ID is required")
		return
	}

	if err := h.keyService.Revoke(r.Context(), userID, id); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

package handler

import (
	"log/slog"
	"net/http"

	"inkwell/internal/httputil"
	"inkwell/internal/service/intake"
)

// IntakeHandler exposes the natural-language intake pipeline as a
// two-step handshake: submit, then confirm by pending id.
type IntakeHandler struct {
	coordinator *intake.Coordinator
	logger      *slog.Logger
}

// NewIntakeHandler creates a new intake handler
func NewIntakeHandler(coordinator *intake.Coordinator, logger *slog.Logger) *IntakeHandler {
	return &IntakeHandler{
		coordinator: coordinator,
		logger:      logger,
	}
}

// Submit runs an utterance through parse and, when nothing needs
// confirming, all the way to the note write
// POST /intake
func (h *IntakeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req intake.SubmitRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	outcome, err := h.coordinator.Submit(r.Context(), userID, req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, outcome)
}

// confirmBody answers either a page/section confirmation (accept) or a
// plan group (decision).
type confirmBody struct {
	PendingID string `json:"pending_id"`
	Accept    *bool  `json:"accept,omitempty"`
	Decision  string `json:"decision,omitempty"`
}

// Confirm resumes a parked intake
// POST /intake/confirm
func (h *IntakeHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var body confirmBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.PendingID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "pending_id is required")
		return
	}

	var (
		outcome *intake.Outcome
		err     error
	)
	switch {
	case body.Decision != "":
		outcome, err = h.coordinator.Advance(r.Context(), userID, intake.AdvanceRequest{
			PendingID: body.PendingID,
			Decision:  body.Decision,
		})
	case body.Accept != nil:
		outcome, err = h.coordinator.Confirm(r.Context(), userID, intake.ConfirmRequest{
			PendingID: body.PendingID,
			Accept:    *body.Accept,
		})
	default:
		httputil.RespondError(w, http.StatusBadRequest, "either accept or decision is required")
		return
	}
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, outcome)
}

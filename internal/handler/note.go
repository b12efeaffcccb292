package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"inkwell/internal/httputil"
	"inkwell/internal/service/store"
)

// NoteHandler handles note HTTP requests
type NoteHandler struct {
	noteService *store.NoteService
	logger      *slog.Logger
}

// NewNoteHandler creates a new note handler
func NewNoteHandler(noteService *store.NoteService, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{
		noteService: noteService,
		logger:      logger,
	}
}

// ListNotes lists visible notes with filters
// GET /notes?page_id&section_id&completed&tags=a,b&date_from&date_to&search&limit
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	req, err := parseListNotesQuery(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	notes, total, err := h.noteService.List(r.Context(), userID, req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"notes": notes,
		"total": total,
	})
}

func parseListNotesQuery(r *http.Request) (store.ListNotesRequest, error) {
	query := r.URL.Query()
	req := store.ListNotesRequest{
		SectionID: query.Get("section_id"),
		PageID:    query.Get("page_id"),
		Search:    query.Get("search"),
	}

	if raw := query.Get("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			return req, errBadQueryParam("completed")
		}
		req.Completed = &completed
	}
	if raw := query.Get("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				req.Tags = append(req.Tags, tag)
			}
		}
	}
	if raw := query.Get("date_from"); raw != "" {
		from, err := parseQueryTime(raw)
		if err != nil {
			return req, errBadQueryParam("date_from")
		}
		req.DateFrom = &from
	}
	if raw := query.Get("date_to"); raw != "" {
		to, err := parseQueryTime(raw)
		if err != nil {
			return req, errBadQueryParam("date_to")
		}
		req.DateTo = &to
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return req, errBadQueryParam("limit")
		}
		req.Limit = limit
	}
	return req, nil
}

func parseQueryTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

type badQueryParamError string

func errBadQueryParam(name string) error { return badQueryParamError(name) }

func (e badQueryParamError) Error() string {
	return "invalid query parameter: " + string(e)
}

// CreateNote creates a note in a section
// POST /notes
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req store.CreateNoteRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	note, err := h.noteService.Create(r.Context(), userID, req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, map[string]interface{}{"note": note})
}

// updateNoteBody is the PATCH wire shape. Date uses tri-state presence
// so a client can clear it with an explicit null.
type updateNoteBody struct {
	Content   *string               `json:"content"`
	Tags      *[]string             `json:"tags"`
	Date      httputil.OptionalTime `json:"date"`
	Completed *bool                 `json:"completed"`
}

// UpdateNote patches content, tags, date or the completion flag
// PATCH /notes/{id}
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Note ID is required")
		return
	}

	var body updateNoteBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req := store.UpdateNoteRequest{
		Content:   body.Content,
		Tags:      body.Tags,
		Completed: body.Completed,
	}
	if body.Date.Present {
		req.DateSet = true
		req.Date = body.Date.Value
	}

	note, err := h.noteService.Update(r.Context(), userID, id, req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"note": note})
}

// DeleteNote soft-deletes a note
// DELETE /notes/{id}
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Note ID is required")
		return
	}

	if err := h.noteService.Delete(r.Context(), userID, id); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

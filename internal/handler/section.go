package handler

import (
	"log/slog"
	"net/http"

	"inkwell/internal/domain/models"
	"inkwell/internal/httputil"
	"inkwell/internal/service/store"
)

// SectionHandler handles section HTTP requests
type SectionHandler struct {
	sectionService *store.SectionService
	pageService    *store.PageService
	logger         *slog.Logger
}

// NewSectionHandler creates a new section handler
func NewSectionHandler(sectionService *store.SectionService, pageService *store.PageService, logger *slog.Logger) *SectionHandler {
	return &SectionHandler{
		sectionService: sectionService,
		pageService:    pageService,
		logger:         logger,
	}
}

// ListSections lists sections of a page, or of every visible page when
// page_id is omitted
// GET /sections?page_id=
func (h *SectionHandler) ListSections(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	pageID := r.URL.Query().Get("page_id")
	if pageID != "" {
		sections, err := h.sectionService.List(r.Context(), userID, pageID)
		if err != nil {
			handleError(w, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"sections": sections})
		return
	}

	pages, err := h.pageService.List(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}
	sections := make([]models.Section, 0)
	for _, page := range pages {
		pageSections, err := h.sectionService.List(r.Context(), userID, page.ID)
		if err != nil {
			handleError(w, err)
			return
		}
		sections = append(sections, pageSections...)
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"sections": sections})
}

// CreateSection creates a new section in a page
// POST /sections
func (h *SectionHandler) CreateSection(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req store.CreateSectionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	section, err := h.sectionService.Create(r.Context(), userID, req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, map[string]interface{}{"section": section})
}

// UpdateSection renames or reorders a section
// PATCH /sections/{id}
func (h *SectionHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Section ID is required")
		return
	}

	var req store.UpdateSectionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	section, err := h.sectionService.Update(r.Context(), userID, id, req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"section": section})
}

// DeleteSection soft-deletes a section
// DELETE /sections/{id}
func (h *SectionHandler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Section ID is required")
		return
	}

	if err := h.sectionService.Delete(r.Context(), userID, id); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

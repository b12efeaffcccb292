package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkwell/internal/domain"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "validation", err: fmt.Errorf("%w: name required", domain.ErrValidation), wantStatus: http.StatusBadRequest},
		{name: "not found", err: fmt.Errorf("page p1: %w", domain.ErrNotFound), wantStatus: http.StatusNotFound},
		{name: "unauthorized", err: domain.ErrUnauthorized, wantStatus: http.StatusUnauthorized},
		{name: "forbidden", err: fmt.Errorf("role team: %w", domain.ErrForbidden), wantStatus: http.StatusForbidden},
		{name: "wrapped conflict sentinel", err: fmt.Errorf("page p1: %w", domain.ErrConflict), wantStatus: http.StatusConflict},
		{name: "conflict struct", err: &domain.ConflictError{Message: "page exists", ResourceType: "page", ResourceID: "p1"}, wantStatus: http.StatusConflict},
		{name: "busy", err: fmt.Errorf("intake already in flight: %w", domain.ErrBusy), wantStatus: http.StatusConflict},
		{name: "upstream timeout", err: domain.ErrUpstreamTimeout, wantStatus: http.StatusGatewayTimeout},
		{name: "upstream failure", err: domain.ErrUpstreamFailure, wantStatus: http.StatusBadGateway},
		{name: "unknown", err: errors.New("pool exhausted"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handleError(w, tt.err)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

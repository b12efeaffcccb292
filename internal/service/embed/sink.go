package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

const requestTimeout = 10 * time.Second

// Sink forwards note content to an external embedding service after
// content-changing writes. It is fire-and-forget: the response is
// ignored and failures are only logged. An empty URL disables it.
type Sink struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSink creates a new embedding sink
func NewSink(url string, logger *slog.Logger) *Sink {
	return &Sink{
		url:        url,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
}

// Enabled reports whether a target URL is configured
func (s *Sink) Enabled() bool {
	return s.url != ""
}

// NoteWritten hands the note off in a goroutine and returns immediately
func (s *Sink) NoteWritten(noteID, content string) {
	if !s.Enabled() {
		return
	}
	go s.send(noteID, content)
}

func (s *Sink) send(noteID, content string) {
	body, err := json.Marshal(struct {
		NoteID  string `json:"note_id"`
		Content string `json:"content"`
	}{NoteID: noteID, Content: content})
	if err != nil {
		s.logger.Debug("embedding payload marshal failed", "note_id", noteID, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		s.logger.Debug("embedding request build failed", "note_id", noteID, "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Debug("embedding hand-off failed", "note_id", noteID, "error", err)
		return
	}
	resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		s.logger.Debug("embedding service rejected note", "note_id", noteID, "status", resp.StatusCode)
	}
}

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-turns/internal/session"
	"github.com/jwebster45206/story-turns/pkg/scene"
	"github.com/jwebster45206/story-turns/pkg/storage"
)

// CreateSessionRequest defines the request body for starting a session.
type CreateSessionRequest struct {
	Story string `json:"story"`          // Required: story filename
	Knot  string `json:"knot,omitempty"` // Optional: override the start knot
}

// ChooseRequest defines the request body for picking a choice.
type ChooseRequest struct {
	Index *int `json:"index"`
}

// SessionResponse is a turn plus its presentation frame.
type SessionResponse struct {
	session.Turn
	scene.Frame
}

type TranscriptResponse struct {
	SessionID uuid.UUID            `json:"session_id"`
	Turns     []storage.TurnRecord `json:"turns"`
}

type SessionHandler struct {
	sessions *session.Manager
	logger   *slog.Logger
}

func NewSessionHandler(sessions *session.Manager, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// ServeHTTP handles HTTP requests for play sessions
// Routes:
// POST /v1/sessions                 - Start a session
// GET /v1/sessions/{id}             - Current view
// POST /v1/sessions/{id}/continue   - Advance one turn
// POST /v1/sessions/{id}/choose     - Pick a choice
// POST /v1/sessions/{id}/restart    - Start over
// GET /v1/sessions/{id}/transcript  - Recorded turns
// DELETE /v1/sessions/{id}          - End the session
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleCreate(w, r)
		return
	}

	idStr, action, _ := strings.Cut(path, "/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", idStr, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.handleGet(w, id)
	case action == "" && r.Method == http.MethodDelete:
		h.handleDelete(w, r, id)
	case action == "continue" && r.Method == http.MethodPost:
		h.handleContinue(w, r, id)
	case action == "choose" && r.Method == http.MethodPost:
		h.handleChoose(w, r, id)
	case action == "restart" && r.Method == http.MethodPost:
		h.handleRestart(w, r, id)
	case action == "transcript" && r.Method == http.MethodGet:
		h.handleTranscript(w, r, id)
	case action == "" || action == "continue" || action == "choose" || action == "restart" || action == "transcript":
		h.logger.Warn("Method not allowed for session endpoint", "method", r.Method, "action", action)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed")
	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown session action: "+action)
	}
}

// normalizeStoryFile lowercases the name, converts spaces and hyphens to
// underscores and adds .json when no story extension is present.
func normalizeStoryFile(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var out strings.Builder
	prevUnderscore := false
	for i, r := range strings.ToLower(s) {
		switch {
		case r == '.':
			out.WriteRune('.')
			prevUnderscore = false
		case r == ' ' || r == '-' || r == '_':
			if !prevUnderscore && i > 0 {
				out.WriteRune('_')
				prevUnderscore = true
			}
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			out.WriteRune(r)
			prevUnderscore = false
		}
	}

	name := out.String()
	switch filepath.Ext(name) {
	case ".json", ".yaml", ".yml":
		return name
	}
	return name + ".json"
}

func (h *SessionHandler) respond(w http.ResponseWriter, status int, turn session.Turn) {
	if turn.Finished {
		storiesEndedTotal.Inc()
	}
	writeJSON(w, h.logger, status, SessionResponse{Turn: turn, Frame: scene.Compose(turn.View)})
}

func (h *SessionHandler) fail(w http.ResponseWriter, action string, err error) {
	turnErrorsTotal.WithLabelValues(action, strconv.Itoa(statusFor(err))).Inc()
	writeDomainError(w, h.logger, err)
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	req.Story = normalizeStoryFile(req.Story)
	if req.Story == "" {
		h.logger.Warn("Missing required field: story")
		writeError(w, h.logger, http.StatusBadRequest, "story field is required")
		return
	}

	turn, err := h.sessions.Create(r.Context(), req.Story, strings.TrimSpace(req.Knot))
	if err != nil {
		h.fail(w, storage.ActionStart, err)
		return
	}

	sessionsCreatedTotal.Inc()
	turnsTotal.WithLabelValues(storage.ActionStart).Inc()
	h.respond(w, http.StatusCreated, turn)
}

func (h *SessionHandler) handleGet(w http.ResponseWriter, id uuid.UUID) {
	turn, err := h.sessions.Get(id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	h.respond(w, http.StatusOK, turn)
}

func (h *SessionHandler) handleContinue(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	turn, err := h.sessions.Continue(r.Context(), id)
	if err != nil {
		h.fail(w, storage.ActionContinue, err)
		return
	}
	turnsTotal.WithLabelValues(storage.ActionContinue).Inc()
	h.respond(w, http.StatusOK, turn)
}

func (h *SessionHandler) handleChoose(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req ChooseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.Index == nil {
		writeError(w, h.logger, http.StatusBadRequest, "index field is required")
		return
	}

	turn, err := h.sessions.Choose(r.Context(), id, *req.Index)
	if err != nil {
		h.fail(w, storage.ActionChoose, err)
		return
	}
	turnsTotal.WithLabelValues(storage.ActionChoose).Inc()
	h.respond(w, http.StatusOK, turn)
}

func (h *SessionHandler) handleRestart(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	turn, err := h.sessions.Restart(r.Context(), id)
	if err != nil {
		h.fail(w, storage.ActionRestart, err)
		return
	}
	turnsTotal.WithLabelValues(storage.ActionRestart).Inc()
	h.respond(w, http.StatusOK, turn)
}

func (h *SessionHandler) handleTranscript(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	turns, err := h.sessions.Transcript(r.Context(), id)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, TranscriptResponse{SessionID: id, Turns: turns})
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.sessions.Delete(r.Context(), id); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

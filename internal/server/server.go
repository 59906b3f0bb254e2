// Package server exposes the catalog browser over HTTP: catalog and search
// reads, per-session navigation and playback state, study progress and
// bookmarks, and the websocket-streamed assistant.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/polyhub/studyhub/internal/assistant"
	"github.com/polyhub/studyhub/internal/catalog"
	"github.com/polyhub/studyhub/internal/study"
)

// Server hosts the API. Sessions are created per client and hold that
// client's navigation machine, study tracker, player and assistant.
type Server struct {
	cat      *catalog.Catalog
	store    study.Store
	syncer   *study.Syncer       // nil disables cross-session sync
	provider assistant.Provider  // nil disables the assistant endpoints
	log      *slog.Logger

	sessions *sessionRegistry
}

// New assembles a server. syncer and provider may be nil.
func New(cat *catalog.Catalog, store study.Store, syncer *study.Syncer, provider assistant.Provider, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		cat:      cat,
		store:    store,
		syncer:   syncer,
		provider: provider,
		log:      log,
		sessions: newSessionRegistry(),
	}
}

// Routes builds the HTTP router.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/catalog/departments/{deptID}", s.handleDepartment)
	mux.HandleFunc("GET /api/catalog/departments/{deptID}/semesters/{sem}", s.handleSemester)
	mux.HandleFunc("GET /api/search", s.handleSearch)

	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("DELETE /api/sessions/{sessionID}", s.handleCloseSession)
	mux.HandleFunc("GET /api/sessions/{sessionID}/state", s.handleState)
	mux.HandleFunc("POST /api/sessions/{sessionID}/navigate", s.handleNavigate)
	mux.HandleFunc("POST /api/sessions/{sessionID}/back", s.handleBack)
	mux.HandleFunc("POST /api/sessions/{sessionID}/restore", s.handleRestore)

	mux.HandleFunc("GET /api/sessions/{sessionID}/progress", s.handleGetProgress)
	mux.HandleFunc("PUT /api/sessions/{sessionID}/progress/{subjectID}", s.handleSetProgress)
	mux.HandleFunc("POST /api/sessions/{sessionID}/progress/import", s.handleImportProgress)
	mux.HandleFunc("GET /api/sessions/{sessionID}/bookmarks", s.handleGetBookmarks)
	mux.HandleFunc("POST /api/sessions/{sessionID}/bookmarks/toggle", s.handleToggleBookmark)
	mux.HandleFunc("GET /api/sessions/{sessionID}/export.xlsx", s.handleExport)

	mux.HandleFunc("POST /api/sessions/{sessionID}/player", s.handleOpenPlayer)
	mux.HandleFunc("GET /api/sessions/{sessionID}/player", s.handlePlayerState)
	mux.HandleFunc("POST /api/sessions/{sessionID}/player/command", s.handlePlayerCommand)
	mux.HandleFunc("DELETE /api/sessions/{sessionID}/player", s.handleClosePlayer)

	mux.HandleFunc("GET /api/sessions/{sessionID}/assistant/ws", s.handleAssistantWS)
	mux.HandleFunc("POST /api/sessions/{sessionID}/quiz", s.handleStartQuiz)
	mux.HandleFunc("GET /api/sessions/{sessionID}/quiz", s.handleQuizState)
	mux.HandleFunc("POST /api/sessions/{sessionID}/quiz/answer", s.handleQuizAnswer)
	mux.HandleFunc("POST /api/sessions/{sessionID}/quiz/next", s.handleQuizNext)

	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

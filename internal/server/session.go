package server

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"sync"

	"github.com/polyhub/studyhub/internal/assistant"
	"github.com/polyhub/studyhub/internal/catalog"
	"github.com/polyhub/studyhub/internal/nav"
	"github.com/polyhub/studyhub/internal/player"
	"github.com/polyhub/studyhub/internal/search"
	"github.com/polyhub/studyhub/internal/study"
)

// session is one client's live state: its position in the catalog, its
// study tracker, and the optional player and quiz run.
type session struct {
	id     string
	userID string

	mu        sync.Mutex
	machine   *nav.Machine
	tracker   *study.Tracker
	player    *player.Controller
	assistant *assistant.Session
	quiz      *assistant.QuizRun
	cancel    context.CancelFunc
}

type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*session)}
}

func (r *sessionRegistry) add(sess *session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.id] = sess
}

func (r *sessionRegistry) get(id string) (*session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

func (r *sessionRegistry) remove(id string) (*session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	delete(r.sessions, id)
	return sess, ok
}

func generateID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, ok := s.sessions.get(r.PathValue("sessionID"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

type createSessionRequest struct {
	UserID string `json:"user_id"`
}

type createSessionResponse struct {
	SessionID string       `json:"session_id"`
	State     stateSummary `json:"state"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	id := generateID()
	tracker, err := study.NewTracker(s.store, req.UserID, id)
	if err != nil {
		s.log.Error("loading study state", "user_id", req.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "loading study state")
		return
	}

	sess := &session{
		id:      id,
		userID:  req.UserID,
		machine: nav.NewMachine(s.cat),
		tracker: tracker,
	}
	if s.syncer != nil {
		ctx, cancel := context.WithCancel(context.Background())
		sess.cancel = cancel
		s.syncer.Attach(ctx, tracker)
	}
	s.sessions.add(sess)

	s.log.Info("session created", "session_id", id, "user_id", req.UserID)
	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: id,
		State:     summarize(sess),
	})
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.remove(r.PathValue("sessionID"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	sess.mu.Lock()
	if sess.player != nil {
		sess.player.Close()
		sess.player = nil
	}
	if sess.cancel != nil {
		sess.cancel()
	}
	sess.mu.Unlock()

	s.log.Info("session closed", "session_id", sess.id)
	w.WriteHeader(http.StatusNoContent)
}

// stateSummary is the session state sent to clients.
type stateSummary struct {
	Selection selectionView  `json:"selection"`
	History   []nav.Snapshot `json:"history"`
}

type selectionView struct {
	DeptID     string `json:"dept_id,omitempty"`
	Semester   string `json:"semester,omitempty"`
	SubjectID  string `json:"subject_id,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
	Tab        string `json:"tab,omitempty"`
	Bookmarks  bool   `json:"bookmarks,omitempty"`
	Overlay    string `json:"overlay,omitempty"`
	OverlayID  string `json:"overlay_id,omitempty"`
}

// summarize reads the session's navigation state. Callers must not hold
// sess.mu.
func summarize(sess *session) stateSummary {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sel := sess.machine.Selection()
	return stateSummary{
		Selection: selectionView{
			DeptID:     sel.DeptID,
			Semester:   string(sel.Semester),
			SubjectID:  sel.SubjectID,
			CategoryID: sel.CategoryID,
			Tab:        string(sel.Tab),
			Bookmarks:  sel.Bookmarks,
			Overlay:    string(sel.Overlay.Kind),
			OverlayID:  sel.Overlay.ID,
		},
		History: sess.machine.History(),
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, summarize(sess))
}

type navigateRequest struct {
	Action   string `json:"action"`
	ID       string `json:"id,omitempty"`
	Semester string `json:"semester,omitempty"`
	Tab      string `json:"tab,omitempty"`
	Name     string `json:"name,omitempty"`
	Kind     string `json:"kind,omitempty"` // search result kind for open_result
}

type effectView struct {
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

type navigateResponse struct {
	State   stateSummary `json:"state"`
	Effects []effectView `json:"effects,omitempty"`
}

func parseAction(req navigateRequest) (nav.Action, error) {
	switch req.Action {
	case "select_department":
		return nav.SelectDepartment{ID: req.ID}, nil
	case "select_semester":
		sem, ok := catalog.ParseSemester(req.Semester)
		if !ok {
			return nil, fmt.Errorf("unknown semester %q", req.Semester)
		}
		return nav.SelectSemester{Semester: sem}, nil
	case "select_subject":
		return nav.SelectSubject{ID: req.ID}, nil
	case "select_category":
		return nav.SelectCategory{ID: req.ID}, nil
	case "set_tab":
		return nav.SetTab{Tab: nav.Tab(req.Tab)}, nil
	case "home":
		return nav.GoHome{}, nil
	case "bookmarks":
		return nav.GoBookmarks{}, nil
	case "open_video":
		return nav.OpenVideo{ID: req.ID}, nil
	case "open_resource":
		return nav.OpenResource{ID: req.ID}, nil
	case "open_modal":
		return nav.OpenModal{Name: req.Name}, nil
	case "close_overlay":
		return nav.CloseOverlay{}, nil
	case "deep_link_subject":
		return nav.DeepLinkSubject{ID: req.ID}, nil
	case "deep_link_video":
		return nav.DeepLinkVideo{ID: req.ID}, nil
	case "open_result":
		act := search.Resolve(search.Result{Kind: search.Kind(req.Kind), ID: req.ID})
		if act == nil {
			return nil, fmt.Errorf("unknown result kind %q", req.Kind)
		}
		return act, nil
	}
	return nil, fmt.Errorf("unknown action %q", req.Action)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req navigateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	action, err := parseAction(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess.mu.Lock()
	effects := sess.machine.Apply(action)
	sess.mu.Unlock()

	resp := navigateResponse{State: summarize(sess)}
	for _, e := range effects {
		switch eff := e.(type) {
		case nav.OpenExternal:
			resp.Effects = append(resp.Effects, effectView{Type: "open_external", URL: eff.URL})
		case nav.ScrollTop:
			resp.Effects = append(resp.Effects, effectView{Type: "scroll_top"})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	sess.machine.Back()
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, navigateResponse{State: summarize(sess)})
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var snap nav.Snapshot
	if !decodeJSON(w, r, &snap) {
		return
	}

	sess.mu.Lock()
	sess.machine.RestoreSnapshot(snap)
	sess.mu.Unlock()

	writeJSON(w, http.StatusOK, navigateResponse{State: summarize(sess)})
}

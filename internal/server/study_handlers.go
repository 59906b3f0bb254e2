package server

import (
	"bytes"
	"net/http"

	"github.com/polyhub/studyhub/internal/study"
)

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"progress": sess.tracker.Progress()})
}

type setProgressRequest struct {
	Percent int `json:"percent"`
}

func (s *Server) handleSetProgress(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	subjectID := r.PathValue("subjectID")
	if _, _, found := s.cat.SubjectByID(subjectID); !found {
		writeError(w, http.StatusNotFound, "subject not found")
		return
	}
	var req setProgressRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := sess.tracker.SetSubjectProgress(subjectID, req.Percent); err != nil {
		s.log.Error("saving progress", "session_id", sess.id, "error", err)
		writeError(w, http.StatusInternalServerError, "saving progress")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"subject_id": subjectID,
		"percent":    sess.tracker.SubjectProgress(subjectID),
	})
}

type importProgressRequest struct {
	Progress study.Progress `json:"progress"`
}

func (s *Server) handleImportProgress(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req importProgressRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := sess.tracker.ImportProgress(req.Progress); err != nil {
		s.log.Error("importing progress", "session_id", sess.id, "error", err)
		writeError(w, http.StatusInternalServerError, "importing progress")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"progress": sess.tracker.Progress()})
}

func (s *Server) handleGetBookmarks(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookmarks": sess.tracker.Bookmarks()})
}

func (s *Server) handleToggleBookmark(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var b study.Bookmark
	if !decodeJSON(w, r, &b) {
		return
	}
	if b.ID == "" {
		writeError(w, http.StatusBadRequest, "bookmark id is required")
		return
	}
	if b.Type != study.BookmarkSubject && b.Type != study.BookmarkVideo {
		writeError(w, http.StatusBadRequest, "bookmark type must be subject or video")
		return
	}
	bookmarked, err := sess.tracker.ToggleBookmark(b)
	if err != nil {
		s.log.Error("saving bookmarks", "session_id", sess.id, "error", err)
		writeError(w, http.StatusInternalServerError, "saving bookmarks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": b.ID, "bookmarked": bookmarked})
}

// handleExport streams the progress+bookmarks workbook. The sheet is built
// in memory first so an export failure surfaces as a JSON error, not a
// truncated download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := study.WriteWorkbook(s.cat, sess.tracker, &buf); err != nil {
		s.log.Error("exporting workbook", "session_id", sess.id, "error", err)
		writeError(w, http.StatusInternalServerError, "exporting workbook")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="study-progress.xlsx"`)
	_, _ = buf.WriteTo(w)
}

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/polyhub/studyhub/internal/assistant"
)

// assistantSession returns the session's tutoring conversation, creating it
// from the current catalog position on first use. The conversation persists
// across websocket reconnects.
func (s *Server) assistantSession(sess *session) *assistant.Session {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.assistant != nil {
		return sess.assistant
	}

	sel := sess.machine.Selection()
	study := assistant.StudyContext{Semester: string(sel.Semester)}
	if dept, ok := s.cat.DepartmentByID(sel.DeptID); ok {
		study.Department = dept.Name
	}
	if sub, _, ok := s.cat.SubjectByID(sel.SubjectID); ok {
		study.Subject = sub.Title
	}
	sess.assistant = assistant.NewSession(s.provider, study)
	return sess.assistant
}

type wsInbound struct {
	Text         string `json:"text"`
	DeepThinking bool   `json:"deep_thinking"`
}

type wsOutbound struct {
	Type    string `json:"type"` // delta, done, error
	Content string `json:"content,omitempty"`
}

// handleAssistantWS streams the tutoring chat over a websocket. Each inbound
// message is one user turn; the reply arrives as delta frames followed by a
// done frame with the full text. A provider failure produces an error frame
// and the connection stays open for a retry.
func (s *Server) handleAssistantWS(w http.ResponseWriter, r *http.Request) {
	if s.provider == nil {
		writeError(w, http.StatusServiceUnavailable, "assistant is not configured")
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	as := s.assistantSession(sess)

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn("websocket accept failed", "session_id", sess.id, "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	ctx := r.Context()
	for {
		var in wsInbound
		if err := wsjson.Read(ctx, conn, &in); err != nil {
			conn.Close(websocket.StatusNormalClosure, "")
			return
		}
		as.SetDeepThinking(in.DeepThinking)

		full, err := as.Send(ctx, in.Text, func(delta string) {
			_ = wsjson.Write(ctx, conn, wsOutbound{Type: "delta", Content: delta})
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			_ = wsjson.Write(ctx, conn, wsOutbound{Type: "error", Content: err.Error()})
			continue
		}
		if err := wsjson.Write(ctx, conn, wsOutbound{Type: "done", Content: full}); err != nil {
			return
		}
	}
}

// quizGenerateTimeout bounds one quiz completion round trip.
const quizGenerateTimeout = 60 * time.Second

type startQuizRequest struct {
	SubjectID string `json:"subject_id"`
}

func (s *Server) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	if s.provider == nil {
		writeError(w, http.StatusServiceUnavailable, "assistant is not configured")
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req startQuizRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sub, _, found := s.cat.SubjectByID(req.SubjectID)
	if !found {
		writeError(w, http.StatusNotFound, "subject not found")
		return
	}

	as := s.assistantSession(sess)
	ctx, cancel := context.WithTimeout(r.Context(), quizGenerateTimeout)
	defer cancel()
	quiz, err := as.GenerateQuiz(ctx, sub.Title)
	if err != nil {
		s.log.Error("generating quiz", "session_id", sess.id, "subject_id", req.SubjectID, "error", err)
		writeError(w, http.StatusBadGateway, "could not generate a quiz, try again")
		return
	}

	run := assistant.NewQuizRun(quiz)
	sess.mu.Lock()
	sess.quiz = run
	view := viewQuiz(run)
	sess.mu.Unlock()

	writeJSON(w, http.StatusCreated, view)
}

type quizView struct {
	Title    string   `json:"title"`
	Phase    string   `json:"phase"`
	Index    int      `json:"index"`
	Total    int      `json:"total"`
	Score    int      `json:"score"`
	Question string   `json:"question,omitempty"`
	Options  []string `json:"options,omitempty"`
	Selected int      `json:"selected"`
	// Revealed only once the question is answered.
	CorrectAnswer *int   `json:"correct_answer,omitempty"`
	Explanation   string `json:"explanation,omitempty"`
}

func viewQuiz(run *assistant.QuizRun) quizView {
	v := quizView{
		Title:    run.Title(),
		Phase:    string(run.Phase()),
		Score:    run.Score(),
		Total:    run.Total(),
		Selected: run.Selected(),
	}
	q, idx := run.Current()
	v.Index = idx
	if run.Phase() == assistant.PhaseFinished {
		return v
	}
	v.Question = q.Question
	v.Options = q.Options
	if run.Phase() == assistant.PhaseAnswered {
		correct := q.CorrectAnswer
		v.CorrectAnswer = &correct
		v.Explanation = q.Explanation
	}
	return v
}

func (sess *session) currentQuiz() *assistant.QuizRun {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.quiz
}

func (s *Server) handleQuizState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	run := sess.quiz
	var view quizView
	if run != nil {
		view = viewQuiz(run)
	}
	sess.mu.Unlock()
	if run == nil {
		writeError(w, http.StatusNotFound, "no active quiz")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type quizAnswerRequest struct {
	Choice int `json:"choice"`
}

func (s *Server) handleQuizAnswer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	run := sess.currentQuiz()
	if run == nil {
		writeError(w, http.StatusNotFound, "no active quiz")
		return
	}
	var req quizAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess.mu.Lock()
	err := run.Answer(req.Choice)
	view := viewQuiz(run)
	sess.mu.Unlock()
	if err != nil {
		if errors.Is(err, assistant.ErrAlreadyAnswered) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleQuizNext(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	run := sess.currentQuiz()
	if run == nil {
		writeError(w, http.StatusNotFound, "no active quiz")
		return
	}

	sess.mu.Lock()
	err := run.Next()
	view := viewQuiz(run)
	sess.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}

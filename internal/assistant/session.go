package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// StudyContext scopes a session to the student's current catalog position.
type StudyContext struct {
	Department string
	Semester   string
	Subject    string
}

func (c StudyContext) String() string {
	if c.Subject != "" {
		return fmt.Sprintf("%s, %s, subject %q", c.Department, c.Semester, c.Subject)
	}
	return fmt.Sprintf("%s, %s", c.Department, c.Semester)
}

// Session is one tutoring conversation. A session holds the finalized
// message history; the in-flight assistant reply only joins the history
// once its stream completes, and is dropped entirely on a transport error
// so a failed request never leaves a corrupt partial message behind.
type Session struct {
	provider Provider
	study    StudyContext

	mu           sync.Mutex
	messages     []Message
	deepThinking bool
	streaming    bool
	lastErr      string
}

// NewSession opens a session and seeds it with a welcome message for the
// study context.
func NewSession(provider Provider, study StudyContext) *Session {
	s := &Session{provider: provider, study: study}
	s.messages = []Message{
		{Role: RoleAssistant, Content: welcomeMessage(study)},
	}
	return s
}

func welcomeMessage(c StudyContext) string {
	where := c.Department
	if c.Semester != "" {
		where = fmt.Sprintf("%s (%s)", c.Department, c.Semester)
	}
	if c.Subject != "" {
		return fmt.Sprintf("Hi! I'm your study assistant for %s. Ask me anything about %s, or generate a practice quiz when you're ready.", where, c.Subject)
	}
	return fmt.Sprintf("Hi! I'm your study assistant for %s. Ask me anything about your subjects, or pick one to go deeper.", where)
}

func systemPrompt(c StudyContext) string {
	var b strings.Builder
	b.WriteString("You are a patient tutor for polytechnic students. ")
	fmt.Fprintf(&b, "The student is studying %s. ", c)
	b.WriteString("Explain step by step, use short paragraphs, and stay on topic.")
	return b.String()
}

// SetDeepThinking switches replies to the slower, more capable model.
func (s *Session) SetDeepThinking(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deepThinking = on
}

// DeepThinking reports the current mode.
func (s *Session) DeepThinking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deepThinking
}

// Messages returns a copy of the finalized history, welcome message first.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Err returns the dismissible inline error from the last failed send, if
// any.
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// DismissError clears the inline error.
func (s *Session) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""
}

// Send streams one assistant reply for the given user text. onDelta, if
// non-nil, receives each chunk as it arrives. Send returns the full reply
// once the stream finishes; on error or cancellation the pending reply is
// dropped, the inline error is set, and the user may retry by resending.
// One send at a time: a concurrent send is rejected.
func (s *Session) Send(ctx context.Context, text string, onDelta func(string)) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty message")
	}

	s.mu.Lock()
	if s.streaming {
		s.mu.Unlock()
		return "", fmt.Errorf("a reply is already streaming")
	}
	s.streaming = true
	s.lastErr = ""
	s.messages = append(s.messages, Message{Role: RoleUser, Content: text})
	req := CompletionRequest{
		Messages: append([]Message{{Role: RoleSystem, Content: systemPrompt(s.study)}}, s.messages...),
	}
	if s.deepThinking {
		req.Model = GeminiPro
	}
	s.mu.Unlock()

	reply, err := s.consume(ctx, req, onDelta)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaming = false
	if err != nil {
		s.lastErr = err.Error()
		return "", err
	}
	s.messages = append(s.messages, Message{Role: RoleAssistant, Content: reply})
	return reply, nil
}

func (s *Session) consume(ctx context.Context, req CompletionRequest, onDelta func(string)) (string, error) {
	stream, err := s.provider.StreamComplete(ctx, req)
	if err != nil {
		return "", err
	}

	var reply strings.Builder
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case chunk, ok := <-stream:
			if !ok {
				// Stream closed without a terminal chunk; accept what we have.
				return reply.String(), nil
			}
			if chunk.Error != nil {
				return "", chunk.Error
			}
			if chunk.Content != "" {
				reply.WriteString(chunk.Content)
				if onDelta != nil {
					onDelta(chunk.Content)
				}
			}
			if chunk.Done {
				return reply.String(), nil
			}
		}
	}
}

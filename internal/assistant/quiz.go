package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Quiz is a generated practice quiz.
type Quiz struct {
	Title     string         `json:"title"`
	Questions []QuizQuestion `json:"questions"`
}

// QuizQuestion is one multiple-choice question with exactly four options.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// quizSchemaJSON is the fixed wire schema the completion service must
// produce. Anything that fails validation is rejected wholesale.
const quizSchemaJSON = `{
	"type": "object",
	"required": ["title", "questions"],
	"properties": {
		"title": {"type": "string", "minLength": 1},
		"questions": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["question", "options", "correctAnswer"],
				"properties": {
					"question": {"type": "string", "minLength": 1},
					"options": {
						"type": "array",
						"minItems": 4,
						"maxItems": 4,
						"items": {"type": "string"}
					},
					"correctAnswer": {"type": "integer", "minimum": 0, "maximum": 3},
					"explanation": {"type": "string"}
				}
			}
		}
	}
}`

var quizSchema = gojsonschema.NewStringLoader(quizSchemaJSON)

// ParseQuiz validates raw JSON against the quiz schema and decodes it.
func ParseQuiz(raw string) (Quiz, error) {
	raw = stripCodeFence(raw)

	result, err := gojsonschema.Validate(quizSchema, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return Quiz{}, fmt.Errorf("validate quiz: %w", err)
	}
	if !result.Valid() {
		return Quiz{}, fmt.Errorf("quiz does not match schema: %s", result.Errors()[0])
	}

	var q Quiz
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return Quiz{}, fmt.Errorf("decode quiz: %w", err)
	}
	return q, nil
}

// stripCodeFence unwraps a ```json fenced block, which models sometimes
// emit despite being asked for raw JSON.
func stripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}

const quizQuestionCount = 5

// GenerateQuiz asks the completion service for a quiz on the given subject
// and validates the reply against the fixed schema.
func (s *Session) GenerateQuiz(ctx context.Context, subject string) (Quiz, error) {
	prompt := fmt.Sprintf(
		"Generate a %d-question multiple choice quiz about %q for a student of %s. "+
			"Respond with a single JSON object: {\"title\": string, \"questions\": "+
			"[{\"question\": string, \"options\": [4 strings], \"correctAnswer\": 0-3, \"explanation\": string}]}. "+
			"No prose outside the JSON.",
		quizQuestionCount, subject, s.study,
	)

	resp, err := s.provider.Complete(ctx, CompletionRequest{
		Messages:   []Message{{Role: RoleUser, Content: prompt}},
		Model:      GeminiPro,
		JSONOutput: true,
	})
	if err != nil {
		return Quiz{}, fmt.Errorf("generate quiz: %w", err)
	}
	return ParseQuiz(resp.Content)
}

// QuizPhase is the quiz runner's position in its question loop.
type QuizPhase string

const (
	PhaseQuestion QuizPhase = "question" // awaiting an answer
	PhaseAnswered QuizPhase = "answered" // answer locked, explanation visible
	PhaseFinished QuizPhase = "finished"
)

// NoAnswer is the selected-answer sentinel before the student picks.
const NoAnswer = -1

// ErrAlreadyAnswered rejects a second answer to the same question.
var ErrAlreadyAnswered = fmt.Errorf("question already answered")

// QuizRun steps through one quiz linearly: each question is answered
// exactly once, the answer locks in before advancing, and the score counts
// correct answers.
type QuizRun struct {
	quiz     Quiz
	index    int
	selected int
	phase    QuizPhase
	score    int
}

// NewQuizRun starts a run at the first question.
func NewQuizRun(q Quiz) *QuizRun {
	return &QuizRun{quiz: q, selected: NoAnswer, phase: PhaseQuestion}
}

// Phase returns the current phase.
func (r *QuizRun) Phase() QuizPhase { return r.phase }

// Title returns the quiz title.
func (r *QuizRun) Title() string { return r.quiz.Title }

// Total returns the number of questions in the quiz.
func (r *QuizRun) Total() int { return len(r.quiz.Questions) }

// Score returns the number of correctly answered questions so far.
func (r *QuizRun) Score() int { return r.score }

// Selected returns the locked-in answer index, or NoAnswer.
func (r *QuizRun) Selected() int { return r.selected }

// Current returns the active question and its zero-based index.
func (r *QuizRun) Current() (QuizQuestion, int) {
	if r.phase == PhaseFinished {
		return QuizQuestion{}, r.index
	}
	return r.quiz.Questions[r.index], r.index
}

// Answer locks in a choice for the current question. The first answer is
// final: re-answering returns ErrAlreadyAnswered and leaves the score
// untouched.
func (r *QuizRun) Answer(choice int) error {
	if r.phase == PhaseFinished {
		return fmt.Errorf("quiz already finished")
	}
	if r.phase == PhaseAnswered {
		return ErrAlreadyAnswered
	}
	if choice < 0 || choice >= len(r.quiz.Questions[r.index].Options) {
		return fmt.Errorf("choice %d out of range", choice)
	}

	r.selected = choice
	r.phase = PhaseAnswered
	if choice == r.quiz.Questions[r.index].CorrectAnswer {
		r.score++
	}
	return nil
}

// Next advances past an answered question, resetting the selection. After
// the last question the run is finished.
func (r *QuizRun) Next() error {
	if r.phase != PhaseAnswered {
		return fmt.Errorf("answer the current question first")
	}
	if r.index+1 >= len(r.quiz.Questions) {
		r.phase = PhaseFinished
		return nil
	}
	r.index++
	r.selected = NoAnswer
	r.phase = PhaseQuestion
	return nil
}

// Package llm implements the language model service the workflow steps call
// for classification, generation and grading. Every task has a typed request
// and result; model output is validated against the task schema at this
// boundary so malformed replies surface as ErrMalformedResponse instead of
// leaking half-parsed data into step logic.
package llm

import (
	"errors"

	"github.com/quizme/quizme-bot/internal/domain/entities"
)

// ErrMalformedResponse marks model output that could not be parsed into the
// task schema. Callers treat it like any other service failure.
var ErrMalformedResponse = errors.New("malformed model response")

// IntentRequest asks for the intent of the user's latest input.
type IntentRequest struct {
	Input           string
	Phase           entities.Phase
	QuestionPending bool
	RecentTurns     []entities.TurnEntry // truncated conversation context
}

// IntentResult is the classified intent with the model's confidence.
type IntentResult struct {
	Intent     entities.Intent `json:"intent"`
	Confidence float64         `json:"confidence"`
}

// TopicExtraction is the candidate topic pulled out of free-form input.
type TopicExtraction struct {
	Found bool   `json:"found"`
	Topic string `json:"topic"`
}

// TopicReview is the validation verdict for a candidate topic, covering
// appropriateness, specificity, feasibility and safety.
type TopicReview struct {
	IsValid            bool     `json:"is_valid"`
	Category           string   `json:"category"`
	Difficulty         string   `json:"difficulty"`
	EstimatedQuestions int      `json:"estimated_questions"`
	Reason             string   `json:"reason,omitempty"`
	Suggestions        []string `json:"suggestions,omitempty"`
}

// QuestionRequest asks for one new question on the validated topic.
type QuestionRequest struct {
	Topic      string
	Difficulty string
	Index      int
	Kind       entities.QuestionKind
	Previous   []string // already asked questions, for novelty
}

// GeneratedQuestion is a model-produced question with its answer key.
type GeneratedQuestion struct {
	Text        string   `json:"question"`
	Options     []string `json:"options,omitempty"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`
}

// GradeRequest asks for a semantic grading of an open-form answer.
type GradeRequest struct {
	Topic    string
	Question string
	Expected string
	Given    string
}

// GradeResult is the grading verdict, with partial credit support.
type GradeResult struct {
	IsCorrect     bool   `json:"is_correct"`
	PartialCredit bool   `json:"partial_credit"`
	ScorePercent  int    `json:"score_percentage"`
	Feedback      string `json:"feedback"`
	Explanation   string `json:"explanation,omitempty"`
}

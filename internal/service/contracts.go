package service

import (
	"context"

	"github.com/quizme/quizme-bot/internal/domain/entities"
	"github.com/quizme/quizme-bot/internal/llm"
)

// Step is one unit of turn processing. A step mutates the session through
// its named operations and returns nil or a typed *Failure; on failure no
// session field other than the error bookkeeping may change.
type Step interface {
	Name() string
	// CallsModel reports whether the step talks to the language model
	// service, which makes it subject to the orchestrator's retry policy.
	CallsModel() bool
	Run(ctx context.Context, s *entities.Session) error
}

// IntentModel is the model surface the intent classifier needs.
type IntentModel interface {
	ClassifyIntent(ctx context.Context, req llm.IntentRequest) (llm.IntentResult, error)
}

// TopicModel is the model surface the topic validator needs.
type TopicModel interface {
	ExtractTopic(ctx context.Context, input string) (llm.TopicExtraction, error)
	ValidateTopic(ctx context.Context, topic string) (llm.TopicReview, error)
}

// QuestionModel is the model surface the question generator needs.
type QuestionModel interface {
	GenerateQuestion(ctx context.Context, req llm.QuestionRequest) (llm.GeneratedQuestion, error)
}

// GradeModel is the model surface the answer grader needs.
type GradeModel interface {
	GradeAnswer(ctx context.Context, req llm.GradeRequest) (llm.GradeResult, error)
}

package service

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/quizme/quizme-bot/internal/domain/entities"
)

// Metadata keys seeded by the topic validator and consumed by the question
// generator and score tracker.
const (
	MetaCategory           = "category"
	MetaDifficulty         = "difficulty"
	MetaEstimatedQuestions = "estimated_questions"
)

// TopicValidator extracts a candidate topic from the raw input and validates
// it with two sequential model calls. On success it seeds the quiz metadata
// and caps the question count for finite quizzes.
type TopicValidator struct {
	model        TopicModel
	maxQuestions int // configured default for finite quizzes
	logger       *zap.Logger
}

// NewTopicValidator creates the validator with the configured default
// question count.
func NewTopicValidator(model TopicModel, maxQuestions int, logger *zap.Logger) *TopicValidator {
	if maxQuestions <= 0 {
		maxQuestions = 10
	}
	return &TopicValidator{model: model, maxQuestions: maxQuestions, logger: logger}
}

func (v *TopicValidator) Name() string     { return "topic_validator" }
func (v *TopicValidator) CallsModel() bool { return true }

// Run validates the topic named in s.RawInput. TopicValidated is set only
// after a positive review; rejection is a validation failure carrying the
// reviewer's reason and suggested alternatives.
func (v *TopicValidator) Run(ctx context.Context, s *entities.Session) error {
	extraction, err := v.model.ExtractTopic(ctx, s.RawInput)
	if err != nil {
		return ServiceFailure("topic extraction failed", err)
	}
	if !extraction.Found {
		return ValidationFailure(
			"I couldn't find a quiz topic in that. Try naming a subject, like \"Python programming\" or \"World War II\".",
		)
	}

	review, err := v.model.ValidateTopic(ctx, extraction.Topic)
	if err != nil {
		return ServiceFailure("topic validation failed", err)
	}

	if !review.IsValid {
		reason := review.Reason
		if reason == "" {
			reason = "that topic doesn't work for a quiz"
		}
		return ValidationFailure(reason, review.Suggestions...)
	}

	s.Phase = entities.PhaseTopicValidation
	s.Topic = extraction.Topic
	s.TopicValidated = true
	s.Metadata[MetaCategory] = review.Category
	s.Metadata[MetaDifficulty] = review.Difficulty
	s.Metadata[MetaEstimatedQuestions] = strconv.Itoa(review.EstimatedQuestions)

	s.QuizMode = requestedMode(s.RawInput)
	if s.QuizMode == entities.ModeFinite {
		s.MaxQuestions = v.maxQuestions
		if review.EstimatedQuestions > 0 && review.EstimatedQuestions < s.MaxQuestions {
			s.MaxQuestions = review.EstimatedQuestions
		}
	} else {
		s.MaxQuestions = 0
	}

	v.logger.Info("topic validated",
		zap.String("session_id", s.SessionID),
		zap.String("topic", s.Topic),
		zap.String("difficulty", review.Difficulty),
		zap.Int("max_questions", s.MaxQuestions),
	)

	return nil
}

// requestedMode infers the quiz mode from the user's phrasing; finite is the
// default.
func requestedMode(input string) entities.QuizMode {
	lower := strings.ToLower(input)
	for _, marker := range []string{"infinite", "endless", "unlimited", "open-ended quiz"} {
		if strings.Contains(lower, marker) {
			return entities.ModeInfinite
		}
	}
	return entities.ModeFinite
}

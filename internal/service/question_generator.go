package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/quizme/quizme-bot/internal/domain/entities"
	"github.com/quizme/quizme-bot/internal/llm"
)

// QuestionGenerator produces the next question for the validated topic. The
// question kind rotates deterministically by position for variety; novelty
// is encouraged by passing previously asked questions to the model.
type QuestionGenerator struct {
	model  QuestionModel
	logger *zap.Logger
}

// NewQuestionGenerator creates the generator.
func NewQuestionGenerator(model QuestionModel, logger *zap.Logger) *QuestionGenerator {
	return &QuestionGenerator{model: model, logger: logger}
}

func (g *QuestionGenerator) Name() string     { return "question_generator" }
func (g *QuestionGenerator) CallsModel() bool { return true }

// Run installs the next pending question. A question already pending is left
// untouched so it can be re-presented to the user.
func (g *QuestionGenerator) Run(ctx context.Context, s *entities.Session) error {
	if s.Phase == entities.PhaseQuizActive && s.CurrentQuestion != "" {
		// Re-emit the pending question; nothing to generate.
		return nil
	}

	// State stays untouched until the model call succeeds, so a retried
	// run never advances the index twice.
	index := s.QuestionIndex
	if s.Phase == entities.PhaseQuestionAnswered {
		index++
	}

	kind := KindForIndex(index)
	generated, err := g.model.GenerateQuestion(ctx, llm.QuestionRequest{
		Topic:      s.Topic,
		Difficulty: s.Metadata[MetaDifficulty],
		Index:      index,
		Kind:       kind,
		Previous:   g.askedQuestions(s),
	})
	if err != nil {
		return ServiceFailure("question generation failed", err)
	}
	if strings.TrimSpace(generated.Text) == "" || strings.TrimSpace(generated.Answer) == "" {
		return ServiceFailure("question generation failed", llm.ErrMalformedResponse)
	}
	if kind.Choice() && len(generated.Options) < 2 {
		return ServiceFailure("question generation failed", llm.ErrMalformedResponse)
	}

	if s.Phase == entities.PhaseQuestionAnswered {
		s.AdvanceQuestion()
	}
	s.SetQuestion(entities.Question{
		Index:       index,
		Kind:        kind,
		Text:        generated.Text,
		Options:     generated.Options,
		Answer:      generated.Answer,
		Explanation: generated.Explanation,
	})
	s.Phase = entities.PhaseQuizActive
	s.Active = true

	g.logger.Info("question generated",
		zap.String("session_id", s.SessionID),
		zap.Int("index", index),
		zap.String("kind", string(kind)),
	)

	return nil
}

func (g *QuestionGenerator) askedQuestions(s *entities.Session) []string {
	asked := make([]string, 0, len(s.AnswerHistory))
	for _, rec := range s.AnswerHistory {
		asked = append(asked, rec.Question)
	}
	return asked
}

// KindForIndex rotates question formats by position: the quiz opens with a
// choice question, every fourth question is true/false, every third is
// open-ended, and odd positions in between are fill-in-the-blank.
func KindForIndex(index int) entities.QuestionKind {
	switch {
	case index == 0:
		return entities.KindMultipleChoice
	case (index+1)%4 == 0:
		return entities.KindTrueFalse
	case (index+1)%3 == 0:
		return entities.KindOpenEnded
	case index%2 == 1:
		return entities.KindFillInBlank
	default:
		return entities.KindMultipleChoice
	}
}

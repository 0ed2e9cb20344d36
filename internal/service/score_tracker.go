package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/quizme/quizme-bot/internal/domain/entities"
)

// basePoints is the score for a correct answer before the difficulty
// multiplier and kind bonus are applied.
const basePoints = 10

// ScoreTracker applies the scoring policy after a graded answer and decides
// finite-quiz completion. Infinite quizzes complete only through explicit
// intents or the router's defensive cap, never here.
type ScoreTracker struct {
	logger *zap.Logger
}

// NewScoreTracker creates the tracker.
func NewScoreTracker(logger *zap.Logger) *ScoreTracker {
	return &ScoreTracker{logger: logger}
}

func (t *ScoreTracker) Name() string     { return "score_tracker" }
func (t *ScoreTracker) CallsModel() bool { return false }

// Run updates the running totals for the just-graded answer.
func (t *ScoreTracker) Run(_ context.Context, s *entities.Session) error {
	if s.AnswerCorrect == nil {
		return InputFailure("no graded answer to score")
	}

	s.TotalAnswered++
	if *s.AnswerCorrect {
		s.CorrectCount++
		s.TotalScore += PointsFor(s.QuestionKind, s.Metadata[MetaDifficulty])
	}

	if s.QuizMode == entities.ModeFinite && s.MaxQuestions > 0 {
		s.CompletionRatio = float64(s.TotalAnswered) / float64(s.MaxQuestions) * 100
		if s.CompletionRatio > 100 {
			s.CompletionRatio = 100
		}
		if s.TotalAnswered >= s.MaxQuestions {
			s.Completed = true
			s.Active = false
			s.Phase = entities.PhaseQuizComplete
		}
	}

	t.logger.Info("score updated",
		zap.String("session_id", s.SessionID),
		zap.Int("total_score", s.TotalScore),
		zap.Int("total_answered", s.TotalAnswered),
		zap.Bool("completed", s.Completed),
	)

	return nil
}

// PointsFor computes base points times the difficulty multiplier plus the
// question kind bonus.
func PointsFor(kind entities.QuestionKind, difficulty string) int {
	return int(basePoints*DifficultyMultiplier(difficulty)) + KindBonus(kind)
}

// DifficultyMultiplier scales points by the topic difficulty seeded during
// validation.
func DifficultyMultiplier(difficulty string) float64 {
	switch difficulty {
	case "easy":
		return 1.0
	case "hard":
		return 2.0
	default: // medium and anything unrecognized
		return 1.5
	}
}

// KindBonus rewards question formats that take more effort to answer.
func KindBonus(kind entities.QuestionKind) int {
	switch kind {
	case entities.KindOpenEnded:
		return 5
	case entities.KindFillInBlank:
		return 3
	default:
		return 0
	}
}

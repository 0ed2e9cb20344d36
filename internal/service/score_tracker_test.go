package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quizme/quizme-bot/internal/domain/entities"
)

func scoringSession(t *testing.T, kind entities.QuestionKind, difficulty string, correct bool) *entities.Session {
	t.Helper()

	s := entities.NewSession(0)
	s.Phase = entities.PhaseQuestionAnswered
	s.Topic = "python"
	s.TopicValidated = true
	s.Active = true
	s.QuizMode = entities.ModeFinite
	s.MaxQuestions = 3
	s.QuestionKind = kind
	s.Metadata[MetaDifficulty] = difficulty
	s.RecordAnswer(entities.AnswerRecord{Kind: kind, IsCorrect: correct})
	return s
}

func TestScoreTracker_CorrectAnswerScores(t *testing.T) {
	tr := NewScoreTracker(zap.NewNop())

	s := scoringSession(t, entities.KindOpenEnded, "hard", true)
	require.NoError(t, tr.Run(context.Background(), s))

	// 10 base x 2.0 hard + 5 open-ended bonus.
	assert.Equal(t, 25, s.TotalScore)
	assert.Equal(t, 1, s.TotalAnswered)
	assert.Equal(t, 1, s.CorrectCount)
	assert.InDelta(t, 33.3, s.CompletionRatio, 0.1)
	assert.False(t, s.Completed)
	assert.Empty(t, s.Validate())
}

func TestScoreTracker_WrongAnswerCountsWithoutPoints(t *testing.T) {
	tr := NewScoreTracker(zap.NewNop())

	s := scoringSession(t, entities.KindMultipleChoice, "easy", false)
	require.NoError(t, tr.Run(context.Background(), s))

	assert.Zero(t, s.TotalScore)
	assert.Equal(t, 1, s.TotalAnswered)
	assert.Zero(t, s.CorrectCount)
}

func TestScoreTracker_FiniteCompletion(t *testing.T) {
	tr := NewScoreTracker(zap.NewNop())

	s := scoringSession(t, entities.KindMultipleChoice, "easy", true)
	s.MaxQuestions = 1

	require.NoError(t, tr.Run(context.Background(), s))

	assert.True(t, s.Completed)
	assert.False(t, s.Active)
	assert.Equal(t, entities.PhaseQuizComplete, s.Phase)
	assert.Equal(t, float64(100), s.CompletionRatio)
	assert.Empty(t, s.Validate())
}

func TestScoreTracker_InfiniteModeNeverCompletes(t *testing.T) {
	tr := NewScoreTracker(zap.NewNop())

	s := scoringSession(t, entities.KindMultipleChoice, "medium", true)
	s.QuizMode = entities.ModeInfinite
	s.MaxQuestions = 0

	require.NoError(t, tr.Run(context.Background(), s))

	assert.False(t, s.Completed)
	assert.True(t, s.Active)
	assert.Zero(t, s.CompletionRatio)
}

func TestScoreTracker_RequiresGradedAnswer(t *testing.T) {
	tr := NewScoreTracker(zap.NewNop())

	s := entities.NewSession(0)
	err := tr.Run(context.Background(), s)
	require.Error(t, err)
	assert.Equal(t, ErrorKindInput, KindOf(err))
	assert.Zero(t, s.TotalAnswered)
}

func TestPointsFor_DifficultyAndKind(t *testing.T) {
	assert.Equal(t, 10, PointsFor(entities.KindMultipleChoice, "easy"))
	assert.Equal(t, 15, PointsFor(entities.KindMultipleChoice, "medium"))
	assert.Equal(t, 20, PointsFor(entities.KindTrueFalse, "hard"))
	assert.Equal(t, 18, PointsFor(entities.KindFillInBlank, "medium"))
	assert.Equal(t, 20, PointsFor(entities.KindOpenEnded, "medium"))
	// Unknown difficulty falls back to medium.
	assert.Equal(t, 15, PointsFor(entities.KindMultipleChoice, ""))
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quizme/quizme-bot/internal/domain/entities"
	"github.com/quizme/quizme-bot/internal/llm"
)

type fakeQuestionModel struct {
	result llm.GeneratedQuestion
	err    error
	calls  int
	last   llm.QuestionRequest
}

func (m *fakeQuestionModel) GenerateQuestion(_ context.Context, req llm.QuestionRequest) (llm.GeneratedQuestion, error) {
	m.calls++
	m.last = req
	return m.result, m.err
}

func validatedSession(t *testing.T) *entities.Session {
	t.Helper()

	s := entities.NewSession(0)
	s.Phase = entities.PhaseTopicValidation
	s.Topic = "python"
	s.TopicValidated = true
	s.MaxQuestions = 10
	s.Metadata[MetaDifficulty] = "medium"
	return s
}

func TestQuestionGenerator_InstallsFirstQuestion(t *testing.T) {
	model := &fakeQuestionModel{result: llm.GeneratedQuestion{
		Text:    "Which keyword defines a function?",
		Options: []string{"func", "def", "fn", "lambda"},
		Answer:  "b",
	}}
	g := NewQuestionGenerator(model, zap.NewNop())

	s := validatedSession(t)
	require.NoError(t, g.Run(context.Background(), s))

	assert.Equal(t, entities.PhaseQuizActive, s.Phase)
	assert.True(t, s.Active)
	assert.Equal(t, 0, s.QuestionIndex)
	assert.Equal(t, entities.KindMultipleChoice, s.QuestionKind)
	assert.Equal(t, "Which keyword defines a function?", s.CurrentQuestion)
	assert.Equal(t, "b", s.ExpectedAnswer)
	assert.Equal(t, "medium", model.last.Difficulty)
	assert.Empty(t, s.Validate())
}

func TestQuestionGenerator_ReemitsPendingQuestion(t *testing.T) {
	model := &fakeQuestionModel{}
	g := NewQuestionGenerator(model, zap.NewNop())

	s := validatedSession(t)
	s.Phase = entities.PhaseQuizActive
	s.Active = true
	s.SetQuestion(entities.Question{Kind: entities.KindMultipleChoice, Text: "pending?", Answer: "a"})

	require.NoError(t, g.Run(context.Background(), s))
	assert.Zero(t, model.calls)
	assert.Equal(t, "pending?", s.CurrentQuestion)
}

func TestQuestionGenerator_AdvancesAfterAnsweredQuestion(t *testing.T) {
	model := &fakeQuestionModel{result: llm.GeneratedQuestion{
		Text:   "The ___ statement exits a loop.",
		Answer: "break",
	}}
	g := NewQuestionGenerator(model, zap.NewNop())

	s := validatedSession(t)
	s.Phase = entities.PhaseQuestionAnswered
	s.Active = true
	s.RecordAnswer(entities.AnswerRecord{QuestionIndex: 0, Question: "old question", Kind: entities.KindMultipleChoice, IsCorrect: true})
	s.TotalAnswered = 1
	s.CorrectCount = 1

	require.NoError(t, g.Run(context.Background(), s))
	assert.Equal(t, 1, s.QuestionIndex)
	assert.Equal(t, entities.KindFillInBlank, s.QuestionKind)
	assert.Equal(t, []string{"old question"}, model.last.Previous)
	assert.Nil(t, s.AnswerCorrect, "scratch from the previous answer is cleared")
}

func TestQuestionGenerator_FailureDoesNotAdvanceIndex(t *testing.T) {
	model := &fakeQuestionModel{err: errors.New("timeout")}
	g := NewQuestionGenerator(model, zap.NewNop())

	s := validatedSession(t)
	s.Phase = entities.PhaseQuestionAnswered
	s.Active = true
	s.RecordAnswer(entities.AnswerRecord{QuestionIndex: 0, Kind: entities.KindMultipleChoice, IsCorrect: true})
	s.TotalAnswered = 1
	s.CorrectCount = 1

	err := g.Run(context.Background(), s)
	require.Error(t, err)
	assert.Equal(t, ErrorKindService, KindOf(err))
	assert.Equal(t, 0, s.QuestionIndex)
	assert.Equal(t, entities.PhaseQuestionAnswered, s.Phase)
}

func TestQuestionGenerator_RejectsIncompleteResult(t *testing.T) {
	model := &fakeQuestionModel{result: llm.GeneratedQuestion{Text: "question without answer"}}
	g := NewQuestionGenerator(model, zap.NewNop())

	s := validatedSession(t)
	err := g.Run(context.Background(), s)
	require.Error(t, err)
	assert.Equal(t, ErrorKindService, KindOf(err))
	assert.Empty(t, s.CurrentQuestion)
}

func TestQuestionGenerator_RejectsChoiceQuestionWithoutOptions(t *testing.T) {
	model := &fakeQuestionModel{result: llm.GeneratedQuestion{
		Text:   "Which keyword defines a function?",
		Answer: "func",
	}}
	g := NewQuestionGenerator(model, zap.NewNop())

	s := validatedSession(t)
	err := g.Run(context.Background(), s)
	require.Error(t, err)
	assert.Equal(t, ErrorKindService, KindOf(err))
	assert.Empty(t, s.CurrentQuestion)
}

func TestKindForIndex_Rotation(t *testing.T) {
	want := []entities.QuestionKind{
		entities.KindMultipleChoice, // 0: opening question
		entities.KindFillInBlank,    // 1
		entities.KindOpenEnded,      // 2: (2+1)%3 == 0
		entities.KindTrueFalse,      // 3: (3+1)%4 == 0
		entities.KindMultipleChoice, // 4
		entities.KindOpenEnded,      // 5: (5+1)%3 == 0
		entities.KindMultipleChoice, // 6
		entities.KindTrueFalse,      // 7: (7+1)%4 == 0
	}

	for i, kind := range want {
		assert.Equal(t, kind, KindForIndex(i), "index %d", i)
	}
}

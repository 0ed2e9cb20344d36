package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quizme/quizme-bot/internal/domain/entities"
	"github.com/quizme/quizme-bot/internal/llm"
	"github.com/quizme/quizme-bot/internal/service"
)

// fakeModel scripts every model surface the steps need.
type fakeModel struct {
	intent    llm.IntentResult
	intentErr error

	extraction    llm.TopicExtraction
	extractionErr error
	review        llm.TopicReview
	reviewErr     error

	question    llm.GeneratedQuestion
	questionErr error

	grade    llm.GradeResult
	gradeErr error

	questionCalls int
	gradeCalls    int
}

func (m *fakeModel) ClassifyIntent(_ context.Context, _ llm.IntentRequest) (llm.IntentResult, error) {
	return m.intent, m.intentErr
}

func (m *fakeModel) ExtractTopic(_ context.Context, _ string) (llm.TopicExtraction, error) {
	return m.extraction, m.extractionErr
}

func (m *fakeModel) ValidateTopic(_ context.Context, _ string) (llm.TopicReview, error) {
	return m.review, m.reviewErr
}

func (m *fakeModel) GenerateQuestion(_ context.Context, req llm.QuestionRequest) (llm.GeneratedQuestion, error) {
	m.questionCalls++
	if m.questionErr != nil {
		return llm.GeneratedQuestion{}, m.questionErr
	}
	q := m.question
	if q.Text == "" {
		q = llm.GeneratedQuestion{
			Text:    "generated question",
			Options: []string{"red", "green", "blue", "yellow"},
			Answer:  "a",
		}
	}
	return q, nil
}

func (m *fakeModel) GradeAnswer(_ context.Context, _ llm.GradeRequest) (llm.GradeResult, error) {
	m.gradeCalls++
	return m.grade, m.gradeErr
}

// happyModel scripts a two-question quiz on an easy topic.
func happyModel() *fakeModel {
	return &fakeModel{
		intent:     llm.IntentResult{Intent: entities.IntentStartQuiz, Confidence: 0.9},
		extraction: llm.TopicExtraction{Found: true, Topic: "python"},
		review: llm.TopicReview{
			IsValid:            true,
			Category:           "technology",
			Difficulty:         "easy",
			EstimatedQuestions: 5,
		},
		grade: llm.GradeResult{IsCorrect: true, ScorePercent: 100, Feedback: "Right."},
	}
}

func newTestOrchestrator(t *testing.T, m *fakeModel) (*Orchestrator, *entities.Session) {
	t.Helper()

	logger := zap.NewNop()
	s := entities.NewSession(0)
	steps := Steps{
		IntentClassifier:  service.NewIntentClassifier(m, service.DefaultKeywords(), logger),
		TopicValidator:    service.NewTopicValidator(m, 2, logger),
		QuestionGenerator: service.NewQuestionGenerator(m, logger),
		AnswerGrader:      service.NewAnswerGrader(m, logger),
		ScoreTracker:      service.NewScoreTracker(logger),
	}
	o := NewOrchestrator(s, Router{InfiniteQuestionCap: 100}, steps, RetryPolicy{MaxAttempts: 1}, nil, logger)
	return o, s
}

func TestSubmitTurn_FullQuizFlow(t *testing.T) {
	m := happyModel()
	o, s := newTestOrchestrator(t, m)
	ctx := context.Background()

	// Turn 1: topic request ends with the first question pending.
	res, err := o.SubmitTurn(ctx, "quiz me about python")
	require.NoError(t, err)
	require.NotNil(t, res.Question)
	assert.Equal(t, 0, res.Question.Index)
	assert.Equal(t, entities.KindMultipleChoice, res.Question.Kind)
	assert.Equal(t, entities.PhaseQuizActive, res.Phase)
	assert.False(t, res.Terminal)
	assert.Equal(t, 2, s.MaxQuestions, "estimated count must not raise the configured bound")

	// Turn 2: correct multiple-choice answer, graded locally.
	m.intent = llm.IntentResult{Intent: entities.IntentAnswerQuestion, Confidence: 0.9}
	res, err = o.SubmitTurn(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, res.Feedback)
	assert.True(t, res.Feedback.Correct)
	assert.Equal(t, 1, res.Feedback.TotalAnswered)
	assert.Zero(t, m.gradeCalls, "choice grading must not call the model")
	require.NotNil(t, res.Question, "next question follows in the same turn")
	assert.Equal(t, 1, res.Question.Index)

	// Turn 3: second answer completes the quiz.
	res, err = o.SubmitTurn(ctx, "a list comprehension")
	require.NoError(t, err)
	require.NotNil(t, res.Summary)
	assert.Equal(t, entities.PhaseQuizComplete, res.Phase)
	assert.False(t, res.Terminal, "completion is re-enterable, not terminal")
	assert.Equal(t, 2, res.Summary.TotalAnswered)
	assert.Equal(t, 2, res.Summary.CorrectCount)
	// 10 points for the easy multiple choice, 13 for the fill-in-blank.
	assert.Equal(t, 23, s.TotalScore)
	assert.Empty(t, s.Validate())

	// Turn 4: exit keyword ends the session.
	res, err = o.SubmitTurn(ctx, "exit")
	require.NoError(t, err)
	assert.True(t, res.Terminal)

	_, err = o.SubmitTurn(ctx, "hello?")
	assert.ErrorIs(t, err, ErrSessionEnded)
}

func TestSubmitTurn_EmptyInputClarifiesWithoutRetryIncrement(t *testing.T) {
	o, s := newTestOrchestrator(t, happyModel())

	res, err := o.SubmitTurn(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, ClarifyTopicNeeded, res.Clarification)
	assert.False(t, res.Terminal)
	assert.Zero(t, s.RetryCount)
}

func TestSubmitTurn_TopicRejectionCarriesSuggestions(t *testing.T) {
	m := happyModel()
	m.review = llm.TopicReview{
		IsValid:     false,
		Reason:      "that topic is too broad",
		Suggestions: []string{"Python basics", "Python decorators"},
	}
	o, s := newTestOrchestrator(t, m)

	res, err := o.SubmitTurn(context.Background(), "quiz me about everything")
	require.NoError(t, err)
	assert.False(t, res.Terminal)
	assert.Equal(t, ClarifyErrorRecovery, res.Clarification)
	assert.Equal(t, "that topic is too broad", res.LastError)
	assert.Equal(t, []string{"Python basics", "Python decorators"}, res.Suggestions)
	assert.Equal(t, 1, s.RetryCount)
	assert.False(t, s.TopicValidated)
	assert.Equal(t, entities.PhaseTopicSelection, s.Phase, "a rejected topic leaves the phase untouched")
}

func TestSubmitTurn_ConsecutiveFailuresEndSession(t *testing.T) {
	m := happyModel()
	m.reviewErr = errors.New("model unavailable")
	o, s := newTestOrchestrator(t, m)
	ctx := context.Background()

	for turn := 1; turn <= 2; turn++ {
		res, err := o.SubmitTurn(ctx, "quiz me about python")
		require.NoError(t, err)
		assert.False(t, res.Terminal, "turn %d", turn)
		assert.Equal(t, turn, s.RetryCount)
	}

	res, err := o.SubmitTurn(ctx, "quiz me about python")
	require.NoError(t, err)
	assert.True(t, res.Terminal, "third consecutive failure ends the session")
}

func TestSubmitTurn_ClassifierFailureFallsBackToClarification(t *testing.T) {
	m := happyModel()
	m.intentErr = errors.New("model unavailable")
	o, s := newTestOrchestrator(t, m)

	res, err := o.SubmitTurn(context.Background(), "quiz me about python")
	require.NoError(t, err)
	assert.False(t, res.Terminal)
	assert.NotEmpty(t, res.Clarification)
	assert.Equal(t, entities.IntentClarification, s.Intent)
}

func TestSubmitTurn_AmbiguousInputGradedAsAnswer(t *testing.T) {
	m := happyModel()
	o, s := newTestOrchestrator(t, m)
	ctx := context.Background()

	_, err := o.SubmitTurn(ctx, "quiz me about python")
	require.NoError(t, err)

	// The classifier is unsure, but a question is pending.
	m.intent = llm.IntentResult{Intent: entities.IntentClarification, Confidence: 0.3}
	res, err := o.SubmitTurn(ctx, "b")
	require.NoError(t, err)
	require.NotNil(t, res.Feedback)
	assert.False(t, res.Feedback.Correct)
	assert.Equal(t, 1, s.TotalAnswered)
}

func TestSubmitTurn_ExitSkipsGrading(t *testing.T) {
	m := happyModel()
	o, _ := newTestOrchestrator(t, m)
	ctx := context.Background()

	_, err := o.SubmitTurn(ctx, "quiz me about python")
	require.NoError(t, err)

	res, err := o.SubmitTurn(ctx, "exit")
	require.NoError(t, err)
	assert.True(t, res.Terminal)
	assert.Zero(t, m.gradeCalls)
}

func TestSubmitTurn_NewQuizResetsScore(t *testing.T) {
	m := happyModel()
	o, s := newTestOrchestrator(t, m)
	ctx := context.Background()

	_, err := o.SubmitTurn(ctx, "quiz me about python")
	require.NoError(t, err)

	m.intent = llm.IntentResult{Intent: entities.IntentAnswerQuestion, Confidence: 0.9}
	_, err = o.SubmitTurn(ctx, "a")
	require.NoError(t, err)
	require.NotZero(t, s.TotalScore)

	res, err := o.SubmitTurn(ctx, "new quiz")
	require.NoError(t, err)
	require.NotNil(t, res.Question)
	assert.Equal(t, 0, res.Question.Index)
	assert.Zero(t, s.TotalScore)
	assert.Zero(t, s.TotalAnswered)
	assert.False(t, res.Terminal)
}

// A generation failure right after scoring leaves the answered phase with
// the totals already settled. The advertised recovery ("continue") must
// produce the next question, not score the same answer a second time.
func TestSubmitTurn_ContinueAfterGenerationFailureDoesNotRescore(t *testing.T) {
	m := happyModel()
	o, s := newTestOrchestrator(t, m)
	ctx := context.Background()

	_, err := o.SubmitTurn(ctx, "quiz me about python")
	require.NoError(t, err)

	// The answer is graded and scored, then the next generation fails.
	m.intent = llm.IntentResult{Intent: entities.IntentAnswerQuestion, Confidence: 0.9}
	m.questionErr = errors.New("model unavailable")
	res, err := o.SubmitTurn(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, res.Feedback)
	assert.True(t, res.Feedback.Correct)
	assert.Equal(t, 1, res.Feedback.TotalAnswered)
	assert.NotEmpty(t, res.LastError)
	assert.False(t, res.Terminal)

	// The service recovers and the user follows the recovery hint.
	m.questionErr = nil
	res, err = o.SubmitTurn(ctx, "continue")
	require.NoError(t, err)
	require.NotNil(t, res.Question)
	assert.Equal(t, 1, res.Question.Index)
	assert.False(t, res.Terminal)
	assert.Equal(t, 1, s.TotalAnswered, "the scored answer must not be counted again")
	assert.Equal(t, 1, s.CorrectCount)
	assert.Equal(t, 10, s.TotalScore)
	assert.Empty(t, s.Validate())
}

func TestManager_CreatesAndDropsSessions(t *testing.T) {
	m := happyModel()
	logger := zap.NewNop()
	steps := Steps{
		IntentClassifier:  service.NewIntentClassifier(m, service.DefaultKeywords(), logger),
		TopicValidator:    service.NewTopicValidator(m, 2, logger),
		QuestionGenerator: service.NewQuestionGenerator(m, logger),
		AnswerGrader:      service.NewAnswerGrader(m, logger),
		ScoreTracker:      service.NewScoreTracker(logger),
	}
	mgr := NewManager(Router{InfiniteQuestionCap: 100}, steps, RetryPolicy{MaxAttempts: 1}, nil, 0, logger)
	ctx := context.Background()

	res, err := mgr.SubmitTurn(ctx, "chat-1", "quiz me about python")
	require.NoError(t, err)
	require.NotNil(t, res.Question)
	assert.Equal(t, 1, mgr.Sessions())

	res, err = mgr.SubmitTurn(ctx, "chat-1", "exit")
	require.NoError(t, err)
	assert.True(t, res.Terminal)
	assert.Zero(t, mgr.Sessions())

	// A new turn after the end starts a fresh session.
	res, err = mgr.SubmitTurn(ctx, "chat-1", "quiz me about python")
	require.NoError(t, err)
	require.NotNil(t, res.Question)
	assert.NotEqual(t, "", res.SessionID)
	assert.Equal(t, 1, mgr.Sessions())
}

package workflow

import (
	"github.com/quizme/quizme-bot/internal/domain/entities"
)

// ClarificationKind tells the renderer which kind of help the user needs.
// The orchestrator never formats prose; deliveries turn these into text.
type ClarificationKind string

const (
	ClarifyTopicNeeded      ClarificationKind = "topic_needed"
	ClarifyGenerationFailed ClarificationKind = "question_generation_failed"
	ClarifyAnswerFormat     ClarificationKind = "answer_format_help"
	ClarifyErrorRecovery    ClarificationKind = "error_recovery"
	ClarifyGeneralHelp      ClarificationKind = "general_help"
)

// QuestionView is the pending question as presented to the renderer.
type QuestionView struct {
	Index   int
	Kind    entities.QuestionKind
	Text    string
	Options []string
}

// FeedbackView is the grading outcome of the answer submitted this turn.
type FeedbackView struct {
	Correct       bool
	Feedback      string
	Explanation   string
	TotalScore    int
	CorrectCount  int
	TotalAnswered int
}

// TurnResult is the structured outcome of one turn. Rendering it into
// user-facing text is entirely the front-end collaborator's job.
type TurnResult struct {
	SessionID string
	Phase     entities.Phase
	Terminal  bool

	Question      *QuestionView
	Feedback      *FeedbackView
	Summary       *entities.PerformanceSummary
	Clarification ClarificationKind
	Suggestions   []string
	LastError     string
}

// PerformanceLevel maps an accuracy percentage to the completion summary
// tier.
func PerformanceLevel(accuracy float64) string {
	switch {
	case accuracy >= 90:
		return "Excellent"
	case accuracy >= 80:
		return "Great"
	case accuracy >= 70:
		return "Good"
	case accuracy >= 60:
		return "Fair"
	default:
		return "Keep practicing"
	}
}

// determineClarification picks the clarification kind from the phase and
// error context.
func determineClarification(s *entities.Session) ClarificationKind {
	switch {
	case s.LastError != "":
		return ClarifyErrorRecovery
	case s.Phase == entities.PhaseTopicSelection:
		return ClarifyTopicNeeded
	case s.Phase == entities.PhaseTopicValidation:
		return ClarifyTopicNeeded
	case s.Phase == entities.PhaseQuizActive && s.CurrentQuestion == "":
		return ClarifyGenerationFailed
	case s.Phase == entities.PhaseQuizActive:
		return ClarifyAnswerFormat
	default:
		return ClarifyGeneralHelp
	}
}

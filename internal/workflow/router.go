package workflow

import (
	"strings"

	"github.com/quizme/quizme-bot/internal/domain/entities"
)

// Next identifies the step to run next, or a sentinel ending the turn or
// the session.
type Next string

const (
	NextIntentClassifier  Next = "intent_classifier"
	NextTopicValidator    Next = "topic_validator"
	NextQuestionGenerator Next = "question_generator"
	NextAnswerGrader      Next = "answer_grader"
	NextScoreTracker      Next = "score_tracker"
	NextCompletion        Next = "completion_handler"
	NextClarification     Next = "clarification_handler"

	// NextAwaitInput ends the turn: the next step needs fresh user input.
	NextAwaitInput Next = "await_input"
	// NextEndSession terminates the session.
	NextEndSession Next = "end_session"
)

// MaxConsecutiveFailures bounds consecutive failed executions of the same
// step before the session is ended.
const MaxConsecutiveFailures = 3

// Router encodes the transition table. Route is a pure function of the
// session and the step that just ran; it performs no side effects and never
// calls the model service.
type Router struct {
	// InfiniteQuestionCap is the defensive upper bound on answered
	// questions for infinite quizzes. Zero disables the cap.
	InfiniteQuestionCap int
}

// Route returns the next step for the current state. last names the step
// that just finished; NextIntentClassifier means the turn just started,
// since classification always runs first.
func (r Router) Route(s *entities.Session, last Next) Next {
	// Post-step edges that do not depend on intent.
	switch last {
	case NextQuestionGenerator, NextCompletion, NextClarification:
		// A presented question, summary or clarification waits for input.
		return NextAwaitInput
	case NextScoreTracker:
		if s.Completed {
			return NextCompletion
		}
		return NextQuestionGenerator
	}

	// Global overrides.
	switch s.Intent {
	case entities.IntentExit:
		return NextEndSession
	case entities.IntentNewQuiz:
		// The orchestrator resets the session before running the validator.
		return NextTopicValidator
	}

	// Defensive cap for infinite quizzes.
	if r.capReached(s) {
		return NextCompletion
	}

	switch s.Phase {
	case entities.PhaseTopicSelection:
		if s.Intent == entities.IntentStartQuiz {
			return NextTopicValidator
		}
		return NextClarification

	case entities.PhaseTopicValidation:
		if s.TopicValidated {
			return NextQuestionGenerator
		}
		if s.RetryCount < MaxConsecutiveFailures {
			return NextClarification
		}
		return NextEndSession

	case entities.PhaseQuizActive:
		if s.Intent == entities.IntentAnswerQuestion {
			return NextAnswerGrader
		}
		// Ambiguous input while a question is pending is treated as an
		// answer attempt. The command keyword allowlist is configurable so
		// hosts can keep words like "help" out of this fallback.
		if ambiguousIntent(s.Intent) && s.CurrentQuestion != "" && strings.TrimSpace(s.RawInput) != "" {
			return NextAnswerGrader
		}
		return NextQuestionGenerator

	case entities.PhaseQuestionAnswered:
		if s.Intent == entities.IntentContinue || s.Intent == entities.IntentAnswerQuestion {
			// A failed generation leaves the phase here with the answer
			// already scored; scoring it again would corrupt the totals.
			// An unscored answer has one more history record than the
			// answered total.
			if len(s.AnswerHistory) > s.TotalAnswered {
				return NextScoreTracker
			}
			return NextQuestionGenerator
		}
		return NextClarification

	case entities.PhaseQuizComplete:
		if s.Intent == entities.IntentNewQuiz || s.Intent == entities.IntentStartQuiz {
			return NextTopicValidator
		}
		return NextEndSession
	}

	return NextEndSession
}

func (r Router) capReached(s *entities.Session) bool {
	if r.InfiniteQuestionCap <= 0 || s.QuizMode != entities.ModeInfinite {
		return false
	}
	if s.Phase != entities.PhaseQuizActive && s.Phase != entities.PhaseQuestionAnswered {
		return false
	}
	return s.TotalAnswered >= r.InfiniteQuestionCap
}

func ambiguousIntent(i entities.Intent) bool {
	return i == "" || i == entities.IntentClarification
}

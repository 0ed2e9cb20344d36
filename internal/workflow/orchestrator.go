package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/quizme/quizme-bot/internal/domain/entities"
	"github.com/quizme/quizme-bot/internal/service"
)

// ErrSessionEnded is returned when a turn is submitted to a session that
// already reached its end-of-session boundary.
var ErrSessionEnded = errors.New("session has ended")

// maxStepsPerTurn bounds the router loop; the longest legal chain is four
// steps, so hitting the bound means a routing bug.
const maxStepsPerTurn = 8

// SessionStore persists session snapshots between turns. Persistence is
// best effort; a failing store never fails a turn.
type SessionStore interface {
	Save(ctx context.Context, s *entities.Session) error
}

// Steps bundles the five processing steps the orchestrator drives.
type Steps struct {
	IntentClassifier  service.Step
	TopicValidator    service.Step
	QuestionGenerator service.Step
	AnswerGrader      service.Step
	ScoreTracker      service.Step
}

// Orchestrator drives one session through the turn loop: classify intent,
// route through steps until a turn boundary, applying the retry policy and
// enforcing state consistency along the way. Turns are strictly sequential
// per session.
type Orchestrator struct {
	mu      sync.Mutex
	session *entities.Session
	router  Router
	steps   map[Next]service.Step
	retry   RetryPolicy
	store   SessionStore // optional
	logger  *zap.Logger
	ended   bool
}

// NewOrchestrator creates the orchestrator owning the given session.
func NewOrchestrator(
	session *entities.Session,
	router Router,
	steps Steps,
	retry RetryPolicy,
	store SessionStore,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		session: session,
		router:  router,
		steps: map[Next]service.Step{
			NextIntentClassifier:  steps.IntentClassifier,
			NextTopicValidator:    steps.TopicValidator,
			NextQuestionGenerator: steps.QuestionGenerator,
			NextAnswerGrader:      steps.AnswerGrader,
			NextScoreTracker:      steps.ScoreTracker,
		},
		retry:  retry,
		store:  store,
		logger: logger,
	}
}

// Session returns the session this orchestrator owns. The caller must not
// mutate it.
func (o *Orchestrator) Session() *entities.Session { return o.session }

// SubmitTurn processes one user turn and returns the structured outcome.
func (o *Orchestrator) SubmitTurn(ctx context.Context, raw string) (TurnResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.session
	res := TurnResult{SessionID: s.SessionID, Phase: s.Phase}

	if o.ended {
		res.Terminal = true
		return res, ErrSessionEnded
	}

	s.RawInput = strings.TrimSpace(raw)
	s.Intent = ""

	// Empty input is an input error: recovered locally with a
	// clarification, no retry increment.
	if s.RawInput == "" {
		res.Clarification = determineClarification(s)
		o.finishTurn(ctx, s, &res, "clarification (empty input)")
		return res, nil
	}

	// Intent classification always runs first. An exhausted service
	// failure falls back to a clarification intent instead of propagating.
	if err := o.runStep(ctx, o.steps[NextIntentClassifier], s); err != nil {
		o.logger.Warn("intent classification failed, falling back to clarification",
			zap.String("session_id", s.SessionID),
			zap.Error(err),
		)
		s.Intent = entities.IntentClarification
	}

	// Global overrides, checked before any processing step runs. A new
	// quiz resets the session; the intent is normalized to start_quiz so
	// routing proceeds through topic selection instead of re-firing the
	// override after the validator runs.
	switch {
	case s.Intent == entities.IntentExit:
		return o.endSession(ctx, s, &res, "exit requested"), nil
	case s.Intent == entities.IntentNewQuiz,
		s.Intent == entities.IntentStartQuiz && s.Phase == entities.PhaseQuizComplete:
		s.ResetForNewQuiz()
		s.Intent = entities.IntentStartQuiz
	}

	last := NextIntentClassifier
	for i := 0; i < maxStepsPerTurn; i++ {
		next := o.router.Route(s, last)

		switch next {
		case NextAwaitInput:
			o.finishTurn(ctx, s, &res, "awaiting input")
			return res, nil

		case NextEndSession:
			return o.endSession(ctx, s, &res, "session ended"), nil

		case NextClarification:
			res.Clarification = determineClarification(s)
			res.LastError = s.LastError
			s.LastError = ""
			last = NextClarification

		case NextCompletion:
			o.completeQuiz(s, &res)
			last = NextCompletion

		default:
			step := o.steps[next]
			if err := o.runStep(ctx, step, s); err != nil {
				return o.handleFailure(ctx, s, &res, err)
			}
			s.StepSucceeded()
			o.captureOutcome(next, s, &res)

			// The fallback that treats ambiguous input as an answer must
			// stick, so scoring follows in the same turn.
			if next == NextAnswerGrader && ambiguousIntent(s.Intent) {
				s.Intent = entities.IntentAnswerQuestion
			}

			// The answered/scored counters settle only once the score
			// tracker has run, so consistency is checked after every
			// step except the grader.
			if next != NextAnswerGrader {
				if violations := s.Validate(); len(violations) > 0 {
					return o.abortInconsistent(s, &res, violations)
				}
			}
			last = next
		}
	}

	return o.abortInconsistent(s, &res, []string{"turn exceeded the step bound"})
}

// runStep executes a step, applying the retry policy when it calls the
// model service.
func (o *Orchestrator) runStep(ctx context.Context, step service.Step, s *entities.Session) error {
	if !step.CallsModel() {
		return step.Run(ctx, s)
	}
	return o.retry.Do(ctx, func() error {
		return step.Run(ctx, s)
	})
}

// captureOutcome copies step results into the turn result before later
// steps clear the per-turn scratch fields.
func (o *Orchestrator) captureOutcome(step Next, s *entities.Session, res *TurnResult) {
	switch step {
	case NextAnswerGrader:
		if s.AnswerCorrect != nil {
			fb := FeedbackView{
				Correct:  *s.AnswerCorrect,
				Feedback: s.AnswerFeedback,
			}
			if n := len(s.AnswerHistory); n > 0 {
				fb.Explanation = s.AnswerHistory[n-1].Explanation
			}
			res.Feedback = &fb
		}

	case NextScoreTracker:
		if res.Feedback != nil {
			res.Feedback.TotalScore = s.TotalScore
			res.Feedback.CorrectCount = s.CorrectCount
			res.Feedback.TotalAnswered = s.TotalAnswered
		}

	case NextQuestionGenerator:
		res.Question = &QuestionView{
			Index:   s.QuestionIndex,
			Kind:    s.QuestionKind,
			Text:    s.CurrentQuestion,
			Options: s.AnswerOptions,
		}
	}
}

// handleFailure applies the failure policy: input errors clarify without
// bookkeeping, service and validation failures increment the retry count
// and either clarify or end the session once the bound is hit, and state
// consistency errors abort the turn.
func (o *Orchestrator) handleFailure(ctx context.Context, s *entities.Session, res *TurnResult, err error) (TurnResult, error) {
	f := service.AsFailure(err)
	if f == nil {
		f = service.ServiceFailure("step failed", err)
	}

	switch f.Kind {
	case service.ErrorKindInput:
		res.Clarification = determineClarification(s)
		o.finishTurn(ctx, s, res, "clarification (input error)")
		return *res, nil

	case service.ErrorKindStateConsistency:
		return o.abortInconsistent(s, res, []string{f.Message})

	default: // service (retry-exhausted) or validation
		s.StepFailed(f.Message)
		res.Suggestions = f.Suggestions
		res.LastError = s.LastError

		if s.RetryCount >= MaxConsecutiveFailures {
			o.logger.Warn("consecutive failures exhausted, ending session",
				zap.String("session_id", s.SessionID),
				zap.Int("retry_count", s.RetryCount),
				zap.Error(err),
			)
			return o.endSession(ctx, s, res, "failures exhausted"), nil
		}

		res.Clarification = determineClarification(s)
		o.finishTurn(ctx, s, res, "clarification ("+string(f.Kind)+" failure)")
		return *res, nil
	}
}

// completeQuiz is the completion handler: it finalizes the quiz flags and
// exposes the performance summary to the renderer.
func (o *Orchestrator) completeQuiz(s *entities.Session, res *TurnResult) {
	if !s.Completed {
		s.Completed = true
		s.Active = false
		s.Phase = entities.PhaseQuizComplete
	}
	summary := s.Performance()
	res.Summary = &summary
}

func (o *Orchestrator) endSession(ctx context.Context, s *entities.Session, res *TurnResult, note string) TurnResult {
	s.Active = false
	o.ended = true
	res.Terminal = true
	if res.Summary == nil && s.TotalAnswered > 0 {
		summary := s.Performance()
		res.Summary = &summary
	}
	o.finishTurn(ctx, s, res, note)
	return *res
}

// finishTurn records the turn boundary and snapshots the session.
func (o *Orchestrator) finishTurn(ctx context.Context, s *entities.Session, res *TurnResult, note string) {
	res.Phase = s.Phase
	s.RecordTurn(s.RawInput, note)

	if o.store != nil {
		if err := o.store.Save(ctx, s); err != nil {
			o.logger.Warn("session snapshot failed",
				zap.String("session_id", s.SessionID),
				zap.Error(err),
			)
		}
	}
}

// abortInconsistent surfaces a broken invariant as a system error with a
// full state snapshot in the log. It must never be silently swallowed.
func (o *Orchestrator) abortInconsistent(s *entities.Session, res *TurnResult, violations []string) (TurnResult, error) {
	f := service.ConsistencyFailure(violations)
	o.logger.Error("state consistency violation",
		zap.String("session_id", s.SessionID),
		zap.Strings("violations", violations),
		zap.Any("state", s),
	)
	res.Phase = s.Phase
	res.Terminal = true
	o.ended = true
	return *res, f
}

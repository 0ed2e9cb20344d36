package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultLogCap bounds the conversation log when no cap is configured.
const DefaultLogCap = 50

// AnswerRecord is one entry of the append-only answer history.
type AnswerRecord struct {
	QuestionIndex int          `json:"question_index"`
	Question      string       `json:"question"`
	Kind          QuestionKind `json:"kind"`
	UserAnswer    string       `json:"user_answer"`
	ExpectedAns   string       `json:"expected_answer"`
	IsCorrect     bool         `json:"is_correct"`
	Feedback      string       `json:"feedback,omitempty"`
	Explanation   string       `json:"explanation,omitempty"`
	AnsweredAt    time.Time    `json:"answered_at"`
}

// TurnEntry is one entry of the bounded conversation log.
type TurnEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	UserInput     string    `json:"user_input"`
	System        string    `json:"system,omitempty"`
	Phase         Phase     `json:"phase"`
	QuestionIndex int       `json:"question_index"`
}

// Session is the single mutable record threaded through every turn of one
// quiz conversation. It is owned by exactly one orchestrator; mutation goes
// through the named operations below so the invariants stay enforced in one
// place.
type Session struct {
	SessionID string `json:"session_id"`
	Phase     Phase  `json:"phase"`

	RawInput string `json:"raw_input"`
	Intent   Intent `json:"intent,omitempty"` // set once per turn by the classifier

	Topic          string   `json:"topic,omitempty"`
	TopicValidated bool     `json:"topic_validated"`
	QuizMode       QuizMode `json:"quiz_mode"`
	MaxQuestions   int      `json:"max_questions,omitempty"` // required for finite mode

	QuestionIndex   int          `json:"question_index"`
	CurrentQuestion string       `json:"current_question,omitempty"`
	QuestionKind    QuestionKind `json:"question_kind,omitempty"`
	AnswerOptions   []string     `json:"answer_options,omitempty"`
	ExpectedAnswer  string       `json:"expected_answer,omitempty"`

	CurrentAnswer  string `json:"current_answer,omitempty"`
	AnswerCorrect  *bool  `json:"answer_correct,omitempty"`
	AnswerFeedback string `json:"answer_feedback,omitempty"`

	AnswerHistory []AnswerRecord `json:"answer_history"`

	TotalScore      int     `json:"total_score"`
	TotalAnswered   int     `json:"total_answered"`
	CorrectCount    int     `json:"correct_count"`
	CompletionRatio float64 `json:"completion_ratio"`

	Active    bool `json:"active"`
	Completed bool `json:"completed"`

	LastError  string `json:"last_error,omitempty"`
	RetryCount int    `json:"retry_count"`

	ConversationLog []TurnEntry `json:"conversation_log"`
	LogCap          int         `json:"log_cap"`

	Metadata map[string]string `json:"metadata"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates an empty session in the topic selection phase.
func NewSession(logCap int) *Session {
	if logCap <= 0 {
		logCap = DefaultLogCap
	}
	now := time.Now()
	return &Session{
		SessionID: uuid.NewString(),
		Phase:     PhaseTopicSelection,
		QuizMode:  ModeFinite,
		LogCap:    logCap,
		Metadata:  map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}

// RecordTurn appends a turn summary to the conversation log, dropping the
// oldest entries past the cap.
func (s *Session) RecordTurn(userInput, systemSummary string) {
	s.ConversationLog = append(s.ConversationLog, TurnEntry{
		Timestamp:     time.Now(),
		UserInput:     userInput,
		System:        systemSummary,
		Phase:         s.Phase,
		QuestionIndex: s.QuestionIndex,
	})
	if cap := s.LogCap; cap > 0 && len(s.ConversationLog) > cap {
		s.ConversationLog = s.ConversationLog[len(s.ConversationLog)-cap:]
	}
	s.touch()
}

// RecentTurns returns up to n most recent conversation log entries.
func (s *Session) RecentTurns(n int) []TurnEntry {
	if n <= 0 || len(s.ConversationLog) == 0 {
		return nil
	}
	if len(s.ConversationLog) <= n {
		return s.ConversationLog
	}
	return s.ConversationLog[len(s.ConversationLog)-n:]
}

// RecordAnswer appends a graded answer to the history and stores the
// per-turn grading result.
func (s *Session) RecordAnswer(rec AnswerRecord) {
	s.AnswerHistory = append(s.AnswerHistory, rec)
	correct := rec.IsCorrect
	s.AnswerCorrect = &correct
	s.AnswerFeedback = rec.Feedback
	s.touch()
}

// AdvanceQuestion moves to the next question, clearing the per-question
// scratch fields. The index is monotonic within a quiz.
func (s *Session) AdvanceQuestion() {
	s.QuestionIndex++
	s.CurrentQuestion = ""
	s.QuestionKind = ""
	s.AnswerOptions = nil
	s.ExpectedAnswer = ""
	s.CurrentAnswer = ""
	s.AnswerCorrect = nil
	s.AnswerFeedback = ""
	s.touch()
}

// SetQuestion installs a freshly generated question as the pending one.
func (s *Session) SetQuestion(q Question) {
	s.CurrentQuestion = q.Text
	s.QuestionKind = q.Kind
	s.AnswerOptions = q.Options
	s.ExpectedAnswer = q.Answer
	s.touch()
}

// ResetForNewQuiz zeroes all quiz fields while preserving the session ID
// and conversation log, returning the session to topic selection.
func (s *Session) ResetForNewQuiz() {
	s.Phase = PhaseTopicSelection
	s.Intent = ""
	s.Topic = ""
	s.TopicValidated = false
	s.QuizMode = ModeFinite
	s.MaxQuestions = 0
	s.QuestionIndex = 0
	s.CurrentQuestion = ""
	s.QuestionKind = ""
	s.AnswerOptions = nil
	s.ExpectedAnswer = ""
	s.CurrentAnswer = ""
	s.AnswerCorrect = nil
	s.AnswerFeedback = ""
	s.AnswerHistory = nil
	s.TotalScore = 0
	s.TotalAnswered = 0
	s.CorrectCount = 0
	s.CompletionRatio = 0
	s.Active = false
	s.Completed = false
	s.LastError = ""
	s.RetryCount = 0
	s.Metadata = map[string]string{}
	s.touch()
}

// StepSucceeded clears the failure bookkeeping after a successful step.
func (s *Session) StepSucceeded() {
	s.LastError = ""
	s.RetryCount = 0
	s.touch()
}

// StepFailed records a step failure without touching any other field.
func (s *Session) StepFailed(msg string) {
	s.LastError = msg
	s.RetryCount++
	s.touch()
}

// Accuracy returns the percentage of correct answers so far.
func (s *Session) Accuracy() float64 {
	if s.TotalAnswered == 0 {
		return 0
	}
	return float64(s.CorrectCount) / float64(s.TotalAnswered) * 100
}

// KindStats holds per-question-kind performance counters.
type KindStats struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// PerformanceSummary aggregates final quiz statistics for the completion
// summary.
type PerformanceSummary struct {
	Topic           string                     `json:"topic"`
	TotalAnswered   int                        `json:"total_answered"`
	CorrectCount    int                        `json:"correct_count"`
	Accuracy        float64                    `json:"accuracy"`
	TotalScore      int                        `json:"total_score"`
	CompletionRatio float64                    `json:"completion_ratio"`
	ByKind          map[QuestionKind]KindStats `json:"by_kind"`
	Duration        time.Duration              `json:"duration"`
}

// Performance computes the summary statistics over the answer history.
func (s *Session) Performance() PerformanceSummary {
	byKind := make(map[QuestionKind]KindStats)
	for _, rec := range s.AnswerHistory {
		st := byKind[rec.Kind]
		st.Total++
		if rec.IsCorrect {
			st.Correct++
		}
		byKind[rec.Kind] = st
	}
	return PerformanceSummary{
		Topic:           s.Topic,
		TotalAnswered:   s.TotalAnswered,
		CorrectCount:    s.CorrectCount,
		Accuracy:        s.Accuracy(),
		TotalScore:      s.TotalScore,
		CompletionRatio: s.CompletionRatio,
		ByKind:          byKind,
		Duration:        s.UpdatedAt.Sub(s.CreatedAt),
	}
}

// Validate checks the session invariants and returns every violation found.
// An empty result means the state is consistent.
func (s *Session) Validate() []string {
	var errs []string

	if s.SessionID == "" {
		errs = append(errs, "session id is empty")
	}
	if !s.Phase.Valid() {
		errs = append(errs, fmt.Sprintf("unknown phase %q", s.Phase))
	}
	if s.Intent != "" && !s.Intent.Valid() {
		errs = append(errs, fmt.Sprintf("unknown intent %q", s.Intent))
	}
	if s.Phase == PhaseQuizActive && !s.TopicValidated {
		errs = append(errs, "quiz active without a validated topic")
	}
	if s.QuizMode == ModeFinite && s.Active && s.MaxQuestions <= 0 {
		errs = append(errs, "finite quiz without a positive max questions")
	}
	if s.QuestionIndex < 0 {
		errs = append(errs, "question index is negative")
	}
	if s.TotalScore < 0 {
		errs = append(errs, "total score is negative")
	}
	if s.TotalAnswered < 0 {
		errs = append(errs, "total answered is negative")
	}
	if s.CorrectCount > s.TotalAnswered {
		errs = append(errs, "correct count exceeds total answered")
	}
	if s.TotalAnswered != len(s.AnswerHistory) {
		errs = append(errs, "answer history length does not match total answered")
	}
	if s.CompletionRatio < 0 || s.CompletionRatio > 100 {
		errs = append(errs, "completion ratio out of range")
	}
	if s.Active && s.Completed {
		errs = append(errs, "session both active and completed")
	}
	if s.RetryCount < 0 {
		errs = append(errs, "retry count is negative")
	}

	return errs
}

package entities

// Phase is the coarse-grained stage of a quiz session's lifecycle.
type Phase string

const (
	PhaseTopicSelection   Phase = "topic_selection"   // waiting for the user to name a topic
	PhaseTopicValidation  Phase = "topic_validation"  // topic extracted, being validated
	PhaseQuizActive       Phase = "quiz_active"       // a question is pending an answer
	PhaseQuestionAnswered Phase = "question_answered" // answer graded, score not yet applied
	PhaseQuizComplete     Phase = "quiz_complete"     // quiz finished, session may restart
)

// Valid reports whether p is one of the five known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseTopicSelection, PhaseTopicValidation, PhaseQuizActive,
		PhaseQuestionAnswered, PhaseQuizComplete:
		return true
	}
	return false
}

// QuizMode controls how a quiz ends.
type QuizMode string

const (
	ModeFinite   QuizMode = "finite"   // ends after MaxQuestions answers
	ModeInfinite QuizMode = "infinite" // ends only on exit or the defensive cap
)

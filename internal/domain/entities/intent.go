package entities

// Intent is the classified purpose of the user's latest input.
type Intent string

const (
	IntentStartQuiz      Intent = "start_quiz"
	IntentAnswerQuestion Intent = "answer_question"
	IntentNewQuiz        Intent = "new_quiz"
	IntentExit           Intent = "exit"
	IntentContinue       Intent = "continue"
	IntentClarification  Intent = "clarification"
)

// Valid reports whether i is one of the six known intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentStartQuiz, IntentAnswerQuestion, IntentNewQuiz,
		IntentExit, IntentContinue, IntentClarification:
		return true
	}
	return false
}

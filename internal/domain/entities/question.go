package entities

// QuestionKind is the format of a quiz question.
type QuestionKind string

const (
	KindMultipleChoice QuestionKind = "multiple_choice"
	KindOpenEnded      QuestionKind = "open_ended"
	KindTrueFalse      QuestionKind = "true_false"
	KindFillInBlank    QuestionKind = "fill_in_blank"
)

// Choice reports whether the kind presents lettered answer options.
func (k QuestionKind) Choice() bool {
	return k == KindMultipleChoice
}

// LocallyGradable reports whether answers of this kind are graded by
// deterministic matching without a model call.
func (k QuestionKind) LocallyGradable() bool {
	return k == KindMultipleChoice || k == KindTrueFalse
}

// Question is a single generated quiz question with its answer key.
type Question struct {
	Index       int          `json:"index"`
	Kind        QuestionKind `json:"kind"`
	Text        string       `json:"text"`
	Options     []string     `json:"options,omitempty"` // only for choice kinds
	Answer      string       `json:"answer"`
	Explanation string       `json:"explanation,omitempty"`
}

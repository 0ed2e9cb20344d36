package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quizme/quizme-bot/internal/domain/entities"
	"github.com/quizme/quizme-bot/internal/llm"
)

// AnswerGrader evaluates the user's answer to the pending question. Choice
// and boolean kinds are graded by deterministic normalization without a
// model call; open kinds are graded semantically by the model with partial
// credit.
type AnswerGrader struct {
	model  GradeModel
	logger *zap.Logger
}

// NewAnswerGrader creates the grader.
func NewAnswerGrader(model GradeModel, logger *zap.Logger) *AnswerGrader {
	return &AnswerGrader{model: model, logger: logger}
}

func (g *AnswerGrader) Name() string     { return "answer_grader" }
func (g *AnswerGrader) CallsModel() bool { return true }

// Run grades s.RawInput against the pending question, appends the record to
// the answer history and moves the session to the question-answered phase.
func (g *AnswerGrader) Run(ctx context.Context, s *entities.Session) error {
	answer := strings.TrimSpace(s.RawInput)
	if answer == "" {
		return InputFailure("empty answer")
	}
	if s.CurrentQuestion == "" || s.ExpectedAnswer == "" {
		return InputFailure("no question is pending")
	}

	var result llm.GradeResult
	switch {
	case !s.QuestionKind.LocallyGradable():
		graded, err := g.model.GradeAnswer(ctx, llm.GradeRequest{
			Topic:    s.Topic,
			Question: s.CurrentQuestion,
			Expected: s.ExpectedAnswer,
			Given:    answer,
		})
		if err != nil {
			return ServiceFailure("answer grading failed", err)
		}
		result = graded
	case s.QuestionKind == entities.KindTrueFalse:
		result = gradeTrueFalse(answer, s.ExpectedAnswer)
	default:
		result = gradeMultipleChoice(answer, s.ExpectedAnswer, s.AnswerOptions)
	}

	s.CurrentAnswer = answer
	s.RecordAnswer(entities.AnswerRecord{
		QuestionIndex: s.QuestionIndex,
		Question:      s.CurrentQuestion,
		Kind:          s.QuestionKind,
		UserAnswer:    answer,
		ExpectedAns:   s.ExpectedAnswer,
		IsCorrect:     result.IsCorrect,
		Feedback:      result.Feedback,
		Explanation:   result.Explanation,
		AnsweredAt:    time.Now(),
	})
	s.Phase = entities.PhaseQuestionAnswered

	g.logger.Info("answer graded",
		zap.String("session_id", s.SessionID),
		zap.Int("index", s.QuestionIndex),
		zap.Bool("correct", result.IsCorrect),
	)

	return nil
}

var (
	letterToIndex  = map[string]string{"a": "0", "b": "1", "c": "2", "d": "3"}
	indexToLetter  = map[string]string{"0": "a", "1": "b", "2": "c", "3": "d"}
	ordinalToIndex = map[string]string{"first": "0", "second": "1", "third": "2", "fourth": "3"}

	trueValues  = map[string]bool{"true": true, "t": true, "yes": true, "y": true, "1": true, "correct": true}
	falseValues = map[string]bool{"false": true, "f": true, "no": true, "n": true, "0": true, "incorrect": true}
)

// gradeMultipleChoice matches the answer against the expected letter, index
// or option text, accepting letters, ordinals and digits interchangeably.
func gradeMultipleChoice(given, expected string, options []string) llm.GradeResult {
	user := strings.ToLower(strings.TrimSpace(given))
	correct := strings.ToLower(strings.TrimSpace(expected))

	isCorrect := user == correct

	if !isCorrect {
		userNorm := user
		if v, ok := letterToIndex[user]; ok {
			userNorm = v
		} else if v, ok := ordinalToIndex[user]; ok {
			userNorm = v
		}

		correctNorm := correct
		if v, ok := letterToIndex[correct]; ok {
			correctNorm = v
		}

		isCorrect = userNorm == correctNorm

		if !isCorrect {
			if letter, ok := indexToLetter[correct]; ok {
				isCorrect = user == letter
			}
		}

		// Match against the option text itself. Only a whole-text match
		// counts: options like "dark red" and "red" must not shadow each
		// other.
		if !isCorrect {
			for i, opt := range options {
				if strings.ToLower(strings.TrimSpace(opt)) == user {
					idx := fmt.Sprintf("%d", i)
					letter := strings.ToLower(string(rune('A' + i)))
					isCorrect = idx == correct || letter == correct
					break
				}
			}
		}
	}

	return boolResult(isCorrect, expected)
}

// gradeTrueFalse normalizes yes/no style answers to booleans before
// comparing.
func gradeTrueFalse(given, expected string) llm.GradeResult {
	user, userOK := normalizeBool(given)
	correct, correctOK := normalizeBool(expected)

	isCorrect := userOK && correctOK && user == correct
	return boolResult(isCorrect, expected)
}

func normalizeBool(s string) (bool, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	if trueValues[v] {
		return true, true
	}
	if falseValues[v] {
		return false, true
	}
	return false, false
}

func boolResult(isCorrect bool, expected string) llm.GradeResult {
	res := llm.GradeResult{IsCorrect: isCorrect}
	if isCorrect {
		res.ScorePercent = 100
		res.Feedback = "Correct!"
	} else {
		res.Feedback = fmt.Sprintf("The correct answer is %s.", expected)
	}
	return res
}

package telegram

import (
	"fmt"
	"strings"

	"github.com/quizme/quizme-bot/internal/domain/entities"
	"github.com/quizme/quizme-bot/internal/workflow"
)

// renderResult turns one structured turn outcome into MarkdownV2 text. All
// prose lives here; the workflow layer only produces structured state.
func renderResult(res workflow.TurnResult) string {
	var parts []string

	if res.LastError != "" {
		parts = append(parts, md(res.LastError))
	}

	if res.Feedback != nil {
		parts = append(parts, renderFeedback(*res.Feedback))
	}

	if res.Summary != nil {
		parts = append(parts, renderSummary(*res.Summary))
	}

	if res.Question != nil {
		parts = append(parts, renderQuestion(*res.Question))
	} else if res.Clarification != "" {
		parts = append(parts, renderClarification(res.Clarification))
	}

	if len(res.Suggestions) > 0 {
		var b strings.Builder
		b.WriteString(md("How about one of these instead?"))
		for _, s := range res.Suggestions {
			b.WriteString("\n• " + md(s))
		}
		parts = append(parts, b.String())
	}

	if res.Terminal {
		parts = append(parts, md(msgGoodbye))
	}

	if len(parts) == 0 {
		parts = append(parts, md(msgGeneralHelp))
	}

	return strings.Join(parts, "\n\n")
}

func renderQuestion(q workflow.QuestionView) string {
	var b strings.Builder

	b.WriteString(bold(fmt.Sprintf("Question %d", q.Index+1)))
	b.WriteString("\n" + md(q.Text))

	switch q.Kind {
	case entities.KindMultipleChoice:
		for i, opt := range q.Options {
			b.WriteString(fmt.Sprintf("\n%c\\) %s", 'A'+i, md(opt)))
		}
	case entities.KindTrueFalse:
		b.WriteString("\n" + md("True or false?"))
	case entities.KindFillInBlank:
		b.WriteString("\n" + md("Fill in the blank."))
	}

	return b.String()
}

func renderFeedback(fb workflow.FeedbackView) string {
	var b strings.Builder

	if fb.Correct {
		b.WriteString("✅ ")
	} else {
		b.WriteString("❌ ")
	}
	if fb.Feedback != "" {
		b.WriteString(md(fb.Feedback))
	} else if fb.Correct {
		b.WriteString(md("Correct!"))
	} else {
		b.WriteString(md("Not quite."))
	}

	if fb.Explanation != "" {
		b.WriteString("\n" + md(fb.Explanation))
	}

	if fb.TotalAnswered > 0 {
		b.WriteString("\n" + md(fmt.Sprintf(
			"Score: %d points (%d/%d correct)",
			fb.TotalScore, fb.CorrectCount, fb.TotalAnswered,
		)))
	}

	return b.String()
}

func renderSummary(sum entities.PerformanceSummary) string {
	var b strings.Builder

	b.WriteString(bold("Quiz complete!"))
	if sum.Topic != "" {
		b.WriteString("\n" + md("Topic: "+sum.Topic))
	}
	b.WriteString("\n" + md(fmt.Sprintf(
		"You answered %d of %d correctly (%.0f%%) for %d points.",
		sum.CorrectCount, sum.TotalAnswered, sum.Accuracy, sum.TotalScore,
	)))
	b.WriteString("\n" + md(workflow.PerformanceLevel(sum.Accuracy)+"!"))

	if len(sum.ByKind) > 0 {
		b.WriteString("\n\n" + md("By question type:"))
		for _, kind := range []entities.QuestionKind{
			entities.KindMultipleChoice,
			entities.KindTrueFalse,
			entities.KindFillInBlank,
			entities.KindOpenEnded,
		} {
			if st, ok := sum.ByKind[kind]; ok {
				b.WriteString("\n• " + md(fmt.Sprintf("%s: %d/%d", kindLabel(kind), st.Correct, st.Total)))
			}
		}
	}

	b.WriteString("\n\n" + md("Say \"new quiz\" to play again."))
	return b.String()
}

func renderClarification(kind workflow.ClarificationKind) string {
	switch kind {
	case workflow.ClarifyTopicNeeded:
		return md(msgTopicNeeded)
	case workflow.ClarifyGenerationFailed:
		return md(msgGenerationFailed)
	case workflow.ClarifyAnswerFormat:
		return md(msgAnswerFormat)
	case workflow.ClarifyErrorRecovery:
		return md("Let's get back on track. " + msgGeneralHelp)
	default:
		return md(msgGeneralHelp)
	}
}

func kindLabel(kind entities.QuestionKind) string {
	switch kind {
	case entities.KindMultipleChoice:
		return "multiple choice"
	case entities.KindTrueFalse:
		return "true/false"
	case entities.KindFillInBlank:
		return "fill in the blank"
	case entities.KindOpenEnded:
		return "open-ended"
	default:
		return string(kind)
	}
}

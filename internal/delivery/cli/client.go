// Package cli is a terminal front end for the quiz workflow, mainly useful
// for local development without a Telegram token.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/quizme/quizme-bot/internal/domain/entities"
	"github.com/quizme/quizme-bot/internal/workflow"
)

const conversationKey = "terminal"

// TurnService accepts one user turn for a conversation and returns the
// structured outcome.
type TurnService interface {
	SubmitTurn(ctx context.Context, key, raw string) (workflow.TurnResult, error)
}

type Client struct {
	in     io.Reader
	out    io.Writer
	turns  TurnService
	logger *zap.Logger
}

func NewClient(in io.Reader, out io.Writer, turns TurnService, logger *zap.Logger) *Client {
	return &Client{
		in:     in,
		out:    out,
		turns:  turns,
		logger: logger,
	}
}

// Run reads lines from the input until the session ends, EOF, or the
// context is cancelled.
func (c *Client) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, "Tell me a quiz topic, or type \"exit\" to stop.")

	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		res, err := c.turns.SubmitTurn(ctx, conversationKey, scanner.Text())
		if err != nil {
			c.logger.Error("turn failed", zap.Error(err))
			fmt.Fprintln(c.out, "Something went wrong on my side. Please try again later.")
			continue
		}

		fmt.Fprintln(c.out, render(res))

		if res.Terminal {
			return nil
		}
	}
}

func render(res workflow.TurnResult) string {
	var parts []string

	if res.LastError != "" {
		parts = append(parts, res.LastError)
	}

	if fb := res.Feedback; fb != nil {
		var b strings.Builder
		if fb.Correct {
			b.WriteString("Correct! ")
		} else {
			b.WriteString("Not quite. ")
		}
		b.WriteString(fb.Feedback)
		if fb.Explanation != "" {
			b.WriteString("\n" + fb.Explanation)
		}
		if fb.TotalAnswered > 0 {
			b.WriteString(fmt.Sprintf("\nScore: %d points (%d/%d correct)",
				fb.TotalScore, fb.CorrectCount, fb.TotalAnswered))
		}
		parts = append(parts, b.String())
	}

	if sum := res.Summary; sum != nil {
		parts = append(parts, fmt.Sprintf(
			"Quiz complete! You answered %d of %d correctly (%.0f%%) for %d points. %s!",
			sum.CorrectCount, sum.TotalAnswered, sum.Accuracy, sum.TotalScore,
			workflow.PerformanceLevel(sum.Accuracy),
		))
	}

	if q := res.Question; q != nil {
		var b strings.Builder
		fmt.Fprintf(&b, "Question %d: %s", q.Index+1, q.Text)
		if q.Kind == entities.KindMultipleChoice {
			for i, opt := range q.Options {
				fmt.Fprintf(&b, "\n  %c) %s", 'A'+i, opt)
			}
		}
		parts = append(parts, b.String())
	} else if res.Clarification != "" {
		parts = append(parts, clarificationText(res.Clarification))
	}

	if len(res.Suggestions) > 0 {
		parts = append(parts, "How about: "+strings.Join(res.Suggestions, ", "))
	}

	if res.Terminal {
		parts = append(parts, "Thanks for playing!")
	}

	return strings.Join(parts, "\n")
}

func clarificationText(kind workflow.ClarificationKind) string {
	switch kind {
	case workflow.ClarifyTopicNeeded:
		return "What would you like to be quizzed on? Name a subject, like \"Python programming\"."
	case workflow.ClarifyGenerationFailed:
		return "I couldn't come up with a question just now. Say \"continue\" to try again."
	case workflow.ClarifyAnswerFormat:
		return "Please answer the question above (a letter for multiple choice, true/false for boolean)."
	default:
		return "You can answer the question, say \"continue\", \"new quiz\", or \"exit\"."
	}
}

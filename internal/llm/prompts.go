package llm

import (
	"fmt"
	"strings"

	"github.com/quizme/quizme-bot/internal/domain/entities"
)

const systemPrompt = "You are the reasoning engine of an interactive quiz " +
	"application. Always answer with a single JSON object matching the " +
	"requested schema and nothing else."

func intentPrompt(req IntentRequest) string {
	var b strings.Builder

	b.WriteString("Classify the intent of the user's latest message.\n\n")
	fmt.Fprintf(&b, "Current phase: %s\n", req.Phase)
	fmt.Fprintf(&b, "A question is pending: %t\n", req.QuestionPending)

	if len(req.RecentTurns) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, t := range req.RecentTurns {
			fmt.Fprintf(&b, "- user: %q / system: %q\n", t.UserInput, t.System)
		}
	}

	fmt.Fprintf(&b, "\nUser message: %q\n\n", req.Input)
	b.WriteString(`Possible intents: "start_quiz" (user names or asks for a quiz topic), ` +
		`"answer_question" (user answers the pending question), ` +
		`"new_quiz" (user wants to restart with a different topic), ` +
		`"exit" (user wants to stop), ` +
		`"continue" (user wants the next question), ` +
		`"clarification" (anything else or unclear).` + "\n\n")
	b.WriteString(`Respond with JSON: {"intent": "<one of the above>", "confidence": <0..1>}`)

	return b.String()
}

func extractTopicPrompt(input string) string {
	return fmt.Sprintf("Extract the quiz topic the user is asking about from this message: %q\n\n"+
		`Respond with JSON: {"found": <bool>, "topic": "<concise topic, empty if none>"}`, input)
}

func validateTopicPrompt(topic string) string {
	return fmt.Sprintf("Assess whether %q is a workable quiz topic. Check that it is "+
		"appropriate for educational content, specific enough to write questions about, "+
		"feasible given general knowledge, and safe.\n\n"+
		`Respond with JSON: {"is_valid": <bool>, "category": "<subject area>", `+
		`"difficulty": "easy"|"medium"|"hard", "estimated_questions": <int>, `+
		`"reason": "<why, if invalid>", "suggestions": ["<alternative topics, if invalid>"]}`, topic)
}

func questionPrompt(req QuestionRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write quiz question %d about %q at %s difficulty.\n",
		req.Index+1, req.Topic, req.Difficulty)
	fmt.Fprintf(&b, "Question format: %s.\n", questionFormatInstruction(req.Kind))

	if len(req.Previous) > 0 {
		b.WriteString("\nDo not repeat or closely paraphrase any of these already asked questions:\n")
		for _, q := range req.Previous {
			fmt.Fprintf(&b, "- %s\n", q)
		}
	}

	b.WriteString("\n" + `Respond with JSON: {"question": "<text>", "options": ["<only for multiple choice, exactly 4>"], ` +
		`"answer": "<expected answer; for multiple choice the letter A-D; for true/false "true" or "false">", ` +
		`"explanation": "<short explanation of the answer>"}`)

	return b.String()
}

func questionFormatInstruction(kind entities.QuestionKind) string {
	switch kind {
	case entities.KindMultipleChoice:
		return "multiple choice with exactly four options labelled A to D"
	case entities.KindTrueFalse:
		return "a true/false statement"
	case entities.KindFillInBlank:
		return "a fill-in-the-blank sentence with one missing term"
	default:
		return "an open-ended question answerable in one or two sentences"
	}
}

func gradePrompt(req GradeRequest) string {
	return fmt.Sprintf("Grade the user's answer to a quiz question about %q.\n\n"+
		"Question: %s\nExpected answer: %s\nUser's answer: %s\n\n"+
		"Judge semantic correctness, not wording. Award partial credit when the "+
		"answer is incomplete but on the right track.\n\n"+
		`Respond with JSON: {"is_correct": <bool>, "partial_credit": <bool>, `+
		`"score_percentage": <0..100>, "feedback": "<one or two friendly sentences>", `+
		`"explanation": "<what the full answer is>"}`,
		req.Topic, req.Question, req.Expected, req.Given)
}

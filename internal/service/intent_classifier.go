package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/quizme/quizme-bot/internal/domain/entities"
	"github.com/quizme/quizme-bot/internal/llm"
)

// recentTurnContext is how many conversation log entries the classifier
// passes to the model.
const recentTurnContext = 3

// KeywordConfig holds the configurable command keyword allowlists. Keywords
// win over the model outright, so hosts can tune them to avoid commands
// being swallowed as quiz answers.
type KeywordConfig struct {
	Exit     []string
	NewQuiz  []string
	Continue []string
}

// DefaultKeywords returns the built-in allowlists.
func DefaultKeywords() KeywordConfig {
	return KeywordConfig{
		Exit:     []string{"exit", "quit", "stop", "goodbye", "bye"},
		NewQuiz:  []string{"new quiz", "restart", "start over", "different topic"},
		Continue: []string{"continue", "next", "next question", "go on"},
	}
}

// IntentClassifier determines the purpose of the user's latest input. It
// layers deterministic keyword overrides under a model call: exit, new-quiz
// and continue keywords are decided locally, everything else defers to the
// language model service.
type IntentClassifier struct {
	model    IntentModel
	keywords KeywordConfig
	logger   *zap.Logger
}

// NewIntentClassifier creates the classifier with the given keyword
// allowlists.
func NewIntentClassifier(model IntentModel, keywords KeywordConfig, logger *zap.Logger) *IntentClassifier {
	return &IntentClassifier{model: model, keywords: keywords, logger: logger}
}

func (c *IntentClassifier) Name() string     { return "intent_classifier" }
func (c *IntentClassifier) CallsModel() bool { return true }

// Run classifies s.RawInput and stores the intent on the session. The only
// failure mode is a model call failure, returned as a service failure so
// the orchestrator can retry and fall back to a clarification intent.
func (c *IntentClassifier) Run(ctx context.Context, s *entities.Session) error {
	input := strings.TrimSpace(s.RawInput)
	if input == "" {
		return InputFailure("empty input")
	}

	if intent, ok := c.keywordIntent(input); ok {
		c.logger.Debug("intent resolved by keyword",
			zap.String("session_id", s.SessionID),
			zap.String("intent", string(intent)),
		)
		s.Intent = intent
		return nil
	}

	res, err := c.model.ClassifyIntent(ctx, llm.IntentRequest{
		Input:           input,
		Phase:           s.Phase,
		QuestionPending: s.CurrentQuestion != "",
		RecentTurns:     s.RecentTurns(recentTurnContext),
	})
	if err != nil {
		return ServiceFailure("intent classification failed", err)
	}

	c.logger.Debug("intent classified",
		zap.String("session_id", s.SessionID),
		zap.String("intent", string(res.Intent)),
		zap.Float64("confidence", res.Confidence),
	)

	s.Intent = res.Intent
	return nil
}

// keywordIntent checks the allowlists against whole-word phrases of the
// normalized input.
func (c *IntentClassifier) keywordIntent(input string) (entities.Intent, bool) {
	words := strings.Fields(strings.ToLower(input))

	for _, kw := range c.keywords.Exit {
		if containsPhrase(words, kw) {
			return entities.IntentExit, true
		}
	}
	for _, kw := range c.keywords.NewQuiz {
		if containsPhrase(words, kw) {
			return entities.IntentNewQuiz, true
		}
	}
	for _, kw := range c.keywords.Continue {
		if containsPhrase(words, kw) {
			return entities.IntentContinue, true
		}
	}

	return "", false
}

// containsPhrase reports whether the phrase occurs in words as a contiguous
// whole-word sequence, so "exit" does not match "exited".
func containsPhrase(words []string, phrase string) bool {
	parts := strings.Fields(strings.ToLower(phrase))
	if len(parts) == 0 || len(parts) > len(words) {
		return false
	}

	for i := 0; i+len(parts) <= len(words); i++ {
		match := true
		for j, p := range parts {
			if words[i+j] != p {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}

	return false
}

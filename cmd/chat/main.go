// Command chat runs the quiz workflow against a terminal instead of
// Telegram, for local development.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/quizme/quizme-bot/internal/config"
	"github.com/quizme/quizme-bot/internal/delivery/cli"
	"github.com/quizme/quizme-bot/internal/llm"
	"github.com/quizme/quizme-bot/internal/logger"
	"github.com/quizme/quizme-bot/internal/service"
	"github.com/quizme/quizme-bot/internal/workflow"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zl, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	model, err := llm.NewOpenAIService(llm.Options{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		CallTimeout: cfg.OpenAI.CallTimeout,
	}, zl)
	if err != nil {
		log.Fatal(err)
	}

	keywords := service.KeywordConfig{
		Exit:     cfg.Quiz.Keywords.Exit,
		NewQuiz:  cfg.Quiz.Keywords.NewQuiz,
		Continue: cfg.Quiz.Keywords.Continue,
	}

	steps := workflow.Steps{
		IntentClassifier:  service.NewIntentClassifier(model, keywords, zl),
		TopicValidator:    service.NewTopicValidator(model, cfg.Quiz.MaxQuestionsDefault, zl),
		QuestionGenerator: service.NewQuestionGenerator(model, zl),
		AnswerGrader:      service.NewAnswerGrader(model, zl),
		ScoreTracker:      service.NewScoreTracker(zl),
	}

	manager := workflow.NewManager(
		workflow.Router{InfiniteQuestionCap: cfg.Quiz.InfiniteQuestionCap},
		steps,
		workflow.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			Jitter:      cfg.Retry.Jitter,
		},
		nil,
		cfg.Quiz.ConversationLogCap,
		zl,
	)

	client := cli.NewClient(os.Stdin, os.Stdout, manager, zl)
	if err := client.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

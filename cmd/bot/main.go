package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/quizme/quizme-bot/internal/config"
	"github.com/quizme/quizme-bot/internal/delivery/telegram"
	"github.com/quizme/quizme-bot/internal/infra/postgres"
	"github.com/quizme/quizme-bot/internal/infra/postgres/repository"
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
	if cfg.TelegramAPIToken == "" {
		log.Fatal("TELEGRAM_API_TOKEN is required")
	}

	zl, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		log.Fatal(err)
	}

	commands := []tgbotapi.BotCommand{
		{
			Command:     "start",
			Description: "Start the quiz bot",
		},
		{
			Command:     "exit",
			Description: "End the current quiz session",
		},
	}
	if _, err := bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		log.Printf("Failed to set bot commands: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Session persistence is optional; without DATABASE_URL the workflow
	// runs in-memory only.
	var store workflow.SessionStore
	if cfg.DB.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.DB.URL, postgres.PoolConfig{
			MaxConns:        int32(cfg.DB.MaxConnections),
			MaxConnLifetime: cfg.DB.MaxConnLifetime,
		})
		if err != nil {
			log.Fatal(err)
		}
		defer pool.Close()

		repo := repository.NewSessionRepository(pool, postgres.NewTransactor(pool))
		if n, err := repo.ActiveSessions(ctx); err != nil {
			zl.Warn("active session count unavailable", zap.Error(err))
		} else {
			zl.Info("session store attached", zap.Int("active_sessions", n))
		}
		store = repo
	}

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
		store,
		cfg.Quiz.ConversationLogCap,
		zl,
	)

	handler := telegram.NewHandler(bot, zl, manager)
	if err := handler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}

	log.Println("shutdown signal received")
}

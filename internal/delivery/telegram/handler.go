package telegram

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/quizme/quizme-bot/internal/workflow"
)

// TurnService accepts one user turn for a conversation and returns the
// structured outcome.
type TurnService interface {
	SubmitTurn(ctx context.Context, key, raw string) (workflow.TurnResult, error)
}

type Handler struct {
	bot    *tgbotapi.BotAPI
	logger *zap.Logger
	turns  TurnService
}

func NewHandler(bot *tgbotapi.BotAPI, logger *zap.Logger, turns TurnService) *Handler {
	return &Handler{
		bot:    bot,
		logger: logger,
		turns:  turns,
	}
}

func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		h.logger.Debug("update without message")
		return
	}

	chatID := update.Message.Chat.ID
	h.logger.Debug("update received",
		zap.Int64("chat_id", chatID),
		zap.String("text", update.Message.Text),
	)

	if update.Message.IsCommand() {
		switch update.Message.Command() {
		case "start":
			h.send(newPlainMessage(chatID, msgWelcome))
		case "exit":
			h.submit(ctx, chatID, "exit")
		default:
			h.send(newPlainMessage(chatID, msgUnknownCommand))
		}
		return
	}

	h.submit(ctx, chatID, update.Message.Text)
}

func (h *Handler) submit(ctx context.Context, chatID int64, text string) {
	key := strconv.FormatInt(chatID, 10)

	res, err := h.turns.SubmitTurn(ctx, key, text)
	if err != nil {
		h.logger.Error("turn failed",
			zap.Int64("chat_id", chatID),
			zap.String("session_id", res.SessionID),
			zap.Error(err),
		)
		h.send(newPlainMessage(chatID, msgInternalError))
		return
	}

	h.send(newMessage(chatID, renderResult(res)))
}

func (h *Handler) send(c tgbotapi.Chattable) {
	if _, err := h.bot.Send(c); err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
	}
}

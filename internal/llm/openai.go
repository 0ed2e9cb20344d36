package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/quizme/quizme-bot/internal/domain/entities"
)

// Options configures the OpenAI-backed service.
type Options struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	CallTimeout time.Duration
}

// OpenAIService calls the OpenAI chat completion API for every quiz task.
// It is safe for concurrent use by unrelated sessions.
type OpenAIService struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	callTimeout time.Duration
	logger      *zap.Logger
}

// NewOpenAIService creates the service from options, applying defaults for
// anything unset.
func NewOpenAIService(opts Options, logger *zap.Logger) (*OpenAIService, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("openai api key is not configured")
	}
	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 1000
	}
	if opts.CallTimeout == 0 {
		opts.CallTimeout = 30 * time.Second
	}

	return &OpenAIService{
		client:      openai.NewClient(opts.APIKey),
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		callTimeout: opts.CallTimeout,
		logger:      logger,
	}, nil
}

// complete runs one chat completion with the per-call timeout applied.
func (s *OpenAIService) complete(ctx context.Context, task, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		s.logger.Warn("model call failed",
			zap.String("task", task),
			zap.Error(err),
		)
		return "", fmt.Errorf("%s call: %w", task, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %s returned no choices", ErrMalformedResponse, task)
	}

	return resp.Choices[0].Message.Content, nil
}

// ClassifyIntent classifies the user's latest input into one of the six
// intents.
func (s *OpenAIService) ClassifyIntent(ctx context.Context, req IntentRequest) (IntentResult, error) {
	reply, err := s.complete(ctx, "intent classification", intentPrompt(req))
	if err != nil {
		return IntentResult{}, err
	}

	var res IntentResult
	if err := decodeInto(reply, &res); err != nil {
		return IntentResult{}, err
	}
	if !res.Intent.Valid() {
		return IntentResult{}, fmt.Errorf("%w: unknown intent %q", ErrMalformedResponse, res.Intent)
	}

	return res, nil
}

// ExtractTopic pulls a candidate quiz topic out of free-form input.
func (s *OpenAIService) ExtractTopic(ctx context.Context, input string) (TopicExtraction, error) {
	reply, err := s.complete(ctx, "topic extraction", extractTopicPrompt(input))
	if err != nil {
		return TopicExtraction{}, err
	}

	var res TopicExtraction
	if err := decodeInto(reply, &res); err != nil {
		return TopicExtraction{}, err
	}
	if res.Found && strings.TrimSpace(res.Topic) == "" {
		return TopicExtraction{}, fmt.Errorf("%w: topic marked found but empty", ErrMalformedResponse)
	}

	return res, nil
}

// ValidateTopic reviews the candidate topic for appropriateness, specificity,
// feasibility and safety.
func (s *OpenAIService) ValidateTopic(ctx context.Context, topic string) (TopicReview, error) {
	reply, err := s.complete(ctx, "topic validation", validateTopicPrompt(topic))
	if err != nil {
		return TopicReview{}, err
	}

	var res TopicReview
	if err := decodeInto(reply, &res); err != nil {
		return TopicReview{}, err
	}
	if res.IsValid && res.Difficulty == "" {
		res.Difficulty = "medium"
	}

	return res, nil
}

// GenerateQuestion produces one new question of the requested kind.
func (s *OpenAIService) GenerateQuestion(ctx context.Context, req QuestionRequest) (GeneratedQuestion, error) {
	reply, err := s.complete(ctx, "question generation", questionPrompt(req))
	if err != nil {
		return GeneratedQuestion{}, err
	}

	var res GeneratedQuestion
	if err := decodeInto(reply, &res); err != nil {
		return GeneratedQuestion{}, err
	}
	if strings.TrimSpace(res.Text) == "" || strings.TrimSpace(res.Answer) == "" {
		return GeneratedQuestion{}, fmt.Errorf("%w: question or answer empty", ErrMalformedResponse)
	}
	if req.Kind == entities.KindMultipleChoice && len(res.Options) < 2 {
		return GeneratedQuestion{}, fmt.Errorf("%w: multiple choice without options", ErrMalformedResponse)
	}

	return res, nil
}

// GradeAnswer grades an open-form answer semantically.
func (s *OpenAIService) GradeAnswer(ctx context.Context, req GradeRequest) (GradeResult, error) {
	reply, err := s.complete(ctx, "answer grading", gradePrompt(req))
	if err != nil {
		return GradeResult{}, err
	}

	var res GradeResult
	if err := decodeInto(reply, &res); err != nil {
		return GradeResult{}, err
	}
	if res.ScorePercent < 0 || res.ScorePercent > 100 {
		return GradeResult{}, fmt.Errorf("%w: score percentage out of range", ErrMalformedResponse)
	}

	return res, nil
}

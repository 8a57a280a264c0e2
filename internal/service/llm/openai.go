package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"TradeYodha/internal/domain/models"
	"TradeYodha/pkg/logger"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const systemPrompt = "You are a markets analyst. Given a plain-text summary of dark pool prints, " +
	"options flow and overnight gaps, write three to five sentences on institutional positioning. " +
	"Quote the numbers you rely on and do not give trading advice."

type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int64
	Timeout   time.Duration
}

// OpenAIGenerator narrates rendered summaries with a chat completion model.
type OpenAIGenerator struct {
	client    openai.Client
	model     openai.ChatModel
	maxTokens int64
	timeout   time.Duration
	log       *logger.Logger
}

// NewOpenAIGenerator returns an error when no API key is set; callers then run
// without a generator and always serve the fallback text.
func NewOpenAIGenerator(cfg Config, log *logger.Logger) (*OpenAIGenerator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: openai api key is required", models.ErrNotConfigured)
	}
	if cfg.Model == "" {
		cfg.Model = openai.ChatModelGPT4oMini
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIGenerator{
		client:    openai.NewClient(opts...),
		model:     openai.ChatModel(cfg.Model),
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
		log:       log.With(logger.String("component", "openai"), logger.String("model", cfg.Model)),
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, summary string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(summary),
		},
	}
	if g.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(g.maxTokens)
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", models.ErrGenerationFailed)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", models.ErrGenerationFailed)
	}

	g.log.Debug("insight generated",
		logger.Int64("prompt_tokens", resp.Usage.PromptTokens),
		logger.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)
	return text, nil
}

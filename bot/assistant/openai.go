package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/m3rciful/gptbot/core/logger"
	"github.com/m3rciful/gptbot/core/telegram/netutil"
)

// OpenAIOptions configures OpenAIClient.
type OpenAIOptions struct {
	Token       string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// OpenAIClient implements Completer with the OpenAI chat completions API.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIClient builds a client. Requests are never retried.
func NewOpenAIClient(opts OpenAIOptions) *OpenAIClient {
	cfg := openai.DefaultConfig(opts.Token)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	cfg.HTTPClient = netutil.NewClient(netutil.ClientOptions{Timeout: opts.Timeout})

	model := opts.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClient{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
	}
}

// Complete sends the system prompt and turns and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, system string, turns []Turn) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, t := range turns {
		role := openai.ChatMessageRoleUser
		if t.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: t.Text})
	}

	// A zero temperature is dropped by omitempty and the API would use its default.
	temperature := c.temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: temperature,
	})
	if err == nil && (len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "") {
		err = errors.New("empty completion")
	}

	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("model", c.model),
		slog.Int("turns", len(turns)),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			attrs = append(attrs, slog.Int("http_status", apiErr.HTTPStatusCode))
		}
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
		logger.Error(ctx, logger.CompAssistant, "completion", attrs...)
		return "", fmt.Errorf("%w: %w", ErrCompletionFailed, err)
	}
	attrs = append(attrs, slog.Int("total_tokens", resp.Usage.TotalTokens))
	logger.Info(ctx, logger.CompAssistant, "completion", attrs...)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/kirillkom/labor-law-assistant/internal/core/ports"
	"github.com/kirillkom/labor-law-assistant/internal/infrastructure/resilience"
)

const operationChat = "openai.chat"

// Client is a chat completion backend for any OpenAI-compatible endpoint.
type Client struct {
	client   openai.Client
	model    string
	executor *resilience.Executor
	logger   *slog.Logger
}

type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Executor   *resilience.Executor
	Logger     *slog.Logger
}

func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	executor := opts.Executor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig(), logger)
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}

	// Retries belong to the executor so they share the breaker accounting.
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	return &Client{
		client:   openai.NewClient(reqOpts...),
		model:    model,
		executor: executor,
		logger:   logger,
	}
}

var _ ports.CompletionClient = (*Client)(nil)

func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	var text string
	start := time.Now()
	err := c.executor.Execute(ctx, operationChat, func(callCtx context.Context) error {
		resp, err := c.client.Chat.Completions.New(callCtx, params)
		if err != nil {
			return translateError(err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("openai chat: no choices in response")
		}
		text = resp.Choices[0].Message.Content
		c.logger.DebugContext(ctx, "openai_chat_completed",
			"model", c.model,
			"duration_ms", time.Since(start).Milliseconds(),
			"prompt_tokens", resp.Usage.PromptTokens,
			"completion_tokens", resp.Usage.CompletionTokens,
			"finish_reason", resp.Choices[0].FinishReason,
		)
		return nil
	}, resilience.ClassifyHTTPError)
	if err != nil {
		return "", resilience.WrapTemporary(operationChat, err, resilience.ClassifyHTTPError)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("openai chat: empty response")
	}
	return text, nil
}

// translateError maps API status failures onto the shared status error so the
// retry policy matches the other HTTP backends.
func translateError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &resilience.HTTPStatusError{
			Service:    "openai",
			Operation:  "chat",
			StatusCode: apiErr.StatusCode,
			Body:       apiErr.Message,
		}
	}
	return fmt.Errorf("openai chat request: %w", err)
}

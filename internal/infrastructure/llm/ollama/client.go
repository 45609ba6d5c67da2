package ollama

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/labor-law-assistant/internal/core/ports"
	"github.com/kirillkom/labor-law-assistant/internal/infrastructure/resilience"
)

const operationGenerate = "ollama.generate"

// Client talks to a local Ollama server through /api/generate.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
	logger     *slog.Logger
}

type Options struct {
	Timeout  time.Duration
	Executor *resilience.Executor
	Logger   *slog.Logger
}

func New(baseURL, model string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	executor := opts.Executor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig(), logger)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
		logger:     logger,
	}
}

var _ ports.CompletionClient = (*Client)(nil)

type generateRequest struct {
	Model   string          `json:"model"`
	System  string          `json:"system,omitempty"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (c *Client) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	payload := generateRequest{
		Model:  c.model,
		System: req.System,
		Prompt: req.User,
		Stream: false,
		Options: generateOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}

	var response generateResponse
	err := c.executor.Execute(ctx, operationGenerate, func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/generate", payload, &response, "generate")
	}, resilience.ClassifyHTTPError)
	if err != nil {
		return "", resilience.WrapTemporary(operationGenerate, err, resilience.ClassifyHTTPError)
	}

	text := strings.TrimSpace(response.Response)
	if text == "" {
		return "", fmt.Errorf("ollama generate: empty response")
	}
	c.logger.Debug("ollama_generate_completed", "model", c.model, "chars", len(text))
	return text, nil
}

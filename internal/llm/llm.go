// Package llm wraps the external text-generation service behind a typed
// request/response contract with bounded retries for transient failures.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"
)

const defaultMaxAttempts = 3

// Request describes one generation call.
type Request struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
	// JSONObject asks the service for structured-object output. Callers
	// must still parse the returned text defensively.
	JSONObject bool
}

// Result is the generated text plus model and usage metadata.
type Result struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Client calls an OpenAI-compatible API with retry on rate limiting and
// transport failures.
type Client struct {
	api         *openai.Client
	model       string
	maxAttempts uint64
	retryBase   time.Duration
}

// New creates a generation client. baseURL may be empty for the default
// endpoint.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:         openai.NewClientWithConfig(config),
		model:       modelName,
		maxAttempts: defaultMaxAttempts,
		retryBase:   500 * time.Millisecond,
	}
}

// Ping verifies the endpoint is reachable and the model is known.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("llm health check: %w", err)
	}
	return nil
}

// Generate issues one generation call. Rate-limited and transport failures
// are retried with bounded exponential backoff; quota, auth, and bad-request
// errors propagate immediately as *Error.
func (c *Client) Generate(ctx context.Context, req Request) (*Result, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONObject {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var resp openai.ChatCompletionResponse
	attempt := 0
	operation := func() error {
		attempt++
		var err error
		resp, err = c.api.CreateChatCompletion(ctx, chatReq)
		if err == nil {
			return nil
		}
		classified := classify(err)
		if !IsRetryable(classified) {
			return backoff.Permanent(classified)
		}
		slog.Warn("retrying generation call", "attempt", attempt, "kind", classified.Kind, "error", err)
		return classified
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(c.retryBase),
		backoff.WithMaxInterval(8*time.Second),
	), c.maxAttempts-1)

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, &Error{Kind: KindBadRequest, Cause: fmt.Errorf("service returned no choices")}
	}

	res := &Result{
		Text:             resp.Choices[0].Message.Content,
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}
	slog.Debug("generation call complete",
		"model", res.Model,
		"prompt_tokens", res.PromptTokens,
		"completion_tokens", res.CompletionTokens,
	)
	return res, nil
}

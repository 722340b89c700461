// Package llmclient is the shared HTTP client the planner and narrator use
// to reach the local Ollama-compatible completion endpoint. It speaks the
// same {model, prompt, stream, options} -> {response} contract both stages
// depend on, with one place to apply timeouts, retries and tracing.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kuro-ai/brain/logging"
	"github.com/kuro-ai/brain/resilience"
)

// Options tunes generation parameters sent through to the model.
type Options struct {
	Temperature float64
	Stop        []string
}

// Client is a minimal Ollama-protocol client shared by the planner and
// narrator stages.
type Client struct {
	url        string
	model      string
	httpClient *http.Client
	logger     logging.Logger
	retry      *resilience.RetryConfig
}

// ClientOption configures a Client at construction time.
type ClientOption func(*Client)

// New builds a Client targeting url with the given model, timing requests
// out after timeout. The transport is wrapped with otelhttp so every call
// produces a span.
func New(url, model string, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		url:   url,
		model: model,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: &logging.NoOpLogger{},
		retry:  resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithLogger attaches a structured logger for request/response diagnostics.
func WithLogger(logger logging.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithRetry overrides the default retry budget for transient failures.
func WithRetry(cfg *resilience.RetryConfig) ClientOption {
	return func(c *Client) { c.retry = cfg }
}

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends prompt to the completion endpoint and returns the raw text
// response, retrying transient HTTP/network failures per c.retry.
func (c *Client) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	body := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]interface{}{
			"temperature": opts.Temperature,
		},
	}
	if len(opts.Stop) > 0 {
		body.Options["stop"] = opts.Stop
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("llmclient: marshal request: %w", err)
	}

	var out string
	err = resilience.Retry(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("llmclient: build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("llm request failed", map[string]interface{}{"url": c.url, "error": err.Error()})
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("llmclient: read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("llmclient: status %d: %s", resp.StatusCode, string(raw))
		}

		var parsed generateResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return fmt.Errorf("llmclient: decode response: %w", err)
		}
		out = parsed.Response
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

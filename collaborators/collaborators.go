// Package collaborators holds the four outbound subsystem clients the
// executor dispatches to — memory, RAG, the client-side action executor,
// and ops — each guarded by its own circuit breaker so one degraded
// collaborator cannot cascade into the whole pipeline.
package collaborators

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

// ActionRequest is the payload sent to the client-executor and ops
// subsystems for a FS_*/SYS_* tool invocation.
type ActionRequest struct {
	ActionID string            `json:"action_id"`
	Params   map[string]string `json:"params"`
}

// ActionResponse is what both subsystems return for an ActionRequest.
type ActionResponse struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Error   string `json:"error"`
}

// SearchRequest queries the RAG subsystem for relevant passages.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// SearchResult is one RAG hit.
type SearchResult struct {
	Text        string  `json:"text"`
	Source      string  `json:"source"`
	Reliability float64 `json:"reliability"`
}

// SearchResponse wraps the RAG subsystem's hits.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// ContextRequest asks the memory subsystem for a session's identity
// context.
type ContextRequest struct {
	SessionID string `json:"session_id"`
}

// ContextResponse carries memory's identity/preference summary lines.
type ContextResponse struct {
	Summaries []string `json:"summaries"`
}

// ProposeMemoryRequest fire-and-forgets a derived memory update.
type ProposeMemoryRequest struct {
	EntityID    string  `json:"entity_id"`
	Dimension   string  `json:"dimension"`
	Delta       float64 `json:"delta"`
	ContextHash string  `json:"context_hash"`
	Confidence  float64 `json:"confidence"`
}

// httpClient is the shared transport underlying every collaborator
// client: a circuit breaker gates each call, otelhttp instruments it, and
// resilience.Retry covers transient failures.
type httpClient struct {
	baseURL string
	client  *http.Client
	breaker *resilience.CircuitBreaker
	retry   *resilience.RetryConfig
	logger  logging.Logger
}

func newHTTPClient(name, baseURL string, timeout time.Duration, logger logging.Logger) *httpClient {
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}
	return &httpClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig(name)),
		retry:   resilience.DefaultRetryConfig(),
		logger:  logger,
	}
}

func (c *httpClient) postJSON(ctx context.Context, path string, reqBody, respBody interface{}) error {
	if !c.breaker.Allow() {
		return fmt.Errorf("collaborators: circuit open for %s", c.baseURL)
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("collaborators: marshal request: %w", err)
	}

	err = resilience.Retry(ctx, c.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("collaborators: %s returned status %d: %s", path, resp.StatusCode, string(raw))
		}
		if respBody != nil {
			return json.Unmarshal(raw, respBody)
		}
		return nil
	})

	if err != nil {
		c.breaker.RecordFailure()
		c.logger.Warn("collaborator call failed", map[string]interface{}{"path": path, "error": err.Error()})
		return err
	}
	c.breaker.RecordSuccess()
	return nil
}

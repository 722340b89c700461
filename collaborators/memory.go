package collaborators

import (
	"context"
	"time"

	"github.com/kuro-ai/brain/logging"
)

// MemoryClient talks to the long-term memory subsystem: identity context
// retrieval and fire-and-forget proposal submission.
type MemoryClient struct {
	*httpClient
}

// NewMemoryClient builds a MemoryClient targeting addr.
func NewMemoryClient(addr string, timeout time.Duration, logger logging.Logger) *MemoryClient {
	return &MemoryClient{newHTTPClient("memory", addr, timeout, logger)}
}

// GetContext fetches the identity/preference summary for sessionID.
func (c *MemoryClient) GetContext(ctx context.Context, sessionID string) (ContextResponse, error) {
	var resp ContextResponse
	err := c.postJSON(ctx, "/context", ContextRequest{SessionID: sessionID}, &resp)
	return resp, err
}

// ProposeMemory submits a derived memory update. Callers treat this as
// fire-and-forget: a failure is logged by the underlying client but never
// surfaces through the pipeline's ExecutionResult stream.
func (c *MemoryClient) ProposeMemory(ctx context.Context, req ProposeMemoryRequest) error {
	return c.postJSON(ctx, "/propose", req, nil)
}

package collaborators

import (
	"context"
	"time"

	"github.com/kuro-ai/brain/logging"
)

// ClientExecutorClient dispatches FS_* tool actions to the user's local
// client-side executor.
type ClientExecutorClient struct {
	*httpClient
}

// NewClientExecutorClient builds a ClientExecutorClient targeting addr.
func NewClientExecutorClient(addr string, timeout time.Duration, logger logging.Logger) *ClientExecutorClient {
	return &ClientExecutorClient{newHTTPClient("client-executor", addr, timeout, logger)}
}

// ExecuteAction runs one FS_* tool action and returns its outcome.
func (c *ClientExecutorClient) ExecuteAction(ctx context.Context, actionID string, params map[string]string) (ActionResponse, error) {
	var resp ActionResponse
	err := c.postJSON(ctx, "/execute", ActionRequest{ActionID: actionID, Params: params}, &resp)
	return resp, err
}

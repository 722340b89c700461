package collaborators

import (
	"context"
	"time"

	"github.com/kuro-ai/brain/logging"
)

// OpsClient dispatches SYS_* system-level actions (resource stats,
// host-level operations) to the ops subsystem.
type OpsClient struct {
	*httpClient
}

// NewOpsClient builds an OpsClient targeting addr.
func NewOpsClient(addr string, timeout time.Duration, logger logging.Logger) *OpsClient {
	return &OpsClient{newHTTPClient("ops", addr, timeout, logger)}
}

// ExecuteSystemAction runs one SYS_* action and returns its outcome.
func (c *OpsClient) ExecuteSystemAction(ctx context.Context, actionID string, params map[string]string) (ActionResponse, error) {
	var resp ActionResponse
	err := c.postJSON(ctx, "/execute", ActionRequest{ActionID: actionID, Params: params}, &resp)
	return resp, err
}

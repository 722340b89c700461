package collaborators

import (
	"context"
	"time"

	"github.com/kuro-ai/brain/logging"
)

// RAGClient talks to the retrieval-augmented-generation subsystem.
type RAGClient struct {
	*httpClient
}

// NewRAGClient builds a RAGClient targeting addr.
func NewRAGClient(addr string, timeout time.Duration, logger logging.Logger) *RAGClient {
	return &RAGClient{newHTTPClient("rag", addr, timeout, logger)}
}

// SearchKnowledge returns up to topK passages relevant to query.
func (c *RAGClient) SearchKnowledge(ctx context.Context, query string, topK int) (SearchResponse, error) {
	var resp SearchResponse
	err := c.postJSON(ctx, "/search", SearchRequest{Query: query, TopK: topK}, &resp)
	return resp, err
}

package llmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuro-ai/brain/resilience"
)

func TestGenerateReturnsResponseText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		assert.Equal(t, "hello", req.Prompt)

		_ = json.NewEncoder(w).Encode(generateResponse{Response: "hi there"})
	}))
	defer srv.Close()

	c := New(srv.URL, "llama3", 2*time.Second)
	out, err := c.Generate(context.Background(), "hello", Options{Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, "hi there", out)
}

func TestGenerateIncludesStopSequencesWhenSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.ElementsMatch(t, []interface{}{"\n\n"}, req.Options["stop"])
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "ok"})
	}))
	defer srv.Close()

	c := New(srv.URL, "llama3", 2*time.Second)
	_, err := c.Generate(context.Background(), "hello", Options{Stop: []string{"\n\n"}})
	require.NoError(t, err)
}

func TestGenerateRetriesOnServerErrorThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "recovered"})
	}))
	defer srv.Close()

	c := New(srv.URL, "llama3", 2*time.Second, WithRetry(&resilience.RetryConfig{
		MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffFactor: 2,
	}))
	out, err := c.Generate(context.Background(), "hello", Options{})
	require.NoError(t, err)
	assert.Equal(t, "recovered", out)
	assert.Equal(t, 2, attempts)
}

func TestGenerateExhaustsRetriesOnPersistentFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "llama3", 2*time.Second, WithRetry(&resilience.RetryConfig{
		MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffFactor: 2,
	}))
	_, err := c.Generate(context.Background(), "hello", Options{})
	assert.Error(t, err)
}

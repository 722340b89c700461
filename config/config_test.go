package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPopulatesDocumentedDefaults(t *testing.T) {
	c := Default()
	assert.Equal(t, "0.0.0.0:50051", c.BindAddress)
	assert.Equal(t, 20*time.Second, c.PlannerLLMTimeout)
	assert.Equal(t, 6, c.MaxNodes)
	assert.Equal(t, 4, c.MaxDepth)
	assert.Equal(t, 2, c.RetryBudget)
	assert.Equal(t, 3, c.MaxIterations)
}

func TestLoadOverlaysEnvironmentVariables(t *testing.T) {
	t.Setenv("BRAIN_BIND_ADDRESS", "127.0.0.1:9000")
	t.Setenv("BRAIN_MAX_NODES", "9")
	t.Setenv("BRAIN_TELEMETRY_ENABLED", "true")

	c := Load()
	assert.Equal(t, "127.0.0.1:9000", c.BindAddress)
	assert.Equal(t, 9, c.MaxNodes)
	assert.True(t, c.TelemetryEnabled)
}

func TestLoadIgnoresMalformedEnvValues(t *testing.T) {
	t.Setenv("BRAIN_MAX_DEPTH", "not-a-number")
	t.Setenv("BRAIN_PLANNER_LLM_TIMEOUT", "not-a-duration")

	c := Load()
	assert.Equal(t, 4, c.MaxDepth)
	assert.Equal(t, 20*time.Second, c.PlannerLLMTimeout)
}

func TestFunctionalOptionsOverrideEnv(t *testing.T) {
	t.Setenv("BRAIN_BIND_ADDRESS", "127.0.0.1:9000")

	c := Load(WithBindAddress("0.0.0.0:1234"))
	assert.Equal(t, "0.0.0.0:1234", c.BindAddress)
}

func TestWithPlannerLLMSetsURLAndModel(t *testing.T) {
	c := Load(WithPlannerLLM("http://example/api", "llama3"))
	assert.Equal(t, "http://example/api", c.PlannerLLMURL)
	assert.Equal(t, "llama3", c.PlannerLLMModel)
}

func TestRedisURLFallsBackToPlainEnvVar(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://fallback:6379/2")

	c := Load()
	assert.Equal(t, "redis://fallback:6379/2", c.RedisURL)
}

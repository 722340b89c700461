// Package config loads the Brain's runtime configuration from environment
// variables over documented defaults, following the three-layer priority
// (defaults -> env vars -> functional options) used elsewhere in this
// codebase.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every tunable the pipeline and its collaborator clients need.
type Config struct {
	// Bind address for the inbound ChatStream server.
	BindAddress string `env:"BRAIN_BIND_ADDRESS" default:"0.0.0.0:50051"`

	// Planner LLM.
	PlannerLLMURL     string        `env:"BRAIN_PLANNER_LLM_URL" default:"http://127.0.0.1:11434/api/generate"`
	PlannerLLMModel   string        `env:"BRAIN_PLANNER_LLM_MODEL" default:"phi3:3.8b"`
	PlannerLLMTimeout time.Duration `env:"BRAIN_PLANNER_LLM_TIMEOUT" default:"20s"`

	// Narrator LLM.
	NarratorLLMURL         string        `env:"BRAIN_NARRATOR_LLM_URL" default:"http://127.0.0.1:11434/api/generate"`
	NarratorLLMModel       string        `env:"BRAIN_NARRATOR_LLM_MODEL" default:"phi3:3.8b"`
	NarratorChatTimeout    time.Duration `env:"BRAIN_NARRATOR_CHAT_TIMEOUT" default:"5s"`
	NarratorTaskTimeout    time.Duration `env:"BRAIN_NARRATOR_TASK_TIMEOUT" default:"10s"`

	// Downstream collaborator endpoints.
	MemoryServiceAddr   string `env:"BRAIN_MEMORY_ADDR" default:"localhost:50053"`
	RagServiceAddr      string `env:"BRAIN_RAG_ADDR" default:"localhost:50052"`
	ClientExecutorAddr  string `env:"BRAIN_CLIENT_EXECUTOR_ADDR" default:"localhost:50054"`
	OpsServiceAddr      string `env:"BRAIN_OPS_ADDR" default:"localhost:50055"`
	CollaboratorTimeout time.Duration `env:"BRAIN_COLLABORATOR_TIMEOUT" default:"5s"`

	// Tuning constants from SPEC_FULL.md sec. 6.
	MaxNodes      int `env:"BRAIN_MAX_NODES" default:"6"`
	MaxDepth      int `env:"BRAIN_MAX_DEPTH" default:"4"`
	RetryBudget   int `env:"BRAIN_RETRY_BUDGET" default:"2"`
	MaxIterations int `env:"BRAIN_MAX_ITERATIONS" default:"3"`

	// Session / adaptive-loop cache.
	RedisURL       string        `env:"BRAIN_REDIS_URL,REDIS_URL" default:"redis://localhost:6379/0"`
	SessionTTL     time.Duration `env:"BRAIN_SESSION_TTL" default:"5m"`
	MemCtxCacheTTL time.Duration `env:"BRAIN_MEMCTX_CACHE_TTL" default:"30s"`

	// Optional static overrides.
	ToolRegistryOverridePath string `env:"BRAIN_TOOL_REGISTRY_FILE"`

	// Logging / telemetry.
	ServiceName      string `env:"BRAIN_SERVICE_NAME" default:"brain"`
	LogLevel         string `env:"GOMIND_LOG_LEVEL" default:"INFO"`
	LogFormat        string `env:"GOMIND_LOG_FORMAT"`
	TelemetryEnabled bool   `env:"BRAIN_TELEMETRY_ENABLED" default:"false"`
	OTLPEndpoint     string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Option mutates a Config after defaults and environment variables have
// been applied, the highest-priority layer.
type Option func(*Config)

// Default returns a Config populated with documented defaults only.
func Default() *Config {
	return &Config{
		BindAddress:         "0.0.0.0:50051",
		PlannerLLMURL:       "http://127.0.0.1:11434/api/generate",
		PlannerLLMModel:     "phi3:3.8b",
		PlannerLLMTimeout:   20 * time.Second,
		NarratorLLMURL:      "http://127.0.0.1:11434/api/generate",
		NarratorLLMModel:    "phi3:3.8b",
		NarratorChatTimeout: 5 * time.Second,
		NarratorTaskTimeout: 10 * time.Second,
		MemoryServiceAddr:   "localhost:50053",
		RagServiceAddr:      "localhost:50052",
		ClientExecutorAddr:  "localhost:50054",
		OpsServiceAddr:      "localhost:50055",
		CollaboratorTimeout: 5 * time.Second,
		MaxNodes:            6,
		MaxDepth:            4,
		RetryBudget:         2,
		MaxIterations:       3,
		RedisURL:            "redis://localhost:6379/0",
		SessionTTL:          5 * time.Minute,
		MemCtxCacheTTL:      30 * time.Second,
		ServiceName:         "brain",
		LogLevel:            "INFO",
	}
}

// Load builds a Config from defaults, overlays environment variables, and
// finally applies any functional options.
func Load(opts ...Option) *Config {
	c := Default()
	c.loadFromEnv()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Config) loadFromEnv() {
	if v := firstNonEmpty("BRAIN_BIND_ADDRESS"); v != "" {
		c.BindAddress = v
	}
	if v := firstNonEmpty("BRAIN_PLANNER_LLM_URL"); v != "" {
		c.PlannerLLMURL = v
	}
	if v := firstNonEmpty("BRAIN_PLANNER_LLM_MODEL"); v != "" {
		c.PlannerLLMModel = v
	}
	if d, ok := envDuration("BRAIN_PLANNER_LLM_TIMEOUT"); ok {
		c.PlannerLLMTimeout = d
	}
	if v := firstNonEmpty("BRAIN_NARRATOR_LLM_URL"); v != "" {
		c.NarratorLLMURL = v
	}
	if v := firstNonEmpty("BRAIN_NARRATOR_LLM_MODEL"); v != "" {
		c.NarratorLLMModel = v
	}
	if d, ok := envDuration("BRAIN_NARRATOR_CHAT_TIMEOUT"); ok {
		c.NarratorChatTimeout = d
	}
	if d, ok := envDuration("BRAIN_NARRATOR_TASK_TIMEOUT"); ok {
		c.NarratorTaskTimeout = d
	}
	if v := firstNonEmpty("BRAIN_MEMORY_ADDR"); v != "" {
		c.MemoryServiceAddr = v
	}
	if v := firstNonEmpty("BRAIN_RAG_ADDR"); v != "" {
		c.RagServiceAddr = v
	}
	if v := firstNonEmpty("BRAIN_CLIENT_EXECUTOR_ADDR"); v != "" {
		c.ClientExecutorAddr = v
	}
	if v := firstNonEmpty("BRAIN_OPS_ADDR"); v != "" {
		c.OpsServiceAddr = v
	}
	if d, ok := envDuration("BRAIN_COLLABORATOR_TIMEOUT"); ok {
		c.CollaboratorTimeout = d
	}
	if n, ok := envInt("BRAIN_MAX_NODES"); ok {
		c.MaxNodes = n
	}
	if n, ok := envInt("BRAIN_MAX_DEPTH"); ok {
		c.MaxDepth = n
	}
	if n, ok := envInt("BRAIN_RETRY_BUDGET"); ok {
		c.RetryBudget = n
	}
	if n, ok := envInt("BRAIN_MAX_ITERATIONS"); ok {
		c.MaxIterations = n
	}
	if v := firstNonEmpty("BRAIN_REDIS_URL", "REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if d, ok := envDuration("BRAIN_SESSION_TTL"); ok {
		c.SessionTTL = d
	}
	if d, ok := envDuration("BRAIN_MEMCTX_CACHE_TTL"); ok {
		c.MemCtxCacheTTL = d
	}
	if v := firstNonEmpty("BRAIN_TOOL_REGISTRY_FILE"); v != "" {
		c.ToolRegistryOverridePath = v
	}
	if v := firstNonEmpty("BRAIN_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := firstNonEmpty("GOMIND_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := firstNonEmpty("GOMIND_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := firstNonEmpty("BRAIN_TELEMETRY_ENABLED"); v != "" {
		c.TelemetryEnabled = v == "true" || v == "1"
	}
	if v := firstNonEmpty("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.OTLPEndpoint = v
	}
}

func firstNonEmpty(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// WithBindAddress overrides the inbound server bind address.
func WithBindAddress(addr string) Option {
	return func(c *Config) { c.BindAddress = addr }
}

// WithPlannerLLM overrides the planner LLM endpoint and model.
func WithPlannerLLM(url, model string) Option {
	return func(c *Config) {
		c.PlannerLLMURL = url
		c.PlannerLLMModel = model
	}
}

// WithNarratorLLM overrides the narrator LLM endpoint and model.
func WithNarratorLLM(url, model string) Option {
	return func(c *Config) {
		c.NarratorLLMURL = url
		c.NarratorLLMModel = model
	}
}

// Command brain runs the Cognition Orchestrator: the adaptive
// router/planner/arbiter/executor/analyst/narrator pipeline described in
// this repository's specification, served over a bounded-worker-pool
// ChatStream.
//
// Environment Variables:
//
//	BRAIN_BIND_ADDRESS         - inbound ChatStream bind address (default: 0.0.0.0:50051)
//	BRAIN_PLANNER_LLM_URL      - planner completion endpoint (default: http://127.0.0.1:11434/api/generate)
//	BRAIN_PLANNER_LLM_MODEL    - planner model name (default: phi3:3.8b)
//	BRAIN_NARRATOR_LLM_URL     - narrator completion endpoint
//	BRAIN_NARRATOR_LLM_MODEL   - narrator model name
//	BRAIN_MEMORY_ADDR          - memory collaborator address
//	BRAIN_RAG_ADDR             - RAG collaborator address
//	BRAIN_CLIENT_EXECUTOR_ADDR - client-executor collaborator address
//	BRAIN_OPS_ADDR             - ops collaborator address
//	BRAIN_REDIS_URL, REDIS_URL - session store connection
//	BRAIN_TOOL_REGISTRY_FILE   - optional YAML tool registry override
//	BRAIN_SERVICE_NAME         - service name for logs/traces (default: brain)
//	OTEL_EXPORTER_OTLP_ENDPOINT - OTLP/gRPC collector; stdout spans if unset
//	BRAIN_TELEMETRY_ENABLED    - "true" to export traces/metrics at all
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kuro-ai/brain/analyst"
	"github.com/kuro-ai/brain/arbiter"
	"github.com/kuro-ai/brain/collaborators"
	"github.com/kuro-ai/brain/config"
	"github.com/kuro-ai/brain/executor"
	"github.com/kuro-ai/brain/llmclient"
	"github.com/kuro-ai/brain/logging"
	"github.com/kuro-ai/brain/memoryadmission"
	"github.com/kuro-ai/brain/narrator"
	"github.com/kuro-ai/brain/orchestrator"
	"github.com/kuro-ai/brain/planner"
	"github.com/kuro-ai/brain/registry"
	"github.com/kuro-ai/brain/router"
	"github.com/kuro-ai/brain/session"
	"github.com/kuro-ai/brain/telemetry"
	"github.com/kuro-ai/brain/transport"
	"github.com/kuro-ai/brain/types"
	"github.com/kuro-ai/brain/validator"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.ServiceName)

	tp, err := initTelemetry(cfg)
	if err != nil {
		log.Fatalf("brain: telemetry init failed: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("telemetry shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	reg, err := registry.New(cfg.ToolRegistryOverridePath)
	if err != nil {
		log.Fatalf("brain: tool registry init failed: %v", err)
	}

	store, err := session.New(cfg.RedisURL, logger)
	if err != nil {
		log.Fatalf("brain: session store init failed: %v", err)
	}
	defer store.Close()

	plannerLLM := llmclient.New(cfg.PlannerLLMURL, cfg.PlannerLLMModel, cfg.PlannerLLMTimeout, llmclient.WithLogger(logger))
	narratorLLM := llmclient.New(cfg.NarratorLLMURL, cfg.NarratorLLMModel, cfg.NarratorTaskTimeout, llmclient.WithLogger(logger))

	memoryClient := collaborators.NewMemoryClient(cfg.MemoryServiceAddr, cfg.CollaboratorTimeout, logger)
	ragClient := collaborators.NewRAGClient(cfg.RagServiceAddr, cfg.CollaboratorTimeout, logger)
	clientExecutor := collaborators.NewClientExecutorClient(cfg.ClientExecutorAddr, cfg.CollaboratorTimeout, logger)
	opsClient := collaborators.NewOpsClient(cfg.OpsServiceAddr, cfg.CollaboratorTimeout, logger)

	v := validator.New(reg).WithBounds(cfg.MaxNodes, cfg.MaxDepth)

	orch := orchestrator.New(
		router.New(),
		planner.New(plannerLLM, v, reg, logger, tp),
		arbiter.New(tp),
		executor.New(reg, memoryClient, ragClient, clientExecutor, opsClient, logger, tp),
		analyst.New(reg, tp),
		memoryadmission.New(),
		narrator.New(narratorLLM, logger, tp),
		sessionMemoryAdapter{memory: memoryClient, store: store, ttl: cfg.MemCtxCacheTTL},
		logger,
		tp,
	)

	server := transport.NewServer(orch, transport.ServerConfig{}, logger, tp)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(server.Stats()))
	})
	httpServer := &http.Server{Addr: cfg.BindAddress, Handler: mux}

	go func() {
		logger.Info("brain listening", map[string]interface{}{"address": cfg.BindAddress})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("brain: server failed: %v", err)
		}
	}()

	waitForShutdown(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", map[string]interface{}{"error": err.Error()})
	}
}

func initTelemetry(cfg *config.Config) (*telemetry.Provider, error) {
	if !cfg.TelemetryEnabled {
		return telemetry.NoOp(), nil
	}
	return telemetry.Init(cfg.ServiceName, cfg.OTLPEndpoint)
}

func waitForShutdown(logger logging.Logger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	logger.Info("shutdown signal received", map[string]interface{}{"signal": s.String()})
}

// sessionMemoryAdapter satisfies orchestrator.MemoryClient, layering the
// session store's short-TTL cache in front of the memory collaborator so
// further messages of the same session within the TTL don't refetch context.
type sessionMemoryAdapter struct {
	memory *collaborators.MemoryClient
	store  *session.Store
	ttl    time.Duration
}

func (a sessionMemoryAdapter) GetContext(ctx context.Context, sessionID string) (orchestrator.MemoryContext, error) {
	if cached, found, err := a.store.GetMemoryContext(ctx, sessionID); err == nil && found {
		return orchestrator.MemoryContext{Summaries: cached.Summaries}, nil
	}

	resp, err := a.memory.GetContext(ctx, sessionID)
	if err != nil {
		return orchestrator.MemoryContext{}, err
	}

	_ = a.store.CacheMemoryContext(ctx, sessionID, session.MemoryContext{Summaries: resp.Summaries}, a.ttl)
	return orchestrator.MemoryContext{Summaries: resp.Summaries}, nil
}

func (a sessionMemoryAdapter) ProposeMemory(ctx context.Context, req types.MemoryProposal) error {
	return a.memory.ProposeMemory(ctx, collaborators.ProposeMemoryRequest{
		EntityID:    req.EntityID,
		Dimension:   req.Dimension,
		Delta:       req.Delta,
		ContextHash: req.ContextHash,
		Confidence:  req.Confidence,
	})
}

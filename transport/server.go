// Package transport implements the inbound ChatStream server: a bounded
// worker pool over bidirectional message streams. One worker owns one
// stream for its lifetime; a process-wide semaphore caps how many streams
// run concurrently, mirroring the worker-pool shape the rest of this
// codebase uses for background task processing, applied here to inbound
// connections instead of a queue.
package transport

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/kuro-ai/brain/logging"
	"github.com/kuro-ai/brain/orchestrator"
	"github.com/kuro-ai/brain/telemetry"
	"github.com/kuro-ai/brain/types"
)

// defaultWorkerCount is the spec's minimum target pool size.
const defaultWorkerCount = 10

// ServerConfig tunes the worker pool.
type ServerConfig struct {
	// WorkerCount bounds how many ChatStream calls run concurrently.
	// Defaults to 10, the spec's stated target minimum.
	WorkerCount int
}

// Server accepts ChatStream connections and runs each one, sequentially,
// through the Orchestrator, subject to a process-wide concurrency bound.
type Server struct {
	orch   *orchestrator.Orchestrator
	logger logging.Logger
	tp     *telemetry.Provider

	slots chan struct{}

	activeStreams atomic.Int32
}

// NewServer builds a Server. logger/tp may be nil and default to no-ops.
func NewServer(orch *orchestrator.Orchestrator, cfg ServerConfig, logger logging.Logger, tp *telemetry.Provider) *Server {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaultWorkerCount
	}
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}
	if tp == nil {
		tp = telemetry.NoOp()
	}
	return &Server{
		orch:   orch,
		logger: logger,
		tp:     tp,
		slots:  make(chan struct{}, cfg.WorkerCount),
	}
}

// ActiveStreams reports how many ChatStream calls are currently being
// served.
func (s *Server) ActiveStreams() int32 {
	return s.activeStreams.Load()
}

// ChatStream runs one bidirectional stream to completion: it reads
// UserMessages from in, one at a time, and writes the corresponding
// BrainResponse to out before reading the next. Responses are therefore
// emitted strictly in the order their requests arrived on this stream.
//
// ChatStream blocks until a worker slot is free, ctx is cancelled, or in
// is closed. Cancellation aborts the pipeline at its next suspension
// point; no partial response is written for the in-flight message.
func (s *Server) ChatStream(ctx context.Context, in <-chan types.UserMessage, out chan<- types.BrainResponse) error {
	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.slots }()

	s.activeStreams.Add(1)
	defer s.activeStreams.Add(-1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-in:
			if !ok {
				return nil
			}
			resp := s.orch.Handle(ctx, msg)
			select {
			case out <- resp:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Stats returns a human-readable snapshot for health/readiness endpoints.
func (s *Server) Stats() string {
	return fmt.Sprintf("active_streams=%d capacity=%d", s.activeStreams.Load(), cap(s.slots))
}

package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// counters caches the one Int64Counter instrument per metric name per
// Provider, since otel meters want instruments created once and reused.
type counters struct {
	mu sync.Mutex
	m  map[string]metric.Int64Counter
}

var registry sync.Map // *Provider -> *counters

func (p *Provider) counterFor(name, description string) metric.Int64Counter {
	v, _ := registry.LoadOrStore(p, &counters{m: map[string]metric.Int64Counter{}})
	c := v.(*counters)

	c.mu.Lock()
	defer c.mu.Unlock()
	if inst, ok := c.m[name]; ok {
		return inst
	}
	inst, err := p.meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		return nil
	}
	c.m[name] = inst
	return inst
}

// IncrCounter adds 1 to the named counter, tagged with attrs. A nil
// Provider or failed instrument creation is a silent no-op.
func (p *Provider) IncrCounter(ctx context.Context, name, description string, attrs map[string]string) {
	if p == nil || p.meter == nil {
		return
	}
	inst := p.counterFor(name, description)
	if inst == nil {
		return
	}
	kv := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kv = append(kv, attribute.String(k, v))
	}
	inst.Add(ctx, 1, metric.WithAttributes(kv...))
}

// Pipeline-stage metric names, shared across the orchestrator, executor
// and arbiter so their instrument names stay consistent.
const (
	MetricPipelineIterations = "brain.pipeline.iterations"
	MetricArbiterVerdicts    = "brain.arbiter.verdicts"
	MetricExecutorStatuses   = "brain.executor.step_statuses"
)

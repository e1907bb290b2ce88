package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	api "go.opentelemetry.io/otel/metric"
)

type int64Observation struct {
	value int64
	attrs attribute.Set
}

// Int64SyncGauge is an observable gauge whose values are set synchronously.
// The latest value for each attribute set is reported on collection.
type Int64SyncGauge struct {
	gauge        api.Int64ObservableGauge
	mu           *sync.RWMutex
	observations map[attribute.Distinct]int64Observation
}

func NewInt64SyncGauge(meter api.Meter, name string, options ...api.Int64ObservableGaugeOption) (*Int64SyncGauge, error) {
	g := &Int64SyncGauge{
		mu:           &sync.RWMutex{},
		observations: make(map[attribute.Distinct]int64Observation),
	}
	options = append(options, api.WithInt64Callback(g.observe))
	gauge, err := meter.Int64ObservableGauge(name, options...)
	if err != nil {
		return nil, err
	}
	g.gauge = gauge
	return g, nil
}

func (g *Int64SyncGauge) observe(_ context.Context, observer api.Int64Observer) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, o := range g.observations {
		observer.Observe(o.value, api.WithAttributeSet(o.attrs))
	}
	return nil
}

func (g *Int64SyncGauge) Set(value int64, attr ...attribute.KeyValue) {
	attrs := attribute.NewSet(attr...)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.observations[attrs.Equivalent()] = int64Observation{value, attrs}
}

package eventbus

import (
	"context"

	"github.com/matthewbaird/formvis/internal/event"
	"github.com/matthewbaird/formvis/internal/metrics"
)

// MetricsConsumer counts domain events in Prometheus: visibility events
// as transitions, session events as lifecycle events.
type MetricsConsumer struct {
	metrics *metrics.Metrics
}

// NewMetricsConsumer creates a consumer recording into m.
func NewMetricsConsumer(m *metrics.Metrics) *MetricsConsumer {
	return &MetricsConsumer{metrics: m}
}

func (c *MetricsConsumer) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	switch evt.Category {
	case event.CategoryVisibility:
		c.metrics.IncTransition(evt.EventType)
	case event.CategorySession:
		c.metrics.IncSessionEvent(evt.EventType)
	}
	return nil
}

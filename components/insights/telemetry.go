package insights

import (
	"context"

	"github.com/ettle/strcase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Telemetry records dashboard events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

// TelemetryFunc adapts a function into Telemetry.
type TelemetryFunc func(ctx context.Context, event string, payload map[string]any)

// Record implements Telemetry.
func (f TelemetryFunc) Record(ctx context.Context, event string, payload map[string]any) {
	f(ctx, event, payload)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// ZapTelemetry logs every event at debug level.
type ZapTelemetry struct {
	Logger *zap.Logger
}

// Record implements Telemetry.
func (t ZapTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	if t.Logger == nil {
		return
	}
	fields := make([]zap.Field, 0, len(payload)+1)
	fields = append(fields, zap.String("event", event))
	for k, v := range payload {
		fields = append(fields, zap.Any(k, v))
	}
	t.Logger.Debug("telemetry", fields...)
}

// PrometheusTelemetry counts events by name.
type PrometheusTelemetry struct {
	events *prometheus.CounterVec
}

// NewPrometheusTelemetry registers the event counter on reg. A nil registerer
// uses a private registry.
func NewPrometheusTelemetry(reg prometheus.Registerer) *PrometheusTelemetry {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &PrometheusTelemetry{
		events: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "insightx",
			Name:      "events_total",
			Help:      "Dashboard events by name.",
		}, []string{"event"}),
	}
}

// Record implements Telemetry.
func (t *PrometheusTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	if t == nil {
		return
	}
	t.events.WithLabelValues(strcase.ToSnake(event)).Inc()
}

// Counter exposes the underlying vector for tests and custom collectors.
func (t *PrometheusTelemetry) Counter() *prometheus.CounterVec {
	return t.events
}

// MultiTelemetry fans out to several sinks.
type MultiTelemetry []Telemetry

// Record implements Telemetry.
func (m MultiTelemetry) Record(ctx context.Context, event string, payload map[string]any) {
	for _, t := range m {
		if t != nil {
			t.Record(ctx, event, payload)
		}
	}
}

package insights

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPrometheusTelemetryCountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	telemetry := NewPrometheusTelemetry(reg)
	ctx := context.Background()

	telemetry.Record(ctx, "insights.apply_filters", nil)
	telemetry.Record(ctx, "insights.apply_filters", nil)
	telemetry.Record(ctx, "insights.next_page", nil)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	assert.Equal(t, "insightx_events_total", families[0].GetName())

	counts := map[string]float64{}
	for _, m := range families[0].GetMetric() {
		for _, label := range m.GetLabel() {
			if label.GetName() == "event" {
				counts[label.GetValue()] = m.GetCounter().GetValue()
			}
		}
	}
	assert.Len(t, counts, 2)
	var total float64
	for _, v := range counts {
		total += v
	}
	assert.Equal(t, 3.0, total)
}

func TestZapTelemetryLogsPayload(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ZapTelemetry{Logger: zap.New(core)}.Record(context.Background(), "insights.refresh", map[string]any{"session": "s1"})

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "insights.refresh", fields["event"])
	assert.Equal(t, "s1", fields["session"])

	ZapTelemetry{}.Record(context.Background(), "ignored", nil)
}

func TestMultiTelemetryFansOut(t *testing.T) {
	var got []string
	sink := TelemetryFunc(func(_ context.Context, event string, _ map[string]any) {
		got = append(got, event)
	})
	MultiTelemetry{sink, nil, sink}.Record(context.Background(), "insights.reset_filters", nil)
	assert.Equal(t, []string{"insights.reset_filters", "insights.reset_filters"}, got)
}

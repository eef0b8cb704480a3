package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogTracker(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	tr := NewLogTracker(zap.New(core))

	require.NoError(t, tr.Track(context.Background(), Purchase{
		TransactionID: "ORD-1700000000000-abc123xyz",
		Items:         []Item{{ProductID: "1", Quantity: 1, Price: 8999}},
		Shipping:      0,
		Tax:           450,
		Total:         9449,
	}))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "purchase", fields["event"])
	assert.Equal(t, int64(9449), fields["value"])
	assert.Equal(t, "INR", fields["currency"])
	assert.Equal(t, "ORD-1700000000000-abc123xyz", fields["transaction_id"])
	assert.Equal(t, int64(450), fields["tax"])
}

func TestMeterTracker(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	tr, err := NewMeterTracker(provider.Meter("test"))
	require.NoError(t, err)

	require.NoError(t, tr.Track(ctx, AddToCart{Item: Item{ProductID: "1", Quantity: 2, Price: 1500}}))
	require.NoError(t, tr.Track(ctx, Search{Term: "cotton"}))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := make(map[string]metricdata.Metrics)
	for _, m := range rm.ScopeMetrics[0].Metrics {
		byName[m.Name] = m
	}

	events, ok := byName["store.analytics.events"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, events.DataPoints, 2)

	value, ok := byName["store.analytics.value"].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, value.DataPoints, 1)
	assert.Equal(t, int64(3000), value.DataPoints[0].Sum)
}

func TestSpanTracker(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	ctx, span := provider.Tracer("test").Start(context.Background(), "request")
	require.NoError(t, SpanTracker{}.Track(ctx, ViewItem{Item: Item{ProductID: "7", Price: 2499}}))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	events := spans[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "analytics.view_item", events[0].Name)

	// No active span.
	require.NoError(t, SpanTracker{}.Track(context.Background(), ViewItem{}))
}

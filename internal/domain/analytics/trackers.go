package analytics

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	_ Tracker = (*LogTracker)(nil)
	_ Tracker = (*MeterTracker)(nil)
	_ Tracker = SpanTracker{}
)

// LogTracker writes every event as a structured log entry.
type LogTracker struct {
	lg *zap.Logger
}

// NewLogTracker creates a LogTracker writing to lg.
func NewLogTracker(lg *zap.Logger) *LogTracker {
	return &LogTracker{lg: lg}
}

func (t *LogTracker) Track(_ context.Context, e Event) error {
	fields := []zap.Field{
		zap.String("event", string(e.Kind())),
		zap.Int64("value", e.Value()),
		zap.String("currency", Currency),
	}
	switch e := e.(type) {
	case AddToCart:
		fields = append(fields, itemFields(e.Item)...)
	case RemoveFromCart:
		fields = append(fields, itemFields(e.Item)...)
	case ViewItem:
		fields = append(fields, itemFields(e.Item)...)
	case BeginCheckout:
		fields = append(fields, zap.Int("items", len(e.Items)))
	case Purchase:
		fields = append(fields,
			zap.String("transaction_id", e.TransactionID),
			zap.Int("items", len(e.Items)),
			zap.Int64("shipping", e.Shipping),
			zap.Int64("tax", e.Tax),
		)
	case Search:
		fields = append(fields,
			zap.String("search_term", e.Term),
			zap.Int("results", e.Results),
		)
	}
	t.lg.Info("Analytics event", fields...)
	return nil
}

func itemFields(it Item) []zap.Field {
	return []zap.Field{
		zap.String("item_id", it.ProductID),
		zap.String("item_name", it.Name),
		zap.String("item_category", it.Category),
		zap.Int("quantity", it.Quantity),
		zap.Int64("price", it.Price),
	}
}

// MeterTracker counts events and records their monetary value.
type MeterTracker struct {
	events metric.Int64Counter
	value  metric.Int64Histogram
}

// NewMeterTracker registers the analytics instruments on meter.
func NewMeterTracker(meter metric.Meter) (*MeterTracker, error) {
	events, err := meter.Int64Counter("store.analytics.events",
		metric.WithDescription("Storefront analytics events"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "events counter")
	}
	value, err := meter.Int64Histogram("store.analytics.value",
		metric.WithDescription("Monetary value of storefront analytics events"),
		metric.WithUnit("{INR}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "value histogram")
	}
	return &MeterTracker{events: events, value: value}, nil
}

func (t *MeterTracker) Track(ctx context.Context, e Event) error {
	attrs := metric.WithAttributes(attribute.String("event", string(e.Kind())))
	t.events.Add(ctx, 1, attrs)
	if v := e.Value(); v > 0 {
		t.value.Record(ctx, v, attrs)
	}
	return nil
}

// SpanTracker annotates the active span with an event. Requests without a
// recording span are ignored.
type SpanTracker struct{}

func (SpanTracker) Track(ctx context.Context, e Event) error {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return nil
	}
	attrs := []attribute.KeyValue{
		attribute.Int64("analytics.value", e.Value()),
	}
	switch e := e.(type) {
	case AddToCart:
		attrs = append(attrs, attribute.String("analytics.item_id", e.Item.ProductID))
	case RemoveFromCart:
		attrs = append(attrs, attribute.String("analytics.item_id", e.Item.ProductID))
	case ViewItem:
		attrs = append(attrs, attribute.String("analytics.item_id", e.Item.ProductID))
	case Purchase:
		attrs = append(attrs, attribute.String("analytics.transaction_id", e.TransactionID))
	case Search:
		attrs = append(attrs, attribute.String("analytics.search_term", e.Term))
	}
	span.AddEvent("analytics."+string(e.Kind()), trace.WithAttributes(attrs...))
	return nil
}

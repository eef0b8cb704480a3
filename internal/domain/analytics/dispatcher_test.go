package analytics

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xenking/yourchoice-store/internal/domain/cart"
	"github.com/xenking/yourchoice-store/internal/domain/product"
)

type recordingTracker struct {
	events []Event
}

func (r *recordingTracker) Track(_ context.Context, e Event) error {
	r.events = append(r.events, e)
	return nil
}

func TestDispatcher_IsolatesFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ctx := zctx.Base(context.Background(), zap.New(core))

	first := &recordingTracker{}
	last := &recordingTracker{}
	d := NewDispatcher(
		first,
		TrackerFunc(func(context.Context, Event) error { return errors.New("collector down") }),
		TrackerFunc(func(context.Context, Event) error { panic("boom") }),
		last,
	)

	e := Search{Term: "silk", Results: 3}
	require.NotPanics(t, func() { d.Notify(ctx, e) })

	assert.Equal(t, []Event{e}, first.events)
	assert.Equal(t, []Event{e}, last.events)

	entries := logs.FilterMessage("Analytics tracker failed").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "search", entries[0].ContextMap()["event"])
	assert.Contains(t, entries[1].ContextMap()["error"], "tracker panic: boom")
}

func TestDispatcher_Nil(t *testing.T) {
	var d *Dispatcher
	assert.NotPanics(t, func() { d.Notify(context.Background(), ViewItem{}) })
}

func TestEventValues(t *testing.T) {
	p := product.Product{ID: "1", Name: "Kanjivaram", Price: 8999, Category: product.CategorySilk}
	line := cart.Line{Product: p, Quantity: 2, Size: "Blouse: M"}

	item := ItemFromLine(line)
	assert.Equal(t, Item{
		ProductID: "1",
		Name:      "Kanjivaram",
		Category:  "silk",
		Size:      "Blouse: M",
		Quantity:  2,
		Price:     8999,
	}, item)

	for _, tt := range []struct {
		event Event
		kind  Kind
		value int64
	}{
		{AddToCart{Item: item}, KindAddToCart, 17998},
		{RemoveFromCart{Item: item}, KindRemoveFromCart, 17998},
		{ViewItem{Item: ItemFromProduct(p, 1)}, KindViewItem, 8999},
		{BeginCheckout{Items: ItemsFromLines([]cart.Line{line}), Total: 18898}, KindBeginCheckout, 18898},
		{Purchase{TransactionID: "ORD-1", Total: 18898}, KindPurchase, 18898},
		{Search{Term: "red"}, KindSearch, 0},
	} {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.event.Kind())
			assert.Equal(t, tt.value, tt.event.Value())
		})
	}
}

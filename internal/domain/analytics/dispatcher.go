package analytics

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Tracker receives events.
type Tracker interface {
	Track(ctx context.Context, e Event) error
}

// TrackerFunc adapts a function to Tracker.
type TrackerFunc func(ctx context.Context, e Event) error

func (f TrackerFunc) Track(ctx context.Context, e Event) error { return f(ctx, e) }

// Dispatcher fans events out to trackers. Tracker errors and panics are
// logged and swallowed so that tracking never changes the outcome of the
// operation that produced the event. A nil Dispatcher drops every event.
type Dispatcher struct {
	trackers []Tracker
}

// NewDispatcher creates a Dispatcher notifying trackers in order.
func NewDispatcher(trackers ...Tracker) *Dispatcher {
	return &Dispatcher{trackers: trackers}
}

// Notify delivers e to every tracker.
func (d *Dispatcher) Notify(ctx context.Context, e Event) {
	if d == nil {
		return
	}
	for _, t := range d.trackers {
		if err := track(ctx, t, e); err != nil {
			zctx.From(ctx).Warn("Analytics tracker failed",
				zap.String("event", string(e.Kind())),
				zap.Error(err),
			)
		}
	}
}

func track(ctx context.Context, t Tracker, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("tracker panic: %v", r)
		}
	}()
	return t.Track(ctx, e)
}

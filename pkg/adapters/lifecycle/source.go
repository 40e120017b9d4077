// Package lifecycle bridges nudge event streams into lifecycle.Source.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"
)

type eventSource[E lifecycle.Event] struct {
	events <-chan E
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that re-emits events from a typed
// channel. Both core.Event and reminder.DueEvent satisfy lifecycle.Event.
// The output closes when the input closes or the Start context ends.
func NewSource[E lifecycle.Event](events <-chan E) lifecycle.Source {
	return &eventSource[E]{
		events: events,
		out:    make(chan lifecycle.Event),
	}
}

func (s *eventSource[E]) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *eventSource[E]) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}

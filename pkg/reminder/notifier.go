package reminder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Notifier presents a due event to the user. Delivery is fire-and-forget:
// errors are logged by the runner and never retried.
type Notifier interface {
	Notify(ctx context.Context, e DueEvent) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, e DueEvent) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, e DueEvent) error {
	return f(ctx, e)
}

// LogNotifier writes due events to a structured logger.
func LogNotifier(logger *slog.Logger) Notifier {
	return NotifierFunc(func(ctx context.Context, e DueEvent) error {
		logger.InfoContext(ctx, "reminder due",
			"id", e.NoteID,
			"title", e.Title,
			"category", e.Category,
			"reminder", e.Reminder.Format(time.RFC3339),
		)
		return nil
	})
}

// WriterNotifier prints one human-readable line per due event.
func WriterNotifier(w io.Writer) Notifier {
	return NotifierFunc(func(ctx context.Context, e DueEvent) error {
		line := fmt.Sprintf("Reminder: %s", e.Title)
		if e.Content != "" {
			line += " - " + e.Content
		}
		_, err := fmt.Fprintf(w, "[%d] %s (%s)\n", e.NoteID, line, e.Reminder.Local().Format("2006-01-02 15:04"))
		return err
	})
}

// ChannelNotifier forwards due events to a channel, e.g. for a lifecycle source.
type ChannelNotifier struct {
	ch chan DueEvent
}

// NewChannelNotifier creates a notifier with the given buffer size.
func NewChannelNotifier(buffer int) *ChannelNotifier {
	return &ChannelNotifier{ch: make(chan DueEvent, buffer)}
}

// Events returns the receive side of the channel.
func (c *ChannelNotifier) Events() <-chan DueEvent {
	return c.ch
}

// Notify implements Notifier. It blocks until the event is accepted or ctx ends.
func (c *ChannelNotifier) Notify(ctx context.Context, e DueEvent) error {
	select {
	case c.ch <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the channel. Notify must not be called afterwards.
func (c *ChannelNotifier) Close() {
	close(c.ch)
}

// Multi fans a due event out to several notifiers. Every notifier is called;
// their errors are joined.
func Multi(notifiers ...Notifier) Notifier {
	return NotifierFunc(func(ctx context.Context, e DueEvent) error {
		var errs []error
		for _, n := range notifiers {
			if err := n.Notify(ctx, e); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

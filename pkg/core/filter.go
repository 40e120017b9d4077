package core

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter narrows a list of notes.
type Filter struct {
	// Category is a glob pattern (e.g. "Work*", "{Home,Shopping}").
	// Matching is case-insensitive. Empty matches every category.
	Category string
	// PendingOnly drops completed notes.
	PendingOnly bool
	// WithReminder drops notes without a reminder.
	WithReminder bool
}

// FilterNotes returns the notes matching f, preserving order.
// An invalid pattern is reported as doublestar.ErrBadPattern.
func FilterNotes(notes []Note, f Filter) ([]Note, error) {
	pattern := strings.ToLower(f.Category)
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, doublestar.ErrBadPattern
	}

	out := make([]Note, 0, len(notes))
	for _, n := range notes {
		if f.PendingOnly && n.Completed {
			continue
		}
		if f.WithReminder && !n.HasReminder() {
			continue
		}
		if pattern != "" {
			ok, err := doublestar.Match(pattern, strings.ToLower(n.Category))
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, n)
	}
	return out, nil
}

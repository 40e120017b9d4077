// Package reminder decides when a note's reminder becomes due.
//
// The decision is a pure function of a note snapshot and a scan window
// (lastScan, now]. A Scanner carries lastScan between invocations and a
// Runner drives the Scanner on a schedule, dispatching due events to a
// Notifier. Nothing in this package mutates notes.
package reminder

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/nudge/pkg/core"
)

// DefaultInterval is the default period between scans.
const DefaultInterval = 60 * time.Second

// Source provides the notes to scan.
type Source interface {
	ListNotes(ctx context.Context) ([]core.Note, error)
}

// DueEvent signals, once, that a note's reminder instant has elapsed.
type DueEvent struct {
	NoteID   int       `json:"noteId"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Category string    `json:"category"`
	Reminder time.Time `json:"reminder"`
	FiredAt  time.Time `json:"firedAt"`
}

// String implements fmt.Stringer (and lifecycle.Event).
func (e DueEvent) String() string {
	return fmt.Sprintf("reminder due for note %d: %s", e.NoteID, e.Title)
}

// Window is the half-open interval (From, To].
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether From < t <= To.
func (w Window) Contains(t time.Time) bool {
	return t.After(w.From) && !t.After(w.To)
}

// Due returns an event for every incomplete note whose reminder falls inside w,
// ordered by reminder instant, then id.
func Due(notes []core.Note, w Window) []DueEvent {
	var due []DueEvent
	for _, n := range notes {
		if n.Completed || !n.HasReminder() {
			continue
		}
		if !w.Contains(*n.Reminder) {
			continue
		}
		due = append(due, DueEvent{
			NoteID:   n.ID,
			Title:    n.Title,
			Content:  n.Content,
			Category: n.Category,
			Reminder: *n.Reminder,
			FiredAt:  w.To,
		})
	}
	sort.SliceStable(due, func(i, j int) bool {
		if !due[i].Reminder.Equal(due[j].Reminder) {
			return due[i].Reminder.Before(due[j].Reminder)
		}
		return due[i].NoteID < due[j].NoteID
	})
	return due
}

// Scanner remembers the end of the previous window so consecutive scans
// tile the timeline without gaps or overlaps.
type Scanner struct {
	source   Source
	interval time.Duration

	mu       sync.Mutex
	lastScan time.Time
}

// NewScanner creates a scanner. interval only sizes the very first window.
func NewScanner(source Source, interval time.Duration) *Scanner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scanner{source: source, interval: interval}
}

// Resume seeds the end of the previous window, e.g. from a checkpoint.
func (s *Scanner) Resume(lastScan time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastScan = lastScan
}

// LastScan returns the end of the last successful window.
func (s *Scanner) LastScan() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastScan, !s.lastScan.IsZero()
}

// Scan reports the notes that became due in (lastScan, now].
//
// lastScan only advances when the snapshot was read, so a failed scan is
// covered by the next one. If now is not after lastScan (the clock stepped
// back) nothing fires and lastScan is kept.
func (s *Scanner) Scan(ctx context.Context, now time.Time) ([]DueEvent, Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.lastScan
	if from.IsZero() {
		from = now.Add(-s.interval)
	}
	w := Window{From: from, To: now}

	if !now.After(from) {
		return nil, w, nil
	}

	notes, err := s.source.ListNotes(ctx)
	if err != nil {
		return nil, w, fmt.Errorf("reminder scan failed: %w", err)
	}

	s.lastScan = now
	return Due(notes, w), w, nil
}

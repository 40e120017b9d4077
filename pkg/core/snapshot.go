package core

import (
	"fmt"
	"sort"
	"time"
)

// Snapshot is the complete set of notes read or written as a unit.
//
// LastID is the highest id ever assigned. It travels with the notes so a
// deleted id is never handed out again, even when it was the largest one.
type Snapshot struct {
	Notes  []Note `json:"notes" yaml:"notes"`
	LastID int    `json:"lastId,omitempty" yaml:"lastId,omitempty"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Notes: make([]Note, len(s.Notes)), LastID: s.LastID}
	for i, n := range s.Notes {
		out.Notes[i] = n.Clone()
	}
	return out
}

// NextID returns max(existing ids, LastID)+1, or 1 for a fresh snapshot.
// It is derived from the data so a restored snapshot resumes numbering.
func (s Snapshot) NextID() int {
	highest := s.LastID
	for _, n := range s.Notes {
		if n.ID > highest {
			highest = n.ID
		}
	}
	return highest + 1
}

// Index returns the position of id in Notes, or -1.
func (s Snapshot) Index(id int) int {
	for i, n := range s.Notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// Get returns a copy of the note with the given id.
func (s Snapshot) Get(id int) (Note, error) {
	i := s.Index(id)
	if i < 0 {
		return Note{}, fmt.Errorf("note %d: %w", id, ErrNotFound)
	}
	return s.Notes[i].Clone(), nil
}

// Sorted returns copies of the notes in creation (id) order.
func (s Snapshot) Sorted() []Note {
	out := make([]Note, len(s.Notes))
	for i, n := range s.Notes {
		out[i] = n.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Validate checks the structural invariants of a decoded snapshot.
func (s Snapshot) Validate() error {
	if s.LastID < 0 {
		return fmt.Errorf("%w: negative lastId %d", ErrMalformedState, s.LastID)
	}
	seen := make(map[int]struct{}, len(s.Notes))
	for _, n := range s.Notes {
		if n.ID <= 0 {
			return fmt.Errorf("%w: note with non-positive id %d", ErrMalformedState, n.ID)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("%w: duplicate id %d", ErrMalformedState, n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	return nil
}

// Create appends a new note built from in and returns it.
func (s *Snapshot) Create(in NoteInput, now time.Time, defaultCategory string) Note {
	now = normalize(now)
	n := Note{
		ID:        s.NextID(),
		Title:     in.Title,
		Content:   in.Content,
		Category:  in.Category,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if n.Category == "" {
		n.Category = defaultCategory
	}
	if in.Reminder != nil {
		r := normalize(*in.Reminder)
		n.Reminder = &r
	}
	s.Notes = append(s.Notes, n)
	s.LastID = n.ID
	return n.Clone()
}

// Update applies p to the note with the given id.
// UpdatedAt never moves backwards, even if the wall clock does.
func (s *Snapshot) Update(id int, p Patch, now time.Time, defaultCategory string) (Note, error) {
	i := s.Index(id)
	if i < 0 {
		return Note{}, fmt.Errorf("note %d: %w", id, ErrNotFound)
	}
	n := &s.Notes[i]
	p.apply(n, defaultCategory)

	now = normalize(now)
	if now.Before(n.UpdatedAt) {
		now = n.UpdatedAt
	}
	if now.Before(n.CreatedAt) {
		now = n.CreatedAt
	}
	n.UpdatedAt = now
	return n.Clone(), nil
}

// Remove deletes the note with the given id.
func (s *Snapshot) Remove(id int) error {
	i := s.Index(id)
	if i < 0 {
		return fmt.Errorf("note %d: %w", id, ErrNotFound)
	}
	s.Notes = append(s.Notes[:i], s.Notes[i+1:]...)
	return nil
}

// Diff compares two snapshots and reports per-note changes.
func Diff(before, after Snapshot, at time.Time) []Event {
	old := make(map[int]Note, len(before.Notes))
	for _, n := range before.Notes {
		old[n.ID] = n
	}

	var events []Event
	for _, n := range after.Sorted() {
		prev, ok := old[n.ID]
		switch {
		case !ok:
			events = append(events, Event{Type: EventCreate, ID: n.ID, Timestamp: at.Unix()})
		case !sameNote(prev, n):
			events = append(events, Event{Type: EventModify, ID: n.ID, Timestamp: at.Unix()})
		}
		delete(old, n.ID)
	}

	var gone []int
	for id := range old {
		gone = append(gone, id)
	}
	sort.Ints(gone)
	for _, id := range gone {
		events = append(events, Event{Type: EventDelete, ID: id, Timestamp: at.Unix()})
	}
	return events
}

func sameNote(a, b Note) bool {
	if a.Title != b.Title || a.Content != b.Content || a.Category != b.Category ||
		a.Completed != b.Completed || !a.CreatedAt.Equal(b.CreatedAt) || !a.UpdatedAt.Equal(b.UpdatedAt) {
		return false
	}
	if a.HasReminder() != b.HasReminder() {
		return false
	}
	return !a.HasReminder() || a.Reminder.Equal(*b.Reminder)
}

// normalize drops the monotonic clock reading and pins the location to UTC
// so values compare equal after a serialization round-trip.
func normalize(t time.Time) time.Time {
	return t.UTC().Round(0)
}

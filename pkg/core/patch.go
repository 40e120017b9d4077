package core

import (
	"bytes"
	"encoding/json"
	"time"
)

// Field is a patch value with three states: absent, explicit null, or set.
//
// When decoded from JSON, a key missing from the object leaves the field absent
// and a literal null marks it as present but null.
type Field[T any] struct {
	Present bool
	Null    bool
	Value   T
}

// Set returns a present, non-null field.
func Set[T any](v T) Field[T] {
	return Field[T]{Present: true, Value: v}
}

// Clear returns a present field carrying an explicit null.
func Clear[T any]() Field[T] {
	return Field[T]{Present: true, Null: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// Patch describes a partial update. Only present fields are applied.
type Patch struct {
	Title     Field[string]    `json:"title"`
	Content   Field[string]    `json:"content"`
	Category  Field[string]    `json:"category"`
	Reminder  Field[time.Time] `json:"reminder"`
	Completed Field[bool]      `json:"completed"`
}

// IsEmpty reports whether the patch carries no keys at all.
func (p Patch) IsEmpty() bool {
	return !p.Title.Present && !p.Content.Present && !p.Category.Present &&
		!p.Reminder.Present && !p.Completed.Present
}

// apply mutates n with the present fields of p. A null category falls back to
// defaultCategory since every note belongs to one.
func (p Patch) apply(n *Note, defaultCategory string) {
	if p.Title.Present {
		n.Title = p.Title.Value
	}
	if p.Content.Present {
		n.Content = p.Content.Value
	}
	if p.Category.Present {
		n.Category = p.Category.Value
		if p.Category.Null {
			n.Category = defaultCategory
		}
	}
	if p.Reminder.Present {
		if p.Reminder.Null {
			n.Reminder = nil
		} else {
			r := p.Reminder.Value.UTC()
			n.Reminder = &r
		}
	}
	if p.Completed.Present {
		n.Completed = p.Completed.Value
	}
}

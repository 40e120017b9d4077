package core

import "time"

// DefaultCategory is applied to notes created without a category.
const DefaultCategory = "Personal"

// Note is the central entity of the domain.
// It is agnostic to storage format (JSON file, SQL).
type Note struct {
	ID        int        `json:"id" yaml:"id"`
	Title     string     `json:"title" yaml:"title"`
	Content   string     `json:"content" yaml:"content"`
	Category  string     `json:"category" yaml:"category"`
	Reminder  *time.Time `json:"reminder" yaml:"reminder"`
	Completed bool       `json:"completed" yaml:"completed"`
	CreatedAt time.Time  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt" yaml:"updatedAt"`
}

// HasReminder reports whether the note carries a reminder instant.
func (n Note) HasReminder() bool {
	return n.Reminder != nil
}

// Clone returns a copy that shares no pointers with n.
func (n Note) Clone() Note {
	if n.Reminder != nil {
		r := *n.Reminder
		n.Reminder = &r
	}
	return n
}

// NoteInput holds the fields accepted when creating a note.
// Zero values are replaced by defaults.
type NoteInput struct {
	Title    string     `json:"title"`
	Content  string     `json:"content"`
	Category string     `json:"category"`
	Reminder *time.Time `json:"reminder"`
}

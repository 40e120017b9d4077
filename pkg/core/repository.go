package core

import "context"

// Repository defines the contract for the durable copy of all notes.
// Adhering to this interface allows the core to be independent of the
// underlying storage mechanism (JSON file, SQLite, ...).
//
// Implementations must serialize calls to Update against the same backing
// medium and must never expose a partially written snapshot to Load.
type Repository interface {
	// Initialize ensures the underlying storage is ready (create directories,
	// write an empty collection, schema migration). It returns ErrMalformedState
	// if an existing copy cannot be decoded.
	Initialize(ctx context.Context) error

	// Load reads the complete current snapshot.
	Load(ctx context.Context) (Snapshot, error)

	// Update reads the full snapshot, passes it to fn and, if fn returns nil,
	// writes the result back before returning. If fn fails nothing is written.
	Update(ctx context.Context, fn func(*Snapshot) error) error
}

// Resettable is implemented by repositories that can explicitly discard a
// malformed durable copy and start over with an empty collection.
type Resettable interface {
	Reset(ctx context.Context) error
}

// Watchable is implemented by repositories that can report changes made to
// the durable copy, including those made by other processes.
type Watchable interface {
	Watch(ctx context.Context) (<-chan Event, error)
}

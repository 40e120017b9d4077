package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Service handles the business logic for notes.
// It is the only path through which notes are mutated.
type Service struct {
	repo            Repository
	logger          *slog.Logger
	clock           func() time.Time
	defaultCategory string

	mu          sync.RWMutex
	lastMutated time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger used by the service.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithServiceClock overrides the time source (useful for testing).
func WithServiceClock(clock func() time.Time) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithServiceDefaultCategory changes the category applied when none is given.
func WithServiceDefaultCategory(category string) ServiceOption {
	return func(s *Service) {
		if category != "" {
			s.defaultCategory = category
		}
	}
}

// NewService creates a new Service.
func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo:            repo,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:           time.Now,
		defaultCategory: DefaultCategory,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repository exposes the underlying storage adapter.
func (s *Service) Repository() Repository {
	return s.repo
}

// Now returns the current instant according to the service clock.
func (s *Service) Now() time.Time {
	return s.clock()
}

// ListNotes returns all notes in creation order.
func (s *Service) ListNotes(ctx context.Context) ([]Note, error) {
	snap, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Sorted(), nil
}

// GetNote retrieves a note.
func (s *Service) GetNote(ctx context.Context, id int) (Note, error) {
	if id <= 0 {
		return Note{}, fmt.Errorf("note %d: %w", id, ErrNotFound)
	}
	snap, err := s.repo.Load(ctx)
	if err != nil {
		return Note{}, err
	}
	return snap.Get(id)
}

// CreateNote applies defaults, assigns the next id and persists the note.
func (s *Service) CreateNote(ctx context.Context, in NoteInput) (Note, error) {
	var created Note
	err := s.repo.Update(ctx, func(snap *Snapshot) error {
		created = snap.Create(in, s.clock(), s.defaultCategory)
		return nil
	})
	if err != nil {
		return Note{}, err
	}
	s.touch()
	s.logger.Debug("note created", "id", created.ID, "category", created.Category)
	return created, nil
}

// UpdateNote applies a partial patch to a note and persists it.
func (s *Service) UpdateNote(ctx context.Context, id int, p Patch) (Note, error) {
	if id <= 0 {
		return Note{}, fmt.Errorf("note %d: %w", id, ErrNotFound)
	}
	var updated Note
	err := s.repo.Update(ctx, func(snap *Snapshot) error {
		var err error
		updated, err = snap.Update(id, p, s.clock(), s.defaultCategory)
		return err
	})
	if err != nil {
		return Note{}, err
	}
	s.touch()
	s.logger.Debug("note updated", "id", id)
	return updated, nil
}

// SetCompleted is a shorthand for a patch touching only the completed flag.
func (s *Service) SetCompleted(ctx context.Context, id int, completed bool) (Note, error) {
	return s.UpdateNote(ctx, id, Patch{Completed: Set(completed)})
}

// DeleteNote permanently removes a note.
func (s *Service) DeleteNote(ctx context.Context, id int) error {
	if id <= 0 {
		return fmt.Errorf("note %d: %w", id, ErrNotFound)
	}
	err := s.repo.Update(ctx, func(snap *Snapshot) error {
		return snap.Remove(id)
	})
	if err != nil {
		return err
	}
	s.touch()
	s.logger.Debug("note deleted", "id", id)
	return nil
}

// Reset discards the durable copy and starts over with an empty collection.
// It is the explicit recovery path for ErrMalformedState.
func (s *Service) Reset(ctx context.Context) error {
	r, ok := s.repo.(Resettable)
	if !ok {
		return errors.New("repository does not support reset")
	}
	if err := r.Reset(ctx); err != nil {
		return err
	}
	s.logger.Warn("note store reset to an empty collection")
	return nil
}

// Watch observes changes in the repository if supported.
func (s *Service) Watch(ctx context.Context) (<-chan Event, error) {
	w, ok := s.repo.(Watchable)
	if !ok {
		return nil, errors.New("repository does not support watching")
	}
	return w.Watch(ctx)
}

func (s *Service) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastMutated = s.clock()
}

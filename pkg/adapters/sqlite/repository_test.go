package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nudge/pkg/core"
)

func setupTestRepo(t *testing.T, dir string) *Repository {
	t.Helper()
	repo := NewRepository(Config{Path: dir})
	require.NoError(t, repo.Initialize(context.Background()))
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRepository_CRUDAndRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	svc := core.NewService(setupTestRepo(t, dir))
	reminder := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)

	a, err := svc.CreateNote(ctx, core.NoteInput{Title: "a", Reminder: &reminder})
	require.NoError(t, err)
	b, err := svc.CreateNote(ctx, core.NoteInput{Title: "b", Category: "Work"})
	require.NoError(t, err)
	assert.Equal(t, 1, a.ID)
	assert.Equal(t, 2, b.ID)

	_, err = svc.UpdateNote(ctx, a.ID, core.Patch{Content: core.Set("details")})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteNote(ctx, b.ID))

	restarted := core.NewService(setupTestRepo(t, dir))
	got, err := restarted.GetNote(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "details", got.Content)
	require.NotNil(t, got.Reminder)
	assert.True(t, got.Reminder.Equal(reminder))

	_, err = restarted.GetNote(ctx, b.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	snap, err := restarted.Repository().Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.LastID)

	// b held the highest id; it is still not handed out again.
	c, err := restarted.CreateNote(ctx, core.NoteInput{Title: "c"})
	require.NoError(t, err)
	assert.Equal(t, 3, c.ID)
}

func TestRepository_InstantsOutsideUnixNanoRange(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	svc := core.NewService(setupTestRepo(t, dir))

	for i, at := range []time.Time{
		time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1500, 6, 15, 12, 30, 0, 123456789, time.UTC),
	} {
		n, err := svc.CreateNote(ctx, core.NoteInput{Title: "far", Reminder: &at})
		require.NoError(t, err)
		assert.Equal(t, i+1, n.ID)

		got, err := core.NewService(setupTestRepo(t, dir)).GetNote(ctx, n.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Reminder)
		assert.True(t, got.Reminder.Equal(at), "got %s, want %s", got.Reminder, at)
	}
}

func TestRepository_NotADatabase(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, DefaultFileName)
	require.NoError(t, os.WriteFile(dbPath, []byte("this is not a sqlite database, just some text"), 0644))

	repo := NewRepository(Config{Path: dir})
	err := repo.Initialize(ctx)
	require.ErrorIs(t, err, core.ErrMalformedState)
	require.NoError(t, repo.Close())

	// Explicit recovery moves the damaged file aside.
	fixer := NewRepository(Config{Path: dir})
	require.NoError(t, fixer.Reset(ctx))
	require.NoError(t, fixer.Close())
	backups, err := filepath.Glob(dbPath + ".corrupt-*")
	require.NoError(t, err)
	require.Len(t, backups, 1)
	data, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "not a sqlite database")

	svc := core.NewService(setupTestRepo(t, dir))
	n, err := svc.CreateNote(ctx, core.NoteInput{Title: "fresh"})
	require.NoError(t, err)
	assert.Equal(t, 1, n.ID)
}

func TestRepository_CallbackErrorRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t, t.TempDir())

	err := repo.Update(ctx, func(s *core.Snapshot) error {
		s.Create(core.NoteInput{Title: "ghost"}, time.Now(), core.DefaultCategory)
		return errors.New("abort")
	})
	require.Error(t, err)

	snap, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Notes)
	assert.Equal(t, 0, repo.State().(RepositoryState).Writes)
}

func TestRepository_Reset(t *testing.T) {
	ctx := context.Background()
	repo := setupTestRepo(t, t.TempDir())
	svc := core.NewService(repo)

	_, err := svc.CreateNote(ctx, core.NoteInput{Title: "x"})
	require.NoError(t, err)
	require.NoError(t, svc.Reset(ctx))

	notes, err := svc.ListNotes(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes)

	// A reset store numbers from scratch.
	n, err := svc.CreateNote(ctx, core.NoteInput{Title: "y"})
	require.NoError(t, err)
	assert.Equal(t, 1, n.ID)
}

func TestRepository_ReadOnly(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	setupTestRepo(t, dir)

	ro := NewRepository(Config{Path: dir, ReadOnly: true})
	require.NoError(t, ro.Initialize(ctx))
	defer ro.Close()

	_, err := core.NewService(ro).CreateNote(ctx, core.NoteInput{Title: "nope"})
	assert.ErrorIs(t, err, core.ErrReadOnly)
}

func TestRepository_MissingDatabase(t *testing.T) {
	repo := NewRepository(Config{Path: t.TempDir(), MustExist: true})
	assert.ErrorIs(t, repo.Initialize(context.Background()), core.ErrStorageUnavailable)
}

func TestCheckpoint(t *testing.T) {
	repo := setupTestRepo(t, t.TempDir())
	cp := repo.NewCheckpoint()

	_, ok, err := cp.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, cp.Save(at))
	require.NoError(t, cp.Save(at.Add(time.Minute)))

	got, ok, err := cp.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, got.Equal(at.Add(time.Minute)))
}

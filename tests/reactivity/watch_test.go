package reactivity_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nudge"
	lcsource "github.com/aretw0/nudge/pkg/adapters/lifecycle"
	"github.com/aretw0/nudge/pkg/core"
)

// setupWatchTest initializes a vault and returns a service watching it.
func setupWatchTest(t *testing.T) (string, *core.Service, context.Context, context.CancelFunc) {
	t.Helper()
	tmp := t.TempDir()

	svc, err := nudge.New(tmp)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	return tmp, svc, ctx, cancel
}

// TestWatch_ExternalEdit edits the data file by hand, as a text editor would,
// and expects a MODIFY event for the touched note.
func TestWatch_ExternalEdit(t *testing.T) {
	tmp, svc, ctx, cancel := setupWatchTest(t)
	defer cancel()

	n, err := svc.CreateNote(ctx, core.NoteInput{Title: "draft"})
	require.NoError(t, err)

	events, err := svc.Watch(ctx)
	require.NoError(t, err)

	path := filepath.Join(tmp, "notes.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	edited := strings.Replace(string(data), `"title": "draft"`, `"title": "final"`, 1)
	require.NotEqual(t, string(data), edited)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0644))

	select {
	case e := <-events:
		assert.Equal(t, core.EventModify, e.Type)
		assert.Equal(t, n.ID, e.ID)
	case <-ctx.Done():
		t.Fatal("timed out waiting for MODIFY event")
	}

	got, err := svc.GetNote(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)
}

// TestWatch_LifecycleSource bridges store events into a lifecycle.Source.
func TestWatch_LifecycleSource(t *testing.T) {
	tmp, svc, ctx, cancel := setupWatchTest(t)
	defer cancel()

	events, err := svc.Watch(ctx)
	require.NoError(t, err)

	src := lcsource.NewSource(events)
	require.NoError(t, src.Start(ctx))

	// Another process writes to the same vault.
	other, err := nudge.New(tmp)
	require.NoError(t, err)
	_, err = other.CreateNote(ctx, core.NoteInput{Title: "from elsewhere"})
	require.NoError(t, err)

	select {
	case e := <-src.Events():
		assert.Equal(t, "CREATE note 1", e.String())
	case <-ctx.Done():
		t.Fatal("timed out waiting for lifecycle event")
	}
}

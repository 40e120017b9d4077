package integration

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nudge"
	"github.com/aretw0/nudge/pkg/core"
)

// TestReadOnlyMode ensures that ReadOnly mode blocks every mutation while
// reads keep working, for each bundled adapter.
func TestReadOnlyMode(t *testing.T) {
	for _, adapter := range []string{"fs", "sqlite"} {
		t.Run(adapter, func(t *testing.T) {
			tempDir := t.TempDir()
			ctx := context.Background()

			// Pre-populate the vault so reads have something to return.
			writer, err := nudge.New(tempDir, nudge.WithAdapter(adapter))
			require.NoError(t, err)
			_, err = writer.CreateNote(ctx, core.NoteInput{Title: "existing", Content: "original content"})
			require.NoError(t, err)

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			svc, err := nudge.New(tempDir,
				nudge.WithAdapter(adapter),
				nudge.WithReadOnly(true),
				nudge.WithLogger(logger),
			)
			require.NoError(t, err)

			n, err := svc.GetNote(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, "original content", n.Content)

			_, err = svc.CreateNote(ctx, core.NoteInput{Title: "forbidden"})
			assert.ErrorIs(t, err, core.ErrReadOnly)

			_, err = svc.UpdateNote(ctx, 1, core.Patch{Title: core.Set("changed")})
			assert.ErrorIs(t, err, core.ErrReadOnly)

			assert.ErrorIs(t, svc.DeleteNote(ctx, 1), core.ErrReadOnly)
			assert.ErrorIs(t, svc.Reset(ctx), core.ErrReadOnly)

			n, err = writer.GetNote(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, "existing", n.Title)
		})
	}
}

// TestReadOnlyMode_MissingVault checks read-only mode never creates a vault.
func TestReadOnlyMode_MissingVault(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent")

	_, err := nudge.New(missing, nudge.WithReadOnly(true))
	require.Error(t, err)

	_, statErr := os.Stat(missing)
	assert.True(t, os.IsNotExist(statErr), "vault directory should not be created")
}

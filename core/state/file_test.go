package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"omi-sync/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "sync_state.json")

	b, err := NewFileBackend(path)
	require.NoError(t, err)

	ts := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	st := reconcile.NewState()
	st.LastSync = &ts
	st.Put("c1", reconcile.Entry{Fingerprint: "0123456789abcdef", Filename: "Morning Chat.md", Title: "Morning Chat"})

	require.NoError(t, b.Save(ctx, st))

	loaded, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, st.Entries, loaded.Entries)
	require.NotNil(t, loaded.LastSync)
	assert.True(t, ts.Equal(*loaded.LastSync))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"version": 1`)
	assert.Contains(t, string(raw), `"omi_hash": "0123456789abcdef"`)
	assert.Contains(t, string(raw), `"conversations"`)

	// No temp files are left next to the state file.
	files, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestFileBackend_MissingFile(t *testing.T) {
	b, err := NewFileBackend(filepath.Join(t.TempDir(), "sync_state.json"))
	require.NoError(t, err)

	st, err := b.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, st.Len())
	assert.Nil(t, st.LastSync)
}

func TestFileBackend_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync_state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	b, err := NewFileBackend(path)
	require.NoError(t, err)

	_, err = b.Load(context.Background())
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestFileBackend_ReadsLegacyTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync_state.json")
	legacy := `{"version":1,"last_sync":"2024-01-15T08:00:00.123456+00:00","conversations":{"c1":{"omi_hash":"abc","filename":"a.md","title":"A"}}}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	b, err := NewFileBackend(path)
	require.NoError(t, err)

	st, err := b.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st.LastSync)
	entry, ok := st.Get("c1")
	require.True(t, ok)
	assert.Equal(t, "a.md", entry.Filename)
}

func TestFileBackend_Reset(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sync_state.json")
	b, err := NewFileBackend(path)
	require.NoError(t, err)

	require.NoError(t, b.Reset(ctx))
	require.NoError(t, b.Save(ctx, reconcile.NewState()))
	require.NoError(t, b.Reset(ctx))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"omi-sync/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type failingBackend struct{}

func (failingBackend) Load(context.Context) (*reconcile.State, error) {
	return nil, errors.New("disk unreadable")
}
func (failingBackend) Save(context.Context, *reconcile.State) error { return nil }
func (failingBackend) Reset(context.Context) error                  { return nil }

func TestOpen(t *testing.T) {
	t.Run("File", func(t *testing.T) {
		b, err := Open(Config{Driver: DriverFile, Path: filepath.Join(t.TempDir(), "s.json")}, nil)
		require.NoError(t, err)
		assert.IsType(t, &FileBackend{}, b)
	})

	t.Run("DatabaseWithoutConnection", func(t *testing.T) {
		_, err := Open(Config{Driver: DriverDatabase}, nil)
		assert.Error(t, err)
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := Open(Config{Driver: "redis"}, nil)
		assert.EqualError(t, err, `unknown state driver "redis"`)
	})
}

func TestLoadOrEmpty_CorruptStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync_state.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))
	b, err := NewFileBackend(path)
	require.NoError(t, err)

	core, logs := observer.New(zap.WarnLevel)
	st := LoadOrEmpty(context.Background(), b, zap.New(core))

	assert.Equal(t, 0, st.Len())
	assert.Equal(t, 1, logs.FilterMessage("Could not load state, starting fresh").Len())
}

func TestLoadOrEmpty_BackendError(t *testing.T) {
	st := LoadOrEmpty(context.Background(), failingBackend{}, zap.NewNop())
	assert.Equal(t, 0, st.Len())
}

func TestLoadOrEmpty_DropsMalformedEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync_state.json")
	doc := `{"version":1,"last_sync":null,"conversations":{
		"a":{"omi_hash":"1","filename":"same.md","title":"A"},
		"b":{"omi_hash":"2","filename":"same.md","title":"B"},
		"c":{"omi_hash":"3","filename":"","title":"C"}}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	b, err := NewFileBackend(path)
	require.NoError(t, err)

	core, logs := observer.New(zap.WarnLevel)
	st := LoadOrEmpty(context.Background(), b, zap.New(core))

	assert.Equal(t, []string{"a"}, st.IDs())
	assert.Equal(t, 1, logs.FilterMessage("Dropped malformed state entries").Len())
}

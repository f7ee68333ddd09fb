package conversation_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"omi-sync/core/reconcile"
	"omi-sync/core/storage"
	"omi-sync/feature/conversation"
	"omi-sync/feature/conversation/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticLister struct {
	conversations []models.Conversation
	err           error
}

func (l *staticLister) ListConversations(context.Context) ([]models.Conversation, error) {
	return l.conversations, l.err
}

func conv(t *testing.T, id, title, overview string) models.Conversation {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":         id,
		"created_at": "2024-01-15T08:00:00Z",
		"structured": map[string]any{"title": title, "overview": overview, "category": "personal"},
		"transcript_segments": []map[string]any{
			{"text": "Morning!", "speaker_id": 0},
		},
	})
	require.NoError(t, err)

	var c models.Conversation
	require.NoError(t, json.Unmarshal(payload, &c))
	return c
}

func setup(t *testing.T) (*reconcile.Engine, *staticLister, string) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewFSStore(root)
	require.NoError(t, err)

	lister := &staticLister{}
	engine := reconcile.NewEngine(reconcile.Spec{
		Adapter:   conversation.NewAdapter(),
		OutputDir: "/conversations",
		Clock:     func() time.Time { return time.Date(2024, 1, 15, 8, 5, 0, 0, time.UTC) },
	}, conversation.NewSource(lister), store, zap.NewNop())

	return engine, lister, filepath.Join(root, "conversations")
}

func TestAdapter_Extract(t *testing.T) {
	a := conversation.NewAdapter()
	c := conv(t, "c1", "Morning Chat", "Coffee")

	assert.Equal(t, "conversations", a.Name())
	assert.Equal(t, "c1", a.ExtractKey(c))
	assert.Equal(t, "c1", a.ExtractKey(&c))
	assert.Equal(t, "Morning Chat", a.ExtractTitle(c))
	assert.Equal(t, "2024-01-15T08:00:00Z", a.ExtractCreatedAt(c))
	assert.Equal(t, "", a.ExtractKey("not a conversation"))

	_, err := a.Render(42, "x", time.Now(), nil)
	assert.Error(t, err)
}

func TestAdapter_FingerprintIgnoresIDAndTimestamps(t *testing.T) {
	a := conversation.NewAdapter()
	first := conv(t, "c1", "Morning Chat", "Coffee")
	second := conv(t, "c2", "Morning Chat", "Coffee")
	second.CreatedAt = "2025-06-01T00:00:00Z"

	assert.Equal(t,
		reconcile.Fingerprint(a.ExtractContent(first)),
		reconcile.Fingerprint(a.ExtractContent(second)))
}

func TestAdapter_TitleChangeIsTitleOnly(t *testing.T) {
	a := conversation.NewAdapter()
	before := conv(t, "a1", "Morning Chat", "Coffee")
	after := conv(t, "a1", "Morning Chat v2", "Coffee")

	fingerprint := reconcile.Fingerprint(a.ExtractContent(before))
	assert.Equal(t, fingerprint, reconcile.Fingerprint(a.ExtractContent(after)))

	stored := &reconcile.Entry{Fingerprint: fingerprint, Filename: "Morning Chat.md", Title: a.ExtractTitle(before)}
	assert.Equal(t, reconcile.ChangeTitleOnly,
		reconcile.Classify(a.ExtractTitle(after), reconcile.Fingerprint(a.ExtractContent(after)), stored))

	changed := conv(t, "a1", "Morning Chat v2", "Coffee and tea")
	assert.NotEqual(t, fingerprint, reconcile.Fingerprint(a.ExtractContent(changed)))
}

func TestSource_FetchFailure(t *testing.T) {
	src := conversation.NewSource(&staticLister{err: errors.New("timeout")})
	items, err := src.FetchAll(context.Background())
	assert.Nil(t, items)
	assert.EqualError(t, err, "timeout")
}

func TestSync_MorningChatLifecycle(t *testing.T) {
	ctx := context.Background()
	engine, lister, dir := setup(t)

	// New conversation.
	lister.conversations = []models.Conversation{conv(t, "a1", "Morning Chat", "Coffee")}
	st, report := engine.RunCycle(ctx, reconcile.NewState())
	require.Equal(t, 1, report.Created)

	entry, ok := st.Get("a1")
	require.True(t, ok)
	assert.Equal(t, "Morning Chat.md", entry.Filename)
	original, err := os.ReadFile(filepath.Join(dir, "Morning Chat.md"))
	require.NoError(t, err)

	// A user edits the file by hand, then the title changes upstream.
	edited := append(original, []byte("\nMy own note.\n")...)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Morning Chat.md"), edited, 0o644))

	lister.conversations = []models.Conversation{conv(t, "a1", "Morning Chat v2", "Coffee")}
	st, report = engine.RunCycle(ctx, st)
	require.Equal(t, 1, report.Renamed)

	moved, err := os.ReadFile(filepath.Join(dir, "Morning Chat v2.md"))
	require.NoError(t, err)
	assert.Equal(t, edited, moved)
	assert.NoFileExists(t, filepath.Join(dir, "Morning Chat.md"))
	entry, _ = st.Get("a1")
	assert.Equal(t, "Morning Chat v2.md", entry.Filename)

	// Conversation deleted upstream.
	lister.conversations = nil
	st, report = engine.RunCycle(ctx, st)
	assert.Equal(t, 1, report.Deleted)
	assert.NoFileExists(t, filepath.Join(dir, "Morning Chat v2.md"))
	assert.Equal(t, 0, st.Len())
}

func TestSync_RegenerationKeepsUserMetadata(t *testing.T) {
	ctx := context.Background()
	engine, lister, dir := setup(t)
	path := filepath.Join(dir, "Morning Chat.md")

	lister.conversations = []models.Conversation{conv(t, "a1", "Morning Chat", "Coffee")}
	st, _ := engine.RunCycle(ctx, reconcile.NewState())

	// The user tags the note with a project.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	tagged := strings.Replace(string(data), "_omi_id: a1\n", "project: x\n_omi_id: tampered\n", 1)
	require.NotEqual(t, string(data), tagged)
	require.NoError(t, os.WriteFile(path, []byte(tagged), 0o644))

	lister.conversations = []models.Conversation{conv(t, "a1", "Morning Chat", "Coffee and tea")}
	_, report := engine.RunCycle(ctx, st)
	require.Equal(t, 1, report.Updated)

	data, err = os.ReadFile(path)
	require.NoError(t, err)

	md := conversation.ParseMetadata(data)
	require.NoError(t, md.Err)
	var project, id string
	require.NoError(t, md.Metadata["project"].Decode(&project))
	require.NoError(t, md.Metadata[conversation.KeyID].Decode(&id))
	assert.Equal(t, "x", project)
	assert.Equal(t, "a1", id)
	assert.Contains(t, string(data), "Coffee and tea")
}

func TestSync_FetchFailureKeepsFiles(t *testing.T) {
	ctx := context.Background()
	engine, lister, dir := setup(t)

	lister.conversations = []models.Conversation{conv(t, "a1", "Morning Chat", "Coffee")}
	st, _ := engine.RunCycle(ctx, reconcile.NewState())

	lister.conversations = nil
	lister.err = errors.New("503")
	next, report := engine.RunCycle(ctx, st)

	assert.True(t, report.FetchFailed)
	assert.Same(t, st, next)
	assert.FileExists(t, filepath.Join(dir, "Morning Chat.md"))
}

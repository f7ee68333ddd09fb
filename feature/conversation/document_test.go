package conversation

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"omi-sync/feature/conversation/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var syncedAt = time.Date(2024, 1, 15, 8, 5, 0, 0, time.UTC)

func decode(t *testing.T, payload string) models.Conversation {
	t.Helper()
	var c models.Conversation
	require.NoError(t, json.Unmarshal([]byte(payload), &c))
	return c
}

func morningChat(t *testing.T) models.Conversation {
	return decode(t, `{
		"id": "c1",
		"created_at": "2024-01-15T08:00:00Z",
		"structured": {"title": "Morning Chat", "overview": "  Coffee with Sam.  ", "category": "personal"},
		"transcript_segments": [
			{"text": "Morning!", "speaker_id": 0},
			{"text": "   ", "speaker_id": 1},
			{"text": "Hi there", "speaker_id": 1}
		]
	}`)
}

func TestRender(t *testing.T) {
	doc, err := Render(morningChat(t), "0123456789abcdef", syncedAt, nil)
	require.NoError(t, err)
	require.NoError(t, doc.MergeErr)

	want := `---
title: Morning Chat
date: "2024-01-15T08:00:00Z"
category: personal
_omi_id: c1
_content_hash: 0123456789abcdef
_synced_at: "2024-01-15T08:05:00Z"
---

## Summary

Coffee with Sam.

## Transcript

**Speaker 0:** Morning!
**Speaker 1:** Hi there
`
	assert.Equal(t, want, string(doc.Content))
}

func TestRender_NoSummaryNoTranscript(t *testing.T) {
	c := decode(t, `{"id":"c2","created_at":"2024-01-15T08:00:00Z","transcript_segments":[{"text":" ","speaker_id":0}]}`)

	doc, err := Render(c, "0123456789abcdef", syncedAt, nil)
	require.NoError(t, err)

	body := string(doc.Content)
	assert.Contains(t, body, "title: Untitled\n")
	assert.Contains(t, body, "category: \"\"\n")
	assert.Contains(t, body, "## Summary\n\n"+SummaryPlaceholder+"\n")
	assert.NotContains(t, body, "## Transcript")
}

func TestRender_MergesUserMetadata(t *testing.T) {
	previous := []byte(`---
title: Old Title
project: "x"
tags:
  - work
  - coffee
_omi_id: stale
_content_hash: ffffffffffffffff
_custom: dropped
---

## Summary

Edited by hand.
`)

	doc, err := Render(morningChat(t), "0123456789abcdef", syncedAt, previous)
	require.NoError(t, err)
	require.NoError(t, doc.MergeErr)

	result := ParseMetadata(doc.Content)
	require.NoError(t, result.Err)
	md := result.Metadata

	var project string
	require.NoError(t, md["project"].Decode(&project))
	assert.Equal(t, "x", project)

	var tags []string
	require.NoError(t, md["tags"].Decode(&tags))
	assert.Equal(t, []string{"work", "coffee"}, tags)

	var title, id, hash string
	require.NoError(t, md[KeyTitle].Decode(&title))
	require.NoError(t, md[KeyID].Decode(&id))
	require.NoError(t, md[KeyContentHash].Decode(&hash))
	assert.Equal(t, "Morning Chat", title)
	assert.Equal(t, "c1", id)
	assert.Equal(t, "0123456789abcdef", hash)

	assert.NotContains(t, md, "_custom")
	assert.NotContains(t, string(doc.Content), "Edited by hand.")

	// User keys sit between the system keys and the reserved keys, in
	// the form they were written.
	content := string(doc.Content)
	assert.Contains(t, content, "category: personal\nproject: \"x\"\ntags:\n  - work\n  - coffee\n_omi_id: c1\n")
}

func TestRender_UnparseablePreviousIsWarning(t *testing.T) {
	previous := []byte("---\nproject: [unclosed\n---\nbody\n")

	doc, err := Render(morningChat(t), "0123456789abcdef", syncedAt, previous)
	require.NoError(t, err)
	assert.Error(t, doc.MergeErr)
	assert.True(t, strings.HasPrefix(string(doc.Content), "---\ntitle: Morning Chat\n"))
	assert.NotContains(t, string(doc.Content), "project")
}

func TestParseMetadata(t *testing.T) {
	t.Run("NoFrontMatter", func(t *testing.T) {
		result := ParseMetadata([]byte("# Just a note\n"))
		assert.NoError(t, result.Err)
		assert.Empty(t, result.Metadata)
	})

	t.Run("EmptyFrontMatter", func(t *testing.T) {
		result := ParseMetadata([]byte("---\n---\nbody"))
		assert.NoError(t, result.Err)
		assert.Empty(t, result.Metadata)
	})

	t.Run("LeadingNewlinesAndCRLF", func(t *testing.T) {
		result := ParseMetadata([]byte("\r\n---\r\nproject: x\r\n---\r\nbody"))
		require.NoError(t, result.Err)
		assert.Contains(t, result.Metadata, "project")
	})

	t.Run("Unterminated", func(t *testing.T) {
		result := ParseMetadata([]byte("---\nproject: x\n"))
		assert.ErrorIs(t, result.Err, errUnterminated)
		assert.Nil(t, result.Metadata)
	})

	t.Run("NotAMapping", func(t *testing.T) {
		result := ParseMetadata([]byte("---\n- a\n- b\n---\n"))
		assert.ErrorContains(t, result.Err, "expected a mapping, got sequence")
	})
}

package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = `{
  "id": "c1",
  "created_at": "2024-01-15T08:00:00Z",
  "structured": {"title": "Morning Chat", "overview": "Coffee", "category": "personal", "extra": {"mood": "good"}},
  "transcript_segments": [
    {"text": "hi", "speaker": "SPEAKER_00", "speaker_id": 0, "is_user": true, "start": 0, "end": 1.5},
    {"text": "hello", "speaker": "SPEAKER_01", "speaker_id": "1", "start": 1.5, "end": 2}
  ]
}`

func TestConversation_Unmarshal(t *testing.T) {
	var c Conversation
	require.NoError(t, json.Unmarshal([]byte(payload), &c))

	assert.Equal(t, "c1", c.ID)
	assert.Equal(t, "Morning Chat", c.Title())
	assert.Equal(t, "personal", c.Structured.Category)
	require.Len(t, c.Segments, 2)
	assert.Equal(t, 0, c.Segments[0].SpeakerNumber())
	assert.True(t, c.Segments[0].FromUser())
	assert.Equal(t, 1, c.Segments[1].SpeakerNumber())
	assert.False(t, c.Segments[1].FromUser())
}

func TestConversation_ContentKeepsUnmodeledFields(t *testing.T) {
	var c Conversation
	require.NoError(t, json.Unmarshal([]byte(payload), &c))

	content := c.Content()
	structured, ok := content["structured"].(json.RawMessage)
	require.True(t, ok)
	assert.Contains(t, string(structured), `"mood"`)
	assert.NotContains(t, content, "id")
	assert.NotContains(t, content, "created_at")
}

func TestConversation_ContentDefaults(t *testing.T) {
	var c Conversation
	require.NoError(t, json.Unmarshal([]byte(`{"id":"c2","structured":null}`), &c))

	content := c.Content()
	assert.Equal(t, json.RawMessage("{}"), content["structured"])
	assert.Equal(t, json.RawMessage("[]"), content["transcript_segments"])
	assert.Equal(t, UntitledTitle, c.Title())
}

func TestConversation_ContentFromTypedValue(t *testing.T) {
	c := Conversation{
		ID:         "c3",
		Structured: Structured{Title: "Built"},
		Segments:   []Segment{{Text: "x"}},
	}

	content := c.Content()
	structured, ok := content["structured"].(json.RawMessage)
	require.True(t, ok)
	assert.NotContains(t, string(structured), "Built")
	assert.Equal(t, c.Segments, content["transcript_segments"])
}

func TestConversation_ContentExcludesTitle(t *testing.T) {
	var c Conversation
	require.NoError(t, json.Unmarshal([]byte(payload), &c))

	structured, ok := c.Content()["structured"].(json.RawMessage)
	require.True(t, ok)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(structured, &fields))
	assert.NotContains(t, fields, "title")
	assert.Equal(t, "Coffee", fields["overview"])
	assert.Contains(t, fields, "extra")
}

func TestConversation_UnmarshalList(t *testing.T) {
	var list []Conversation
	require.NoError(t, json.Unmarshal([]byte("["+payload+","+payload+"]"), &list))
	assert.Len(t, list, 2)
	assert.Equal(t, "c1", list[1].ID)
}

func TestSegment_SpeakerNumberFromLabel(t *testing.T) {
	var seg Segment
	require.NoError(t, json.Unmarshal([]byte(`{"text":"hi","speaker":"SPEAKER_02"}`), &seg))
	assert.Equal(t, 2, seg.SpeakerNumber())
}

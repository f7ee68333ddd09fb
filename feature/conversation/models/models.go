package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"omi-sync/core/utils"
)

// UntitledTitle is used when a conversation carries no title.
const UntitledTitle = "Untitled"

// Conversation is one Omi conversation with its transcript.
type Conversation struct {
	ID         string     `json:"id"`
	CreatedAt  string     `json:"created_at"`
	StartedAt  string     `json:"started_at,omitempty"`
	FinishedAt string     `json:"finished_at,omitempty"`
	Source     string     `json:"source,omitempty"`
	Language   string     `json:"language,omitempty"`
	Structured Structured `json:"structured"`
	Segments   []Segment  `json:"transcript_segments"`

	// rawStructured and rawSegments keep the payload exactly as received,
	// including fields the typed view does not model.
	rawStructured json.RawMessage
	rawSegments   json.RawMessage
}

// Structured is the AI generated summary of a conversation.
type Structured struct {
	Title       string       `json:"title"`
	Overview    string       `json:"overview"`
	Emoji       string       `json:"emoji,omitempty"`
	Category    string       `json:"category"`
	ActionItems []ActionItem `json:"action_items,omitempty"`
}

// ActionItem is a follow-up extracted from a conversation.
type ActionItem struct {
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Segment is one utterance of the transcript.
type Segment struct {
	Text string `json:"text"`
	// Speaker is the diarization label, e.g. "SPEAKER_00".
	Speaker string `json:"speaker,omitempty"`
	// SpeakerID is numeric in current payloads and a string in older ones.
	SpeakerID any     `json:"speaker_id"`
	IsUser    any     `json:"is_user,omitempty"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
}

// SpeakerNumber returns the speaker id as an int. Without an id the
// number is read from the diarization label; 0 when both are absent.
func (s Segment) SpeakerNumber() int {
	if s.SpeakerID == nil {
		return utils.ToInt(s.Speaker)
	}
	return utils.ToInt(s.SpeakerID)
}

// FromUser reports whether the segment was spoken by the device owner.
func (s Segment) FromUser() bool {
	return utils.ToBool(s.IsUser)
}

// UnmarshalJSON decodes the typed view and keeps the raw structured and
// transcript payloads for fingerprinting.
func (c *Conversation) UnmarshalJSON(data []byte) error {
	type plain Conversation
	var typed plain
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}

	var raw struct {
		Structured json.RawMessage `json:"structured"`
		Segments   json.RawMessage `json:"transcript_segments"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*c = Conversation(typed)
	c.rawStructured = nonNull(raw.Structured)
	c.rawSegments = nonNull(raw.Segments)
	return nil
}

// Title returns the conversation title, or UntitledTitle when it is blank.
func (c Conversation) Title() string {
	if t := strings.TrimSpace(c.Structured.Title); t != "" {
		return t
	}
	return UntitledTitle
}

// Content returns the content-relevant subset: the structured summary
// without its title and the transcript, as received. Absent parts are empty
// containers. The title is tracked on its own so that a rename is not read
// as a content change.
func (c Conversation) Content() map[string]any {
	content := map[string]any{
		"structured":          json.RawMessage("{}"),
		"transcript_segments": json.RawMessage("[]"),
	}

	switch {
	case c.rawStructured != nil:
		content["structured"] = withoutTitle(c.rawStructured)
	case !c.Structured.isZero():
		if raw, err := json.Marshal(c.Structured); err == nil {
			content["structured"] = withoutTitle(raw)
		}
	}

	switch {
	case c.rawSegments != nil:
		content["transcript_segments"] = c.rawSegments
	case len(c.Segments) > 0:
		content["transcript_segments"] = c.Segments
	}
	return content
}

func (s Structured) isZero() bool {
	return s.Title == "" && s.Overview == "" && s.Emoji == "" && s.Category == "" && len(s.ActionItems) == 0
}

// withoutTitle drops the "title" field of a structured payload. A payload
// that is not an object is returned unchanged.
func withoutTitle(raw json.RawMessage) json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return raw
	}
	delete(fields, "title")
	out, err := json.Marshal(fields)
	if err != nil {
		return raw
	}
	return out
}

func nonNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	return raw
}

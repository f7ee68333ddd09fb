package conversation

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"omi-sync/core/reconcile"
	"omi-sync/feature/conversation/models"

	"gopkg.in/yaml.v3"
)

// Front matter keys written on every document.
const (
	KeyTitle       = "title"
	KeyDate        = "date"
	KeyCategory    = "category"
	KeyID          = "_omi_id"
	KeyContentHash = "_content_hash"
	KeySyncedAt    = "_synced_at"

	// ReservedPrefix marks keys owned by the sync. They are never carried
	// over from a previous document.
	ReservedPrefix = "_"

	// SummaryPlaceholder replaces a missing overview.
	SummaryPlaceholder = "No summary available."
)

const frontMatterDelim = "---"

var errUnterminated = errors.New("front matter is not terminated")

// Metadata maps front matter keys to their parsed YAML nodes. Nodes are
// kept as parsed so values are written back unchanged.
type Metadata map[string]*MetadataValue

// MetadataValue is one front matter entry.
type MetadataValue struct {
	Key   *yaml.Node
	Value *yaml.Node
}

// Decode decodes the value into v.
func (m *MetadataValue) Decode(v any) error {
	return m.Value.Decode(v)
}

// MetadataResult is the outcome of parsing a document's front matter.
// Err is set when the front matter exists but cannot be read; Metadata is
// then nil.
type MetadataResult struct {
	Metadata Metadata
	Err      error
}

// ParseMetadata reads the front matter of data. A document without front
// matter yields empty metadata and no error.
func ParseMetadata(data []byte) MetadataResult {
	block, found, err := splitFrontMatter(data)
	if err != nil {
		return MetadataResult{Err: err}
	}
	md := Metadata{}
	if !found {
		return MetadataResult{Metadata: md}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return MetadataResult{Err: fmt.Errorf("parse front matter: %w", err)}
	}
	if len(doc.Content) == 0 {
		return MetadataResult{Metadata: md}
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return MetadataResult{Err: fmt.Errorf("parse front matter: expected a mapping, got %s", kindName(root.Kind))}
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		md[k.Value] = &MetadataValue{Key: k, Value: v}
	}
	return MetadataResult{Metadata: md}
}

// splitFrontMatter returns the YAML between the leading "---" line and the
// next "---" line. found is false when the document does not open with one.
func splitFrontMatter(data []byte) (block []byte, found bool, err error) {
	trimmed := bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	trimmed = bytes.TrimLeft(trimmed, "\r\n")

	lines := bytes.SplitAfter(trimmed, []byte("\n"))
	if len(lines) == 0 || strings.TrimRight(string(lines[0]), " \t\r\n") != frontMatterDelim {
		return nil, false, nil
	}

	var buf bytes.Buffer
	for _, line := range lines[1:] {
		switch strings.TrimRight(string(line), " \t\r\n") {
		case frontMatterDelim, "...":
			return buf.Bytes(), true, nil
		}
		buf.Write(line)
	}
	return nil, true, errUnterminated
}

// Render builds the Markdown document for c. User keys from the front
// matter of previous are carried over; a parse failure of previous is
// reported in Document.MergeErr and does not prevent rendering.
func Render(c models.Conversation, fingerprint string, syncedAt time.Time, previous []byte) (reconcile.Document, error) {
	var mergeErr error
	mapping := &yaml.Node{Kind: yaml.MappingNode}
	present := make(map[string]struct{})
	add := func(key, value string) {
		mapping.Content = append(mapping.Content, stringNode(key), stringNode(value))
		present[key] = struct{}{}
	}

	add(KeyTitle, c.Title())
	add(KeyDate, c.CreatedAt)
	add(KeyCategory, c.Structured.Category)

	if previous != nil {
		result := ParseMetadata(previous)
		if result.Err != nil {
			mergeErr = result.Err
		}
		for _, key := range userKeys(result.Metadata, present) {
			entry := result.Metadata[key]
			mapping.Content = append(mapping.Content, entry.Key, entry.Value)
		}
	}

	add(KeyID, c.ID)
	add(KeyContentHash, fingerprint)
	add(KeySyncedAt, syncedAt.UTC().Format(time.RFC3339))

	var fm bytes.Buffer
	enc := yaml.NewEncoder(&fm)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{mapping}}); err != nil {
		return reconcile.Document{}, fmt.Errorf("encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return reconcile.Document{}, fmt.Errorf("encode front matter: %w", err)
	}

	var out bytes.Buffer
	out.WriteString(frontMatterDelim + "\n")
	out.Write(fm.Bytes())
	out.WriteString(frontMatterDelim + "\n\n")
	out.WriteString(renderBody(c))
	out.WriteString("\n")
	return reconcile.Document{Content: out.Bytes(), MergeErr: mergeErr}, nil
}

// userKeys returns the sorted keys of md that are neither reserved nor
// already written.
func userKeys(md Metadata, present map[string]struct{}) []string {
	var keys []string
	for key := range md {
		if strings.HasPrefix(key, ReservedPrefix) {
			continue
		}
		if _, ok := present[key]; ok {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func renderBody(c models.Conversation) string {
	var b strings.Builder
	b.WriteString("## Summary\n\n")
	if overview := strings.TrimSpace(c.Structured.Overview); overview != "" {
		b.WriteString(overview)
	} else {
		b.WriteString(SummaryPlaceholder)
	}

	var lines []string
	for _, seg := range c.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("**Speaker %d:** %s", seg.SpeakerNumber(), text))
	}
	if len(lines) > 0 {
		b.WriteString("\n\n## Transcript\n\n")
		b.WriteString(strings.Join(lines, "\n"))
	}
	return b.String()
}

func stringNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}

// Package conversation plugs Omi conversations into the reconcile engine.
//
// Adapter tells the engine how to read a conversation: its id, title,
// creation time and the content subset that feeds the fingerprint. Render
// turns a conversation into a Markdown document with YAML front matter:
//
//	---
//	title: Morning Chat
//	date: "2024-01-15T08:00:00Z"
//	category: personal
//	project: x
//	_omi_id: c1
//	_content_hash: 0123456789abcdef
//	_synced_at: "2024-01-15T08:05:00Z"
//	---
//
//	## Summary
//
//	Coffee with Sam.
//
//	## Transcript
//
//	**Speaker 0:** Morning!
//
// Keys starting with "_" belong to the sync and are rewritten on every
// render. Any other key a user adds to the file, such as "project" above,
// is carried over when the document is regenerated.
package conversation

package reconcile

import (
	"sort"
	"time"
)

// Entry is the last synced view of one record.
type Entry struct {
	// Fingerprint is the content fingerprint the destination file was rendered from.
	Fingerprint string `json:"omi_hash"`
	// Filename is the destination file name, relative to the output directory.
	Filename string `json:"filename"`
	// Title is the record title at the last sync.
	Title string `json:"title"`
}

// State maps record ids to their last synced entry.
// Filenames are unique across entries.
type State struct {
	// LastSync is the completion time of the last successful cycle.
	LastSync *time.Time
	// Entries holds one entry per synced record id.
	Entries map[string]Entry
}

// NewState returns an empty state.
func NewState() *State {
	return &State{Entries: make(map[string]Entry)}
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	out := NewState()
	if s == nil {
		return out
	}
	if s.LastSync != nil {
		ts := *s.LastSync
		out.LastSync = &ts
	}
	for id, e := range s.Entries {
		out.Entries[id] = e
	}
	return out
}

// Len returns the number of tracked records.
func (s *State) Len() int {
	return len(s.Entries)
}

// Get returns the entry stored for id.
func (s *State) Get(id string) (Entry, bool) {
	e, ok := s.Entries[id]
	return e, ok
}

// Put stores the entry for id.
func (s *State) Put(id string, e Entry) {
	if s.Entries == nil {
		s.Entries = make(map[string]Entry)
	}
	s.Entries[id] = e
}

// Delete drops the entry for id.
func (s *State) Delete(id string) {
	delete(s.Entries, id)
}

// IDs returns the tracked ids in sorted order.
func (s *State) IDs() []string {
	ids := make([]string, 0, len(s.Entries))
	for id := range s.Entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FilenamesExcept returns the filenames used by every entry other than id.
func (s *State) FilenamesExcept(id string) map[string]struct{} {
	names := make(map[string]struct{}, len(s.Entries))
	for other, e := range s.Entries {
		if other == id || e.Filename == "" {
			continue
		}
		names[e.Filename] = struct{}{}
	}
	return names
}

// Normalize drops entries that cannot be acted on: an empty id, an empty
// filename, or a filename already claimed by an id that sorts earlier.
// It returns the dropped ids so callers can log them.
func (s *State) Normalize() []string {
	var dropped []string
	claimed := make(map[string]string, len(s.Entries))
	for _, id := range s.IDs() {
		e := s.Entries[id]
		if id == "" || e.Filename == "" {
			dropped = append(dropped, id)
			delete(s.Entries, id)
			continue
		}
		if _, taken := claimed[e.Filename]; taken {
			dropped = append(dropped, id)
			delete(s.Entries, id)
			continue
		}
		claimed[e.Filename] = id
	}
	return dropped
}

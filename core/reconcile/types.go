package reconcile

import "time"

// Item is a source record. Adapters define the concrete type.
type Item any

// Spec bundles the adapter and the destination settings for an engine.
type Spec struct {
	// Adapter provides record-specific extraction and rendering.
	Adapter Adapter

	// OutputDir is the destination directory every filename is relative to.
	OutputDir string

	// DryRun classifies and plans without touching the store or the state.
	DryRun bool

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// ActionType represents a destination operation decided by the engine.
type ActionType string

const (
	// ActionWrite writes a freshly rendered document.
	ActionWrite ActionType = "write"
	// ActionMove renames a document without touching its bytes.
	ActionMove ActionType = "move"
	// ActionRemove deletes a document whose record disappeared or was renamed by regeneration.
	ActionRemove ActionType = "remove"
	// ActionForget drops a state entry whose file was already gone.
	ActionForget ActionType = "forget"
)

// Action records one destination operation of a cycle.
type Action struct {
	// Type specifies the operation.
	Type ActionType `json:"type"`

	// Key is the record id.
	Key string `json:"key"`

	// Path is the destination path the operation targets.
	Path string `json:"path"`

	// From is the previous path for moves.
	From string `json:"from,omitempty"`

	// Reason explains why the operation was needed.
	Reason string `json:"reason"`

	// Err holds the failure message when the operation did not succeed.
	Err string `json:"error,omitempty"`
}

// CycleReport summarizes one reconciliation cycle.
type CycleReport struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// DryRun is set when no mutation was performed.
	DryRun bool `json:"dry_run"`

	// FetchFailed is set when the source listing failed and the cycle was skipped.
	FetchFailed bool `json:"fetch_failed"`

	// Error holds the reason the cycle was aborted, if any.
	Error string `json:"error,omitempty"`

	// Fetched counts records returned by the source.
	Fetched int `json:"fetched"`

	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Renamed   int `json:"renamed"`
	Unchanged int `json:"unchanged"`

	// Skipped counts records without an id.
	Skipped int `json:"skipped"`

	// Failed counts records whose store operations failed; they are retried next cycle.
	Failed int `json:"failed"`

	// Deleted counts entries dropped by the deletion sweep.
	Deleted int `json:"deleted"`

	// DeleteFailed counts sweep removals that failed and stay in state.
	DeleteFailed int `json:"delete_failed"`

	// Actions lists every destination operation attempted or planned.
	Actions []Action `json:"actions"`
}

// Duration returns how long the cycle ran.
func (r *CycleReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *CycleReport) record(a Action) {
	r.Actions = append(r.Actions, a)
}

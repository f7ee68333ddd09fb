package status

import (
	"sync"
	"time"

	"omi-sync/core/reconcile"
)

// Snapshot is the sync status at one point in time.
type Snapshot struct {
	// Running is false until the first cycle finished.
	Running    bool                   `json:"running"`
	DryRun     bool                   `json:"dry_run"`
	Cycles     int                    `json:"cycles"`
	Tracked    int                    `json:"tracked"`
	LastSync   *time.Time             `json:"last_sync"`
	LastReport *reconcile.CycleReport `json:"last_report"`
}

// Tracker records the outcome of every cycle. It is safe for concurrent use.
type Tracker struct {
	mu    sync.RWMutex
	snap  Snapshot
	state *reconcile.State
}

// NewTracker creates a tracker seeded with the loaded state.
func NewTracker(st *reconcile.State) *Tracker {
	t := &Tracker{}
	if st != nil {
		t.state = st.Clone()
		t.snap.Tracked = st.Len()
		t.snap.LastSync = copyTime(st.LastSync)
	}
	return t
}

// Observe stores report and the resulting state. It matches reconcile.Observer.
func (t *Tracker) Observe(report *reconcile.CycleReport, st *reconcile.State) {
	r := *report
	r.Actions = append([]reconcile.Action(nil), report.Actions...)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap.Running = true
	t.snap.DryRun = report.DryRun
	t.snap.Cycles++
	t.snap.LastReport = &r
	if st != nil {
		t.state = st.Clone()
		t.snap.Tracked = st.Len()
		t.snap.LastSync = copyTime(st.LastSync)
	}
}

// State returns a copy of the latest state, or an empty state before the
// tracker saw one.
func (t *Tracker) State() *reconcile.State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.state == nil {
		return reconcile.NewState()
	}
	return t.state.Clone()
}

// Snapshot returns a copy of the current status.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap
}

func copyTime(ts *time.Time) *time.Time {
	if ts == nil {
		return nil
	}
	c := *ts
	return &c
}

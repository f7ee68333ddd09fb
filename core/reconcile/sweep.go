package reconcile

import (
	"context"
	"errors"

	"omi-sync/core/storage"

	"go.uber.org/zap"
)

// handleDeletions removes destination files for tracked ids missing from
// the latest listing. It must only run after a successful fetch.
//
// An entry is dropped once its file is removed or confirmed absent. When
// removal fails the entry stays so the deletion is retried next cycle.
func (e *Engine) handleDeletions(ctx context.Context, st *State, fetched map[string]struct{}, report *CycleReport) {
	var deleted []string
	for _, id := range st.IDs() {
		if _, ok := fetched[id]; !ok {
			deleted = append(deleted, id)
		}
	}
	if len(deleted) == 0 {
		return
	}

	e.logger.Info("Detected deleted records", zap.Int("count", len(deleted)))
	opCtx := context.WithoutCancel(ctx)

	for _, id := range deleted {
		if ctx.Err() != nil {
			e.logger.Info("Shutdown requested, stopping deletion sweep")
			return
		}

		entry, _ := st.Get(id)
		l := e.logger.With(zap.String("id", id), zap.String("file", entry.Filename))

		if entry.Filename == "" {
			report.record(Action{Type: ActionForget, Key: id, Reason: "removed from source, no file tracked"})
			e.forget(st, id, report)
			continue
		}

		p := e.destPath(entry.Filename)
		action := Action{Type: ActionRemove, Key: id, Path: p, Reason: "removed from source"}

		if e.spec.DryRun {
			report.record(action)
			e.forget(st, id, report)
			continue
		}

		exists, err := e.store.Exists(opCtx, p)
		if err == nil && exists {
			err = e.store.Remove(opCtx, p)
			if errors.Is(err, storage.ErrNotFound) {
				err = nil
			}
		}
		if err != nil {
			l.Error("Failed to delete file", zap.Error(err))
			action.Err = err.Error()
			report.record(action)
			report.DeleteFailed++
			continue
		}

		if exists {
			l.Info("Deleted file, record removed from source")
			report.record(action)
		} else {
			l.Info("File already gone")
			report.record(Action{Type: ActionForget, Key: id, Path: p, Reason: "removed from source, file already gone"})
		}
		e.forget(st, id, report)
	}
}

func (e *Engine) forget(st *State, id string, report *CycleReport) {
	st.Delete(id)
	report.Deleted++
}

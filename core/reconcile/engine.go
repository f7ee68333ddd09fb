package reconcile

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"omi-sync/core/storage"

	"go.uber.org/zap"
)

// Engine runs reconciliation cycles of a source against a destination store.
// It processes records one at a time; it is not safe for concurrent cycles.
type Engine struct {
	spec   Spec
	source Source
	store  storage.Store
	logger *zap.Logger
}

// NewEngine creates an engine for spec.
func NewEngine(spec Spec, source Source, store storage.Store, logger *zap.Logger) *Engine {
	if spec.Clock == nil {
		spec.Clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		spec:   spec,
		source: source,
		store:  store,
		logger: logger.With(zap.String("adapter", spec.Adapter.Name())),
	}
}

// RunCycle performs one full reconciliation of the source against prev and
// returns the updated state together with a report.
//
// prev is never mutated. When the output directory cannot be prepared or the
// source listing fails, prev is returned as is and no deletion is attempted.
// In dry-run mode prev is returned and the report lists the planned actions.
//
// Cancellation is checked between records and between deletions; a record
// already being written is finished first.
func (e *Engine) RunCycle(ctx context.Context, prev *State) (*State, *CycleReport) {
	if prev == nil {
		prev = NewState()
	}
	report := &CycleReport{StartedAt: e.spec.Clock(), DryRun: e.spec.DryRun}
	finish := func(st *State) (*State, *CycleReport) {
		report.FinishedAt = e.spec.Clock()
		return st, report
	}

	if err := e.ensureOutputDir(ctx); err != nil {
		e.logger.Error("Failed to prepare output directory", zap.String("dir", e.spec.OutputDir), zap.Error(err))
		report.Error = err.Error()
		return finish(prev)
	}

	items, err := e.source.FetchAll(ctx)
	if err != nil {
		// A failed listing must never be read as "everything was deleted".
		e.logger.Warn("Failed to fetch records, skipping cycle", zap.Error(err))
		report.FetchFailed = true
		report.Error = err.Error()
		return finish(prev)
	}
	report.Fetched = len(items)

	next := prev.Clone()
	seen := make(map[string]struct{}, len(items))

	for _, item := range items {
		if ctx.Err() != nil {
			e.logger.Info("Shutdown requested, stopping sync")
			break
		}

		id := e.spec.Adapter.ExtractKey(item)
		if id == "" {
			e.logger.Warn("Record missing ID, skipping")
			report.Skipped++
			continue
		}
		seen[id] = struct{}{}

		e.syncItem(ctx, next, id, item, report)
	}

	e.handleDeletions(ctx, next, seen, report)

	if e.spec.DryRun {
		return finish(prev)
	}
	now := e.spec.Clock().UTC()
	next.LastSync = &now
	return finish(next)
}

func (e *Engine) ensureOutputDir(ctx context.Context) error {
	if e.spec.DryRun {
		return nil
	}
	exists, err := e.store.Exists(ctx, e.spec.OutputDir)
	if err != nil {
		return fmt.Errorf("check output directory: %w", err)
	}
	if exists {
		return nil
	}
	if err := e.store.Mkdir(ctx, e.spec.OutputDir); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	e.logger.Info("Created output directory", zap.String("dir", e.spec.OutputDir))
	return nil
}

// syncItem classifies one record and applies the matching destination
// operations. On failure the state entry is left untouched so the record is
// retried on the next cycle.
func (e *Engine) syncItem(ctx context.Context, st *State, id string, item Item, report *CycleReport) {
	// Let an in-flight record finish even if shutdown is requested.
	opCtx := context.WithoutCancel(ctx)

	title := e.spec.Adapter.ExtractTitle(item)
	fingerprint := Fingerprint(e.spec.Adapter.ExtractContent(item))

	var stored *Entry
	if entry, ok := st.Get(id); ok {
		stored = &entry
	}

	change := Classify(title, fingerprint, stored)
	l := e.logger.With(zap.String("id", id), zap.String("change", string(change)))

	switch change {
	case ChangeUnchanged:
		report.Unchanged++
	case ChangeTitleOnly:
		if stored.Filename == "" {
			e.regenerate(opCtx, l, st, id, item, title, fingerprint, stored, report)
			return
		}
		e.rename(opCtx, l, st, id, item, title, stored, report)
	default:
		e.regenerate(opCtx, l, st, id, item, title, fingerprint, stored, report)
	}
}

// rename moves the destination file to a name derived from the new title.
// The bytes are left alone so edits made directly in the file survive.
func (e *Engine) rename(ctx context.Context, l *zap.Logger, st *State, id string, item Item, title string, stored *Entry, report *CycleReport) {
	createdAt := e.spec.Adapter.ExtractCreatedAt(item)
	filename := AllocateFilename(title, createdAt, st.FilenamesExcept(id), e.spec.Clock())

	oldPath, newPath := e.destPath(stored.Filename), e.destPath(filename)
	l.Info("Title changed",
		zap.String("old_title", stored.Title),
		zap.String("new_title", title),
		zap.String("from", stored.Filename),
		zap.String("to", filename),
	)

	if filename != stored.Filename {
		action := Action{Type: ActionMove, Key: id, Path: newPath, From: oldPath, Reason: "title changed"}

		if !e.spec.DryRun {
			exists, err := e.store.Exists(ctx, oldPath)
			if err != nil {
				e.fail(l, report, action, err)
				return
			}
			if !exists {
				l.Warn("Old file not found for rename", zap.String("path", oldPath))
				action.Reason = "title changed, old file missing"
			} else if err := e.store.Move(ctx, oldPath, newPath, true); err != nil {
				e.fail(l, report, action, err)
				return
			}
		}
		report.record(action)
	}

	st.Put(id, Entry{Fingerprint: stored.Fingerprint, Filename: filename, Title: title})
	report.Renamed++
}

// regenerate renders and writes the document for a new or changed record,
// carrying over user metadata from the document it replaces.
func (e *Engine) regenerate(ctx context.Context, l *zap.Logger, st *State, id string, item Item, title, fingerprint string, stored *Entry, report *CycleReport) {
	createdAt := e.spec.Adapter.ExtractCreatedAt(item)

	var filename string
	titleChanged := stored != nil && stored.Title != "" && stored.Title != title
	if stored != nil && stored.Filename != "" && !titleChanged {
		filename = stored.Filename
	} else {
		filename = AllocateFilename(title, createdAt, st.FilenamesExcept(id), e.spec.Clock())
	}
	destPath := e.destPath(filename)

	// The prior document lives at the old name, or at the target name when
	// the file exists but was never tracked (for example after state loss).
	previousPath := destPath
	if stored != nil && stored.Filename != "" {
		previousPath = e.destPath(stored.Filename)
	}

	reason := "new record"
	if stored != nil {
		reason = "content changed"
	}
	action := Action{Type: ActionWrite, Key: id, Path: destPath, Reason: reason}

	if e.spec.DryRun {
		report.record(action)
		e.commitRegenerate(st, id, stored, Entry{Fingerprint: fingerprint, Filename: filename, Title: title}, report)
		return
	}

	previous := e.readPrevious(ctx, l, previousPath)

	doc, err := e.spec.Adapter.Render(item, fingerprint, e.spec.Clock().UTC(), previous)
	if err != nil {
		e.fail(l, report, action, fmt.Errorf("render: %w", err))
		return
	}
	if doc.MergeErr != nil {
		l.Warn("Could not parse existing file, user metadata not preserved",
			zap.String("path", previousPath), zap.Error(doc.MergeErr))
	}

	if err := e.store.Write(ctx, destPath, doc.Content, true); err != nil {
		e.fail(l, report, action, err)
		return
	}
	report.record(action)

	if stored != nil && stored.Filename != "" && stored.Filename != filename {
		e.removeReplaced(ctx, l, id, e.destPath(stored.Filename), report)
	}

	e.commitRegenerate(st, id, stored, Entry{Fingerprint: fingerprint, Filename: filename, Title: title}, report)
	l.Info("Synced", zap.String("file", filename), zap.String("reason", reason))
}

func (e *Engine) commitRegenerate(st *State, id string, stored *Entry, entry Entry, report *CycleReport) {
	st.Put(id, entry)
	if stored == nil {
		report.Created++
	} else {
		report.Updated++
	}
}

// readPrevious fetches the document currently at p. Failures only cost the
// metadata merge, so they are logged and reported as "no previous document".
func (e *Engine) readPrevious(ctx context.Context, l *zap.Logger, p string) []byte {
	exists, err := e.store.Exists(ctx, p)
	if err != nil {
		l.Warn("Could not check existing file", zap.String("path", p), zap.Error(err))
		return nil
	}
	if !exists {
		return nil
	}
	data, err := e.store.ReadBytes(ctx, p)
	if err != nil {
		l.Warn("Could not read existing file", zap.String("path", p), zap.Error(err))
		return nil
	}
	return data
}

// removeReplaced deletes the old file after a regeneration under a new name.
// The new file is already written, so a failure here is only a warning.
func (e *Engine) removeReplaced(ctx context.Context, l *zap.Logger, id, oldPath string, report *CycleReport) {
	action := Action{Type: ActionRemove, Key: id, Path: oldPath, Reason: "replaced by regenerated file"}

	exists, err := e.store.Exists(ctx, oldPath)
	if err == nil && exists {
		err = e.store.Remove(ctx, oldPath)
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		l.Warn("Failed to delete old file", zap.String("path", oldPath), zap.Error(err))
		action.Err = err.Error()
		report.record(action)
		return
	}
	if exists {
		report.record(action)
		l.Info("Deleted old file", zap.String("path", oldPath))
	}
}

func (e *Engine) fail(l *zap.Logger, report *CycleReport, action Action, err error) {
	l.Error("Failed to sync record", zap.String("op", string(action.Type)), zap.String("path", action.Path), zap.Error(err))
	action.Err = err.Error()
	report.record(action)
	report.Failed++
}

func (e *Engine) destPath(filename string) string {
	return path.Join(e.spec.OutputDir, filename)
}

// Package reconcile keeps a file-based destination in step with a remote
// collection of immutable records.
//
// Each cycle lists every record from a Source, compares it with the State
// recorded by the previous cycle and issues the minimal set of Store
// operations:
//
//   - new or content-changed records are rendered and written, merging user
//     metadata from the document they replace;
//   - records whose title alone changed are moved to their new filename
//     without touching the file bytes;
//   - unchanged records are left alone;
//   - tracked records missing from a successful listing are deleted.
//
// # Architecture
//
// The engine is record agnostic. An Adapter extracts the id, title,
// creation time and content subset of a record and renders its document.
// See feature/conversation for the Omi conversation adapter.
//
//  1. Fingerprint: xxHash64 over the canonical JSON of the content subset.
//  2. Classify: new, unchanged, title-only or content-changed.
//  3. AllocateFilename: sanitized title, date suffix on collision.
//  4. Engine: per-record decisions and the deletion sweep.
//  5. Runner: the sequential cycle loop with state persistence.
//
// # Safety
//
// The deletion sweep runs only after a complete listing. A failed fetch
// returns the previous state untouched. Store failures for one record leave
// its entry as it was so the record is retried on the next cycle.
//
// # Usage
//
//	engine := reconcile.NewEngine(reconcile.Spec{
//	    Adapter:   conversation.NewAdapter(),
//	    OutputDir: cfg.Sync.OutputDir,
//	}, source, store, logger)
//
//	next, report := engine.RunCycle(ctx, state)
package reconcile

// Package state persists the sync state between runs.
//
// Two backends are available, selected by Config.Driver:
//
//   - "file" keeps a versioned JSON document on local disk, replaced
//     atomically on every save.
//   - "database" keeps one row per record in the sync_entries table through
//     GORM, replaced in a single transaction on every save.
//
// A missing or unreadable state is never fatal: LoadOrEmpty logs the
// problem and starts from an empty state, so the next cycle treats every
// record as new and re-links files by name.
//
// # Usage
//
//	backend, err := state.Open(cfg.State, db)
//	st := state.LoadOrEmpty(ctx, backend, log)
//	runner := reconcile.NewRunner(engine, backend, interval, log)
package state

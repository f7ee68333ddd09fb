package reconcile

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Persister stores the state after each cycle.
type Persister interface {
	Save(ctx context.Context, st *State) error
}

// Observer receives every finished cycle report with the resulting state.
type Observer func(report *CycleReport, st *State)

// Runner drives sequential cycles separated by a fixed interval.
type Runner struct {
	engine    *Engine
	persister Persister
	interval  time.Duration
	logger    *zap.Logger
	observers []Observer
}

// NewRunner creates a runner for engine that saves state through persister.
func NewRunner(engine *Engine, persister Persister, interval time.Duration, logger *zap.Logger, observers ...Observer) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		engine:    engine,
		persister: persister,
		interval:  interval,
		logger:    logger,
		observers: observers,
	}
}

// Run executes cycles until ctx is cancelled and returns the final state.
// The state is saved after every cycle and once more on shutdown.
func (r *Runner) Run(ctx context.Context, st *State) *State {
	if st == nil {
		st = NewState()
	}

	for ctx.Err() == nil {
		st = r.RunOnce(ctx, st)

		timer := time.NewTimer(r.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}

	r.logger.Info("Shutting down, saving final state")
	r.save(context.Background(), st)
	return st
}

// RunOnce runs a single cycle and saves the result. A panic inside the
// cycle is logged and the previous state is kept.
func (r *Runner) RunOnce(ctx context.Context, st *State) (next *State) {
	next = st
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Sync cycle failed",
				zap.Error(fmt.Errorf("panic: %v", rec)),
				zap.Stack("stack"),
			)
			next = st
		}
	}()

	r.logger.Info("Starting sync cycle")
	updated, report := r.engine.RunCycle(ctx, st)
	LogReport(r.logger, report)

	r.save(context.WithoutCancel(ctx), updated)
	for _, observe := range r.observers {
		observe(report, updated)
	}
	return updated
}

func (r *Runner) save(ctx context.Context, st *State) {
	if r.persister == nil || r.engine.spec.DryRun {
		return
	}
	if err := r.persister.Save(ctx, st); err != nil {
		r.logger.Error("Failed to save state", zap.Error(err))
		return
	}
	r.logger.Debug("State saved", zap.Int("entries", st.Len()))
}

// LogReport writes the summary of a cycle to l.
func LogReport(l *zap.Logger, report *CycleReport) {
	if report.FetchFailed || report.Error != "" {
		l.Warn("Sync cycle skipped",
			zap.Bool("fetch_failed", report.FetchFailed),
			zap.String("error", report.Error),
			zap.Duration("duration", report.Duration()),
		)
		return
	}
	l.Info("Sync complete",
		zap.Bool("dry_run", report.DryRun),
		zap.Int("fetched", report.Fetched),
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("renamed", report.Renamed),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int("deleted", report.Deleted),
		zap.Int("delete_failed", report.DeleteFailed),
		zap.Duration("duration", report.Duration()),
	)
}

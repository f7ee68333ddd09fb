package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"omi-sync/core/reconcile"
	"omi-sync/core/state"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var syncDryRun bool

// syncCmd runs a single cycle.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync cycle and exit",
	Long: `Runs a single sync cycle against the stored state and exits.

Examples:
  # Apply changes
  omi-sync sync

  # Show what would change without writing anything
  omi-sync sync --dry-run`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Plan without touching the output directory or the state")
	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap(ctx, syncDryRun)
	if err != nil {
		return err
	}
	defer rt.close()

	st := state.LoadOrEmpty(ctx, rt.backend, rt.logger)

	var report *reconcile.CycleReport
	runner := reconcile.NewRunner(rt.engine, rt.backend, 0, rt.logger, func(r *reconcile.CycleReport, _ *reconcile.State) {
		report = r
	})
	runner.RunOnce(ctx, st)

	if report == nil {
		return fmt.Errorf("sync cycle did not complete")
	}
	printActions(rt.logger, report)

	if report.FetchFailed || report.Error != "" {
		return fmt.Errorf("sync cycle skipped: %s", report.Error)
	}
	if syncDryRun {
		rt.logger.Info("Dry-run mode: No changes were made.")
	}
	return nil
}

// printActions logs the operations of a cycle. Dry runs list every planned
// action; applied cycles only show the first few.
func printActions(l *zap.Logger, report *reconcile.CycleReport) {
	maxShow := 5
	if report.DryRun || len(report.Actions) < maxShow {
		maxShow = len(report.Actions)
	}

	for _, action := range report.Actions[:maxShow] {
		fields := []zap.Field{
			zap.String("type", string(action.Type)),
			zap.String("key", action.Key),
			zap.String("path", action.Path),
			zap.String("reason", action.Reason),
		}
		if action.From != "" {
			fields = append(fields, zap.String("from", action.From))
		}
		if action.Err != "" {
			fields = append(fields, zap.String("error", action.Err))
		}
		l.Info("Action", fields...)
	}
	if len(report.Actions) > maxShow {
		l.Info("Additional actions not shown", zap.Int("count", len(report.Actions)-maxShow))
	}
}

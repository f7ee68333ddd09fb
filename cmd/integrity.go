package cmd

import (
	"context"
	"fmt"

	"omi-sync/core/state"
	"omi-sync/core/storage"
	"omi-sync/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fixIntegrity bool

// integrityCmd checks the stored state against the output directory.
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Check that every tracked conversation still has its document",
	Long: `Reports tracked conversations whose documents are missing from the output
directory and, with the database state driver, missing state table columns.

With --fix the entries of missing documents are forgotten so the next cycle
writes them again. Do not run --fix while "start" is running.

Examples:
  omi-sync integrity
  omi-sync integrity --fix --yes`,
	RunE: runIntegrity,
}

func init() {
	integrityCmd.Flags().BoolVar(&fixIntegrity, "fix", false, "Forget entries whose documents are missing")
	integrityCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm (non-interactive)")
	RootCmd.AddCommand(integrityCmd)
}

func runIntegrity(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, l, err := loadConfig()
	if err != nil {
		return err
	}
	defer l.Sync()

	backend, db, err := openBackend(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer closeDB(db)

	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to connect to storage: %w", err)
	}

	st, err := backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	svc := integrity.NewService(store, cfg.Sync.OutputDir, db, l)

	if cfg.State.Driver == state.DriverDatabase {
		missing, err := svc.CheckSchema(ctx)
		if err != nil {
			return fmt.Errorf("schema check failed: %w", err)
		}
		for table, columns := range missing {
			l.Warn("State table incomplete", zap.String("table", table), zap.Strings("missing", columns))
		}
	}

	report, err := svc.CheckFiles(ctx, st)
	if err != nil {
		return fmt.Errorf("files check failed: %w", err)
	}
	l.Info("Files check",
		zap.Int("tracked", report.Tracked),
		zap.Int("missing", len(report.Missing)),
	)
	for _, m := range report.Missing {
		l.Warn("Missing document", zap.String("id", m.ID), zap.String("path", m.Path))
	}

	if !fixIntegrity || len(report.Missing) == 0 {
		return nil
	}
	if !confirmDestructiveAction() {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	forgotten := svc.RepairFiles(st, report.Missing)
	if err := backend.Save(ctx, st); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	l.Info("Successfully forgot entries", zap.Int("count", forgotten))
	return nil
}

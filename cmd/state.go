package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"omi-sync/core/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var yesConfirm bool

// stateCmd is the parent command for state maintenance.
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or reset the sync state",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored sync state as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
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

		st, err := backend.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load state: %w", err)
		}

		out := struct {
			LastSync      *time.Time                 `json:"last_sync"`
			Conversations map[string]reconcile.Entry `json:"conversations"`
		}{LastSync: st.LastSync, Conversations: st.Entries}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget every tracked conversation",
	Long: `Discards the stored state. Files already written stay in place; the next
cycle treats every conversation as new and writes it under a fresh filename.`,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		if !confirmDestructiveAction() {
			l.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}

		if err := backend.Reset(ctx); err != nil {
			return fmt.Errorf("failed to reset state: %w", err)
		}
		l.Info("State reset", zap.String("driver", cfg.State.Driver))
		return nil
	},
}

func init() {
	stateResetCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm (non-interactive)")
	stateCmd.AddCommand(stateShowCmd, stateResetCmd)
	RootCmd.AddCommand(stateCmd)
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to confirm: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}

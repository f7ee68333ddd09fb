package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"omi-sync/core/loader"
	"omi-sync/core/logger"
	"omi-sync/core/middleware/auth"
	"omi-sync/core/middleware/rayid"
	"omi-sync/core/reconcile"
	"omi-sync/core/state"
	"omi-sync/feature/integrity"
	"omi-sync/feature/status"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var startDryRun bool

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the sync loop",
	Long: `Runs a sync cycle immediately and then every SYNC_INTERVAL_SECONDS until
interrupted. When SERVER_PORT is set, a status server is started alongside.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := bootstrap(ctx, startDryRun)
		if err != nil {
			return err
		}
		defer rt.close()
		zap.ReplaceGlobals(rt.logger)

		st := state.LoadOrEmpty(ctx, rt.backend, rt.logger)
		tracker := status.NewTracker(st)
		runner := reconcile.NewRunner(rt.engine, rt.backend, rt.cfg.Sync.Interval(), rt.logger, tracker.Observe)

		rt.logger.Info("Starting sync",
			zap.String("output_dir", rt.cfg.Sync.OutputDir),
			zap.Duration("interval", rt.cfg.Sync.Interval()),
			zap.Bool("dry_run", startDryRun),
		)

		var app *fiber.App
		if rt.cfg.Server.Enabled() {
			if app, err = newServer(rt, tracker); err != nil {
				return err
			}
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			runner.Run(gctx, st)
			return nil
		})

		if app != nil {
			g.Go(func() error {
				rt.logger.Info("Starting server", zap.String("address", rt.cfg.Server.Address()))
				return app.Listen(rt.cfg.Server.Address())
			})
			g.Go(func() error {
				<-gctx.Done()
				rt.logger.Info("Shutting down server...")
				return app.ShutdownWithTimeout(rt.cfg.Server.ShutdownTimeout())
			})
		}

		return g.Wait()
	},
}

// newServer builds the status HTTP server.
func newServer(rt *components, tracker *status.Tracker) (*fiber.App, error) {
	cfg, logg := rt.cfg, rt.logger
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	mgr := loader.NewManager()
	mgr.Register(status.NewFeature(tracker, logg))
	mgr.Register(integrity.NewFeature(
		integrity.NewService(rt.store, cfg.Sync.OutputDir, rt.db, logg),
		tracker.State,
	))

	// RayID first so every log line carries it
	app.Use(rayid.New())

	app.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(logg, c)
		l.Debug("Request started",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		err := c.Next()
		if err != nil {
			l.Error("Request error", zap.Error(err))
		}
		return err
	})

	app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey, Skip: []string{"/health"}}))

	if err := mgr.LoadAll(app); err != nil {
		return nil, err
	}
	return app, nil
}

func init() {
	startCmd.Flags().BoolVar(&startDryRun, "dry-run", false, "Plan every cycle without touching the output directory or the state")
	RootCmd.AddCommand(startCmd)
}

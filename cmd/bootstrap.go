package cmd

import (
	"context"
	"fmt"

	"omi-sync/core/config"
	"omi-sync/core/database"
	"omi-sync/core/logger"
	"omi-sync/core/reconcile"
	"omi-sync/core/state"
	"omi-sync/core/storage"
	"omi-sync/feature/conversation"
	"omi-sync/feature/omi"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// components holds what the commands share once wired.
type components struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *gorm.DB
	store   storage.Store
	backend state.Backend
	engine  *reconcile.Engine
}

// loadConfig reads and validates the configuration and builds the logger.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, l, nil
}

// openBackend connects the state backend selected by the configuration.
// The database connection is only opened for the database driver.
func openBackend(ctx context.Context, cfg *config.Config, l *zap.Logger) (state.Backend, *gorm.DB, error) {
	var db *gorm.DB
	if cfg.State.Driver == state.DriverDatabase {
		conn, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		db = conn
		l.Info("Connected to state database", zap.String("driver", cfg.Database.Driver))
	}

	backend, err := state.Open(cfg.State, db)
	if err != nil {
		closeDB(db)
		return nil, nil, err
	}

	if dbb, ok := backend.(*state.DBBackend); ok {
		if err := dbb.Migrate(ctx); err != nil {
			closeDB(db)
			return nil, nil, fmt.Errorf("failed to prepare state schema: %w", err)
		}
	}
	return backend, db, nil
}

// bootstrap wires configuration, logging, state, storage, the Omi client
// and the conversation engine.
func bootstrap(ctx context.Context, dryRun bool) (*components, error) {
	cfg, l, err := loadConfig()
	if err != nil {
		return nil, err
	}

	backend, db, err := openBackend(ctx, cfg, l)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("failed to connect to storage: %w", err)
	}

	client := omi.NewClient(cfg.Omi, l)
	engine := reconcile.NewEngine(reconcile.Spec{
		Adapter:   conversation.NewAdapter(),
		OutputDir: cfg.Sync.OutputDir,
		DryRun:    dryRun,
	}, conversation.NewSource(client), store, l)

	return &components{
		cfg:     cfg,
		logger:  l,
		db:      db,
		store:   store,
		backend: backend,
		engine:  engine,
	}, nil
}

func (r *components) close() {
	closeDB(r.db)
	_ = r.logger.Sync()
}

func closeDB(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

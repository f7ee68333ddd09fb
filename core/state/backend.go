package state

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"omi-sync/core/reconcile"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FormatVersion is the version written with every saved state.
const FormatVersion = 1

// ErrCorrupt is returned when stored state cannot be decoded.
var ErrCorrupt = errors.New("state is corrupt")

// Backend loads and saves the sync state.
type Backend interface {
	// Load returns the stored state. A backend with nothing stored yet
	// returns an empty state and no error.
	Load(ctx context.Context) (*reconcile.State, error)
	// Save replaces the stored state with st.
	Save(ctx context.Context, st *reconcile.State) error
	// Reset discards the stored state.
	Reset(ctx context.Context) error
}

// Open creates the backend selected by cfg.Driver. db is only used by the
// database driver and may be nil otherwise.
func Open(cfg Config, db *gorm.DB) (Backend, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverFile, "":
		return NewFileBackend(cfg.Path)
	case DriverDatabase:
		if db == nil {
			return nil, errors.New("state: database driver selected but no database connection")
		}
		return NewDBBackend(db), nil
	default:
		return nil, fmt.Errorf("unknown state driver %q", cfg.Driver)
	}
}

// LoadOrEmpty loads the state from b and drops malformed entries.
// Load failures are logged and yield an empty state.
func LoadOrEmpty(ctx context.Context, b Backend, l *zap.Logger) *reconcile.State {
	st, err := b.Load(ctx)
	if err != nil {
		l.Warn("Could not load state, starting fresh", zap.Error(err))
		return reconcile.NewState()
	}

	if dropped := st.Normalize(); len(dropped) > 0 {
		l.Warn("Dropped malformed state entries", zap.Strings("ids", dropped))
	}
	l.Info("Loaded state", zap.Int("entries", st.Len()))
	return st
}

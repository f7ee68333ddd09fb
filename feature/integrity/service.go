package integrity

import (
	"context"
	"errors"
	"fmt"
	"path"

	"omi-sync/core/reconcile"
	"omi-sync/core/state"
	"omi-sync/core/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNoDatabase is returned by schema checks when the state is not kept in a database.
var ErrNoDatabase = errors.New("integrity: state is not stored in a database")

// MissingFile is a tracked entry whose document is gone.
type MissingFile struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// FilesReport is the outcome of a files check.
type FilesReport struct {
	Tracked int           `json:"tracked"`
	Missing []MissingFile `json:"missing"`
}

// Service handles integrity checks.
type Service struct {
	store     storage.Store
	outputDir string
	db        *gorm.DB
	logger    *zap.Logger
}

// NewService creates a new integrity service. db may be nil.
func NewService(store storage.Store, outputDir string, db *gorm.DB, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		outputDir: outputDir,
		db:        db,
		logger:    logger,
	}
}

// CheckFiles returns the entries of st whose documents do not exist.
func (s *Service) CheckFiles(ctx context.Context, st *reconcile.State) (*FilesReport, error) {
	report := &FilesReport{Tracked: st.Len(), Missing: []MissingFile{}}

	for _, id := range st.IDs() {
		entry, _ := st.Get(id)
		p := path.Join(s.outputDir, entry.Filename)

		exists, err := s.store.Exists(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", p, err)
		}
		if !exists {
			report.Missing = append(report.Missing, MissingFile{ID: id, Filename: entry.Filename, Path: p})
		}
	}
	return report, nil
}

// RepairFiles forgets the entries of missing documents so the next cycle
// writes them again. Entries that moved on since the check are kept.
func (s *Service) RepairFiles(st *reconcile.State, missing []MissingFile) int {
	forgotten := 0
	for _, m := range missing {
		entry, ok := st.Get(m.ID)
		if !ok || entry.Filename != m.Filename {
			continue
		}
		st.Delete(m.ID)
		forgotten++
		s.logger.Info("Forgot entry with missing document", zap.String("id", m.ID), zap.String("filename", m.Filename))
	}
	return forgotten
}

// CheckSchema returns the missing columns per state table.
func (s *Service) CheckSchema(ctx context.Context) (map[string][]string, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}
	return state.CheckSchema(ctx, s.db)
}

package state

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"omi-sync/core/database"
	"omi-sync/core/reconcile"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	metaVersion  = "version"
	metaLastSync = "last_sync"
)

// EntryRow is one record of the sync_entries table.
type EntryRow struct {
	ID          string    `gorm:"column:id;primaryKey;size:64"`
	Fingerprint string    `gorm:"column:omi_hash;size:32"`
	Filename    string    `gorm:"column:filename;size:255;uniqueIndex"`
	Title       string    `gorm:"column:title;size:512"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name used by EntryRow.
func (EntryRow) TableName() string { return "sync_entries" }

// MetaRow is one key/value pair of the sync_meta table.
type MetaRow struct {
	Key   string `gorm:"column:key;primaryKey;size:64"`
	Value string `gorm:"column:value;size:255"`
}

// TableName overrides the table name used by MetaRow.
func (MetaRow) TableName() string { return "sync_meta" }

// DBBackend stores the state in SQL tables.
type DBBackend struct {
	db *gorm.DB
}

// NewDBBackend creates a backend on db. Call Migrate before first use.
func NewDBBackend(db *gorm.DB) *DBBackend {
	return &DBBackend{db: db}
}

// Migrate creates or updates the state tables and checks the result.
func (b *DBBackend) Migrate(ctx context.Context) error {
	if err := b.db.WithContext(ctx).AutoMigrate(&EntryRow{}, &MetaRow{}); err != nil {
		return fmt.Errorf("state: migrate: %w", err)
	}

	missing, err := CheckSchema(ctx, b.db)
	if err != nil {
		return err
	}
	if tables := sortedKeys(missing); len(tables) > 0 {
		return fmt.Errorf("state: table %s is missing columns %v", tables[0], missing[tables[0]])
	}
	return nil
}

// SchemaColumns lists the columns each state table must have.
var SchemaColumns = map[string][]string{
	EntryRow{}.TableName(): {"id", "omi_hash", "filename", "title", "updated_at"},
	MetaRow{}.TableName():  {"key", "value"},
}

// CheckSchema returns the missing columns of every state table that is
// incomplete. An empty result means the schema is usable.
func CheckSchema(ctx context.Context, db *gorm.DB) (map[string][]string, error) {
	db = db.WithContext(ctx)
	result := make(map[string][]string)
	for _, table := range sortedKeys(SchemaColumns) {
		missing, err := database.MissingColumns(db, table, SchemaColumns[table]...)
		if err != nil {
			return nil, fmt.Errorf("state: inspect %s: %w", table, err)
		}
		if len(missing) > 0 {
			result[table] = missing
		}
	}
	return result, nil
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load reads every entry and the last sync time.
func (b *DBBackend) Load(ctx context.Context) (*reconcile.State, error) {
	db := b.db.WithContext(ctx)

	var rows []EntryRow
	if err := db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("state: load entries: %w", err)
	}
	var metas []MetaRow
	if err := db.Find(&metas).Error; err != nil {
		return nil, fmt.Errorf("state: load meta: %w", err)
	}

	st := reconcile.NewState()
	for _, r := range rows {
		st.Put(r.ID, reconcile.Entry{Fingerprint: r.Fingerprint, Filename: r.Filename, Title: r.Title})
	}
	for _, m := range metas {
		switch m.Key {
		case metaVersion:
			if v, err := strconv.Atoi(m.Value); err == nil && v > FormatVersion {
				return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
			}
		case metaLastSync:
			if ts, err := reconcile.ParseTimestamp(m.Value); err == nil {
				st.LastSync = &ts
			}
		}
	}
	return st, nil
}

// Save replaces all rows with st in one transaction.
func (b *DBBackend) Save(ctx context.Context, st *reconcile.State) error {
	now := time.Now().UTC()
	rows := make([]EntryRow, 0, st.Len())
	for _, id := range st.IDs() {
		e, _ := st.Get(id)
		rows = append(rows, EntryRow{ID: id, Fingerprint: e.Fingerprint, Filename: e.Filename, Title: e.Title, UpdatedAt: now})
	}

	lastSync := ""
	if st.LastSync != nil {
		lastSync = st.LastSync.UTC().Format(time.RFC3339Nano)
	}
	metas := []MetaRow{
		{Key: metaVersion, Value: strconv.Itoa(FormatVersion)},
		{Key: metaLastSync, Value: lastSync},
	}

	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&EntryRow{}).Error; err != nil {
			return err
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&metas).Error
	})
	if err != nil {
		return fmt.Errorf("state: save: %w", err)
	}
	return nil
}

// Reset deletes every entry and meta row.
func (b *DBBackend) Reset(ctx context.Context) error {
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&EntryRow{}).Error; err != nil {
			return err
		}
		return tx.Where("1 = 1").Delete(&MetaRow{}).Error
	})
	if err != nil {
		return fmt.Errorf("state: reset: %w", err)
	}
	return nil
}

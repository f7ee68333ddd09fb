package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"omi-sync/core/database"
	"omi-sync/core/reconcile"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestDBBackend_Load(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT \\* FROM `sync_entries`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "omi_hash", "filename", "title", "updated_at"}).
			AddRow("c1", "0123456789abcdef", "Morning Chat.md", "Morning Chat", time.Now()).
			AddRow("c2", "fedcba9876543210", "Standup.md", "Standup", time.Now()))
	mock.ExpectQuery("SELECT \\* FROM `sync_meta`").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).
			AddRow("version", "1").
			AddRow("last_sync", "2024-01-15T08:00:00Z"))

	st, err := NewDBBackend(db).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"c1", "c2"}, st.IDs())
	entry, _ := st.Get("c1")
	assert.Equal(t, reconcile.Entry{Fingerprint: "0123456789abcdef", Filename: "Morning Chat.md", Title: "Morning Chat"}, entry)
	require.NotNil(t, st.LastSync)
	assert.Equal(t, 2024, st.LastSync.Year())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBBackend_LoadFutureVersion(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT \\* FROM `sync_entries`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "omi_hash", "filename", "title", "updated_at"}))
	mock.ExpectQuery("SELECT \\* FROM `sync_meta`").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).AddRow("version", "7"))

	_, err := NewDBBackend(db).Load(context.Background())
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDBBackend_LoadError(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `sync_entries`").WillReturnError(errors.New("table missing"))

	_, err := NewDBBackend(db).Load(context.Background())
	assert.ErrorContains(t, err, "table missing")
}

func TestDBBackend_Save(t *testing.T) {
	db, mock := setupMockDB(t)

	ts := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	st := reconcile.NewState()
	st.LastSync = &ts
	st.Put("c1", reconcile.Entry{Fingerprint: "0123456789abcdef", Filename: "Morning Chat.md", Title: "Morning Chat"})

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `sync_entries` WHERE 1 = 1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO `sync_entries`").
		WithArgs("c1", "0123456789abcdef", "Morning Chat.md", "Morning Chat", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `sync_meta`.*ON DUPLICATE KEY UPDATE").
		WithArgs("version", "1", "last_sync", "2024-01-15T08:00:00Z").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, NewDBBackend(db).Save(context.Background(), st))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBBackend_SaveEmptySkipsInsert(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `sync_entries`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO `sync_meta`").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, NewDBBackend(db).Save(context.Background(), reconcile.NewState()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBBackend_SaveRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `sync_entries`").WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	err := NewDBBackend(db).Save(context.Background(), reconcile.NewState())
	assert.ErrorContains(t, err, "lock wait timeout")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDBBackend_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	b := NewDBBackend(db)
	require.NoError(t, b.Migrate(ctx))

	ts := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	st := reconcile.NewState()
	st.LastSync = &ts
	st.Put("c1", reconcile.Entry{Fingerprint: "a", Filename: "A.md", Title: "A"})
	st.Put("c2", reconcile.Entry{Fingerprint: "b", Filename: "B.md", Title: "B"})
	require.NoError(t, b.Save(ctx, st))

	// A second save replaces rather than appends.
	st.Delete("c2")
	require.NoError(t, b.Save(ctx, st))

	loaded, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, st.Entries, loaded.Entries)
	require.NotNil(t, loaded.LastSync)
	assert.True(t, ts.Equal(*loaded.LastSync))

	require.NoError(t, b.Reset(ctx))
	loaded, err = b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())
	assert.Nil(t, loaded.LastSync)
}

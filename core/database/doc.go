// Package database handles database connections and schema inspection.
//
// It wraps GORM to open MySQL or SQLite connections from the application's
// configuration. The connection is only needed when sync state is kept in
// SQL tables rather than a JSON file.
//
// # Connect
//
// Connect opens the connection, sizes the pool for the driver and pings the
// server within the configured timeout.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns read the live table definition so the
// state backend can confirm its tables match the expected columns after
// migration.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    return fmt.Errorf("database: %w", err)
//	}
//
//	missing, err := database.MissingColumns(db, "sync_entries", "id", "omi_hash")
package database

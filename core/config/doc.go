// Package config loads the application configuration.
//
// Values come from environment variables, optionally seeded from a .env
// file. Every field carries a `default` tag which is registered with Viper
// so that nested keys resolve from their environment names
// (sync.interval_seconds is read from SYNC_INTERVAL_SECONDS).
//
// # Configuration Structure
//
//   - Omi: API key, base URL, paging and rate limit handling
//   - Storage: destination store (S3/MinIO bucket or local directory)
//   - Sync: output directory and cycle interval
//   - State: where the sync state is persisted (JSON file or database)
//   - Database: MySQL or SQLite connection, used by the database state driver
//   - Log: logging level and format
//   - Server: optional status HTTP server
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

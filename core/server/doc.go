// Package server holds the status HTTP server configuration.
//
// The server is optional: it only starts when a port is configured. It exposes
// the health probe and the last sync report.
//
// # Configuration
//
// The Config struct defines the HTTP port, API key, and the graceful shutdown
// timeout.
//
// # Usage
//
// This package is used by the core/config package to embed server settings
// and by the start command to decide whether to listen.
package server

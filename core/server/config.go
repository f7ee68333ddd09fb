package server

import "time"

// Config holds configuration for the optional status HTTP server.
type Config struct {
	// Port is the port where the server will listen. Empty disables the server.
	Port string `mapstructure:"port" default:"" validate:"omitempty,numeric"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// ShutdownTimeoutSeconds bounds the graceful shutdown of the server.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" default:"5"`
}

// Enabled reports whether the status server should be started.
func (c Config) Enabled() bool {
	return c.Port != ""
}

// Address returns the listen address for Port.
func (c Config) Address() string {
	return ":" + c.Port
}

// ShutdownTimeout returns ShutdownTimeoutSeconds as a duration, defaulting to five seconds.
func (c Config) ShutdownTimeout() time.Duration {
	if c.ShutdownTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

package omi

import "time"

// Config holds configuration for the Omi API client.
type Config struct {
	// APIKey is the developer API key sent as a bearer token.
	APIKey string `mapstructure:"api_key" default:"" validate:"required"`
	// BaseURL is the developer API root.
	BaseURL string `mapstructure:"base_url" default:"https://api.omi.me/v1/dev" validate:"required,url"`
	// PageSize is the number of conversations requested per page.
	PageSize int `mapstructure:"page_size" default:"25" validate:"gte=1,lte=100"`
	// RequestDelayMS is the pause between page requests, in milliseconds.
	RequestDelayMS int `mapstructure:"request_delay_ms" default:"150" validate:"gte=0"`
	// TimeoutSeconds bounds every request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30" validate:"gte=1"`
	// MaxRetries caps consecutive rate-limited retries of one page.
	MaxRetries int `mapstructure:"max_retries" default:"5" validate:"gte=0"`
	// DefaultRetryAfterSeconds is used when a 429 carries no usable Retry-After.
	DefaultRetryAfterSeconds int `mapstructure:"default_retry_after_seconds" default:"60" validate:"gte=0"`
}

// RequestDelay returns RequestDelayMS as a duration.
func (c Config) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelayMS) * time.Millisecond
}

// Timeout returns TimeoutSeconds as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

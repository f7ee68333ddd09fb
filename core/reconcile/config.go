package reconcile

import "time"

// Config holds the sync loop settings.
type Config struct {
	// OutputDir is the destination directory for rendered documents.
	OutputDir string `mapstructure:"output_dir" default:"/conversations" validate:"required"`
	// IntervalSeconds is the pause between two cycles.
	IntervalSeconds int `mapstructure:"interval_seconds" default:"300" validate:"gte=1"`
}

// Interval returns the pause between cycles.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

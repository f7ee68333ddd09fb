package state

// Config holds configuration for state persistence.
type Config struct {
	// Driver selects the backend: "file" or "database".
	Driver string `mapstructure:"driver" default:"file" validate:"oneof=file database"`
	// Path is the JSON state file used by the file driver.
	Path string `mapstructure:"path" default:"state/sync_state.json" validate:"required_if=Driver file"`
}

const (
	// DriverFile stores state in a JSON file.
	DriverFile = "file"
	// DriverDatabase stores state in SQL tables.
	DriverDatabase = "database"
)

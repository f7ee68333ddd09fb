package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"omi-sync/core/database"
	"omi-sync/core/logger"
	"omi-sync/core/reconcile"
	"omi-sync/core/server"
	"omi-sync/core/state"
	"omi-sync/core/storage"
	"omi-sync/feature/omi"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Omi holds configuration for the Omi API client.
	Omi omi.Config `mapstructure:"omi"`
	// Storage holds configuration for the destination store (S3/MinIO or local directory).
	Storage storage.Config `mapstructure:"storage"`
	// Sync holds the cycle interval and output directory.
	Sync reconcile.Config `mapstructure:"sync"`
	// State holds configuration for state persistence.
	State state.Config `mapstructure:"state"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Server holds configuration for the optional status HTTP server.
	Server server.Config `mapstructure:"server"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. OMI_API_KEY -> omi.api_key)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks required fields and allowed values.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// describe renders a validation failure using the environment variable name.
func describe(fe validator.FieldError) string {
	env := envName(fe.StructNamespace())
	switch fe.Tag() {
	case "required", "required_if":
		return env + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", env, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s %s", env, fe.Tag(), fe.Param())
	}
}

// envName maps a struct namespace such as "Config.Omi.APIKey" to the
// matching environment variable, "OMI_API_KEY".
func envName(namespace string) string {
	t := reflect.TypeOf(Config{})
	parts := strings.Split(namespace, ".")
	var keys []string
	for _, name := range parts[1:] {
		field, ok := t.FieldByName(name)
		if !ok {
			return namespace
		}
		keys = append(keys, field.Tag.Get("mapstructure"))
		t = field.Type
	}
	return strings.ToUpper(strings.Join(keys, "_"))
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}

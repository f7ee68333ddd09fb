package storage

// Config holds configuration for the destination store.
type Config struct {
	// Driver selects the backend: "s3" (S3/MinIO bucket) or "fs" (local directory).
	Driver string `mapstructure:"driver" default:"s3" validate:"oneof=s3 fs"`
	// Endpoint is the URL of the storage service.
	Endpoint string `mapstructure:"endpoint" default:"" validate:"required_if=Driver s3"`
	// AccessKey is the access key ID for authentication.
	AccessKey string `mapstructure:"access_key" default:"" validate:"required_if=Driver s3"`
	// SecretKey is the secret access key for authentication.
	SecretKey string `mapstructure:"secret_key" default:"" validate:"required_if=Driver s3"`
	// UseSSL indicates whether to use SSL/TLS for connections.
	UseSSL bool `mapstructure:"use_ssl" default:"false"`
	// Bucket is the name of the bucket documents are written to.
	Bucket string `mapstructure:"bucket" default:"conversations" validate:"required_if=Driver s3"`
	// Region is the location of the bucket (e.g., us-east-1).
	Region string `mapstructure:"region" default:""`
	// TimeoutSeconds is the connection timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// Root is the destination directory for the fs driver.
	Root string `mapstructure:"root" default:"" validate:"required_if=Driver fs"`
}

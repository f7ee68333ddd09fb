// Package utils provides loose type conversion helpers for decoded JSON
// values whose type varies between API versions.
package utils

package server_test

import (
	"testing"
	"time"

	"omi-sync/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Enabled(t *testing.T) {
	tests := []struct {
		name string
		port string
		want bool
	}{
		{"Disabled", "", false},
		{"Enabled", "8080", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := server.Config{Port: tt.port}
			assert.Equal(t, tt.want, c.Enabled())
		})
	}
}

func TestConfig_Address(t *testing.T) {
	assert.Equal(t, ":9090", server.Config{Port: "9090"}.Address())
}

func TestConfig_ShutdownTimeout(t *testing.T) {
	assert.Equal(t, 5*time.Second, server.Config{}.ShutdownTimeout())
	assert.Equal(t, 2*time.Second, server.Config{ShutdownTimeoutSeconds: 2}.ShutdownTimeout())
}

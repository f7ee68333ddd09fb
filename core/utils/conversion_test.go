package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToInt(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want int
	}{
		{"Int", 3, 3},
		{"Float", float64(2), 2},
		{"String", "7", 7},
		{"Bytes", []byte("12"), 12},
		{"JSONNumber", json.Number("5"), 5},
		{"JSONNumberFloat", json.Number("4.0"), 4},
		{"DiarizationLabel", "SPEAKER_01", 1},
		{"Label", "speaker", 0},
		{"Nil", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToInt(tt.val))
		})
	}
}

func TestToBool(t *testing.T) {
	assert.True(t, ToBool(true))
	assert.True(t, ToBool("TRUE"))
	assert.True(t, ToBool(1))
	assert.True(t, ToBool(float64(1)))
	assert.True(t, ToBool([]byte("1")))
	assert.False(t, ToBool("no"))
	assert.False(t, ToBool(nil))
}

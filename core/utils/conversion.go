package utils

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ToInt converts a decoded JSON value to int. Numbers may arrive as
// float64, json.Number or numeric strings; diarization labels such as
// "SPEAKER_01" yield their trailing number. Anything else is 0.
func ToInt(val any) int {
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return int(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
		f, _ := v.Float64()
		return ToInt(f)
	case string:
		return parseInt(v)
	case []byte:
		return parseInt(string(v))
	default:
		return 0
	}
}

// parseInt reads s as a number, falling back to the digits it ends with.
func parseInt(s string) int {
	s = strings.TrimSpace(s)
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	end := len(s)
	start := strings.LastIndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) + 1
	if start >= end {
		return 0
	}
	i, _ := strconv.Atoi(s[start:end])
	return i
}

// ToBool converts a decoded JSON value to bool.
// It handles bool, numbers (1=true) and the strings "1" and "true".
func ToBool(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case int, int64, int32, float64, json.Number:
		return ToInt(v) == 1
	case string:
		s := strings.TrimSpace(v)
		return s == "1" || strings.EqualFold(s, "true")
	case []byte:
		return ToBool(string(v))
	default:
		return false
	}
}

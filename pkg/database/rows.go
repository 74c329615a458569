package database

import (
	"strconv"
	"time"
)

// Coercion helpers for Row values. Drivers disagree on scan types (lib/pq
// hands back bool and int64, sqlite hands back int64 for booleans, text may
// arrive as []byte), so repositories go through these instead of asserting.

func AsInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case []byte:
		i, _ := strconv.ParseInt(string(n), 10, 64)
		return i
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	}
	return 0
}

func AsBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int64:
		return b != 0
	case []byte:
		s := string(b)
		return s == "t" || s == "true" || s == "1"
	case string:
		return b == "t" || b == "true" || b == "1"
	}
	return false
}

func AsString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return ""
}

func AsTime(v any) time.Time {
	if t, ok := v.(time.Time); ok {
		return t
	}
	return time.Time{}
}

// Package normalize flattens the inconsistent response shapes returned by the
// remote automation and accounting APIs into predictable values. Each helper
// probes an ordered list of synonym keys and takes the first match.
package normalize

import (
	"strconv"
	"strings"
)

// collectionKeys is the default probe order for list payloads. Make.com wraps
// scenario listings under "scenarios", other endpoints use "items" or "data",
// and some return a bare array.
var collectionKeys = []string{"scenarios", "teams", "items", "data"}

// Collection returns the first array found in payload. A bare array is
// returned as-is; otherwise the candidate keys are probed in order. When no
// keys are given the default synonym list is used. Missing or non-array
// values yield an empty slice, never nil dereferences or errors.
func Collection(payload any, keys ...string) []any {
	if arr, ok := payload.([]any); ok {
		return arr
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		return []any{}
	}

	if len(keys) == 0 {
		keys = collectionKeys
	}

	for _, key := range keys {
		if arr, ok := obj[key].([]any); ok {
			return arr
		}
	}

	return []any{}
}

// countExtractors is the ordered synonym list for processed-record counts.
// Kept declarative so the probe order is visible and testable in one place.
var countExtractors = []func(map[string]any) (int, bool){
	func(m map[string]any) (int, bool) { return intField(m, "recordsProcessed") },
	func(m map[string]any) (int, bool) { return intField(m, "records_processed") },
	func(m map[string]any) (int, bool) { return intField(m, "processed") },
	func(m map[string]any) (int, bool) { return intField(m, "count") },
	func(m map[string]any) (int, bool) {
		if arr, ok := m["records"].([]any); ok {
			return len(arr), true
		}
		return 0, false
	},
	func(m map[string]any) (int, bool) {
		if ok, isBool := m["success"].(bool); isBool && ok {
			return 1, true
		}
		return 0, false
	},
}

// RecordCount extracts a processed-record count from a sync response. A lone
// success flag counts as one record; anything else defaults to zero.
func RecordCount(payload any) int {
	obj, ok := payload.(map[string]any)
	if !ok {
		return 0
	}

	for _, extract := range countExtractors {
		if n, ok := extract(obj); ok {
			return n
		}
	}

	return 0
}

var enabledKeys = []string{"enabled", "active", "isActive", "is_enabled"}

// Enabled reports whether a remote resource is switched on, probing the known
// flag synonyms. Absent flags default to false.
func Enabled(item map[string]any) bool {
	for _, key := range enabledKeys {
		if v, ok := item[key].(bool); ok {
			return v
		}
	}
	return false
}

var statusKeys = []string{"status", "state", "result"}

var failureStatuses = map[string]struct{}{
	"failed":                 {},
	"error":                  {},
	"failed_synchronization": {},
}

// Status returns the first non-empty status synonym from the payload.
func Status(payload any) string {
	obj, ok := payload.(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range statusKeys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// IsFailureStatus reports whether a remote status string names a failure.
func IsFailureStatus(status string) bool {
	_, failed := failureStatuses[strings.ToLower(status)]
	return failed
}

// FirstString probes the given keys in order and returns the first non-empty
// string value.
func FirstString(item map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := item[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return formatNumber(v)
		}
	}
	return ""
}

func intField(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// formatNumber renders remote numeric IDs without an exponent.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

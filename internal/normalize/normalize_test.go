package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollection(t *testing.T) {
	tests := []struct {
		name     string
		payload  any
		keys     []string
		expected []any
	}{
		{
			name:     "bare array",
			payload:  []any{"a", "b"},
			expected: []any{"a", "b"},
		},
		{
			name:     "under scenarios key",
			payload:  map[string]any{"scenarios": []any{map[string]any{"id": "1"}}},
			keys:     []string{"scenarios", "items", "data"},
			expected: []any{map[string]any{"id": "1"}},
		},
		{
			name:     "under items key",
			payload:  map[string]any{"items": []any{1.0, 2.0}},
			keys:     []string{"scenarios", "items", "data"},
			expected: []any{1.0, 2.0},
		},
		{
			name:     "under data key",
			payload:  map[string]any{"data": []any{"x"}},
			keys:     []string{"scenarios", "items", "data"},
			expected: []any{"x"},
		},
		{
			name:     "first matching key wins",
			payload:  map[string]any{"items": []any{"from-items"}, "data": []any{"from-data"}},
			keys:     []string{"items", "data"},
			expected: []any{"from-items"},
		},
		{
			name:     "element order preserved",
			payload:  map[string]any{"data": []any{3.0, 1.0, 2.0}},
			keys:     []string{"data"},
			expected: []any{3.0, 1.0, 2.0},
		},
		{
			name:     "no known key",
			payload:  map[string]any{"other": []any{"x"}},
			keys:     []string{"scenarios", "items", "data"},
			expected: []any{},
		},
		{
			name:     "key holds non-array",
			payload:  map[string]any{"data": "not an array"},
			keys:     []string{"data"},
			expected: []any{},
		},
		{
			name:     "payload is scalar",
			payload:  "oops",
			expected: []any{},
		},
		{
			name:     "nil payload",
			payload:  nil,
			expected: []any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Collection(tt.payload, tt.keys...))
		})
	}
}

func TestRecordCount(t *testing.T) {
	tests := []struct {
		name     string
		payload  any
		expected int
	}{
		{
			name:     "recordsProcessed",
			payload:  map[string]any{"recordsProcessed": 5.0},
			expected: 5,
		},
		{
			name:     "records_processed",
			payload:  map[string]any{"records_processed": 4.0},
			expected: 4,
		},
		{
			name:     "processed",
			payload:  map[string]any{"processed": 3.0},
			expected: 3,
		},
		{
			name:     "count",
			payload:  map[string]any{"count": 7.0},
			expected: 7,
		},
		{
			name:     "records array length",
			payload:  map[string]any{"records": []any{1.0, 2.0}},
			expected: 2,
		},
		{
			name:     "success flag only",
			payload:  map[string]any{"success": true},
			expected: 1,
		},
		{
			name:     "success false",
			payload:  map[string]any{"success": false},
			expected: 0,
		},
		{
			name:     "no synonym and no success flag",
			payload:  map[string]any{"message": "done"},
			expected: 0,
		},
		{
			name:     "recordsProcessed beats success flag",
			payload:  map[string]any{"recordsProcessed": 0.0, "success": true},
			expected: 0,
		},
		{
			name:     "non-object payload",
			payload:  "nope",
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RecordCount(tt.payload))
		})
	}
}

func TestEnabled(t *testing.T) {
	tests := []struct {
		name     string
		item     map[string]any
		expected bool
	}{
		{name: "enabled", item: map[string]any{"enabled": true}, expected: true},
		{name: "active", item: map[string]any{"active": true}, expected: true},
		{name: "isActive", item: map[string]any{"isActive": true}, expected: true},
		{name: "is_enabled", item: map[string]any{"is_enabled": true}, expected: true},
		{name: "enabled false wins over active true", item: map[string]any{"enabled": false, "active": true}, expected: false},
		{name: "absent defaults false", item: map[string]any{"name": "s"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Enabled(tt.item))
		})
	}
}

func TestIsFailureStatus(t *testing.T) {
	assert.True(t, IsFailureStatus("failed"))
	assert.True(t, IsFailureStatus("error"))
	assert.True(t, IsFailureStatus("failed_synchronization"))
	assert.True(t, IsFailureStatus("FAILED"))
	assert.False(t, IsFailureStatus("completed"))
	assert.False(t, IsFailureStatus("in_progress"))
	assert.False(t, IsFailureStatus(""))
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "failed", Status(map[string]any{"status": "failed"}))
	assert.Equal(t, "error", Status(map[string]any{"state": "error"}))
	assert.Equal(t, "ok", Status(map[string]any{"result": "ok"}))
	assert.Equal(t, "", Status(map[string]any{"message": "hi"}))
	assert.Equal(t, "", Status(nil))
}

func TestFirstString(t *testing.T) {
	assert.Equal(t, "abc", FirstString(map[string]any{"id": "abc"}, "id", "scenarioId"))
	assert.Equal(t, "42", FirstString(map[string]any{"scenarioId": 42.0}, "id", "scenarioId"))
	assert.Equal(t, "x", FirstString(map[string]any{"id": "", "scenario_id": "x"}, "id", "scenarioId", "scenario_id"))
	assert.Equal(t, "", FirstString(map[string]any{}, "id"))
}

package observability

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusClass(t *testing.T) {
	testCases := []struct {
		status   int
		expected string
	}{
		{200, "2xx"},
		{201, "2xx"},
		{204, "2xx"},
		{299, "2xx"},
		{300, "3xx"},
		{301, "3xx"},
		{304, "3xx"},
		{399, "3xx"},
		{400, "4xx"},
		{401, "4xx"},
		{404, "4xx"},
		{429, "4xx"},
		{499, "4xx"},
		{500, "5xx"},
		{502, "5xx"},
		{503, "5xx"},
		{599, "5xx"},
		{100, "unknown"},
		{0, "unknown"},
		{600, "5xx"}, // >= 500 returns 5xx
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("status_%d", tc.status), func(t *testing.T) {
			result := statusClass(tc.status)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestNormalizePath(t *testing.T) {
	t.Run("returns path unchanged for short paths", func(t *testing.T) {
		result := normalizePath("/api/v1/builds")
		assert.Equal(t, "/api/v1/builds", result)
	})

	t.Run("returns long_path for paths over 50 chars", func(t *testing.T) {
		longPath := "/api/v1/very/long/path/that/exceeds/fifty/characters/limit/here"
		result := normalizePath(longPath)
		assert.Equal(t, "long_path", result)
	})

	t.Run("handles empty path", func(t *testing.T) {
		result := normalizePath("")
		assert.Equal(t, "", result)
	})

	t.Run("handles root path", func(t *testing.T) {
		result := normalizePath("/")
		assert.Equal(t, "/", result)
	})
}

// TestMetrics_AllMethods exercises all metrics methods from a single test
// function to avoid duplicate metric registration in the default registry.
func TestMetrics_AllMethods(t *testing.T) {
	m := NewMetrics()
	require.NotNil(t, m)

	t.Run("RecordDBQuery", func(t *testing.T) {
		assert.NotPanics(t, func() {
			m.RecordDBQuery("select", 100*time.Millisecond, nil)
			m.RecordDBQuery("insert", 5*time.Millisecond, assert.AnError)
		})
	})

	t.Run("UpdateDBStats", func(t *testing.T) {
		assert.NotPanics(t, func() {
			m.UpdateDBStats(10, 5, 100)
		})
	})

	t.Run("BuildStarted", func(t *testing.T) {
		assert.NotPanics(t, func() {
			m.BuildStarted()
		})
	})

	t.Run("RecordBuild_completed", func(t *testing.T) {
		assert.NotPanics(t, func() {
			m.RecordBuild("completed", 2*time.Second)
		})
	})

	t.Run("RecordBuild_failed", func(t *testing.T) {
		assert.NotPanics(t, func() {
			m.BuildStarted()
			m.RecordBuild("failed", 300*time.Millisecond)
		})
	})

	t.Run("RecordBuildArtifacts", func(t *testing.T) {
		assert.NotPanics(t, func() {
			m.RecordBuildArtifacts(48_000, 9_200, 61_440, 12)
		})
	})

	t.Run("RecordBuildArtifacts_empty", func(t *testing.T) {
		assert.NotPanics(t, func() {
			m.RecordBuildArtifacts(0, 0, 0, 0)
		})
	})

	t.Run("RecordStorageOperation_success", func(t *testing.T) {
		assert.NotPanics(t, func() {
			m.RecordStorageOperation("upload", "build-inputs", 1024, 50*time.Millisecond, nil)
		})
	})

	t.Run("RecordStorageOperation_error", func(t *testing.T) {
		assert.NotPanics(t, func() {
			m.RecordStorageOperation("download", "build-outputs", 0, 100*time.Millisecond, assert.AnError)
		})
	})

	t.Run("UpdateUptime", func(t *testing.T) {
		startTime := time.Now().Add(-time.Hour)
		assert.NotPanics(t, func() {
			m.UpdateUptime(startTime)
		})
	})

	t.Run("Handler", func(t *testing.T) {
		handler := m.Handler()
		assert.NotNil(t, handler)
	})

	t.Run("MetricsMiddleware", func(t *testing.T) {
		middleware := m.MetricsMiddleware()
		assert.NotNil(t, middleware)
	})
}

package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToInt(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want int64
		ok   bool
	}{
		{"int", 42, 42, true},
		{"int32", int32(7), 7, true},
		{"int64", int64(365), 365, true},
		{"float truncates", 12.9, 12, true},
		{"numeric string", "120", 120, true},
		{"padded string", " 30 ", 30, true},
		{"json number", json.Number("5"), 5, true},
		{"decimal string", "12.5", 0, false},
		{"empty string", "", 0, false},
		{"word", "many", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
		{"nan", math.NaN(), 0, false},
		{"inf", math.Inf(1), 0, false},
		{"above int64 range", 1e20, 0, false},
		{"below int64 range", -1e20, 0, false},
		{"two to the 63", math.Exp2(63), 0, false},
		{"min int64", -math.Exp2(63), math.MinInt64, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToInt(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want float64
		ok   bool
	}{
		{"int", 10, 10, true},
		{"int32", int32(3), 3, true},
		{"float", 1.5, 1.5, true},
		{"string", "200.25", 200.25, true},
		{"json number", json.Number("0.5"), 0.5, true},
		{"empty", "", 0, false},
		{"nil", nil, 0, false},
		{"map", map[string]int{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFloat(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToText(t *testing.T) {
	s, ok := ToText("Entire home/apt")
	assert.True(t, ok)
	assert.Equal(t, "Entire home/apt", s)

	s, ok = ToText(int32(75011))
	assert.True(t, ok)
	assert.Equal(t, "75011", s)

	_, ok = ToText(nil)
	assert.False(t, ok)
}

func TestDistinctSet(t *testing.T) {
	set := NewDistinctSet()
	assert.True(t, set.Add("h1"))
	assert.True(t, set.Add("h2"))
	assert.False(t, set.Add("h1"))
	assert.Equal(t, 2, set.Count())
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "warn")

	calls := 0
	err := Retry(context.Background(), 5, time.Millisecond, func(attempt int) error {
		calls++
		assert.Equal(t, calls, attempt)
		if attempt < 4 {
			return errors.New("not ready")
		}
		return nil
	}, logger)

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Contains(t, buf.String(), "Attempt 3/5 failed")
}

func TestRetryStopsAtMaxAttempts(t *testing.T) {
	logger := NewLoggerTo(&bytes.Buffer{}, "error")

	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func(int) error {
		calls++
		return errors.New("still secondary")
	}, logger)

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "all 3 attempts failed")
	assert.Contains(t, err.Error(), "still secondary")
}

func TestRetryHonoursContext(t *testing.T) {
	logger := NewLoggerTo(&bytes.Buffer{}, "error")
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Retry(ctx, 10, 10*time.Millisecond, func(int) error {
		calls++
		cancel()
		return errors.New("boom")
	}, logger)

	require.Error(t, err)
	assert.Less(t, calls, 10)
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "warn")

	logger.Info("hidden %d", 1)
	logger.Warn("shown %d", 2)
	assert.NotContains(t, buf.String(), "hidden 1")
	assert.Contains(t, buf.String(), "shown 2")

	logger.SetLevel("debug")
	logger.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

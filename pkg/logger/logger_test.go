package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	require.Error(t, err)
}

func TestFieldsAreWrittenAsJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "debug").With(String("component", "fetcher"))

	l.Warn("ticker degraded",
		String("ticker", "QQQ"),
		Int("contracts", 0),
		Float64("premium", 1.5),
		Duration("elapsed_ms", 1500*time.Millisecond),
		Strings("failed", []string{"A", "B"}),
		Bool("cached", false),
		Error(errors.New("boom")),
	)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "warn", got["level"])
	assert.Equal(t, "fetcher", got["component"])
	assert.Equal(t, "QQQ", got["ticker"])
	assert.Equal(t, float64(1500), got["elapsed_ms"])
	assert.Equal(t, "A,B", got["failed"])
	assert.Equal(t, "boom", got["error"])
	assert.Equal(t, "ticker degraded", got["message"])
}

func TestLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "info")
	l.Debug("hidden")
	assert.Zero(t, buf.Len())
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Error("nothing", Error(nil))
}

package clickhouse

import (
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
)

func TestOptions(t *testing.T) {
	cfg := defaultConfig()
	for _, o := range []ClientOption{
		WithHost("ch.internal"),
		WithPort(8123),
		WithDatabase("tradeyodha"),
		WithCredentials("reader", "secret"),
		WithHTTP(true),
		WithMaxExecutionTime(10 * time.Second),
		WithTimeouts(0, 3*time.Second),
	} {
		o(&cfg)
	}

	got := Options(cfg)
	assert.Equal(t, clickhouse.HTTP, got.Protocol)
	assert.Equal(t, []string{"ch.internal:8123"}, got.Addr)
	assert.Equal(t, clickhouse.Auth{Database: "tradeyodha", Username: "reader", Password: "secret"}, got.Auth)
	assert.Equal(t, 10, got.Settings["max_execution_time"])
	assert.Equal(t, 5*time.Second, got.DialTimeout)
	assert.Equal(t, 3*time.Second, got.ReadTimeout)
}

func TestOptionsNativeWithoutSettings(t *testing.T) {
	got := Options(defaultConfig())
	assert.Equal(t, clickhouse.Native, got.Protocol)
	assert.Empty(t, got.Settings)
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient(t.Context())
	assert.ErrorContains(t, err, "host is required")
}

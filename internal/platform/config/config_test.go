package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, BackendMemory, cfg.Documents.Backend)
	assert.Equal(t, 3*time.Second, cfg.Ledger.CallTimeout)
	assert.Equal(t, 2, cfg.Ledger.Attempts)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, int16(1), cfg.Kafka.ReplicationFactor)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("LEDGER_CALL_TIMEOUT", "750ms")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 750*time.Millisecond, cfg.Ledger.CallTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"gcs needs bucket", map[string]string{"DOCUMENTS_BACKEND": "gcs"}, "DOCUMENTS_BUCKET"},
		{"unknown backend", map[string]string{"DOCUMENTS_BACKEND": "s3"}, "unknown DOCUMENTS_BACKEND"},
		{"attempts", map[string]string{"LEDGER_ATTEMPTS": "0"}, "LEDGER_ATTEMPTS"},
		{"production key", map[string]string{"APP_ENV": "production"}, "JWT_SIGNING_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromViper(viper.New())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

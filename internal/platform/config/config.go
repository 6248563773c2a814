// Package config loads runtime configuration from an optional config file, a
// .env file and the process environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	platformstrings "landledger/pkg/platform/strings"
)

// Config is the full application configuration.
type Config struct {
	Environment string
	LogLevel    string
	Server      Server
	Database    DatabaseConfig
	Redis       RedisConfig
	Ledger      LedgerConfig
	Documents   DocumentsConfig
	Kafka       KafkaConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	JWTSigningKey   string
	JWTIssuer       string
	JWTAudience     string
	ShutdownTimeout time.Duration
}

// DatabaseConfig selects the application store. An empty URL keeps
// everything in memory.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	TxTimeout       time.Duration
}

// RedisConfig configures the ledger stats snapshot cache. An empty URL falls
// back to process memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LedgerConfig configures the chain client gateway and stats reconciliation.
type LedgerConfig struct {
	GatewayURL       string
	GatewayToken     string
	CallTimeout      time.Duration
	Attempts         int
	RefreshInterval  time.Duration
	MaxStaleness     time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// DocumentsConfig selects the document store backend.
type DocumentsConfig struct {
	Backend   string
	Bucket    string
	Prefix    string
	StrictPDF bool
}

// KafkaConfig enables the audit outbox relay.
type KafkaConfig struct {
	Enabled           bool
	Brokers           []string
	Topic             string
	Partitions        int32
	ReplicationFactor int16
	RelayInterval     time.Duration
}

const (
	BackendMemory = "memory"
	BackendGCS    = "gcs"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("SERVER_ADDR", ":8080")
	v.SetDefault("JWT_SIGNING_KEY", "dev-secret-key-change-in-production")
	v.SetDefault("JWT_ISSUER", "landledger")
	v.SetDefault("JWT_AUDIENCE", "landledger-portal")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("DB_TX_TIMEOUT", "5s")

	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 2)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	v.SetDefault("REDIS_READ_TIMEOUT", "3s")
	v.SetDefault("REDIS_WRITE_TIMEOUT", "3s")

	v.SetDefault("LEDGER_GATEWAY_URL", "http://localhost:8545")
	v.SetDefault("LEDGER_GATEWAY_TOKEN", "")
	v.SetDefault("LEDGER_CALL_TIMEOUT", "3s")
	v.SetDefault("LEDGER_ATTEMPTS", 2)
	v.SetDefault("LEDGER_REFRESH_INTERVAL", "30s")
	v.SetDefault("LEDGER_MAX_STALENESS", "15s")
	v.SetDefault("LEDGER_BREAKER_THRESHOLD", 5)
	v.SetDefault("LEDGER_BREAKER_COOLDOWN", "30s")

	v.SetDefault("DOCUMENTS_BACKEND", BackendMemory)
	v.SetDefault("DOCUMENTS_BUCKET", "")
	v.SetDefault("DOCUMENTS_PREFIX", "")
	v.SetDefault("DOCUMENTS_STRICT_PDF", false)

	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_AUDIT_TOPIC", "land.audit")
	v.SetDefault("KAFKA_PARTITIONS", 3)
	v.SetDefault("KAFKA_REPLICATION_FACTOR", 1)
	v.SetDefault("KAFKA_RELAY_INTERVAL", "2s")
}

// Load reads configuration. A missing .env or config file is not an error.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from v with defaults and environment overrides
// applied.
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Server: Server{
			Addr:            v.GetString("SERVER_ADDR"),
			JWTSigningKey:   v.GetString("JWT_SIGNING_KEY"),
			JWTIssuer:       v.GetString("JWT_ISSUER"),
			JWTAudience:     v.GetString("JWT_AUDIENCE"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("DATABASE_URL"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			TxTimeout:       v.GetDuration("DB_TX_TIMEOUT"),
		},
		Redis: RedisConfig{
			URL:          v.GetString("REDIS_URL"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("REDIS_WRITE_TIMEOUT"),
		},
		Ledger: LedgerConfig{
			GatewayURL:       v.GetString("LEDGER_GATEWAY_URL"),
			GatewayToken:     v.GetString("LEDGER_GATEWAY_TOKEN"),
			CallTimeout:      v.GetDuration("LEDGER_CALL_TIMEOUT"),
			Attempts:         v.GetInt("LEDGER_ATTEMPTS"),
			RefreshInterval:  v.GetDuration("LEDGER_REFRESH_INTERVAL"),
			MaxStaleness:     v.GetDuration("LEDGER_MAX_STALENESS"),
			BreakerThreshold: v.GetInt("LEDGER_BREAKER_THRESHOLD"),
			BreakerCooldown:  v.GetDuration("LEDGER_BREAKER_COOLDOWN"),
		},
		Documents: DocumentsConfig{
			Backend:   strings.ToLower(v.GetString("DOCUMENTS_BACKEND")),
			Bucket:    v.GetString("DOCUMENTS_BUCKET"),
			Prefix:    v.GetString("DOCUMENTS_PREFIX"),
			StrictPDF: v.GetBool("DOCUMENTS_STRICT_PDF"),
		},
		Kafka: KafkaConfig{
			Enabled:           v.GetBool("KAFKA_ENABLED"),
			Brokers:           platformstrings.SplitList(v.GetString("KAFKA_BROKERS")),
			Topic:             v.GetString("KAFKA_AUDIT_TOPIC"),
			Partitions:        v.GetInt32("KAFKA_PARTITIONS"),
			ReplicationFactor: int16(v.GetInt("KAFKA_REPLICATION_FACTOR")),
			RelayInterval:     v.GetDuration("KAFKA_RELAY_INTERVAL"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Documents.Backend {
	case BackendMemory:
	case BackendGCS:
		if c.Documents.Bucket == "" {
			return errors.New("DOCUMENTS_BUCKET is required for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown DOCUMENTS_BACKEND %q", c.Documents.Backend)
	}
	if c.Ledger.Attempts < 1 {
		return errors.New("LEDGER_ATTEMPTS must be at least 1")
	}
	if c.Ledger.CallTimeout <= 0 {
		return errors.New("LEDGER_CALL_TIMEOUT must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.Environment == "production" && c.Server.JWTSigningKey == "dev-secret-key-change-in-production" {
		return errors.New("JWT_SIGNING_KEY must be set in production")
	}
	return nil
}

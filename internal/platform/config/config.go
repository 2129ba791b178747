// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	pstrings "passport-status/pkg/platform/strings"
)

// Config is the full process configuration. Optional backends are disabled
// when their connection setting is empty.
type Config struct {
	Addr            string        `env:"PASSPORT_STATUS_ADDR" envDefault:":8080"`
	ApplicationName string        `env:"APPLICATION_NAME" envDefault:"passport-status-api"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	StatusCodesFile string        `env:"STATUS_CODES_FILE"`

	Database     DatabaseConfig     `envPrefix:"DATABASE_"`
	Redis        RedisConfig        `envPrefix:"REDIS_"`
	Kafka        KafkaConfig        `envPrefix:"KAFKA_"`
	EventBus     EventBusConfig     `envPrefix:"EVENT_BUS_"`
	Notification NotificationConfig `envPrefix:"NOTIFICATION_"`
	Tracing      TracingConfig      `envPrefix:"OTEL_"`
}

// DatabaseConfig selects PostgreSQL storage. An empty URL keeps everything in memory.
type DatabaseConfig struct {
	URL      string `env:"URL"`
	MaxConns int32  `env:"MAX_CONNS" envDefault:"10"`
}

// RedisConfig configures the notification de-duplication cache.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig enables event forwarding when Brokers is non-empty.
type KafkaConfig struct {
	Brokers    []string `env:"BROKERS" envSeparator:","`
	Topic      string   `env:"TOPIC" envDefault:"passport-status-events"`
	Partitions int32    `env:"PARTITIONS" envDefault:"3"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// EventBusConfig sizes each subscriber's queue. The metrics subscriber gets its
// own, larger queue so counts stay complete under bursts.
type EventBusConfig struct {
	BufferSize        int `env:"BUFFER_SIZE" envDefault:"1024"`
	MetricsBufferSize int `env:"METRICS_BUFFER_SIZE" envDefault:"16384"`
}

// NotificationConfig configures delivery of file-number notifications.
type NotificationConfig struct {
	GCNotifyBaseURL      string        `env:"GC_NOTIFY_BASE_URL" envDefault:"https://api.notification.canada.ca"`
	GCNotifyAPIKey       string        `env:"GC_NOTIFY_API_KEY"`
	FileNumberTemplateID string        `env:"FILE_NUMBER_TEMPLATE_ID"`
	Timeout              time.Duration `env:"TIMEOUT" envDefault:"10s"`
	DedupeTTL            time.Duration `env:"DEDUPE_TTL" envDefault:"15m"`
	BreakerThreshold     int           `env:"BREAKER_THRESHOLD" envDefault:"5"`
	BreakerCooldown      time.Duration `env:"BREAKER_COOLDOWN" envDefault:"30s"`
}

// TracingConfig turns on OTLP span export when Endpoint is set.
type TracingConfig struct {
	Enabled  bool   `env:"ENABLED" envDefault:"true"`
	Endpoint string `env:"ENDPOINT"`
}

func (t TracingConfig) Active() bool {
	return t.Enabled && t.Endpoint != ""
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Kafka.Brokers = pstrings.Compact(cfg.Kafka.Brokers, strings.ToLower)
	if cfg.EventBus.BufferSize <= 0 {
		return Config{}, fmt.Errorf("EVENT_BUS_BUFFER_SIZE must be positive, got %d", cfg.EventBus.BufferSize)
	}
	if cfg.EventBus.MetricsBufferSize <= 0 {
		return Config{}, fmt.Errorf("EVENT_BUS_METRICS_BUFFER_SIZE must be positive, got %d", cfg.EventBus.MetricsBufferSize)
	}
	return cfg, nil
}

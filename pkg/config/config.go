// Package config loads and validates commonwords configuration from YAML
// files with environment-variable overrides. Every optional backend (Redis
// cache, Kafka events, PostgreSQL history, metrics textfile) is disabled by
// default so a bare invocation needs no config at all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Tokenizer TokenizerConfig `yaml:"tokenizer"`
	Report    ReportConfig    `yaml:"report"`
	Input     InputConfig     `yaml:"input"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Retry     RetryConfig     `yaml:"retry"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Postgres  PostgresConfig  `yaml:"postgres"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TokenizerConfig bounds the accepted word length, inclusive on both ends.
type TokenizerConfig struct {
	MinLength int `yaml:"minLength"`
	MaxLength int `yaml:"maxLength"`
}

// ReportConfig controls how many words are ranked and how they are printed.
type ReportConfig struct {
	TopN   int    `yaml:"topN"`
	Format string `yaml:"format"`
}

// InputConfig limits how many input files are probed at once.
type InputConfig struct {
	ProbeConcurrency int `yaml:"probeConcurrency"`
}

// MetricsConfig controls Prometheus textfile export.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Textfile string `yaml:"textfile"`
}

// RetryConfig controls retries for report sinks.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"maxAttempts"`
	InitialDelay time.Duration `yaml:"initialDelay"`
	MaxDelay     time.Duration `yaml:"maxDelay"`
}

// RedisConfig holds Redis connection and report-cache parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds Kafka broker and topic settings for report events.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Tokenizer: TokenizerConfig{
			MinLength: 6,
			MaxLength: 50,
		},
		Report: ReportConfig{
			TopN:   20,
			Format: "text",
		},
		Input: InputConfig{
			ProbeConcurrency: 8,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     2 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 4,
			CacheTTL: 10 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "commonwords-reports",
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "commonwords",
			User:            "commonwords",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    4,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
	}
}

// Validate rejects settings the tokenizer or ranker cannot work with.
func (c *Config) Validate() error {
	if c.Tokenizer.MinLength < 1 {
		return fmt.Errorf("tokenizer.minLength must be at least 1, got %d", c.Tokenizer.MinLength)
	}
	if c.Tokenizer.MaxLength < c.Tokenizer.MinLength {
		return fmt.Errorf("tokenizer.maxLength (%d) must not be below minLength (%d)",
			c.Tokenizer.MaxLength, c.Tokenizer.MinLength)
	}
	if c.Report.TopN < 1 {
		return fmt.Errorf("report.topN must be at least 1, got %d", c.Report.TopN)
	}
	switch c.Report.Format {
	case "text", "json":
	default:
		return fmt.Errorf("report.format must be text or json, got %q", c.Report.Format)
	}
	if c.Input.ProbeConcurrency < 1 {
		return fmt.Errorf("input.probeConcurrency must be at least 1, got %d", c.Input.ProbeConcurrency)
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("kafka is enabled but brokers or topic are missing")
	}
	return nil
}

// applyEnvOverrides reads CW_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CW_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CW_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("CW_REPORT_TOPN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Report.TopN = n
		}
	}
	if v := os.Getenv("CW_TOKENIZER_MIN_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Tokenizer.MinLength = n
		}
	}
	if v := os.Getenv("CW_TOKENIZER_MAX_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Tokenizer.MaxLength = n
		}
	}
	if v := os.Getenv("CW_METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Textfile = v
	}
	if v := os.Getenv("CW_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("CW_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("CW_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CW_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("CW_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("CW_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
}

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Model    ModelConfig    `yaml:"model"`
}

type AppConfig struct {
	Env string `yaml:"env"`
}

type HTTPConfig struct {
	Address            string   `yaml:"address"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	Driver     string `yaml:"driver"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	SSLMode    string `yaml:"ssl_mode"`
	SQLitePath string `yaml:"sqlite_path"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr              string `yaml:"addr"`
	Password          string `yaml:"password"`
	DB                int    `yaml:"db"`
	HistoryTTLSeconds int    `yaml:"history_ttl_seconds"`
}

func (r RedisConfig) HistoryTTL() time.Duration {
	return time.Duration(r.HistoryTTLSeconds) * time.Second
}

type KafkaConfig struct {
	Brokers         []string `yaml:"brokers"`
	PredictionTopic string   `yaml:"prediction_topic"`
	GroupID         string   `yaml:"group_id"`
}

type CatalogConfig struct {
	Dir string `yaml:"dir"`
}

// ModelConfig describes the external prediction model endpoint. An empty URL
// puts the client in mock mode.
type ModelConfig struct {
	URL               string  `yaml:"url"`
	TimeoutMS         int     `yaml:"timeout_ms"`
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialBackoffMS  int     `yaml:"initial_backoff_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	MaxBackoffMS      int     `yaml:"max_backoff_ms"`
	RateLimitPerSec   float64 `yaml:"rate_limit_per_second"`
	RateLimitBurst    int     `yaml:"rate_limit_burst"`
}

func (m ModelConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutMS) * time.Millisecond
}

func (m ModelConfig) InitialBackoff() time.Duration {
	return time.Duration(m.InitialBackoffMS) * time.Millisecond
}

func (m ModelConfig) MaxBackoff() time.Duration {
	return time.Duration(m.MaxBackoffMS) * time.Millisecond
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// Parse decodes a YAML document and fills defaults for unset values.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "development"
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "flightontime.db"
	}
	if c.Redis.HistoryTTLSeconds == 0 {
		c.Redis.HistoryTTLSeconds = 60
	}
	if c.Kafka.PredictionTopic == "" {
		c.Kafka.PredictionTopic = "predictions"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "flightontime-audit"
	}
	if c.Model.TimeoutMS == 0 {
		c.Model.TimeoutMS = 10000
	}
	if c.Model.MaxAttempts == 0 {
		c.Model.MaxAttempts = 3
	}
	if c.Model.InitialBackoffMS == 0 {
		c.Model.InitialBackoffMS = 500
	}
	if c.Model.BackoffMultiplier == 0 {
		c.Model.BackoffMultiplier = 2
	}
	if c.Model.MaxBackoffMS == 0 {
		c.Model.MaxBackoffMS = 2000
	}
	if c.Model.RateLimitPerSec > 0 && c.Model.RateLimitBurst == 0 {
		c.Model.RateLimitBurst = 1
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Model.MaxAttempts < 1 {
		return fmt.Errorf("model.max_attempts must be at least 1")
	}
	if c.Model.BackoffMultiplier < 1 {
		return fmt.Errorf("model.backoff_multiplier must be at least 1")
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATASCIENCE_API_URL"); v != "" {
		c.Model.URL = v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		c.App.Env = v
	}
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"rss_ingestor/internal/domain"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Ingest   IngestConfig   `yaml:"ingest"`
	LogLevel string         `yaml:"log_level"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RabbitMQConfig configures the downstream post announcements. An empty URL
// disables publishing entirely.
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type IngestConfig struct {
	Interval         time.Duration `yaml:"interval"`
	BatchTimeout     time.Duration `yaml:"batch_timeout"`
	WorkerCount      int           `yaml:"worker_count"`
	Region           domain.Region `yaml:"region"`
	UserAgent        string        `yaml:"user_agent"`
	FailureThreshold float64       `yaml:"failure_threshold"`
	Fetch            FetchConfig   `yaml:"fetch"`
}

type FetchConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "rss_ingestor"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "posts"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "platform_posts"
	}
	if c.Ingest.Interval == 0 {
		c.Ingest.Interval = 30 * time.Minute
	}
	if c.Ingest.BatchTimeout == 0 {
		c.Ingest.BatchTimeout = 10 * time.Minute
	}
	if c.Ingest.WorkerCount == 0 {
		c.Ingest.WorkerCount = 8
	}
	if c.Ingest.UserAgent == "" {
		c.Ingest.UserAgent = "rss-ingestor/1.0"
	}
	if c.Ingest.FailureThreshold == 0 {
		c.Ingest.FailureThreshold = 0.5
	}
	if c.Ingest.Fetch.Timeout == 0 {
		c.Ingest.Fetch.Timeout = 15 * time.Second
	}
	if c.Ingest.Fetch.MaxAttempts == 0 {
		c.Ingest.Fetch.MaxAttempts = 3
	}
	if c.Ingest.Fetch.InitialBackoff == 0 {
		c.Ingest.Fetch.InitialBackoff = 1 * time.Second
	}
	if c.Ingest.Fetch.MaxBackoff == 0 {
		c.Ingest.Fetch.MaxBackoff = 30 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	if c.Ingest.Region != "" && !c.Ingest.Region.Valid() {
		return fmt.Errorf("unknown region %q", c.Ingest.Region)
	}
	if t := c.Ingest.FailureThreshold; t < 0 || t > 1 {
		return fmt.Errorf("failure_threshold must be within [0, 1], got %g", t)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Finnhub struct {
		APIKey      string        `yaml:"api_key"`
		BaseURL     string        `yaml:"base_url"`
		MinInterval time.Duration `yaml:"min_interval"` // rate-limit floor between requests
		MaxRetries  int           `yaml:"max_retries"`
		BackoffBase time.Duration `yaml:"backoff_base"`
		BackoffMax  time.Duration `yaml:"backoff_max"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"finnhub"`
	Universe struct {
		Market   string        `yaml:"market"`
		TTL      time.Duration `yaml:"ttl"`
		WarmCron string        `yaml:"warm_cron"`
	} `yaml:"universe"`
	Cache struct {
		QuoteTTL   time.Duration `yaml:"quote_ttl"`
		ScoreTTL   time.Duration `yaml:"score_ttl"`
		SweepCron  string        `yaml:"sweep_cron"`
		Redis      struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Hot struct {
		RatingThreshold         float64 `yaml:"rating_threshold"`
		MoveThreshold           float64 `yaml:"move_threshold"`
		OverrideRatingThreshold float64 `yaml:"override_rating_threshold"`
		ScoreCutoff             float64 `yaml:"score_cutoff"`
	} `yaml:"hot"`
	Broadcast struct {
		PingInterval time.Duration `yaml:"ping_interval"`
		PongWait     time.Duration `yaml:"pong_wait"`
		WriteWait    time.Duration `yaml:"write_wait"`
		SendBuffer   int           `yaml:"send_buffer"`
	} `yaml:"broadcast"`
	Pipeline struct {
		MaxEventsPerSec int `yaml:"max_events_per_sec"`
		BufferSize      int `yaml:"buffer_size"`
	} `yaml:"pipeline"`
	History struct {
		Backend string `yaml:"backend"` // "kafka", "clickhouse", or "none"
	} `yaml:"history"`
	Kafka struct {
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		Async        bool          `yaml:"async"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"clickhouse"`
	Postgres struct {
		Enabled bool   `yaml:"enabled"`
		DSN     string `yaml:"dsn"`
	} `yaml:"postgres"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A .env file next to the process is read best-effort first.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Finnhub.APIKey = v
	}
	if v := os.Getenv("FINNHUB_BASE_URL"); v != "" {
		c.Finnhub.BaseURL = v
	}
	if v := os.Getenv("MARKET"); v != "" {
		c.Universe.Market = v
	}
	if v := os.Getenv("HISTORY_BACKEND"); v != "" {
		c.History.Backend = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
		c.Postgres.Enabled = true
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Redis.Enabled = true
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Finnhub.MinInterval <= 0 {
		c.Finnhub.MinInterval = 1100 * time.Millisecond
	}
	if c.Finnhub.MaxRetries <= 0 {
		c.Finnhub.MaxRetries = 3
	}
	if c.Finnhub.BackoffBase <= 0 {
		c.Finnhub.BackoffBase = time.Second
	}
	if c.Finnhub.BackoffMax <= 0 {
		c.Finnhub.BackoffMax = 30 * time.Second
	}
	if c.Finnhub.Timeout <= 0 {
		c.Finnhub.Timeout = 10 * time.Second
	}
	if c.Cache.QuoteTTL <= 0 {
		c.Cache.QuoteTTL = time.Minute
	}
	if c.Cache.ScoreTTL <= 0 {
		c.Cache.ScoreTTL = 5 * time.Minute
	}
	if c.Universe.TTL <= 0 {
		c.Universe.TTL = 5 * time.Minute
	}
	if c.Hot.RatingThreshold <= 0 {
		c.Hot.RatingThreshold = 95
	}
	if c.Hot.MoveThreshold <= 0 {
		c.Hot.MoveThreshold = 2
	}
	if c.Hot.OverrideRatingThreshold <= 0 {
		c.Hot.OverrideRatingThreshold = 99
	}
	if c.Hot.ScoreCutoff <= 0 {
		c.Hot.ScoreCutoff = 50
	}
	if c.Broadcast.PingInterval <= 0 {
		c.Broadcast.PingInterval = 30 * time.Second
	}
	if c.Broadcast.PongWait <= 0 {
		c.Broadcast.PongWait = 60 * time.Second
	}
	if c.Broadcast.WriteWait <= 0 {
		c.Broadcast.WriteWait = 10 * time.Second
	}
	if c.Broadcast.SendBuffer <= 0 {
		c.Broadcast.SendBuffer = 64
	}
	if c.Pipeline.MaxEventsPerSec <= 0 {
		c.Pipeline.MaxEventsPerSec = 20
	}
	if c.Pipeline.BufferSize <= 0 {
		c.Pipeline.BufferSize = 1000
	}
	if c.History.Backend == "" {
		c.History.Backend = "none"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Finnhub.APIKey == "" && os.Getenv("FINNHUB_API_KEY") == "" {
		return fmt.Errorf("finnhub.api_key is required")
	}
	if c.Finnhub.BaseURL == "" {
		return fmt.Errorf("finnhub.base_url is required")
	}
	if c.Universe.Market == "" {
		return fmt.Errorf("universe.market is required")
	}
	switch c.History.Backend {
	case "kafka", "clickhouse", "none":
	default:
		return fmt.Errorf("history.backend must be 'kafka', 'clickhouse' or 'none', got '%s'", c.History.Backend)
	}
	if c.History.Backend == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty with kafka backend")
	}
	if c.History.Backend == "clickhouse" && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required with clickhouse backend")
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"SentiPull/pkg/util"
)

// Source backends.
const (
	SourceReddit = "reddit"
	SourceKafka  = "kafka"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	History struct {
		WindowSize int `yaml:"window_size"`
	} `yaml:"history"`
	Signal struct {
		BullishThreshold float64       `yaml:"bullish_threshold"`
		BearishThreshold float64       `yaml:"bearish_threshold"`
		CacheTTL         time.Duration `yaml:"cache_ttl"`
	} `yaml:"signal"`
	Model struct {
		URL      string        `yaml:"url"`
		Timeout  time.Duration `yaml:"timeout"`
		RetryMax int           `yaml:"retry_max"`
	} `yaml:"model"`
	Source struct {
		Type          string        `yaml:"type"`
		Subreddit     string        `yaml:"subreddit"`
		BatchSize     int           `yaml:"batch_size"`
		PollInterval  time.Duration `yaml:"poll_interval"`
		MaxTextLength int           `yaml:"max_text_length"`
		BufferSize    int           `yaml:"buffer_size"`
	} `yaml:"source"`
	Reddit struct {
		BaseURL      string `yaml:"base_url"`
		AuthURL      string `yaml:"auth_url"`
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		Username     string `yaml:"username"`
		Password     string `yaml:"password"`
		UserAgent    string `yaml:"user_agent"`
	} `yaml:"reddit"`
	Kafka struct {
		Brokers  []string `yaml:"brokers"`
		Topic    string   `yaml:"topic"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Events struct {
		Enabled      bool          `yaml:"enabled"`
		Topic        string        `yaml:"topic"`
		LogTopic     string        `yaml:"log_topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		Async        bool          `yaml:"async"`
	} `yaml:"events"`
	Cache struct {
		Enabled bool `yaml:"enabled"`
		Redis   struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	RateLimit struct {
		Enabled bool    `yaml:"enabled"`
		RPS     float64 `yaml:"rps"`
		Burst   float64 `yaml:"burst"`
	} `yaml:"ratelimit"`
	WS struct {
		Enabled      bool          `yaml:"enabled"`
		PushInterval time.Duration `yaml:"push_interval"`
	} `yaml:"ws"`
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

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides config fields from recognized environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SOURCE"); v != "" {
		c.Source.Type = v
	}
	if v := os.Getenv("SUBREDDIT"); v != "" {
		c.Source.Subreddit = v
	}
	if v := os.Getenv("BATCH_SIZE"); v != "" {
		c.Source.BatchSize = util.ParseIntDefault(v, c.Source.BatchSize)
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		// seconds
		secs := util.ParseIntDefault(v, int(c.Source.PollInterval/time.Second))
		c.Source.PollInterval = time.Duration(secs) * time.Second
	}
	if v := os.Getenv("MAX_TEXT_LENGTH"); v != "" {
		c.Source.MaxTextLength = util.ParseIntDefault(v, c.Source.MaxTextLength)
	}
	if v := os.Getenv("MODEL_URL"); v != "" {
		c.Model.URL = v
	}
	if v := os.Getenv("REDDIT_CLIENT_ID"); v != "" {
		c.Reddit.ClientID = v
	}
	if v := os.Getenv("REDDIT_CLIENT_SECRET"); v != "" {
		c.Reddit.ClientSecret = v
	}
	if v := os.Getenv("REDDIT_USERNAME"); v != "" {
		c.Reddit.Username = v
	}
	if v := os.Getenv("REDDIT_PASSWORD"); v != "" {
		c.Reddit.Password = v
	}
	if v := os.Getenv("REDDIT_USER_AGENT"); v != "" {
		c.Reddit.UserAgent = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.History.WindowSize == 0 {
		c.History.WindowSize = 100
	}
	if c.Signal.BullishThreshold == 0 {
		c.Signal.BullishThreshold = 0.2
	}
	if c.Signal.BearishThreshold == 0 {
		c.Signal.BearishThreshold = -0.2
	}
	if c.Signal.CacheTTL == 0 {
		c.Signal.CacheTTL = 2 * time.Second
	}
	if c.Model.Timeout == 0 {
		c.Model.Timeout = 30 * time.Second
	}
	if c.Model.RetryMax == 0 {
		c.Model.RetryMax = 3
	}
	if c.Source.Type == "" {
		c.Source.Type = SourceReddit
	}
	if c.Source.Subreddit == "" {
		c.Source.Subreddit = "wallstreetbets"
	}
	if c.Source.BatchSize == 0 {
		c.Source.BatchSize = 10
	}
	if c.Source.PollInterval == 0 {
		c.Source.PollInterval = 60 * time.Second
	}
	if c.Source.MaxTextLength == 0 {
		c.Source.MaxTextLength = 512
	}
	if c.Source.BufferSize == 0 {
		c.Source.BufferSize = 1000
	}
	if c.Reddit.BaseURL == "" {
		c.Reddit.BaseURL = "https://oauth.reddit.com"
	}
	if c.Reddit.AuthURL == "" {
		c.Reddit.AuthURL = "https://www.reddit.com/api/v1/access_token"
	}
	if c.Reddit.UserAgent == "" {
		c.Reddit.UserAgent = "sentiment-analyzer/1.0"
	}
	if c.WS.PushInterval == 0 {
		c.WS.PushInterval = 5 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Model.URL == "" {
		return fmt.Errorf("model.url is required")
	}
	if c.Source.Type != SourceReddit && c.Source.Type != SourceKafka {
		return fmt.Errorf("source.type must be 'reddit' or 'kafka', got '%s'", c.Source.Type)
	}
	if c.Source.Type == SourceReddit && c.Source.Subreddit == "" {
		return fmt.Errorf("source.subreddit is required for the reddit source")
	}
	if c.Source.Type == SourceKafka {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty for the kafka source")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required for the kafka source")
		}
	}
	if c.Events.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when events are enabled")
		}
		if c.Events.Topic == "" {
			return fmt.Errorf("events.topic is required when events are enabled")
		}
	}
	if c.History.WindowSize < 1 {
		return fmt.Errorf("history.window_size must be positive")
	}
	if c.Signal.BullishThreshold <= 0 || c.Signal.BearishThreshold >= 0 {
		return fmt.Errorf("signal thresholds must straddle zero")
	}
	return nil
}

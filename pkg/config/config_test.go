package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalYAML = `
environment: test
model:
  url: http://localhost:8080
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, 100, cfg.History.WindowSize)
	assert.Equal(t, 0.2, cfg.Signal.BullishThreshold)
	assert.Equal(t, -0.2, cfg.Signal.BearishThreshold)
	assert.Equal(t, SourceReddit, cfg.Source.Type)
	assert.Equal(t, "wallstreetbets", cfg.Source.Subreddit)
	assert.Equal(t, 10, cfg.Source.BatchSize)
	assert.Equal(t, 60*time.Second, cfg.Source.PollInterval)
	assert.Equal(t, 512, cfg.Source.MaxTextLength)
	assert.Equal(t, "https://oauth.reddit.com", cfg.Reddit.BaseURL)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
environment: production
server:
  port: 9000
history:
  window_size: 500
signal:
  bullish_threshold: 0.4
  bearish_threshold: -0.1
model:
  url: http://model:8080
source:
  subreddit: stocks
  batch_size: 25
  poll_interval: 30s
`))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 500, cfg.History.WindowSize)
	assert.Equal(t, 0.4, cfg.Signal.BullishThreshold)
	assert.Equal(t, -0.1, cfg.Signal.BearishThreshold)
	assert.Equal(t, "stocks", cfg.Source.Subreddit)
	assert.Equal(t, 25, cfg.Source.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.Source.PollInterval)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateMissingEnvironment(t *testing.T) {
	_, err := Load(writeConfig(t, "model:\n  url: http://x\n"))
	assert.ErrorContains(t, err, "environment")
}

func TestValidateMissingModelURL(t *testing.T) {
	_, err := Load(writeConfig(t, "environment: test\n"))
	assert.ErrorContains(t, err, "model.url")
}

func TestValidateBadSourceType(t *testing.T) {
	_, err := Load(writeConfig(t, minimalYAML+`
source:
  type: carrier-pigeon
`))
	assert.ErrorContains(t, err, "source.type")
}

func TestValidateKafkaSourceNeedsBrokers(t *testing.T) {
	_, err := Load(writeConfig(t, minimalYAML+`
source:
  type: kafka
`))
	assert.ErrorContains(t, err, "kafka.brokers")
}

func TestValidateThresholdsMustStraddleZero(t *testing.T) {
	_, err := Load(writeConfig(t, minimalYAML+`
signal:
  bullish_threshold: -0.1
  bearish_threshold: -0.2
`))
	assert.ErrorContains(t, err, "straddle")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SUBREDDIT", "cryptocurrency")
	t.Setenv("BATCH_SIZE", "42")
	t.Setenv("POLL_INTERVAL", "15")
	t.Setenv("MAX_TEXT_LENGTH", "256")
	t.Setenv("MODEL_URL", "http://model.internal:8080")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "cryptocurrency", cfg.Source.Subreddit)
	assert.Equal(t, 42, cfg.Source.BatchSize)
	assert.Equal(t, 15*time.Second, cfg.Source.PollInterval)
	assert.Equal(t, 256, cfg.Source.MaxTextLength)
	assert.Equal(t, "http://model.internal:8080", cfg.Model.URL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestApplyEnvBadIntKeepsDefault(t *testing.T) {
	t.Setenv("BATCH_SIZE", "lots")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Source.BatchSize)
}

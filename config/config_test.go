package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ARTEMIS_CONFIG", "")
	t.Setenv("GROQ_API_KEY", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, cfg.Relay.Model)
	assert.Equal(t, DefaultBaseURL, cfg.Relay.BaseURL)
	assert.Equal(t, float32(0), cfg.Relay.Temperature)
	assert.Equal(t, DefaultReportLabel, cfg.Relay.ReportLabel)
	assert.Equal(t, StoreMemory, cfg.Client.Sessions.Store)
	assert.Equal(t, "user001", cfg.Client.User["id"])
	assert.Zero(t, cfg.Relay.Timeout)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "artemis.yml")
	content := `
relay:
  model: llama-3.1-8b-instant
  temperature: 0.5
  timeout: 45s
  system_prompt: "You are terse."
client:
  relay_url: http://relay:8000/mcp
  sessions:
    store: redis
    ttl: 30m
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("GROQ_API_KEY", "secret")
	t.Setenv("ARTEMIS_MODEL", "gemma2-9b-it")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Relay.APIKey)
	assert.Equal(t, "gemma2-9b-it", cfg.Relay.Model, "env overrides file")
	assert.Equal(t, float32(0.5), cfg.Relay.Temperature)
	assert.Equal(t, 45*time.Second, cfg.Relay.Timeout)
	assert.Equal(t, "You are terse.", cfg.Relay.SystemPrompt)
	assert.Equal(t, DefaultReportLabel, cfg.Relay.ReportLabel, "unset keys keep defaults")
	assert.Equal(t, "http://relay:8000/mcp", cfg.Client.RelayURL)
	assert.Equal(t, StoreRedis, cfg.Client.Sessions.Store)
	assert.Equal(t, 30*time.Minute, cfg.Client.Sessions.TTL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadUserReplacesDefault(t *testing.T) {
	t.Setenv("ARTEMIS_CONFIG", "")
	dir := t.TempDir()

	withUser := filepath.Join(dir, "user.yml")
	require.NoError(t, os.WriteFile(withUser, []byte("client:\n  user:\n    name: x\n"), 0o644))
	cfg, err := Load(withUser)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "x"}, cfg.Client.User)

	withoutUser := filepath.Join(dir, "plain.yml")
	require.NoError(t, os.WriteFile(withoutUser, []byte("log:\n  level: warn\n"), 0o644))
	cfg, err = Load(withoutUser)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"id": "user001", "role": "user"}, cfg.Client.User)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestLoadBadTemperatureEnv(t *testing.T) {
	t.Setenv("ARTEMIS_CONFIG", "")
	t.Setenv("ARTEMIS_TEMPERATURE", "warm")
	_, err := Load("")
	require.Error(t, err)
}

func TestRelayValidate(t *testing.T) {
	cfg := Default().Relay
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GROQ_API_KEY")

	cfg.APIKey = "k"
	assert.NoError(t, cfg.Validate())

	cfg.Temperature = 3
	assert.Error(t, cfg.Validate())
}

func TestAllowsModel(t *testing.T) {
	cfg := Default().Relay
	assert.True(t, cfg.AllowsModel(DefaultModel))
	assert.True(t, cfg.AllowsModel("qwen-qwq-32b"))
	assert.False(t, cfg.AllowsModel("gpt-4o"))

	cfg.Models = nil
	assert.True(t, cfg.AllowsModel(DefaultModel))
}

func TestClientValidate(t *testing.T) {
	cfg := Default().Client
	assert.NoError(t, cfg.Validate())

	cfg.Sessions.Store = "postgres"
	assert.Error(t, cfg.Validate())

	cfg = Default().Client
	cfg.RelayURL = ""
	assert.Error(t, cfg.Validate())
}

func TestNewLogger(t *testing.T) {
	logger, err := LogConfig{Level: "warn", Format: "json"}.NewLogger()
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	_, err = LogConfig{Level: "loud"}.NewLogger()
	assert.Error(t, err)

	_, err = LogConfig{Level: "info", Format: "xml"}.NewLogger()
	assert.Error(t, err)
}

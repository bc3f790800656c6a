package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultRelayAddress = ":8000"
	DefaultBaseURL      = "https://api.groq.com/openai/v1"
	DefaultModel        = "llama-3.3-70b-versatile"
	DefaultReportLabel  = "Medical Report:\n"
	DefaultUIAddress    = ":8501"
	DefaultRelayURL     = "http://localhost:8000/mcp"
	DefaultSessionTTL   = 24 * time.Hour

	DefaultSystemPrompt = `You are a medical assistant. Given a user's medical test report, identify all abnormal results, list their probable causes, and suggest remedies. Answer in a clear, structured format. If the user asks follow-up questions, provide detailed explanations. Provide the abnormal results only once in the conversation unless explicitly asked by the user.
Always provide standard medical disclaimer.`

	DefaultAnalysisPrompt = "Please analyze my medical test report and list all abnormal results, their probable causes, and remedies."
	DefaultInstructions   = "Be concise and clear."
)

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StoreDynamoDB = "dynamodb"
)

// Config is the runtime configuration shared by the relay and the chat front ends.
type Config struct {
	Relay  RelayConfig  `yaml:"relay"`
	Client ClientConfig `yaml:"client"`
	Log    LogConfig    `yaml:"log"`
}

// RelayConfig describes the upstream completion provider and how requests to it are shaped.
type RelayConfig struct {
	Address      string        `yaml:"address"`
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	Model        string        `yaml:"model"`
	Models       []string      `yaml:"models"`
	Temperature  float32       `yaml:"temperature"`
	SystemPrompt string        `yaml:"system_prompt"`
	ReportLabel  string        `yaml:"report_label"`
	Timeout      time.Duration `yaml:"timeout"` // zero means no client-side timeout
}

type ClientConfig struct {
	Address        string            `yaml:"address"`
	RelayURL       string            `yaml:"relay_url"`
	User           map[string]string `yaml:"user"`
	Instructions   string            `yaml:"instructions"`
	AnalysisPrompt string            `yaml:"analysis_prompt"`
	Model          string            `yaml:"model"`
	Sessions       SessionConfig     `yaml:"sessions"`
}

type SessionConfig struct {
	Store    string         `yaml:"store"`
	TTL      time.Duration  `yaml:"ttl"`
	Redis    RedisConfig    `yaml:"redis"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type DynamoDBConfig struct {
	Table    string `yaml:"table"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		Relay: RelayConfig{
			Address: DefaultRelayAddress,
			BaseURL: DefaultBaseURL,
			Model:   DefaultModel,
			Models: []string{
				"gemma2-9b-it",
				"llama-3.3-70b-versatile",
				"llama-3.1-8b-instant",
				"qwen-qwq-32b",
				"compound-beta",
			},
			SystemPrompt: DefaultSystemPrompt,
			ReportLabel:  DefaultReportLabel,
		},
		Client: ClientConfig{
			Address:        DefaultUIAddress,
			RelayURL:       DefaultRelayURL,
			User:           map[string]string{"id": "user001", "role": "user"},
			Instructions:   DefaultInstructions,
			AnalysisPrompt: DefaultAnalysisPrompt,
			Sessions: SessionConfig{
				Store: StoreMemory,
				TTL:   DefaultSessionTTL,
				Redis: RedisConfig{
					Addr:   "127.0.0.1:6379",
					Prefix: "artemis:session:",
				},
				DynamoDB: DynamoDBConfig{
					Table:  "ChatSessions",
					Region: "us-east-1",
				},
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the YAML file at path (or $ARTEMIS_CONFIG when
// path is empty) on top of the defaults, then applies environment overrides.
// A missing path is not an error; the defaults and environment are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("ARTEMIS_CONFIG")
	}
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve config path: %w", err)
		}
		data, err := os.ReadFile(absPath)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", absPath, err)
		}
		// yaml.v3 merges into existing maps; a user map from the file replaces the default.
		defaultUser := cfg.Client.User
		cfg.Client.User = nil
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
		if cfg.Client.User == nil {
			cfg.Client.User = defaultUser
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Relay.APIKey, "GROQ_API_KEY")
	setString(&c.Relay.Address, "ARTEMIS_RELAY_ADDR")
	setString(&c.Relay.BaseURL, "ARTEMIS_BASE_URL")
	setString(&c.Relay.Model, "ARTEMIS_MODEL")
	if v := os.Getenv("ARTEMIS_TEMPERATURE"); v != "" {
		t, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("parse ARTEMIS_TEMPERATURE: %w", err)
		}
		c.Relay.Temperature = float32(t)
	}
	if v := os.Getenv("ARTEMIS_UPSTREAM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse ARTEMIS_UPSTREAM_TIMEOUT: %w", err)
		}
		c.Relay.Timeout = d
	}

	setString(&c.Client.Address, "ARTEMIS_UI_ADDR")
	setString(&c.Client.RelayURL, "ARTEMIS_RELAY_URL")
	setString(&c.Client.Model, "ARTEMIS_CLIENT_MODEL")
	setString(&c.Client.Sessions.Store, "ARTEMIS_SESSION_STORE")
	setString(&c.Client.Sessions.Redis.Addr, "ARTEMIS_REDIS_ADDR")
	setString(&c.Client.Sessions.Redis.Password, "ARTEMIS_REDIS_PASSWORD")
	setString(&c.Client.Sessions.DynamoDB.Table, "ARTEMIS_DYNAMODB_TABLE")
	setString(&c.Client.Sessions.DynamoDB.Endpoint, "ARTEMIS_DYNAMODB_ENDPOINT")

	setString(&c.Log.Level, "ARTEMIS_LOG_LEVEL")
	setString(&c.Log.Format, "ARTEMIS_LOG_FORMAT")
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// Validate fails when the relay cannot make authenticated upstream calls.
func (r RelayConfig) Validate() error {
	if r.APIKey == "" {
		return errors.New("GROQ_API_KEY is not set")
	}
	if r.BaseURL == "" {
		return errors.New("relay base_url must be configured")
	}
	if r.Model == "" {
		return errors.New("relay model must be configured")
	}
	if r.Temperature < 0 || r.Temperature > 2 {
		return fmt.Errorf("relay temperature %v out of range [0, 2]", r.Temperature)
	}
	return nil
}

// AllowsModel reports whether model may be requested by a client.
// The configured default is always allowed.
func (r RelayConfig) AllowsModel(model string) bool {
	return model == r.Model || slices.Contains(r.Models, model)
}

func (c ClientConfig) Validate() error {
	if c.RelayURL == "" {
		return errors.New("client relay_url must be configured")
	}
	switch c.Sessions.Store {
	case StoreMemory, StoreRedis, StoreDynamoDB:
	default:
		return fmt.Errorf("unknown session store %q", c.Sessions.Store)
	}
	return nil
}

// NewLogger builds a logrus logger for the configured level and format.
func (l LogConfig) NewLogger() (*logrus.Logger, error) {
	logger := logrus.New()
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(level)
	switch strings.ToLower(l.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", l.Format)
	}
	return logger, nil
}

// Package config loads the assistant configuration from a YAML file with
// environment-variable expansion, falling back to plain environment variables
// when no file is given.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the file and environment are silent.
const (
	DefaultPort          = "8080"
	DefaultWebhookPath   = "/webhook"
	DefaultModel         = "gpt-4.1-mini"
	DefaultModelEndpoint = "https://sfo1.aihub.zeabur.ai/v1"
	DefaultModelTimeout  = 25 * time.Second
	DefaultMaxConcurrent = 2
)

// Duration parses YAML durations given either as strings ("30s") or as
// integer nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var asInt int64
	if err := value.Decode(&asInt); err == nil {
		*d = Duration(asInt)
		return nil
	}
	var asString string
	if err := value.Decode(&asString); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	parsed, err := time.ParseDuration(asString)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", asString, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full runtime configuration, read once at startup.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Telegram TelegramConfig `yaml:"telegram"`
	Model    ModelConfig    `yaml:"model"`
	Access   AccessConfig   `yaml:"access"`
	Tools    ToolsConfig    `yaml:"tools"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port        string `yaml:"port"`
	WebhookPath string `yaml:"webhook_path"`
}

// TelegramConfig holds the Bot API credential.
type TelegramConfig struct {
	Token string `yaml:"token"`
}

// ModelConfig configures the model gateway.
type ModelConfig struct {
	APIKey    string   `yaml:"api_key"`
	Endpoints []string `yaml:"endpoints"`
	Model     string   `yaml:"model"`
	Timeout   Duration `yaml:"timeout"`

	// MaxConcurrent caps concurrent conversations.
	MaxConcurrent int `yaml:"max_concurrent"`
}

// AccessConfig holds the sender allow-list.
type AccessConfig struct {
	// AllowedUserIDs is a comma-separated list of numeric sender IDs.
	// Empty means every sender is allowed.
	AllowedUserIDs string `yaml:"allowed_user_ids"`
}

// ToolsConfig holds per-tool credentials.
type ToolsConfig struct {
	TfLAppID  string `yaml:"tfl_app_id"`
	TfLAppKey string `yaml:"tfl_app_key"`
}

// Load reads path when non-empty, expanding ${VAR} references against the
// environment, then layers environment variables over anything still unset
// and applies defaults. A missing file is an error; a missing credential is
// not, because each operation fails fast on its own missing credential.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setIfEmpty(&c.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	setIfEmpty(&c.Model.APIKey, "AI_API_KEY")
	setIfEmpty(&c.Model.Model, "AI_MODEL")
	setIfEmpty(&c.Access.AllowedUserIDs, "ALLOWED_USER_IDS")
	setIfEmpty(&c.Tools.TfLAppID, "TFL_APP_ID")
	setIfEmpty(&c.Tools.TfLAppKey, "TFL_APP_KEY")
	setIfEmpty(&c.Server.Port, "PORT")

	if len(c.Model.Endpoints) == 0 {
		if raw := os.Getenv("AI_ENDPOINTS"); raw != "" {
			for _, e := range strings.Split(raw, ",") {
				if e = strings.TrimSpace(e); e != "" {
					c.Model.Endpoints = append(c.Model.Endpoints, e)
				}
			}
		}
	}
	if c.Model.MaxConcurrent == 0 {
		if raw := os.Getenv("MAX_CONCURRENT"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				c.Model.MaxConcurrent = n
			}
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = DefaultPort
	}
	if c.Server.WebhookPath == "" {
		c.Server.WebhookPath = DefaultWebhookPath
	}
	if c.Model.Model == "" {
		c.Model.Model = DefaultModel
	}
	if len(c.Model.Endpoints) == 0 {
		c.Model.Endpoints = []string{DefaultModelEndpoint}
	}
	if c.Model.Timeout <= 0 {
		c.Model.Timeout = Duration(DefaultModelTimeout)
	}
	if c.Model.MaxConcurrent <= 0 {
		c.Model.MaxConcurrent = DefaultMaxConcurrent
	}
}

func setIfEmpty(dst *string, env string) {
	if *dst == "" {
		*dst = os.Getenv(env)
	}
}

// LogPresence reports which credentials are set without printing their
// values.
func (c *Config) LogPresence(logger *slog.Logger) {
	if logger == nil {
		return
	}
	logger.Info("ENV OK?",
		"telegram_bot_token", c.Telegram.Token != "",
		"ai_api_key", c.Model.APIKey != "",
		"allow_list", c.Access.AllowedUserIDs != "",
		"tfl_credentials", c.Tools.TfLAppID != "" && c.Tools.TfLAppKey != "",
		"endpoints", len(c.Model.Endpoints),
		"port", c.Server.Port)
}

// Package config loads application configuration: defaults, then a TOML
// file, then PYREVIEW_ environment variables, later layers winning.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config represents the application configuration.
type Config struct {
	General struct {
		// Environment is development or production. Production tightens
		// invariants such as requiring the webhook secret.
		Environment string `koanf:"environment"`
	} `koanf:"general"`

	GitHub struct {
		// Token authenticates direct API calls (CLI mode).
		Token string `koanf:"token"`
		// AppID and PrivateKey drive GitHub App authentication
		// (server mode). PrivateKey is PEM text; PrivateKeyPath points
		// at a PEM file and takes precedence when set.
		AppID          string `koanf:"app_id"`
		PrivateKey     string `koanf:"private_key"`
		PrivateKeyPath string `koanf:"private_key_path"`
		WebhookSecret  string `koanf:"webhook_secret"`
		BaseURL        string `koanf:"base_url"`
	} `koanf:"github"`

	AI struct {
		APIKey    string `koanf:"api_key"`
		Model     string `koanf:"model"`
		MaxTokens int    `koanf:"max_tokens"`
	} `koanf:"ai"`

	Server struct {
		Host string `koanf:"host"`
		Port int    `koanf:"port"`
	} `koanf:"server"`

	Review struct {
		Concurrency   int    `koanf:"concurrency"`
		TranscriptDir string `koanf:"transcript_dir"`
	} `koanf:"review"`
}

// IsProduction reports whether the production environment is configured.
func (c *Config) IsProduction() bool {
	return c.General.Environment == EnvProduction
}

// ResolvePrivateKey returns the App private key PEM, reading the
// configured file when a path is set.
func (c *Config) ResolvePrivateKey() (string, error) {
	if c.GitHub.PrivateKeyPath != "" {
		data, err := os.ReadFile(c.GitHub.PrivateKeyPath)
		if err != nil {
			return "", fmt.Errorf("reading github private key: %w", err)
		}
		return string(data), nil
	}
	return c.GitHub.PrivateKey, nil
}

// LoadConfig loads the configuration, optionally from an explicit file.
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	k.Load(confmap.Provider(map[string]interface{}{
		"general.environment":   EnvDevelopment,
		"github.base_url":       "https://api.github.com",
		"ai.model":              "gemini-2.0-flash",
		"ai.max_tokens":         8192,
		"server.host":           "0.0.0.0",
		"server.port":           8080,
		"review.concurrency":    4,
		"review.transcript_dir": "review_logs",
	}, "."), nil)

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./pyreview.toml", "$HOME/.pyreview.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// PYREVIEW_GITHUB_TOKEN becomes github.token and so on. Only the
	// first underscore separates the section from the key.
	k.Load(env.Provider("PYREVIEW_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "PYREVIEW_"))
		return strings.Replace(s, "_", ".", 1)
	}), nil)

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig writes a sample configuration file.
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# pyreview configuration

[general]
# development or production
environment = "development"

[github]
token = "your-github-token"
# App mode (serve command):
# app_id = "123456"
# private_key_path = "/path/to/app.private-key.pem"
# webhook_secret = "your-webhook-secret"

[ai]
api_key = "your-gemini-api-key"
model = "gemini-2.0-flash"
max_tokens = 8192

[server]
host = "0.0.0.0"
port = 8080

[review]
concurrency = 4
transcript_dir = "review_logs"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0o644)
}

// Validate checks the configuration against the current mode.
func Validate(config *Config) error {
	switch config.General.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("general.environment must be %q or %q, got %q",
			EnvDevelopment, EnvProduction, config.General.Environment)
	}

	if config.AI.APIKey == "" {
		return fmt.Errorf("ai.api_key is required")
	}

	if config.IsProduction() && config.GitHub.WebhookSecret == "" {
		return fmt.Errorf("github.webhook_secret is required in production")
	}

	hasToken := config.GitHub.Token != ""
	hasApp := config.GitHub.AppID != "" && (config.GitHub.PrivateKey != "" || config.GitHub.PrivateKeyPath != "")
	if !hasToken && !hasApp {
		return fmt.Errorf("either github.token or github.app_id with a private key is required")
	}

	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	return nil
}

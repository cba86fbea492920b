package cmd

import (
	"fmt"
	"strings"

	"github.com/pyreview/internal/config"
)

// PrintConfigSummary reports the effective configuration with secrets
// masked, so `config validate` output is safe to paste into issues.
func PrintConfigSummary(cfg *config.Config) {
	fmt.Println("Configuration OK")
	fmt.Printf("  environment:      %s\n", cfg.General.Environment)
	fmt.Printf("  github base URL:  %s\n", cfg.GitHub.BaseURL)
	fmt.Printf("  github token:     %s\n", maskSecret(cfg.GitHub.Token))
	if cfg.GitHub.AppID != "" {
		fmt.Printf("  github app id:    %s\n", cfg.GitHub.AppID)
		key, err := cfg.ResolvePrivateKey()
		if err != nil {
			fmt.Printf("  app private key:  error: %v\n", err)
		} else {
			fmt.Printf("  app private key:  %s\n", presence(key))
		}
	}
	fmt.Printf("  webhook secret:   %s\n", presence(cfg.GitHub.WebhookSecret))
	fmt.Printf("  ai model:         %s\n", cfg.AI.Model)
	fmt.Printf("  ai api key:       %s\n", maskSecret(cfg.AI.APIKey))
	fmt.Printf("  server:           %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  concurrency:      %d\n", cfg.Review.Concurrency)
}

// maskSecret shows just enough of a secret to recognize it.
func maskSecret(value string) string {
	if value == "" {
		return "(not set)"
	}
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:4] + strings.Repeat("*", 4) + value[len(value)-4:]
}

func presence(value string) string {
	if value == "" {
		return "(not set)"
	}
	return "(set)"
}

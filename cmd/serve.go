package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/pyreview/internal/ai/langchain"
	"github.com/pyreview/internal/api"
	"github.com/pyreview/internal/appauth"
	"github.com/pyreview/internal/config"
	"github.com/pyreview/internal/webhook"
)

// ServeCommand returns the webhook server command.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the GitHub App webhook server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Override the configured listen port",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	if cfg.GitHub.AppID == "" {
		return fmt.Errorf("github.app_id is required for the serve command")
	}
	privateKey, err := cfg.ResolvePrivateKey()
	if err != nil {
		return err
	}
	if privateKey == "" {
		return fmt.Errorf("github.private_key or github.private_key_path is required for the serve command")
	}

	verifier := webhook.NewVerifier(cfg.GitHub.WebhookSecret, cfg.IsProduction())
	if err := verifier.RequireSecret(); err != nil {
		return err
	}
	if cfg.GitHub.WebhookSecret == "" {
		log.Warn().Msg("webhook secret is not set; signature checks are disabled in development mode")
	}

	provider, err := langchain.New(context.Background(), langchain.Config{
		APIKey:    cfg.AI.APIKey,
		ModelName: cfg.AI.Model,
		MaxTokens: cfg.AI.MaxTokens,
	})
	if err != nil {
		return err
	}

	auth := appauth.New(cfg.GitHub.AppID, []byte(privateKey),
		appauth.WithBaseURL(cfg.GitHub.BaseURL))
	runner := api.NewAppRunner(auth, provider, cfg.GitHub.BaseURL, cfg.Review.Concurrency)
	handler := api.NewWebhookHandler(verifier, runner)

	port := cfg.Server.Port
	if c.Int("port") > 0 {
		port = c.Int("port")
	}

	server := api.NewServer(cfg.Server.Host, port, handler)
	return server.Start()
}

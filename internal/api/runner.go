package api

import (
	"context"
	"fmt"

	"github.com/pyreview/internal/ai"
	"github.com/pyreview/internal/appauth"
	"github.com/pyreview/internal/githubclient"
	"github.com/pyreview/internal/review"
)

// AppRunner is the production ReviewRunner: it exchanges a short-lived
// installation token for each event and runs the review with it.
type AppRunner struct {
	auth        *appauth.Manager
	provider    ai.Provider
	baseURL     string
	concurrency int
}

// NewAppRunner builds a runner over App credentials and a model provider.
func NewAppRunner(auth *appauth.Manager, provider ai.Provider, baseURL string, concurrency int) *AppRunner {
	return &AppRunner{
		auth:        auth,
		provider:    provider,
		baseURL:     baseURL,
		concurrency: concurrency,
	}
}

// Run reviews one pull request on behalf of the installation.
func (r *AppRunner) Run(ctx context.Context, installationID int64, repo string, prNumber int) error {
	if installationID == 0 {
		return fmt.Errorf("webhook payload carried no installation id")
	}

	token, err := r.auth.ExchangeInstallationToken(ctx, installationID)
	if err != nil {
		return fmt.Errorf("exchanging installation token: %w", err)
	}

	gh := githubclient.New(
		githubclient.Credentials{Token: token},
		githubclient.WithBaseURL(r.baseURL),
	)
	svc := review.NewService(gh, r.provider, review.WithConcurrency(r.concurrency))

	_, err = svc.Run(ctx, repo, prNumber)
	return err
}

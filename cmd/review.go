package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/pyreview/internal/ai/langchain"
	"github.com/pyreview/internal/config"
	"github.com/pyreview/internal/githubclient"
	"github.com/pyreview/internal/logging"
	"github.com/pyreview/internal/review"
)

// ReviewCommand returns the review command.
func ReviewCommand() *cli.Command {
	return &cli.Command{
		Name:      "review",
		Usage:     "Review a pull request",
		ArgsUsage: "OWNER/REPO#N",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "repo",
				Usage: "Repository as OWNER/REPO (alternative to the positional argument)",
			},
			&cli.IntFlag{
				Name:  "pr",
				Usage: "Pull request number (alternative to the positional argument)",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "Run the review without posting anything to GitHub",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the markdown report to `FILE`",
			},
			&cli.BoolFlag{
				Name:  "transcript",
				Usage: "Write a full prompt/response transcript for this run",
			},
		},
		Action: runReview,
	}
}

// parseTarget accepts OWNER/REPO#N or the --repo/--pr flag pair.
func parseTarget(arg, repoFlag string, prFlag int) (string, int, error) {
	if arg != "" {
		repoPart, numPart, ok := strings.Cut(arg, "#")
		if !ok {
			return "", 0, fmt.Errorf("expected OWNER/REPO#N, got %q", arg)
		}
		prNumber, err := strconv.Atoi(numPart)
		if err != nil || prNumber < 1 {
			return "", 0, fmt.Errorf("invalid pull request number in %q", arg)
		}
		return repoPart, prNumber, nil
	}

	if repoFlag == "" || prFlag == 0 {
		return "", 0, fmt.Errorf("specify OWNER/REPO#N or both --repo and --pr")
	}
	return repoFlag, prFlag, nil
}

func runReview(c *cli.Context) error {
	repo, prNumber, err := parseTarget(c.Args().Get(0), c.String("repo"), c.Int("pr"))
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if cfg.GitHub.Token == "" {
		return fmt.Errorf("github.token is required for the review command")
	}
	if cfg.AI.APIKey == "" {
		return fmt.Errorf("ai.api_key is required")
	}

	ctx := context.Background()
	provider, err := langchain.New(ctx, langchain.Config{
		APIKey:    cfg.AI.APIKey,
		ModelName: cfg.AI.Model,
		MaxTokens: cfg.AI.MaxTokens,
	})
	if err != nil {
		return err
	}

	gh := githubclient.New(
		githubclient.Credentials{Token: cfg.GitHub.Token},
		githubclient.WithBaseURL(cfg.GitHub.BaseURL),
	)

	opts := []review.ServiceOption{
		review.WithConcurrency(cfg.Review.Concurrency),
		review.WithDryRun(c.Bool("dry-run")),
	}
	if c.Bool("transcript") {
		transcript, err := logging.StartReviewLogging(cfg.Review.TranscriptDir,
			fmt.Sprintf("%s-%d", strings.ReplaceAll(repo, "/", "-"), prNumber))
		if err != nil {
			return err
		}
		defer transcript.Close()
		opts = append(opts, review.WithTranscript(transcript))
	}

	svc := review.NewService(gh, provider, opts...)
	result, err := svc.Run(ctx, repo, prNumber)
	if err != nil {
		return err
	}

	if out := c.String("output"); out != "" {
		if err := os.WriteFile(out, []byte(result.Report), 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		log.Info().Str("file", out).Msg("report written")
	} else if c.Bool("dry-run") {
		fmt.Println(result.Report)
	}

	if result.Skipped {
		fmt.Printf("No Python changes in %s#%d\n", repo, prNumber)
		return nil
	}
	fmt.Printf("Reviewed %d files: health score %.1f, %d findings\n",
		result.FilesReviewed, result.Review.HealthScore, len(result.Review.Findings))
	return nil
}

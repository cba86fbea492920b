package llm

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pyreview/internal/retry"
)

// Generator is the minimal surface a text model has to offer. The
// langchain provider satisfies it, and tests substitute fakes.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ResilientClient wraps a Generator with retry and timeout handling so
// callers see transient model failures as delays, not errors.
type ResilientClient struct {
	gen         Generator
	retryConfig retry.RetryConfig
	timeout     time.Duration
}

// NewResilientClient wraps gen with the given retry configuration. A
// zero timeout means attempts run under the caller's context alone.
func NewResilientClient(gen Generator, cfg retry.RetryConfig, timeout time.Duration) *ResilientClient {
	return &ResilientClient{gen: gen, retryConfig: cfg, timeout: timeout}
}

// NewResilientClientWithDefaults wraps gen with the standard LLM retry
// profile and a two minute per-call ceiling.
func NewResilientClientWithDefaults(gen Generator) *ResilientClient {
	return NewResilientClient(gen, retry.LLMRetryConfig(), 2*time.Minute)
}

// Generate runs one prompt through the underlying model with retries.
func (rc *ResilientClient) Generate(ctx context.Context, prompt string) (string, error) {
	if rc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rc.timeout)
		defer cancel()
	}

	var response string
	result := retry.RetryWithBackoffAndReason(ctx, rc.retryConfig, func() (error, string) {
		out, err := rc.gen.Generate(ctx, prompt)
		if err != nil {
			return err, "model_error"
		}
		if out == "" {
			return errEmptyResponse, "empty_response"
		}
		response = out
		return nil, ""
	})
	if !result.Success {
		return "", result.LastError
	}

	if result.Attempts > 1 {
		log.Info().
			Int("attempts", result.Attempts).
			Dur("total_duration", result.TotalDuration).
			Msg("model call succeeded after retries")
	}
	return response, nil
}

// GenerateJSON runs a prompt and decodes the response into target,
// repairing malformed JSON along the way.
func (rc *ResilientClient) GenerateJSON(ctx context.Context, prompt string, target interface{}) (RepairStats, error) {
	raw, err := rc.Generate(ctx, prompt)
	if err != nil {
		return RepairStats{}, err
	}
	return DecodeModelJSON(raw, target)
}

type sentinelError string

func (e sentinelError) Error() string { return string(e) }

const errEmptyResponse = sentinelError("model returned an empty response")

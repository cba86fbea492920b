package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/pyreview/internal/githubclient"
	"github.com/pyreview/internal/webhook"
)

// eventHeader is the GitHub header naming the event type.
const eventHeader = "X-GitHub-Event"

// reviewedActions are the pull_request actions that trigger a review.
var reviewedActions = map[string]bool{
	"opened":      true,
	"synchronize": true,
	"reopened":    true,
}

// ReviewRunner executes one review for a webhook event. The production
// implementation exchanges the installation token and runs the review
// service; tests substitute fakes.
type ReviewRunner interface {
	Run(ctx context.Context, installationID int64, repo string, prNumber int) error
}

// WebhookHandler verifies and dispatches GitHub webhook deliveries.
type WebhookHandler struct {
	verifier *webhook.Verifier
	runner   ReviewRunner
}

// NewWebhookHandler builds the handler.
func NewWebhookHandler(verifier *webhook.Verifier, runner ReviewRunner) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, runner: runner}
}

// pullRequestEvent is the slice of the webhook payload we act on.
type pullRequestEvent struct {
	Action      string `json:"action"`
	PullRequest struct {
		Number int `json:"number"`
	} `json:"pull_request"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	Installation struct {
		ID int64 `json:"id"`
	} `json:"installation"`
}

// Handle processes one webhook delivery. The signature is checked over
// the raw body before any parsing happens.
func (h *WebhookHandler) Handle(c echo.Context) error {
	rawBody, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unreadable body"})
	}

	if !h.verifier.Verify(rawBody, c.Request().Header.Get(webhook.SignatureHeader)) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "invalid signature"})
	}

	event := c.Request().Header.Get(eventHeader)
	switch event {
	case "ping":
		return c.JSON(http.StatusOK, map[string]string{"message": "pong"})
	case "pull_request":
		return h.handlePullRequest(c, rawBody)
	default:
		log.Debug().Str("event", event).Msg("ignoring webhook event")
		return c.JSON(http.StatusOK, map[string]string{"message": "ignored"})
	}
}

func (h *WebhookHandler) handlePullRequest(c echo.Context, rawBody []byte) error {
	var event pullRequestEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed payload"})
	}
	if !reviewedActions[event.Action] {
		log.Debug().Str("action", event.Action).Msg("ignoring pull_request action")
		return c.JSON(http.StatusOK, map[string]string{"message": "ignored"})
	}
	if event.Repository.FullName == "" || event.PullRequest.Number < 1 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed payload"})
	}

	log.Info().
		Str("repo", event.Repository.FullName).
		Int("pr", event.PullRequest.Number).
		Str("action", event.Action).
		Msg("webhook triggered review")

	err := h.runner.Run(c.Request().Context(), event.Installation.ID,
		event.Repository.FullName, event.PullRequest.Number)
	if err != nil {
		log.Error().Err(err).
			Str("repo", event.Repository.FullName).
			Int("pr", event.PullRequest.Number).
			Msg("review run failed")
		var apiErr *githubclient.APIError
		if errors.As(err, &apiErr) {
			return c.JSON(http.StatusBadGateway, map[string]string{"error": "upstream API failure"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "review failed"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "review completed"})
}

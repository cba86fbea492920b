package githubclient

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// perPage is the fixed page size for paginated listings.
const perPage = 100

// ListPullRequestFiles fetches the files changed in a pull request,
// paginating until a short page, and filters the result to Python sources.
// Upstream ordering is preserved within and across pages.
func (c *Client) ListPullRequestFiles(ctx context.Context, repo string, prNumber int) ([]ChangedFile, error) {
	if err := ValidateRepo(repo); err != nil {
		return nil, err
	}
	if err := ValidatePRNumber(prNumber); err != nil {
		return nil, err
	}

	var all []ChangedFile
	for page := 1; ; page++ {
		endpoint := fmt.Sprintf("/repos/%s/pulls/%d/files?page=%d&per_page=%d", repo, prNumber, page, perPage)

		var files []ChangedFile
		if err := c.requestJSON(ctx, Get, endpoint, nil, &files); err != nil {
			return nil, err
		}

		if len(files) == 0 {
			break
		}
		all = append(all, files...)
		if len(files) < perPage { // last page
			break
		}
	}

	// This reviewer only cares about Python sources.
	python := make([]ChangedFile, 0, len(all))
	for _, f := range all {
		if strings.HasSuffix(f.Path, ".py") {
			python = append(python, f)
		}
	}

	log.Info().
		Str("repo", repo).
		Int("pr", prNumber).
		Int("python_files", len(python)).
		Int("total_files", len(all)).
		Msg("Fetched PR file list")

	return python, nil
}

// contentEnvelope is the base64-in-JSON wrapper returned by the contents
// endpoint. Content is a pointer so a directory response (no content field)
// is distinguishable from an empty file.
type contentEnvelope struct {
	Content  *string `json:"content"`
	Encoding string  `json:"encoding"`
}

// FetchFileContent fetches a file at ref (default "main") and decodes the
// base64 transport envelope to UTF-8 text. A response without a content
// field, such as a directory path, yields a not_found APIError.
func (c *Client) FetchFileContent(ctx context.Context, repo, path, ref string) (string, error) {
	if err := ValidateRepo(repo); err != nil {
		return "", err
	}
	if path == "" {
		return "", &ValidationError{Message: "path must be a non-empty string"}
	}
	if ref == "" {
		ref = "main"
	}

	endpoint := fmt.Sprintf("/repos/%s/contents/%s?ref=%s", repo, path, url.QueryEscape(ref))

	var envelope contentEnvelope
	if err := c.requestJSON(ctx, Get, endpoint, nil, &envelope); err != nil {
		return "", err
	}

	if envelope.Content == nil {
		return "", newAPIError(ReasonNotFound, 0, fmt.Sprintf("no content found for %s", path), "", nil)
	}

	// GitHub wraps base64 content at 60 columns with literal newlines.
	raw := strings.ReplaceAll(*envelope.Content, "\n", "")
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", newAPIError(ReasonDecode, 0, fmt.Sprintf("failed to decode content for %s: %v", path, err), "", err)
	}

	return string(decoded), nil
}

// FetchPullRequestDiff fetches the unified diff of a pull request as raw
// text via the diff media type, bypassing JSON decoding.
func (c *Client) FetchPullRequestDiff(ctx context.Context, repo string, prNumber int) (string, error) {
	if err := ValidateRepo(repo); err != nil {
		return "", err
	}
	if err := ValidatePRNumber(prNumber); err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("/repos/%s/pulls/%d", repo, prNumber)
	return c.requestRaw(ctx, Get, endpoint, acceptDiff)
}

// FetchPullRequestInfo fetches pull request metadata.
func (c *Client) FetchPullRequestInfo(ctx context.Context, repo string, prNumber int) (*PullRequestInfo, error) {
	if err := ValidateRepo(repo); err != nil {
		return nil, err
	}
	if err := ValidatePRNumber(prNumber); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("/repos/%s/pulls/%d", repo, prNumber)

	var info PullRequestInfo
	if err := c.requestJSON(ctx, Get, endpoint, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SubmitReview posts a code review on a pull request with an optional set
// of inline comments. Each inline comment prefers line addressing and falls
// back to diff position when line is absent.
func (c *Client) SubmitReview(ctx context.Context, repo string, prNumber int, body string, decision ReviewDecision, comments []InlineComment) (*ReviewReceipt, error) {
	if err := ValidateRepo(repo); err != nil {
		return nil, err
	}
	if err := ValidatePRNumber(prNumber); err != nil {
		return nil, err
	}
	if body == "" {
		return nil, &ValidationError{Message: "body must be a non-empty string"}
	}
	switch decision {
	case DecisionComment, DecisionApprove, DecisionRequestChanges:
	default:
		return nil, &ValidationError{Message: "event must be one of: COMMENT, APPROVE, REQUEST_CHANGES"}
	}

	payload := map[string]interface{}{
		"body":  body,
		"event": string(decision),
	}

	if len(comments) > 0 {
		formatted := make([]map[string]interface{}, 0, len(comments))
		for _, cm := range comments {
			line := cm.Line
			if line == 0 {
				line = cm.Position
			}
			formatted = append(formatted, map[string]interface{}{
				"path": cm.Path,
				"line": line,
				"body": cm.Body,
			})
		}
		payload["comments"] = formatted
	}

	endpoint := fmt.Sprintf("/repos/%s/pulls/%d/reviews", repo, prNumber)

	var receipt ReviewReceipt
	if err := c.requestJSON(ctx, Post, endpoint, payload, &receipt); err != nil {
		return nil, err
	}

	log.Info().
		Str("repo", repo).
		Int("pr", prNumber).
		Str("decision", string(decision)).
		Int("inline_comments", len(comments)).
		Msg("Submitted PR review")

	return &receipt, nil
}

// PostIssueComment posts a top-level comment on a pull request. PR comments
// live on the issues resource family, distinct from reviews.
func (c *Client) PostIssueComment(ctx context.Context, repo string, prNumber int, body string) (*CommentReceipt, error) {
	if err := ValidateRepo(repo); err != nil {
		return nil, err
	}
	if err := ValidatePRNumber(prNumber); err != nil {
		return nil, err
	}
	if body == "" {
		return nil, &ValidationError{Message: "body must be a non-empty string"}
	}

	endpoint := fmt.Sprintf("/repos/%s/issues/%d/comments", repo, prNumber)

	var receipt CommentReceipt
	if err := c.requestJSON(ctx, Post, endpoint, map[string]string{"body": body}, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// CreateReviewComment creates a single line-anchored review comment. The
// commit SHA must be concrete because line comments are commit-relative.
func (c *Client) CreateReviewComment(ctx context.Context, repo string, prNumber int, commitID, path string, line int, body string) (*CommentReceipt, error) {
	if err := ValidateRepo(repo); err != nil {
		return nil, err
	}
	if err := ValidatePRNumber(prNumber); err != nil {
		return nil, err
	}
	if commitID == "" {
		return nil, &ValidationError{Message: "commit_id must be a non-empty string"}
	}
	if path == "" {
		return nil, &ValidationError{Message: "path must be a non-empty string"}
	}
	if line < 1 {
		return nil, &ValidationError{Message: "line must be a positive integer"}
	}
	if body == "" {
		return nil, &ValidationError{Message: "body must be a non-empty string"}
	}

	endpoint := fmt.Sprintf("/repos/%s/pulls/%d/comments", repo, prNumber)
	payload := map[string]interface{}{
		"body":      body,
		"commit_id": commitID,
		"path":      path,
		"line":      line,
	}

	var receipt CommentReceipt
	if err := c.requestJSON(ctx, Post, endpoint, payload, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

package review

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/pyreview/internal/ai"
	"github.com/pyreview/internal/diff"
	"github.com/pyreview/internal/githubclient"
	"github.com/pyreview/internal/logging"
	"github.com/pyreview/internal/prompts"
	"github.com/pyreview/pkg/models"
)

const (
	defaultConcurrency = 4
	maxInlineComments  = 10
)

// Service orchestrates a full pull request review: fetch the changed
// Python files, fan them out to the specialist reviewers, aggregate the
// findings and post the results back to the pull request.
type Service struct {
	gh          *githubclient.Client
	provider    ai.Provider
	builder     *prompts.PromptBuilder
	concurrency int
	transcript  *logging.ReviewLogger
	dryRun      bool
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithConcurrency bounds how many reviewer calls run at once.
func WithConcurrency(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithDryRun runs the review without posting anything back to GitHub.
func WithDryRun(dryRun bool) ServiceOption {
	return func(s *Service) { s.dryRun = dryRun }
}

// WithTranscript attaches a per-review transcript logger. Nil disables it.
func WithTranscript(t *logging.ReviewLogger) ServiceOption {
	return func(s *Service) { s.transcript = t }
}

// NewService builds a review service over a GitHub client and a model
// provider.
func NewService(gh *githubclient.Client, provider ai.Provider, opts ...ServiceOption) *Service {
	s := &Service{
		gh:          gh,
		provider:    provider,
		builder:     prompts.NewPromptBuilder(),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunResult summarizes one completed review run.
type RunResult struct {
	Review        *models.AggregatedReview
	Report        string
	FilesReviewed int
	// Skipped is true when the pull request touched no Python files.
	Skipped bool
}

// Run reviews one pull request end to end and posts the report back.
func (s *Service) Run(ctx context.Context, repo string, prNumber int) (*RunResult, error) {
	s.transcript.LogSection(fmt.Sprintf("Reviewing %s#%d", repo, prNumber))

	info, err := s.gh.FetchPullRequestInfo(ctx, repo, prNumber)
	if err != nil {
		return nil, fmt.Errorf("fetching pull request info: %w", err)
	}
	meta := ReportMeta{
		Repo:     repo,
		PRNumber: prNumber,
		Title:    info.Title,
		Author:   info.User.Login,
		HeadSHA:  info.Head.SHA,
	}

	files, err := s.gh.ListPullRequestFiles(ctx, repo, prNumber)
	if err != nil {
		return nil, fmt.Errorf("listing changed files: %w", err)
	}
	files = reviewableFiles(files)
	s.transcript.Log("found %d reviewable python files", len(files))

	if len(files) == 0 {
		body := RenderNoPythonChanges(meta)
		if !s.dryRun {
			if _, err := s.gh.PostIssueComment(ctx, repo, prNumber, body); err != nil {
				return nil, fmt.Errorf("posting no-changes comment: %w", err)
			}
		}
		log.Info().Str("repo", repo).Int("pr", prNumber).Msg("no python changes, skipping review")
		return &RunResult{Report: body, Skipped: true}, nil
	}

	results, err := s.reviewFiles(ctx, repo, info.Head.SHA, files)
	if err != nil {
		return nil, err
	}

	aggregated := Aggregate(results)
	report := RenderReport(meta, aggregated)

	if !s.dryRun {
		if _, err := s.gh.PostIssueComment(ctx, repo, prNumber, report); err != nil {
			return nil, fmt.Errorf("posting review report: %w", err)
		}
		if err := s.submitVerdict(ctx, repo, prNumber, files, aggregated); err != nil {
			// The report comment already landed, so a failed formal review
			// downgrades to a warning instead of failing the run.
			log.Warn().Err(err).Str("repo", repo).Int("pr", prNumber).Msg("failed to submit formal review")
			s.transcript.LogError("submitting formal review", err)
		}
	}

	log.Info().
		Str("repo", repo).
		Int("pr", prNumber).
		Int("files", len(files)).
		Int("findings", len(aggregated.Findings)).
		Float64("health_score", aggregated.HealthScore).
		Msg("review complete")

	return &RunResult{
		Review:        &aggregated,
		Report:        report,
		FilesReviewed: len(files),
	}, nil
}

// reviewFiles fans every file out to every specialist with bounded
// concurrency. Individual reviewer failures are logged and skipped; the
// run fails only when nothing succeeded.
func (s *Service) reviewFiles(ctx context.Context, repo, headSHA string, files []githubclient.ChangedFile) ([]models.ReviewerResult, error) {
	reviewers := prompts.Reviewers()

	type task struct {
		reviewer prompts.Reviewer
		file     githubclient.ChangedFile
		content  string
	}
	var tasks []task
	for _, f := range files {
		content, err := s.fileContent(ctx, repo, f, headSHA)
		if err != nil {
			log.Warn().Err(err).Str("file", f.Path).Msg("skipping file, content unavailable")
			s.transcript.LogError("fetching "+f.Path, err)
			continue
		}
		for _, r := range reviewers {
			tasks = append(tasks, task{reviewer: r, file: f, content: content})
		}
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("no file content could be fetched for %s", repo)
	}

	var (
		mu      sync.Mutex
		results []models.ReviewerResult
		failed  int
	)
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for _, t := range tasks {
		wg.Add(1)
		go func(t task) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			prompt := s.builder.BuildFileReviewPrompt(t.reviewer, t.file.Path, t.content, t.file.Patch)
			s.transcript.LogPrompt(t.reviewer.Name, t.file.Path, prompt)

			result, err := s.provider.ReviewFile(ctx, ai.ReviewRequest{
				Reviewer:        t.reviewer.Name,
				Prompt:          prompt,
				FilePath:        t.file.Path,
				FileContent:     t.content,
				Patch:           t.file.Patch,
				DefaultCategory: t.reviewer.DefaultCategory,
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				log.Warn().Err(err).
					Str("reviewer", t.reviewer.Name).
					Str("file", t.file.Path).
					Msg("reviewer pass failed")
				s.transcript.LogError(fmt.Sprintf("%s on %s", t.reviewer.Name, t.file.Path), err)
				return
			}
			s.transcript.LogResult(t.reviewer.Name, t.file.Path, len(result.Findings))
			results = append(results, *result)
		}(t)
	}
	wg.Wait()

	if len(results) == 0 {
		return nil, fmt.Errorf("all %d reviewer passes failed", failed)
	}
	return results, nil
}

// fileContent fetches the file at the head commit. Removed files have no
// head content; the diff alone carries their review signal.
func (s *Service) fileContent(ctx context.Context, repo string, f githubclient.ChangedFile, headSHA string) (string, error) {
	if f.Status == "removed" {
		return "", nil
	}
	content, err := s.gh.FetchFileContent(ctx, repo, f.Path, headSHA)
	if err != nil {
		if githubclient.IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return content, nil
}

// submitVerdict files a formal pull request review: REQUEST_CHANGES when
// anything critical surfaced, COMMENT otherwise, with inline comments on
// the highest-severity line-anchored findings.
func (s *Service) submitVerdict(ctx context.Context, repo string, prNumber int, files []githubclient.ChangedFile, agg models.AggregatedReview) error {
	decision := githubclient.DecisionComment
	if agg.Counts.Critical > 0 {
		decision = githubclient.DecisionRequestChanges
	}

	body := verdict(agg)
	comments := inlineComments(files, agg)
	_, err := s.gh.SubmitReview(ctx, repo, prNumber, body, decision, comments)
	return err
}

// inlineComments picks CRITICAL and HIGH findings that anchor to a line
// in a changed file, strongest first, capped at maxInlineComments.
// Findings outside the diff are dropped because GitHub rejects review
// comments on untouched lines.
func inlineComments(files []githubclient.ChangedFile, agg models.AggregatedReview) []githubclient.InlineComment {
	patches := make(map[string]string, len(files))
	for _, f := range files {
		patches[f.Path] = f.Patch
	}

	var candidates []models.Finding
	for _, f := range agg.Findings {
		if f.Severity.Rank() > models.SeverityHigh.Rank() {
			continue
		}
		patch, changed := patches[f.FilePath]
		if f.LineStart < 1 || !changed {
			continue
		}
		// A missing patch means GitHub elided the diff (large or binary
		// file); anchor best-effort rather than dropping the finding.
		if patch != "" && !diff.CommentableLines(patch)[f.LineStart] {
			continue
		}
		candidates = append(candidates, f)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Severity.Rank() < candidates[j].Severity.Rank()
	})
	if len(candidates) > maxInlineComments {
		candidates = candidates[:maxInlineComments]
	}

	comments := make([]githubclient.InlineComment, 0, len(candidates))
	for _, f := range candidates {
		comments = append(comments, githubclient.InlineComment{
			Path: f.FilePath,
			Line: f.LineStart,
			Body: inlineCommentBody(f),
		})
	}
	return comments
}

func inlineCommentBody(f models.Finding) string {
	body := fmt.Sprintf("%s **%s**: %s\n\n%s", f.Severity.Marker(), f.Severity, f.Title, f.Description)
	if f.Remediation != "" {
		body += "\n\n**Suggested fix:** " + f.Remediation
	}
	return body
}

// reviewableFiles drops entries that cannot be reviewed, such as files
// removed without a diff.
func reviewableFiles(files []githubclient.ChangedFile) []githubclient.ChangedFile {
	out := files[:0]
	for _, f := range files {
		if f.Status == "removed" && f.Patch == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}

package langchain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyreview/internal/ai"
	"github.com/pyreview/pkg/models"
)

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.response, g.err
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestReviewFileParsesFindings(t *testing.T) {
	gen := &fakeGenerator{response: "```json\n" + `{
  "findings": [
    {
      "category": "SECURITY",
      "severity": "CRITICAL",
      "title": "SQL built with f-string",
      "description": "User input is interpolated into a query.",
      "file_path": "app/db.py",
      "line_start": 12,
      "line_end": 14,
      "remediation": "Use parameterized queries.",
      "confidence": 0.95,
      "effort": "low"
    }
  ],
  "summary": "One serious issue."
}` + "\n```"}
	p := NewWithGenerator(gen, "test-model")

	result, err := p.ReviewFile(context.Background(), ai.ReviewRequest{
		Reviewer: "security",
		Prompt:   "review this",
		FilePath: "app/db.py",
	})
	require.NoError(t, err)
	require.Len(t, result.Findings, 1)

	f := result.Findings[0]
	assert.Equal(t, models.CategorySecurity, f.Category)
	assert.Equal(t, models.SeverityCritical, f.Severity)
	assert.Equal(t, "SQL built with f-string", f.Title)
	assert.Equal(t, 12, f.LineStart)
	assert.Equal(t, 14, f.LineEnd)
	assert.Equal(t, 0.95, f.Confidence)
	assert.Equal(t, models.EffortLow, f.Effort)
	assert.Equal(t, "security", f.Reviewer)
	assert.Equal(t, "One serious issue.", result.Summary)
	assert.Equal(t, []string{"review this"}, gen.prompts)
}

func TestReviewFileRepairsMalformedJSON(t *testing.T) {
	gen := &fakeGenerator{response: `{"findings": [{"title": "trailing comma", "severity": "LOW",}], "summary": "ok",}`}
	p := NewWithGenerator(gen, "test-model")

	result, err := p.ReviewFile(context.Background(), ai.ReviewRequest{Reviewer: "quality", FilePath: "x.py"})
	require.NoError(t, err)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, models.SeverityLow, result.Findings[0].Severity)
}

func TestReviewFileNormalizesSloppyFields(t *testing.T) {
	gen := &fakeGenerator{response: `{
  "findings": [
    {"title": "missing everything"},
    {"title": "", "description": ""},
    {"title": "bad numbers", "line_start": -3, "confidence": 7.5, "effort": "ENORMOUS"}
  ],
  "summary": ""
}`}
	p := NewWithGenerator(gen, "test-model")

	result, err := p.ReviewFile(context.Background(), ai.ReviewRequest{
		Reviewer:        "pythonic",
		FilePath:        "pkg/mod.py",
		DefaultCategory: models.CategoryPythonic,
	})
	require.NoError(t, err)
	require.Len(t, result.Findings, 2, "empty finding should be dropped")

	first := result.Findings[0]
	assert.Equal(t, models.CategoryPythonic, first.Category, "reviewer default category applies")
	assert.Equal(t, models.SeverityInfo, first.Severity, "unknown severity falls back to INFO")
	assert.Equal(t, "pkg/mod.py", first.FilePath, "request path fills missing file_path")

	second := result.Findings[1]
	assert.Equal(t, 1, second.LineStart)
	assert.Equal(t, 1, second.LineEnd)
	assert.Equal(t, 0.5, second.Confidence)
	assert.Equal(t, models.EffortMedium, second.Effort)
}

func TestReviewFileEmptyFindingsIsValid(t *testing.T) {
	gen := &fakeGenerator{response: `{"findings": [], "summary": "clean file"}`}
	p := NewWithGenerator(gen, "test-model")

	result, err := p.ReviewFile(context.Background(), ai.ReviewRequest{Reviewer: "security", FilePath: "a.py"})
	require.NoError(t, err)
	assert.Empty(t, result.Findings)
	assert.Equal(t, "clean file", result.Summary)
	assert.Equal(t, 1, result.FilesReviewed)
}

package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyreview/pkg/models"
)

func finding(sev models.Severity, cat models.Category, path string, start, end int) models.Finding {
	return models.Finding{
		Category:    cat,
		Severity:    sev,
		Title:       "issue at " + path,
		Description: "something is wrong",
		FilePath:    path,
		LineStart:   start,
		LineEnd:     end,
		Confidence:  0.8,
		Effort:      models.EffortMedium,
	}
}

func TestHealthScoreWeights(t *testing.T) {
	cases := []struct {
		name   string
		counts models.SeverityCounts
		want   float64
	}{
		{"clean", models.SeverityCounts{}, 100},
		{"one critical", models.SeverityCounts{Critical: 1}, 80},
		{"one of each", models.SeverityCounts{Critical: 1, High: 1, Medium: 1, Low: 1, Info: 1}, 62.5},
		{"info only", models.SeverityCounts{Info: 3}, 98.5},
		{"floors at zero", models.SeverityCounts{Critical: 6}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HealthScore(tc.counts))
		})
	}
}

func TestAggregateOrdersBySeverity(t *testing.T) {
	results := []models.ReviewerResult{
		{Reviewer: "quality", Findings: []models.Finding{
			finding(models.SeverityLow, models.CategoryQuality, "a.py", 1, 1),
			finding(models.SeverityCritical, models.CategoryQuality, "b.py", 5, 6),
		}},
		{Reviewer: "security", Findings: []models.Finding{
			finding(models.SeverityHigh, models.CategorySecurity, "c.py", 2, 2),
		}},
	}

	agg := Aggregate(results)
	require.Len(t, agg.Findings, 3)
	assert.Equal(t, models.SeverityCritical, agg.Findings[0].Severity)
	assert.Equal(t, models.SeverityHigh, agg.Findings[1].Severity)
	assert.Equal(t, models.SeverityLow, agg.Findings[2].Severity)
	assert.Equal(t, 1, agg.Counts.Critical)
	assert.Equal(t, 1, agg.Counts.High)
	assert.Equal(t, 1, agg.Counts.Low)
	assert.Equal(t, 80-10-2.0, agg.HealthScore)
}

func TestAggregateAttributesReviewer(t *testing.T) {
	results := []models.ReviewerResult{
		{Reviewer: "pythonic", Findings: []models.Finding{
			finding(models.SeverityInfo, models.CategoryPythonic, "m.py", 3, 3),
		}},
	}
	agg := Aggregate(results)
	require.Len(t, agg.Findings, 1)
	assert.Equal(t, "pythonic", agg.Findings[0].Reviewer)
}

func TestDedupeOverlappingFindingsKeepsRicher(t *testing.T) {
	brief := finding(models.SeverityMedium, models.CategorySecurity, "app.py", 10, 12)
	brief.Description = "short"

	rich := finding(models.SeverityLow, models.CategorySecurity, "app.py", 11, 15)
	rich.Description = "a considerably more detailed description of the problem"
	rich.Remediation = "do the fix like this"
	rich.Snippet = "x = eval(data)"

	agg := Aggregate([]models.ReviewerResult{
		{Reviewer: "security", Findings: []models.Finding{brief}},
		{Reviewer: "quality", Findings: []models.Finding{rich}},
	})

	require.Len(t, agg.Findings, 1)
	kept := agg.Findings[0]
	assert.Equal(t, rich.Description, kept.Description, "richer duplicate wins")
	assert.Equal(t, models.SeverityMedium, kept.Severity, "stronger severity survives the merge")
}

func TestDedupeDistinctIssuesSurvive(t *testing.T) {
	sameFileOtherLines := finding(models.SeverityMedium, models.CategorySecurity, "app.py", 1, 2)
	otherCategory := finding(models.SeverityMedium, models.CategoryQuality, "app.py", 1, 2)
	otherFile := finding(models.SeverityMedium, models.CategorySecurity, "other.py", 1, 2)
	base := finding(models.SeverityMedium, models.CategorySecurity, "app.py", 10, 12)

	agg := Aggregate([]models.ReviewerResult{{
		Reviewer: "security",
		Findings: []models.Finding{base, sameFileOtherLines, otherCategory, otherFile},
	}})
	assert.Len(t, agg.Findings, 4)
}

func TestTopIssuesCappedAndSorted(t *testing.T) {
	var findings []models.Finding
	for i := 0; i < 8; i++ {
		f := finding(models.SeverityMedium, models.CategoryQuality, "f.py", i*10+1, i*10+2)
		f.Confidence = 0.5
		findings = append(findings, f)
	}
	critical := finding(models.SeverityCritical, models.CategorySecurity, "g.py", 1, 1)
	confident := finding(models.SeverityMedium, models.CategoryQuality, "h.py", 1, 1)
	confident.Confidence = 0.99
	findings = append(findings, critical, confident)

	agg := Aggregate([]models.ReviewerResult{{Reviewer: "r", Findings: findings}})

	require.Len(t, agg.TopIssues, 5)
	assert.Equal(t, models.SeverityCritical, agg.TopIssues[0].Severity)
	assert.Equal(t, "h.py", agg.TopIssues[1].FilePath, "confidence breaks ties within a severity")
}

func TestQuickWins(t *testing.T) {
	cheapMedium := finding(models.SeverityMedium, models.CategoryQuality, "a.py", 1, 1)
	cheapMedium.Effort = models.EffortLow

	cheapConfidentInfo := finding(models.SeverityInfo, models.CategoryPythonic, "b.py", 1, 1)
	cheapConfidentInfo.Effort = models.EffortLow
	cheapConfidentInfo.Confidence = 0.95

	cheapDoubtfulInfo := finding(models.SeverityInfo, models.CategoryPythonic, "c.py", 1, 1)
	cheapDoubtfulInfo.Effort = models.EffortLow
	cheapDoubtfulInfo.Confidence = 0.4

	expensiveCritical := finding(models.SeverityCritical, models.CategorySecurity, "d.py", 1, 1)
	expensiveCritical.Effort = models.EffortHigh

	agg := Aggregate([]models.ReviewerResult{{
		Reviewer: "r",
		Findings: []models.Finding{cheapMedium, cheapConfidentInfo, cheapDoubtfulInfo, expensiveCritical},
	}})

	require.Len(t, agg.QuickWins, 2)
	paths := []string{agg.QuickWins[0].FilePath, agg.QuickWins[1].FilePath}
	assert.Contains(t, paths, "a.py")
	assert.Contains(t, paths, "b.py")
}

func TestAggregateGroupsByFileAndCategory(t *testing.T) {
	agg := Aggregate([]models.ReviewerResult{{
		Reviewer: "r",
		Findings: []models.Finding{
			finding(models.SeverityLow, models.CategoryQuality, "a.py", 1, 1),
			finding(models.SeverityLow, models.CategoryQuality, "a.py", 10, 10),
			finding(models.SeverityLow, models.CategorySecurity, "b.py", 1, 1),
		},
	}})

	assert.Len(t, agg.ByFile["a.py"], 2)
	assert.Len(t, agg.ByFile["b.py"], 1)
	assert.Len(t, agg.ByCategory[models.CategoryQuality], 2)
	assert.Len(t, agg.BySeverity[models.SeverityLow], 3)
}

package review

import (
	"sort"

	"github.com/pyreview/pkg/models"
)

// maxTopIssues bounds the executive-summary issue list.
const maxTopIssues = 5

// Aggregate combines the per-reviewer results into a single review:
// deduplicate overlapping findings, categorize by severity/category/file,
// pick top issues and quick wins, and compute the weighted health score.
func Aggregate(results []models.ReviewerResult) models.AggregatedReview {
	var merged []models.Finding
	var summaries []string
	for _, r := range results {
		for _, f := range r.Findings {
			if f.Reviewer == "" {
				f.Reviewer = r.Reviewer
			}
			merged = append(merged, f)
		}
		if r.Summary != "" {
			summaries = append(summaries, r.Summary)
		}
	}

	deduped := dedupe(merged)

	// Severity-major ordering, stable within a level so reviewer order and
	// upstream file order survive.
	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].Severity.Rank() < deduped[j].Severity.Rank()
	})

	agg := models.AggregatedReview{
		Findings:          deduped,
		BySeverity:        make(map[models.Severity][]models.Finding),
		ByCategory:        make(map[models.Category][]models.Finding),
		ByFile:            make(map[string][]models.Finding),
		ReviewerSummaries: summaries,
	}

	for _, f := range deduped {
		agg.BySeverity[f.Severity] = append(agg.BySeverity[f.Severity], f)
		agg.ByCategory[f.Category] = append(agg.ByCategory[f.Category], f)
		agg.ByFile[f.FilePath] = append(agg.ByFile[f.FilePath], f)

		switch f.Severity {
		case models.SeverityCritical:
			agg.Counts.Critical++
		case models.SeverityHigh:
			agg.Counts.High++
		case models.SeverityMedium:
			agg.Counts.Medium++
		case models.SeverityLow:
			agg.Counts.Low++
		default:
			agg.Counts.Info++
		}
	}

	agg.HealthScore = HealthScore(agg.Counts)
	agg.TopIssues = topIssues(deduped)
	agg.QuickWins = quickWins(deduped)

	return agg
}

// HealthScore computes the weighted 0-100 score:
// 100 - 20/critical - 10/high - 5/medium - 2/low - 0.5/info, floored at 0.
func HealthScore(c models.SeverityCounts) float64 {
	score := 100.0
	score -= float64(c.Critical) * models.SeverityCritical.Weight()
	score -= float64(c.High) * models.SeverityHigh.Weight()
	score -= float64(c.Medium) * models.SeverityMedium.Weight()
	score -= float64(c.Low) * models.SeverityLow.Weight()
	score -= float64(c.Info) * models.SeverityInfo.Weight()
	if score < 0 {
		score = 0
	}
	return score
}

// dedupe collapses findings that describe the same issue: same file, same
// category, overlapping line ranges. Multiple reviewers often flag the same
// spot; the most detailed version wins.
func dedupe(findings []models.Finding) []models.Finding {
	var out []models.Finding

	for _, f := range findings {
		replaced := false
		duplicate := false
		for i, existing := range out {
			if !sameIssue(existing, f) {
				continue
			}
			duplicate = true
			if detail(f) > detail(existing) {
				// Keep the richer duplicate but the stronger severity.
				if existing.Severity.Rank() < f.Severity.Rank() {
					f.Severity = existing.Severity
				}
				out[i] = f
				replaced = true
			}
			break
		}
		if !duplicate && !replaced {
			out = append(out, f)
		}
	}

	return out
}

func sameIssue(a, b models.Finding) bool {
	if a.FilePath != b.FilePath || a.Category != b.Category {
		return false
	}
	return rangesOverlap(a.LineStart, lineEnd(a), b.LineStart, lineEnd(b))
}

func lineEnd(f models.Finding) int {
	if f.LineEnd >= f.LineStart {
		return f.LineEnd
	}
	return f.LineStart
}

func rangesOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart <= bEnd && bStart <= aEnd
}

// detail scores how much actionable content a finding carries.
func detail(f models.Finding) int {
	n := len(f.Description) + len(f.Remediation) + len(f.Impact) + len(f.FixedCode)
	if f.Snippet != "" {
		n += 50
	}
	return n
}

// topIssues returns the most severe findings, highest confidence first
// within a severity level, capped at maxTopIssues.
func topIssues(findings []models.Finding) []models.Finding {
	sorted := make([]models.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Severity.Rank() != sorted[j].Severity.Rank() {
			return sorted[i].Severity.Rank() < sorted[j].Severity.Rank()
		}
		return sorted[i].Confidence > sorted[j].Confidence
	})
	if len(sorted) > maxTopIssues {
		sorted = sorted[:maxTopIssues]
	}
	return sorted
}

// quickWins picks low-effort fixes worth doing immediately: anything cheap
// at MEDIUM or above, plus cheap high-confidence smaller issues.
func quickWins(findings []models.Finding) []models.Finding {
	var wins []models.Finding
	for _, f := range findings {
		if f.Effort != models.EffortLow {
			continue
		}
		if f.Severity.Rank() <= models.SeverityMedium.Rank() || f.Confidence >= 0.9 {
			wins = append(wins, f)
		}
	}
	return wins
}

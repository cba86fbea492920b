package review

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pyreview/pkg/models"
)

// ReportMeta carries the PR context rendered into the report header.
type ReportMeta struct {
	Repo     string
	PRNumber int
	Title    string
	Author   string
	HeadSHA  string
}

// severityOrder is the section ordering for the report body.
var severityOrder = []models.Severity{
	models.SeverityCritical,
	models.SeverityHigh,
	models.SeverityMedium,
	models.SeverityLow,
	models.SeverityInfo,
}

var severityHeadings = map[models.Severity]string{
	models.SeverityCritical: "Critical Issues (Immediate Action Required)",
	models.SeverityHigh:     "High Severity Issues",
	models.SeverityMedium:   "Medium Severity Issues",
	models.SeverityLow:      "Low Severity Issues",
	models.SeverityInfo:     "Informational Notes",
}

// RenderReport produces the markdown review report: executive summary with
// health score and severity counts, severity sections, per-file breakdown,
// quick wins, and the automated-review footer.
func RenderReport(meta ReportMeta, agg models.AggregatedReview) string {
	var b strings.Builder

	b.WriteString("# 🐍 Python Code Review\n\n")
	if meta.Repo != "" {
		fmt.Fprintf(&b, "**Repository**: %s · **Pull Request**: #%d", meta.Repo, meta.PRNumber)
		if meta.Title != "" {
			fmt.Fprintf(&b, " · %s", meta.Title)
		}
		b.WriteString("\n\n")
	}

	// Executive summary
	b.WriteString("## Executive Summary\n\n")
	fmt.Fprintf(&b, "**Overall Health Score**: %s/100\n\n", formatScore(agg.HealthScore))
	fmt.Fprintf(&b, "| Severity | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| %s Critical | %d |\n", models.SeverityCritical.Marker(), agg.Counts.Critical)
	fmt.Fprintf(&b, "| %s High | %d |\n", models.SeverityHigh.Marker(), agg.Counts.High)
	fmt.Fprintf(&b, "| %s Medium | %d |\n", models.SeverityMedium.Marker(), agg.Counts.Medium)
	fmt.Fprintf(&b, "| %s Low | %d |\n", models.SeverityLow.Marker(), agg.Counts.Low)
	fmt.Fprintf(&b, "| %s Info | %d |\n\n", models.SeverityInfo.Marker(), agg.Counts.Info)

	b.WriteString(verdict(agg))
	b.WriteString("\n\n")

	if len(agg.TopIssues) > 0 {
		b.WriteString("**Top issues requiring attention:**\n\n")
		for i, f := range agg.TopIssues {
			fmt.Fprintf(&b, "%d. %s **%s** - `%s`\n", i+1, f.Severity.Marker(), f.Title, f.Location())
		}
		b.WriteString("\n")
	}

	// Severity sections
	for _, sev := range severityOrder {
		findings := agg.BySeverity[sev]
		if len(findings) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s %s\n\n", sev.Marker(), severityHeadings[sev])
		for _, f := range findings {
			writeFinding(&b, f)
		}
	}

	// Quick wins
	if len(agg.QuickWins) > 0 {
		b.WriteString("## ⚡ Quick Wins\n\n")
		b.WriteString("Low-effort fixes with outsized value:\n\n")
		for _, f := range agg.QuickWins {
			fmt.Fprintf(&b, "- %s **%s** - `%s`\n", f.Severity.Marker(), f.Title, f.Location())
		}
		b.WriteString("\n")
	}

	// Per-file breakdown
	if len(agg.ByFile) > 0 {
		b.WriteString("## File Breakdown\n\n")
		paths := make([]string, 0, len(agg.ByFile))
		for p := range agg.ByFile {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			fmt.Fprintf(&b, "### `%s`\n\n", p)
			for _, f := range agg.ByFile[p] {
				fmt.Fprintf(&b, "- %s **%s** (line %d, %s)\n", f.Severity.Marker(), f.Title, f.LineStart, f.Category)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("---\n")
	b.WriteString("*This review was generated automatically by pyreview. ")
	b.WriteString("Findings are advisory; use your judgment before applying fixes.*\n")

	return b.String()
}

// RenderNoPythonChanges is the short comment posted when a PR touches no
// Python files.
func RenderNoPythonChanges(meta ReportMeta) string {
	var b strings.Builder
	b.WriteString("# 🐍 Python Code Review\n\n")
	fmt.Fprintf(&b, "No Python files changed in #%d, nothing to review.\n\n", meta.PRNumber)
	b.WriteString("---\n")
	b.WriteString("*This review was generated automatically by pyreview.*\n")
	return b.String()
}

func writeFinding(b *strings.Builder, f models.Finding) {
	fmt.Fprintf(b, "### %s %s\n\n", f.Severity.Marker(), f.Title)
	fmt.Fprintf(b, "**Location**: `%s`", f.Location())
	fmt.Fprintf(b, " · **Category**: %s", f.Category)
	if f.Reviewer != "" {
		fmt.Fprintf(b, " · **Found by**: %s", f.Reviewer)
	}
	b.WriteString("\n\n")

	if f.Description != "" {
		b.WriteString(f.Description)
		b.WriteString("\n\n")
	}
	if f.Snippet != "" {
		fmt.Fprintf(b, "```python\n%s\n```\n\n", strings.TrimRight(f.Snippet, "\n"))
	}
	if f.Impact != "" {
		fmt.Fprintf(b, "**Impact**: %s\n\n", f.Impact)
	}
	if f.Remediation != "" {
		fmt.Fprintf(b, "**Suggested fix**: %s\n\n", f.Remediation)
	}
	if f.FixedCode != "" {
		fmt.Fprintf(b, "```python\n%s\n```\n\n", strings.TrimRight(f.FixedCode, "\n"))
	}
	if len(f.References) > 0 {
		fmt.Fprintf(b, "**References**: %s\n\n", strings.Join(f.References, ", "))
	}
}

func verdict(agg models.AggregatedReview) string {
	switch {
	case agg.Counts.Critical > 0:
		return "⛔ **Not production-ready**: critical issues must be fixed before merging."
	case agg.Counts.High > 0:
		return "⚠️ **Needs work**: high severity issues should be addressed before merging."
	case agg.Counts.Total() == 0:
		return "✅ **Looks good**: no issues found."
	default:
		return "✅ **Production-ready with minor improvements suggested.**"
	}
}

func formatScore(score float64) string {
	if score == float64(int(score)) {
		return fmt.Sprintf("%d", int(score))
	}
	return fmt.Sprintf("%.1f", score)
}

package models

import (
	"fmt"
	"strings"
)

// Severity levels for findings, ordered from most to least severe.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// severityRank orders severities for sorting; lower is more severe.
var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
	SeverityInfo:     4,
}

// Rank returns the sort rank of a severity; unknown severities sort last.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// Weight is the health-score deduction one finding of this severity costs.
func (s Severity) Weight() float64 {
	switch s {
	case SeverityCritical:
		return 20
	case SeverityHigh:
		return 10
	case SeverityMedium:
		return 5
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 0.5
	}
	return 0
}

// Marker is the severity indicator used in markdown reports.
func (s Severity) Marker() string {
	switch s {
	case SeverityCritical:
		return "🔴"
	case SeverityHigh:
		return "🟠"
	case SeverityMedium:
		return "🟡"
	case SeverityLow:
		return "🔵"
	case SeverityInfo:
		return "⚪"
	}
	return "⚪"
}

// ParseSeverity normalizes a severity string from an LLM response, falling
// back to INFO for anything unrecognized.
func ParseSeverity(s string) Severity {
	switch Severity(normalizeUpper(s)) {
	case SeverityCritical:
		return SeverityCritical
	case SeverityHigh:
		return SeverityHigh
	case SeverityMedium:
		return SeverityMedium
	case SeverityLow:
		return SeverityLow
	case SeverityInfo:
		return SeverityInfo
	}
	return SeverityInfo
}

// Category classifies what aspect of the code a finding concerns.
type Category string

const (
	CategorySecurity      Category = "SECURITY"
	CategoryArchitecture  Category = "ARCHITECTURE"
	CategoryPerformance   Category = "PERFORMANCE"
	CategoryQuality       Category = "QUALITY"
	CategoryPythonic      Category = "PYTHONIC"
	CategoryTyping        Category = "TYPING"
	CategoryTesting       Category = "TESTING"
	CategoryDocumentation Category = "DOCUMENTATION"
)

// ParseCategory normalizes a category string, falling back to QUALITY.
func ParseCategory(s string) Category {
	switch Category(normalizeUpper(s)) {
	case CategorySecurity:
		return CategorySecurity
	case CategoryArchitecture:
		return CategoryArchitecture
	case CategoryPerformance:
		return CategoryPerformance
	case CategoryQuality:
		return CategoryQuality
	case CategoryPythonic:
		return CategoryPythonic
	case CategoryTyping:
		return CategoryTyping
	case CategoryTesting:
		return CategoryTesting
	case CategoryDocumentation:
		return CategoryDocumentation
	}
	return CategoryQuality
}

// Effort estimates how much work a fix takes; used to pick quick wins.
type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

// Finding is one code review finding from a reviewer.
type Finding struct {
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	FilePath    string   `json:"file_path"`
	LineStart   int      `json:"line_start"`
	LineEnd     int      `json:"line_end,omitempty"`
	Snippet     string   `json:"snippet,omitempty"`
	Impact      string   `json:"impact,omitempty"`
	Remediation string   `json:"remediation,omitempty"`
	FixedCode   string   `json:"fixed_code,omitempty"`
	References  []string `json:"references,omitempty"`
	Confidence  float64  `json:"confidence,omitempty"` // 0.0 to 1.0
	Effort      Effort   `json:"effort,omitempty"`
	Reviewer    string   `json:"reviewer,omitempty"` // which specialist found it
}

// Location renders the finding's position as path:start or path:start-end.
func (f Finding) Location() string {
	if f.LineEnd > 0 && f.LineEnd != f.LineStart {
		return fmt.Sprintf("%s:%d-%d", f.FilePath, f.LineStart, f.LineEnd)
	}
	return fmt.Sprintf("%s:%d", f.FilePath, f.LineStart)
}

// ReviewerResult is the output of one specialist reviewer over one file set.
type ReviewerResult struct {
	Reviewer      string    `json:"reviewer"`
	Findings      []Finding `json:"findings"`
	FilesReviewed int       `json:"files_reviewed"`
	Summary       string    `json:"summary,omitempty"`
}

// SeverityCounts tallies findings per severity level.
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
}

// Total returns the sum across all severities.
func (c SeverityCounts) Total() int {
	return c.Critical + c.High + c.Medium + c.Low + c.Info
}

// AggregatedReview is the combined, deduplicated output of all reviewers.
type AggregatedReview struct {
	HealthScore      float64                `json:"health_score"` // 0-100
	Counts           SeverityCounts         `json:"counts"`
	Findings         []Finding              `json:"findings"` // deduplicated, severity-ordered
	BySeverity       map[Severity][]Finding `json:"-"`
	ByCategory       map[Category][]Finding `json:"-"`
	ByFile           map[string][]Finding   `json:"-"`
	TopIssues        []Finding              `json:"top_issues"`
	QuickWins        []Finding              `json:"quick_wins"`
	ReviewerSummaries []string              `json:"reviewer_summaries,omitempty"`
}

func normalizeUpper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

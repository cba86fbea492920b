package prompts

import (
	"fmt"
	"strings"
)

// File section markers. Kept as constants so tests and the builder agree.
const (
	filePrefix  = "## File: "
	patchHeader = "### Diff for this change"
	codeHeader  = "### Full file content"
)

// PromptBuilder assembles reviewer prompts from file content and diffs.
type PromptBuilder struct{}

// NewPromptBuilder creates a new prompt builder instance.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildFileReviewPrompt composes the full prompt one specialist sees for
// one changed file: specialist instructions, shared guidelines, the diff
// that triggered the review, the complete file for context, and the
// output contract.
func (pb *PromptBuilder) BuildFileReviewPrompt(r Reviewer, filePath, fileContent, patch string) string {
	var b strings.Builder

	b.WriteString(r.System)
	b.WriteString("\n\n")
	b.WriteString(ReviewGuidelines)
	b.WriteString("\n\n")

	b.WriteString(filePrefix)
	b.WriteString(filePath)
	b.WriteString("\n\n")

	if patch != "" {
		b.WriteString(patchHeader + "\n\n```diff\n")
		b.WriteString(patch)
		if !strings.HasSuffix(patch, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("```\n\n")
	}

	if fileContent != "" {
		b.WriteString(codeHeader + "\n\n")
		b.WriteString(numberedListing(fileContent))
		b.WriteString("\n")
	}

	b.WriteString(OutputContract)
	return b.String()
}

// numberedListing renders the file with 1-based line numbers so the
// model's line_start and line_end values anchor to real lines.
func numberedListing(content string) string {
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	var b strings.Builder
	b.WriteString("```python\n")
	for i, line := range lines {
		fmt.Fprintf(&b, "%4d | %s\n", i+1, line)
	}
	b.WriteString("```")
	return b.String()
}

// Package ai defines the provider surface the review service depends on.
// Concrete providers live in subpackages.
package ai

import (
	"context"

	"github.com/pyreview/pkg/models"
)

// ReviewRequest carries everything a specialist needs to review one file.
type ReviewRequest struct {
	Reviewer    string
	Prompt      string
	FilePath    string
	FileContent string
	Patch       string
	// DefaultCategory is applied to findings whose category the model
	// omitted or mangled.
	DefaultCategory models.Category
}

// Provider turns a review request into structured findings.
type Provider interface {
	// Name identifies the backing model for logs and reports.
	Name() string
	// ReviewFile runs one specialist prompt against one file.
	ReviewFile(ctx context.Context, req ReviewRequest) (*models.ReviewerResult, error)
}

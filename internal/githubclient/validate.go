package githubclient

import "strings"

// ValidateRepo checks that repo is in "owner/name" form with exactly one
// slash and non-empty segments.
func ValidateRepo(repo string) error {
	if repo == "" {
		return &ValidationError{Message: "repo must be a non-empty string"}
	}
	if strings.Count(repo, "/") != 1 {
		return &ValidationError{Message: "repo must be in 'owner/repo' format"}
	}
	owner, name, _ := strings.Cut(repo, "/")
	if owner == "" || name == "" {
		return &ValidationError{Message: "repo must be in 'owner/repo' format with non-empty owner and name"}
	}
	return nil
}

// ValidatePRNumber checks that prNumber is a positive integer.
func ValidatePRNumber(prNumber int) error {
	if prNumber < 1 {
		return &ValidationError{Message: "pr_number must be a positive integer"}
	}
	return nil
}

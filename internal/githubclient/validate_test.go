package githubclient

import (
	"errors"
	"testing"
)

func TestValidateRepo(t *testing.T) {
	valid := []string{"octo/demo", "a/b", "owner-name/repo.name", "o_1/r-2"}
	for _, repo := range valid {
		if err := ValidateRepo(repo); err != nil {
			t.Errorf("ValidateRepo(%q): unexpected error %v", repo, err)
		}
	}

	invalid := []string{"", "noslash", "owner/repo/extra", "/repo", "owner/", "/", "//"}
	for _, repo := range invalid {
		err := ValidateRepo(repo)
		if err == nil {
			t.Errorf("ValidateRepo(%q): expected error, got nil", repo)
			continue
		}
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("ValidateRepo(%q): expected ValidationError, got %T", repo, err)
		}
	}
}

func TestValidatePRNumber(t *testing.T) {
	for _, n := range []int{1, 2, 42, 100000} {
		if err := ValidatePRNumber(n); err != nil {
			t.Errorf("ValidatePRNumber(%d): unexpected error %v", n, err)
		}
	}

	for _, n := range []int{0, -1, -42} {
		err := ValidatePRNumber(n)
		if err == nil {
			t.Errorf("ValidatePRNumber(%d): expected error, got nil", n)
			continue
		}
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("ValidatePRNumber(%d): expected ValidationError, got %T", n, err)
		}
	}
}

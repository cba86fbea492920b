package githubclient

// ChangedFile describes one file changed in a pull request, as reported by
// the PR file listing.
type ChangedFile struct {
	Path      string `json:"filename"`
	Status    string `json:"status"` // added, modified, removed, renamed, copied
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Changes   int    `json:"changes"`
	Patch     string `json:"patch,omitempty"`
}

// PullRequestInfo carries pull request metadata as given by the upstream
// representation.
type PullRequestInfo struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	State     string `json:"state"`
	Draft     bool   `json:"draft"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	HTMLURL   string `json:"html_url"`
	User      struct {
		Login string `json:"login"`
	} `json:"user"`
	Head BranchRef `json:"head"`
	Base BranchRef `json:"base"`
}

// BranchRef identifies one side of a pull request.
type BranchRef struct {
	Ref  string `json:"ref"`
	SHA  string `json:"sha"`
	Repo struct {
		FullName string `json:"full_name"`
	} `json:"repo"`
}

// ReviewDecision is the review event submitted with a PR review.
type ReviewDecision string

const (
	DecisionComment        ReviewDecision = "COMMENT"
	DecisionApprove        ReviewDecision = "APPROVE"
	DecisionRequestChanges ReviewDecision = "REQUEST_CHANGES"
)

// InlineComment is a line-anchored comment attached to a review submission.
// Line is preferred; Position is the legacy diff-offset addressing scheme
// used as a fallback when Line is zero.
type InlineComment struct {
	Path     string `json:"path"`
	Line     int    `json:"line,omitempty"`
	Position int    `json:"position,omitempty"`
	Body     string `json:"body"`
}

// ReviewReceipt is the upstream acknowledgement of a submitted review.
type ReviewReceipt struct {
	ID      int64  `json:"id"`
	State   string `json:"state"`
	HTMLURL string `json:"html_url"`
}

// CommentReceipt is the upstream acknowledgement of a posted comment.
type CommentReceipt struct {
	ID      int64  `json:"id"`
	HTMLURL string `json:"html_url"`
}

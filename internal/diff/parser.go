// Package diff parses unified diff patches as GitHub returns them in the
// pull request files listing.
package diff

import (
	"regexp"
	"strconv"
	"strings"
)

// Hunk is one @@ section of a patch, with line numbers on the new side.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Content  string
}

var hunkHeaderRe = regexp.MustCompile(`@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// ParsePatch splits one file's patch into hunks. A count omitted from the
// header (as in "@@ -1 +1 @@") defaults to 1.
func ParsePatch(patch string) []Hunk {
	matches := hunkHeaderRe.FindAllStringSubmatchIndex(patch, -1)
	if len(matches) == 0 {
		return nil
	}

	hunks := make([]Hunk, 0, len(matches))
	for i, m := range matches {
		h := Hunk{
			OldStart: atoiOr(patch[m[2]:m[3]], 0),
			OldCount: 1,
			NewStart: atoiOr(patch[m[6]:m[7]], 0),
			NewCount: 1,
		}
		if m[4] >= 0 {
			h.OldCount = atoiOr(patch[m[4]:m[5]], 1)
		}
		if m[8] >= 0 {
			h.NewCount = atoiOr(patch[m[8]:m[9]], 1)
		}

		end := len(patch)
		if i < len(matches)-1 {
			end = matches[i+1][0]
		}
		content := patch[m[1]:end]
		if _, rest, ok := strings.Cut(content, "\n"); ok {
			content = rest
		}
		h.Content = strings.TrimSuffix(content, "\n")

		hunks = append(hunks, h)
	}
	return hunks
}

// CommentableLines returns the new-side line numbers a patch actually
// touches. GitHub rejects review comments on lines outside the diff, so
// inline comments are restricted to this set. Context lines count; only
// deletions do not exist on the new side.
func CommentableLines(patch string) map[int]bool {
	lines := make(map[int]bool)
	for _, h := range ParsePatch(patch) {
		n := h.NewStart
		for _, line := range strings.Split(h.Content, "\n") {
			if strings.HasPrefix(line, "-") {
				continue
			}
			if strings.HasPrefix(line, "\\") {
				// "\ No newline at end of file"
				continue
			}
			lines[n] = true
			n++
		}
	}
	return lines
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

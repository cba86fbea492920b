// Package logging provides the per-review transcript logger. Structured
// application logs go through zerolog; this file-based transcript exists
// so a whole review run (prompts, responses, decisions) can be replayed
// when debugging model behavior.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ReviewLogger captures the transcript of a single review run. All
// methods are safe on a nil receiver so callers can disable transcripts
// by passing nil.
type ReviewLogger struct {
	reviewID  string
	logFile   *os.File
	mutex     sync.Mutex
	startTime time.Time
}

// StartReviewLogging opens a transcript file for one review run under
// dir, named review_<id>_<timestamp>.log.
func StartReviewLogging(dir, reviewID string) (*ReviewLogger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating transcript directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("review_%s_%s.log", reviewID, timestamp))
	logFile, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating transcript file: %w", err)
	}

	r := &ReviewLogger{
		reviewID:  reviewID,
		logFile:   logFile,
		startTime: time.Now(),
	}
	r.writeHeader()
	return r, nil
}

// Log writes one timestamped line to the transcript.
func (r *ReviewLogger) Log(format string, args ...interface{}) {
	if r == nil {
		return
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()

	elapsed := time.Since(r.startTime)
	line := fmt.Sprintf("[%s +%8.3fs] %s\n",
		time.Now().Format("15:04:05"), elapsed.Seconds(), fmt.Sprintf(format, args...))
	if _, err := r.logFile.WriteString(line); err != nil {
		log.Warn().Err(err).Msg("failed to write review transcript line")
	}
}

// LogSection writes a visual section divider.
func (r *ReviewLogger) LogSection(title string) {
	if r == nil {
		return
	}
	r.Log("")
	r.Log("%s", strings.Repeat("=", 70))
	r.Log("  %s", title)
	r.Log("%s", strings.Repeat("=", 70))
}

// LogPrompt records the prompt sent for one reviewer and file.
func (r *ReviewLogger) LogPrompt(reviewer, filePath, prompt string) {
	if r == nil {
		return
	}
	r.Log("PROMPT reviewer=%s file=%s (%d bytes)", reviewer, filePath, len(prompt))
	r.Log("%s", truncate(prompt, 2000))
}

// LogResult records the outcome of one reviewer pass over one file.
func (r *ReviewLogger) LogResult(reviewer, filePath string, findings int) {
	if r == nil {
		return
	}
	r.Log("RESULT reviewer=%s file=%s findings=%d", reviewer, filePath, findings)
}

// LogError records a failure without aborting the transcript.
func (r *ReviewLogger) LogError(context string, err error) {
	if r == nil {
		return
	}
	r.Log("ERROR %s: %v", context, err)
}

// Close writes the footer and releases the file.
func (r *ReviewLogger) Close() {
	if r == nil {
		return
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()

	duration := time.Since(r.startTime)
	fmt.Fprintf(r.logFile, "\n%s\nReview %s finished in %.2fs\n",
		strings.Repeat("=", 70), r.reviewID, duration.Seconds())
	if err := r.logFile.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close review transcript")
	}
}

func (r *ReviewLogger) writeHeader() {
	fmt.Fprintf(r.logFile, "%s\nReview transcript %s\nStarted %s\n%s\n\n",
		strings.Repeat("=", 70), r.reviewID,
		r.startTime.Format(time.RFC3339), strings.Repeat("=", 70))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "... [truncated]"
}

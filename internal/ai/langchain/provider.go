// Package langchain implements the ai.Provider interface on top of the
// langchaingo Google AI client.
package langchain

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/pyreview/internal/ai"
	"github.com/pyreview/internal/llm"
	"github.com/pyreview/pkg/models"
)

const defaultModel = "gemini-2.0-flash"

// Config holds what the provider needs to talk to the model API.
type Config struct {
	APIKey    string
	ModelName string
	MaxTokens int
}

// Provider implements ai.Provider using langchaingo's googleai backend.
type Provider struct {
	client    *llm.ResilientClient
	modelName string
}

// New initializes the underlying model client and wraps it with the
// standard retry profile.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("langchain provider: API key is required")
	}
	modelName := cfg.ModelName
	if modelName == "" {
		modelName = defaultModel
	}

	opts := []googleai.Option{
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(modelName),
	}
	if cfg.MaxTokens > 0 {
		opts = append(opts, googleai.WithDefaultMaxTokens(cfg.MaxTokens))
	}

	model, err := googleai.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("langchain provider: initializing model client: %w", err)
	}

	return &Provider{
		client:    llm.NewResilientClientWithDefaults(modelGenerator{model}),
		modelName: modelName,
	}, nil
}

// NewWithGenerator builds a provider over an arbitrary generator. Used by
// tests to substitute a fake model.
func NewWithGenerator(gen llm.Generator, modelName string) *Provider {
	return &Provider{
		client:    llm.NewResilientClientWithDefaults(gen),
		modelName: modelName,
	}
}

// Name returns the backing model name.
func (p *Provider) Name() string { return p.modelName }

// modelGenerator adapts llms.Model to the llm.Generator interface.
type modelGenerator struct {
	model llms.Model
}

func (g modelGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, g.model, prompt)
}

// reviewResponse mirrors the JSON contract the prompts demand.
type reviewResponse struct {
	Findings []rawFinding `json:"findings"`
	Summary  string       `json:"summary"`
}

type rawFinding struct {
	Category    string   `json:"category"`
	Severity    string   `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	FilePath    string   `json:"file_path"`
	LineStart   int      `json:"line_start"`
	LineEnd     int      `json:"line_end"`
	Snippet     string   `json:"snippet"`
	Impact      string   `json:"impact"`
	Remediation string   `json:"remediation"`
	FixedCode   string   `json:"fixed_code"`
	References  []string `json:"references"`
	Confidence  float64  `json:"confidence"`
	Effort      string   `json:"effort"`
}

// ReviewFile runs one specialist prompt and converts the response into a
// ReviewerResult.
func (p *Provider) ReviewFile(ctx context.Context, req ai.ReviewRequest) (*models.ReviewerResult, error) {
	var resp reviewResponse
	stats, err := p.client.GenerateJSON(ctx, req.Prompt, &resp)
	if err != nil {
		return nil, fmt.Errorf("reviewer %s on %s: %w", req.Reviewer, req.FilePath, err)
	}
	if stats.WasRepaired {
		log.Debug().
			Str("reviewer", req.Reviewer).
			Str("file", req.FilePath).
			Strs("strategies", stats.RepairStrategies).
			Msg("model response needed JSON repair")
	}

	result := &models.ReviewerResult{
		Reviewer:      req.Reviewer,
		FilesReviewed: 1,
		Summary:       strings.TrimSpace(resp.Summary),
	}
	for _, rf := range resp.Findings {
		f, ok := convertFinding(rf, req)
		if !ok {
			log.Warn().
				Str("reviewer", req.Reviewer).
				Str("file", req.FilePath).
				Str("title", rf.Title).
				Msg("dropping finding with no usable title or description")
			continue
		}
		result.Findings = append(result.Findings, f)
	}
	return result, nil
}

// convertFinding normalizes one raw model finding. Findings without a
// title and description carry no signal and are dropped.
func convertFinding(rf rawFinding, req ai.ReviewRequest) (models.Finding, bool) {
	title := strings.TrimSpace(rf.Title)
	desc := strings.TrimSpace(rf.Description)
	if title == "" && desc == "" {
		return models.Finding{}, false
	}
	if title == "" {
		title = desc
		if len(title) > 80 {
			title = title[:80]
		}
	}

	category := models.ParseCategory(rf.Category)
	if strings.TrimSpace(rf.Category) == "" && req.DefaultCategory != "" {
		category = req.DefaultCategory
	}

	filePath := strings.TrimSpace(rf.FilePath)
	if filePath == "" {
		filePath = req.FilePath
	}

	lineStart, lineEnd := rf.LineStart, rf.LineEnd
	if lineStart < 1 {
		lineStart = 1
	}
	if lineEnd < lineStart {
		lineEnd = lineStart
	}

	confidence := rf.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = 0.5
	}

	effort := models.Effort(strings.ToLower(strings.TrimSpace(rf.Effort)))
	switch effort {
	case models.EffortLow, models.EffortMedium, models.EffortHigh:
	default:
		effort = models.EffortMedium
	}

	return models.Finding{
		Category:    category,
		Severity:    models.ParseSeverity(rf.Severity),
		Title:       title,
		Description: desc,
		FilePath:    filePath,
		LineStart:   lineStart,
		LineEnd:     lineEnd,
		Snippet:     rf.Snippet,
		Impact:      strings.TrimSpace(rf.Impact),
		Remediation: strings.TrimSpace(rf.Remediation),
		FixedCode:   rf.FixedCode,
		References:  rf.References,
		Confidence:  confidence,
		Effort:      effort,
		Reviewer:    req.Reviewer,
	}, true
}

package providers

import (
	"context"
	"fmt"
	"time"
)

// tierSummaries are the canned openings used when no real model is
// configured. Keyed by tier name.
var tierSummaries = map[string]string{
	"standard":   "A basic analysis of your question.",
	"advanced":   "A comprehensive analysis with detailed insights.",
	"premium":    "An in-depth analysis with comprehensive insights and recommendations.",
	"enterprise": "A comprehensive enterprise-level analysis with detailed research and strategic recommendations.",
}

// MockProvider returns deterministic canned analyses. It backs free tiers
// when no Gemini key is configured and serves as the test double.
type MockProvider struct{}

// NewMockProvider creates a mock provider instance.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Name returns the display name reported in response envelopes.
func (p *MockProvider) Name() string {
	return "Mock Analysis"
}

// Analyze produces a canned analysis for the request's tier.
func (p *MockProvider) Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary, ok := tierSummaries[req.Tier]
	if !ok {
		summary = tierSummaries["standard"]
	}

	text := fmt.Sprintf("%s\n\nQuestion analyzed: %q\nTier: %s\nQuality: High", summary, req.Question, req.Tier)

	return &AnalysisResult{
		Text:            text,
		Model:           p.Name(),
		ProcessingTime:  time.Millisecond,
		EstimatedTokens: EstimateTokens(text),
	}, nil
}

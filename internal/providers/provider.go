package providers

import (
	"context"
	"errors"
	"time"
)

// AnalysisRequest is a normalized internal request to an inference provider.
type AnalysisRequest struct {
	Question    string
	ImageBase64 string // base64-encoded JPEG; empty for text-only requests
	Tier        string // resolved tier, used for token budgeting
	MaxTokens   int    // response token budget for the tier
}

// AnalysisResult is a normalized provider response.
type AnalysisResult struct {
	Text            string
	Model           string
	ProcessingTime  time.Duration
	EstimatedTokens int
}

// Upstream failure classes. Handlers map these onto distinct status codes;
// everything else from a provider is a generic upstream error.
var (
	ErrEmptyResponse     = errors.New("empty response from provider")
	ErrInvalidCredential = errors.New("invalid provider credential")
	ErrQuotaExceeded     = errors.New("provider quota exceeded")
)

// Provider executes a single blocking analysis call. Implementations never
// retry internally; failures surface to the pipeline as-is.
type Provider interface {
	// Name returns the display name reported in response envelopes.
	Name() string

	// Analyze runs the question (and optional image) through the model.
	Analyze(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error)
}

// EstimateTokens approximates the token count of a response text.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

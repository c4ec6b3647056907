package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vision_gateway/internal/config"
)

func geminiServer(t *testing.T, handler http.HandlerFunc) *GeminiProvider {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewGeminiProvider(config.GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-2.0-flash",
		BaseURL: server.URL,
	})
	if err != nil {
		t.Fatalf("NewGeminiProvider() error = %v", err)
	}
	return provider
}

func geminiReply(text string) string {
	quoted, _ := json.Marshal(text)
	return `{"candidates":[{"content":{"parts":[{"text":` + string(quoted) + `}]}}]}`
}

func TestGeminiRequiresAPIKey(t *testing.T) {
	if _, err := NewGeminiProvider(config.GeminiConfig{}); err == nil {
		t.Fatal("NewGeminiProvider() accepted empty api key")
	}
}

func TestGeminiAnalyze(t *testing.T) {
	var captured geminiRequest
	var gotPath, gotKey string

	provider := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Goog-Api-Key")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(geminiReply("The capital of Turkey is Ankara.")))
	})

	result, err := provider.Analyze(context.Background(), AnalysisRequest{
		Question:  "What is the capital of Turkey?",
		Tier:      "standard",
		MaxTokens: 500,
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if gotPath != "/models/gemini-2.0-flash:generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q", gotKey)
	}
	if result.Text != "The capital of Turkey is Ankara." {
		t.Errorf("Text = %q", result.Text)
	}
	if result.Model != "Gemini 2.0-flash" {
		t.Errorf("Model = %q", result.Model)
	}
	if result.EstimatedTokens != EstimateTokens(result.Text) {
		t.Errorf("EstimatedTokens = %d", result.EstimatedTokens)
	}

	if len(captured.Contents) != 1 || len(captured.Contents[0].Parts) != 1 {
		t.Fatalf("request contents = %+v", captured.Contents)
	}
	if captured.Contents[0].Parts[0].Text != "What is the capital of Turkey?" {
		t.Errorf("question part = %q", captured.Contents[0].Parts[0].Text)
	}
	if captured.GenerationConfig == nil || captured.GenerationConfig.MaxOutputTokens != 500 {
		t.Errorf("generationConfig = %+v", captured.GenerationConfig)
	}
}

func TestGeminiAnalyzeWithImage(t *testing.T) {
	var captured geminiRequest

	provider := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Write([]byte(geminiReply("A photo of a cat.")))
	})

	_, err := provider.Analyze(context.Background(), AnalysisRequest{
		Question:    "What is in this image?",
		ImageBase64: "aGVsbG8=",
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	parts := captured.Contents[0].Parts
	if len(parts) != 2 {
		t.Fatalf("parts = %d, want image then text", len(parts))
	}
	if parts[0].InlineData == nil || parts[0].InlineData.Data != "aGVsbG8=" {
		t.Errorf("image part = %+v", parts[0])
	}
	if parts[0].InlineData.MimeType != "image/jpeg" {
		t.Errorf("mime type = %q", parts[0].InlineData.MimeType)
	}
	if parts[1].Text != "What is in this image?" {
		t.Errorf("text part = %q", parts[1].Text)
	}
}

func TestGeminiAnalyzeErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, `{}`, ErrInvalidCredential},
		{"forbidden", http.StatusForbidden, `{}`, ErrInvalidCredential},
		{"rate limited", http.StatusTooManyRequests, `{}`, ErrQuotaExceeded},
		{"empty candidates", http.StatusOK, `{"candidates":[]}`, ErrEmptyResponse},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})

			_, err := provider.Analyze(context.Background(), AnalysisRequest{Question: "hi"})
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Analyze() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestGeminiAnalyzeAPIError(t *testing.T) {
	provider := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"code":400,"message":"invalid argument","status":"INVALID_ARGUMENT"}}`))
	})

	_, err := provider.Analyze(context.Background(), AnalysisRequest{Question: "hi"})
	if err == nil || !strings.Contains(err.Error(), "invalid argument") {
		t.Errorf("Analyze() error = %v, want embedded API message", err)
	}
}

func TestMockProviderAnalyze(t *testing.T) {
	provider := NewMockProvider()

	result, err := provider.Analyze(context.Background(), AnalysisRequest{
		Question: "What is the capital of Turkey?",
		Tier:     "premium",
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if result.Model != "Mock Analysis" {
		t.Errorf("Model = %q", result.Model)
	}
	if !strings.Contains(result.Text, `Question analyzed: "What is the capital of Turkey?"`) {
		t.Errorf("Text = %q, missing echoed question", result.Text)
	}
	if !strings.Contains(result.Text, "Tier: premium") {
		t.Errorf("Text = %q, missing tier", result.Text)
	}
	if !strings.HasPrefix(result.Text, tierSummaries["premium"]) {
		t.Errorf("Text = %q, missing tier summary", result.Text)
	}
	if result.EstimatedTokens != EstimateTokens(result.Text) {
		t.Errorf("EstimatedTokens = %d", result.EstimatedTokens)
	}

	// Unknown tiers fall back to the standard summary.
	fallback, err := provider.Analyze(context.Background(), AnalysisRequest{Question: "hi", Tier: "platinum"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !strings.HasPrefix(fallback.Text, tierSummaries["standard"]) {
		t.Errorf("fallback Text = %q", fallback.Text)
	}
}

func TestMockProviderHonorsContext(t *testing.T) {
	provider := NewMockProvider()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := provider.Analyze(ctx, AnalysisRequest{Question: "hi"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Analyze() error = %v, want context.Canceled", err)
	}
}

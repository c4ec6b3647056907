package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"vision_gateway/internal/logging"
	"vision_gateway/internal/payment"
	"vision_gateway/internal/pipeline"
	"vision_gateway/internal/tiering"
	"vision_gateway/internal/utils"
)

type analysisPayload struct {
	Question    string `json:"question"`
	ImageBase64 string `json:"imageBase64"`
}

// analysisResponse is the envelope returned by the analysis endpoints.
type analysisResponse struct {
	Success         bool          `json:"success"`
	Service         string        `json:"service"`
	Question        string        `json:"question"`
	Tier            string        `json:"tier"`
	Analysis        string        `json:"analysis"`
	ComplexityLevel int           `json:"complexity_level"`
	ProcessingMS    int64         `json:"processing_time_ms"`
	Model           string        `json:"model"`
	Accuracy        float64       `json:"accuracy"`
	CostPaid        string        `json:"cost_paid"`
	QualityScore    float64       `json:"qualityScore"`
	ShouldCharge    bool          `json:"shouldCharge"`
	EstimatedTokens int           `json:"estimatedTokens"`
	TokenLimit      int           `json:"tokenLimit"`
	Payment         *paymentBlock `json:"payment,omitempty"`
	Timestamp       string        `json:"timestamp"`
}

type paymentBlock struct {
	Transaction string `json:"transaction"`
	Payer       string `json:"payer"`
	Network     string `json:"network"`
	Settled     bool   `json:"settled"`
}

// challengeResponse is the 402 body: the x402 challenge with a success flag.
type challengeResponse struct {
	Success bool `json:"success"`
	payment.Challenge
}

type analysisError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func respondAnalysisError(w http.ResponseWriter, code int, message string) {
	utils.RespondWithJSON(w, code, analysisError{Success: false, Error: message})
}

// handleAnalyze serves auto-tiered analysis. The classifier picks the tier;
// premium and enterprise classifications still require payment here.
func (deps *Dependencies) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	deps.runAnalysis(w, r, "", "vision_analysis")
}

// handleAnalyzePremium serves analysis pinned to the premium tier.
func (deps *Dependencies) handleAnalyzePremium(w http.ResponseWriter, r *http.Request) {
	deps.runAnalysis(w, r, tiering.TierPremium, "vision_analysis_premium")
}

// handleAnalyzeEnterprise serves analysis pinned to the enterprise tier.
func (deps *Dependencies) handleAnalyzeEnterprise(w http.ResponseWriter, r *http.Request) {
	deps.runAnalysis(w, r, tiering.TierEnterprise, "vision_analysis_enterprise")
}

func (deps *Dependencies) runAnalysis(w http.ResponseWriter, r *http.Request, forceTier, service string) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var payload analysisPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondAnalysisError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	start := time.Now()
	result, err := deps.Pipeline.Run(r.Context(), pipeline.Request{
		Question:    payload.Question,
		ImageBase64: payload.ImageBase64,
		Credential:  r.Header.Get(payment.HeaderName),
		ForceTier:   forceTier,
		Resource:    deps.Config.Payment.BaseURL + r.URL.Path,
	})

	status := deps.writeAnalysisResult(w, result, err, service, payload.Question)
	deps.audit(r, result, err, status, payload.Question, time.Since(start))
}

func (deps *Dependencies) writeAnalysisResult(w http.ResponseWriter, result *pipeline.Result, err error, service, question string) int {
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrQuestionRequired):
			respondAnalysisError(w, http.StatusBadRequest, "Question required")
			return http.StatusBadRequest
		case isVerificationError(err):
			respondAnalysisError(w, http.StatusPaymentRequired, fmt.Sprintf("Payment verification failed: %v", err))
			return http.StatusPaymentRequired
		default:
			respondAnalysisError(w, http.StatusInternalServerError, fmt.Sprintf("Analysis failed: %v", err))
			return http.StatusInternalServerError
		}
	}

	if result.State == pipeline.StatePaymentRequired {
		utils.RespondWithJSON(w, http.StatusPaymentRequired, challengeResponse{
			Success:   false,
			Challenge: *result.Challenge,
		})
		return http.StatusPaymentRequired
	}

	utils.RespondWithJSON(w, http.StatusOK, deps.buildEnvelope(result, service, question))
	return http.StatusOK
}

func (deps *Dependencies) buildEnvelope(result *pipeline.Result, service, question string) analysisResponse {
	shouldCharge := result.Decision.Charged
	if !deps.Resolver.RequiresPayment(result.Tier) {
		shouldCharge = result.Quality >= deps.Config.Pricing.MinQualityScore
	}

	costPaid := fmt.Sprintf("%g STX", result.Decision.Amount)
	if result.Decision.Charged {
		costPaid = payment.FormatSTX(result.Decision.Amount)
	}

	resp := analysisResponse{
		Success:         true,
		Service:         service,
		Question:        question,
		Tier:            result.Tier,
		Analysis:        result.Analysis.Text,
		ComplexityLevel: result.Complexity,
		ProcessingMS:    result.Analysis.ProcessingTime.Milliseconds(),
		Model:           result.Analysis.Model,
		Accuracy:        deps.Resolver.Accuracy(result.Tier),
		CostPaid:        costPaid,
		QualityScore:    result.Quality,
		ShouldCharge:    shouldCharge,
		EstimatedTokens: result.Analysis.EstimatedTokens,
		TokenLimit:      deps.Resolver.TokenLimitOf(result.Tier),
		Timestamp:       result.Timestamp.UTC().Format(time.RFC3339),
	}

	if result.Receipt != nil {
		resp.Payment = &paymentBlock{
			Transaction: result.Receipt.TransactionID,
			Payer:       result.Receipt.Payer,
			Network:     result.Receipt.Network,
			Settled:     result.Receipt.Verified,
		}
	}

	return resp
}

// handleAnalyzeInfo previews the classification and cost without running
// inference or requiring payment.
func (deps *Dependencies) handleAnalyzeInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var payload analysisPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondAnalysisError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if payload.Question == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing question")
		return
	}

	hasImage := pipeline.Request{ImageBase64: payload.ImageBase64}.HasImage()
	complexity := tiering.Classify(payload.Question, hasImage)
	tier := deps.Resolver.Resolve(complexity)

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"complexity":    complexity,
		"selectedTier":  tier,
		"estimatedCost": deps.Resolver.PriceOf(tier, hasImage),
		"hasImage":      hasImage,
	})
}

func (deps *Dependencies) audit(r *http.Request, result *pipeline.Result, err error, status int, question string, latency time.Duration) {
	if deps.RequestLogger == nil || result == nil {
		return
	}

	record := logging.Record{
		RemoteAddr:     r.RemoteAddr,
		Path:           r.URL.Path,
		Tier:           result.Tier,
		Complexity:     result.Complexity,
		HasImage:       result.HasImage,
		QualityScore:   result.Quality,
		CostSTX:        result.Decision.Amount,
		Charged:        result.Decision.Charged,
		LatencyMS:      latency.Milliseconds(),
		Status:         status,
		QuestionPrefix: question,
	}
	if result.Transaction != nil {
		record.RequestID = result.Transaction.ID.String()
	}
	if result.Receipt != nil {
		record.PaymentTxID = result.Receipt.TransactionID
	}
	if err != nil {
		record.Error = err.Error()
	}

	deps.RequestLogger.Log(record)
}

func isVerificationError(err error) bool {
	var verr *pipeline.VerificationError
	return errors.As(err, &verr)
}

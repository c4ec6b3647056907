package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"vision_gateway/internal/payment"
	"vision_gateway/internal/tiering"
	"vision_gateway/internal/utils"
)

// Discovery document types for the /register endpoint (x402 version 2).

type fieldDef struct {
	Type        string `json:"type"`
	Required    bool   `json:"required,omitempty"`
	Description string `json:"description,omitempty"`
}

type inputSchema struct {
	Type       string              `json:"type"`
	Method     string              `json:"method"`
	BodyType   string              `json:"bodyType"`
	BodyFields map[string]fieldDef `json:"bodyFields"`
}

type outputSchema struct {
	Input  inputSchema                  `json:"input"`
	Output map[string]map[string]string `json:"output"`
}

type acceptsEntry struct {
	Scheme            string       `json:"scheme"`
	Network           string       `json:"network"`
	MaxAmountRequired string       `json:"maxAmountRequired"`
	Resource          string       `json:"resource"`
	Description       string       `json:"description"`
	MimeType          string       `json:"mimeType"`
	PayTo             string       `json:"payTo"`
	MaxTimeoutSeconds int          `json:"maxTimeoutSeconds"`
	Asset             string       `json:"asset"`
	OutputSchema      outputSchema `json:"outputSchema"`
}

type registerResponse struct {
	X402Version int            `json:"x402Version"`
	Name        string         `json:"name"`
	Image       string         `json:"image,omitempty"`
	Accepts     []acceptsEntry `json:"accepts"`
}

// handleRegister serves the x402 service-discovery document: one accepts
// entry per analysis resource, priced at the image rate (the maximum a
// request to that resource can cost).
func (deps *Dependencies) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	cfg := deps.Config.Payment

	resources := []struct {
		path        string
		tier        string
		description string
	}{
		{"/analyze", tiering.TierAdvanced, "Standard/Advanced Vision AI Analysis (text or image)"},
		{"/analyze-premium", tiering.TierPremium, "Premium Vision AI Analysis with guaranteed response"},
		{"/analyze-enterprise", tiering.TierEnterprise, "Enterprise Vision AI Analysis with maximum capabilities"},
	}

	accepts := make([]acceptsEntry, 0, len(resources))
	for _, res := range resources {
		maxPrice := deps.Resolver.PriceOf(res.tier, true)
		accepts = append(accepts, acceptsEntry{
			Scheme:            payment.Scheme,
			Network:           payment.NetworkStacks,
			MaxAmountRequired: fmt.Sprintf("%d", payment.ToMicroSTX(maxPrice)),
			Resource:          cfg.BaseURL + res.path,
			Description:       res.description,
			MimeType:          "application/json",
			PayTo:             cfg.PayTo,
			MaxTimeoutSeconds: payment.MaxTimeoutSeconds,
			Asset:             payment.AssetSTX,
			OutputSchema:      analysisSchema(),
		})
	}

	utils.RespondWithJSON(w, http.StatusOK, registerResponse{
		X402Version: payment.DiscoveryVersion,
		Name:        cfg.ServiceName,
		Image:       cfg.ServiceImage,
		Accepts:     accepts,
	})
}

func analysisSchema() outputSchema {
	return outputSchema{
		Input: inputSchema{
			Type:     "request",
			Method:   "POST",
			BodyType: "json",
			BodyFields: map[string]fieldDef{
				"question": {
					Type:        "string",
					Required:    true,
					Description: "Question or prompt for analysis",
				},
				"imageBase64": {
					Type:        "string",
					Description: "Base64 encoded image (optional)",
				},
			},
		},
		Output: map[string]map[string]string{
			"success":            {"type": "boolean"},
			"service":            {"type": "string"},
			"question":           {"type": "string"},
			"tier":               {"type": "string"},
			"analysis":           {"type": "string"},
			"complexity_level":   {"type": "number"},
			"processing_time_ms": {"type": "number"},
			"model":              {"type": "string"},
			"accuracy":           {"type": "number"},
			"cost_paid":          {"type": "string"},
			"qualityScore":       {"type": "number"},
			"shouldCharge":       {"type": "boolean"},
			"estimatedTokens":    {"type": "number"},
			"tokenLimit":         {"type": "number"},
			"timestamp":          {"type": "string"},
		},
	}
}

type paymentDetailsPayload struct {
	Tier     string `json:"tier"`
	HasImage bool   `json:"hasImage"`
}

// handlePaymentDetails returns the payment terms for a (tier, hasImage)
// pair so wallet clients can construct a credential before submitting.
func (deps *Dependencies) handlePaymentDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var payload paymentDetailsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondAnalysisError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if !tiering.ValidTier(payload.Tier) {
		respondAnalysisError(w, http.StatusBadRequest, "Valid tier required")
		return
	}

	amount := deps.Resolver.PriceOf(payload.Tier, payload.HasImage)
	cfg := deps.Config.Payment

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"tier":            payload.Tier,
		"hasImage":        payload.HasImage,
		"amount":          amount,
		"formattedAmount": payment.FormatSTX(amount),
		"microSTX":        fmt.Sprintf("%d", payment.ToMicroSTX(amount)),
		"payTo":           cfg.PayTo,
		"network":         cfg.Network,
		"facilitatorUrl":  cfg.FacilitatorURL,
		"description":     tiering.Describe(payload.Tier, payload.HasImage),
	})
}

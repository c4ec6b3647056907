package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRegisterDiscoveryDocument(t *testing.T) {
	deps := testDeps(nil)

	req := httptest.NewRequest(http.MethodGet, "/register", nil)
	rec := httptest.NewRecorder()
	deps.handleRegister(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["x402Version"] != float64(2) {
		t.Errorf("x402Version = %v, want 2", body["x402Version"])
	}
	if body["name"] != "Vision AI Analysis Service" {
		t.Errorf("name = %v", body["name"])
	}

	accepts, ok := body["accepts"].([]interface{})
	if !ok || len(accepts) != 3 {
		t.Fatalf("accepts = %v, want 3 entries", body["accepts"])
	}

	// Each resource is priced at its tier's image rate, the maximum a
	// request to it can cost.
	wantAmounts := map[string]string{
		"https://gateway.example.com/analyze":            "40000",
		"https://gateway.example.com/analyze-premium":    "60000",
		"https://gateway.example.com/analyze-enterprise": "100000",
	}

	for _, raw := range accepts {
		entry := raw.(map[string]interface{})
		resource := entry["resource"].(string)
		want, known := wantAmounts[resource]
		if !known {
			t.Errorf("unexpected resource %q", resource)
			continue
		}
		if entry["maxAmountRequired"] != want {
			t.Errorf("resource %q maxAmountRequired = %v, want %s", resource, entry["maxAmountRequired"], want)
		}
		if entry["scheme"] != "exact" || entry["network"] != "stacks" || entry["asset"] != "STX" {
			t.Errorf("resource %q terms = %v/%v/%v", resource, entry["scheme"], entry["network"], entry["asset"])
		}
		if entry["payTo"] != "ST2TEST" {
			t.Errorf("resource %q payTo = %v", resource, entry["payTo"])
		}
		if entry["maxTimeoutSeconds"] != float64(300) {
			t.Errorf("resource %q maxTimeoutSeconds = %v", resource, entry["maxTimeoutSeconds"])
		}

		schema, ok := entry["outputSchema"].(map[string]interface{})
		if !ok {
			t.Fatalf("resource %q missing outputSchema", resource)
		}
		input := schema["input"].(map[string]interface{})
		if input["method"] != "POST" {
			t.Errorf("input.method = %v", input["method"])
		}
		fields := input["bodyFields"].(map[string]interface{})
		question := fields["question"].(map[string]interface{})
		if question["required"] != true {
			t.Error("question field not marked required")
		}
		output := schema["output"].(map[string]interface{})
		for _, field := range []string{"analysis", "tier", "cost_paid", "qualityScore"} {
			if _, ok := output[field]; !ok {
				t.Errorf("output schema missing %q", field)
			}
		}
	}
}

func TestRegisterMethodNotAllowed(t *testing.T) {
	deps := testDeps(nil)

	req := httptest.NewRequest(http.MethodPost, "/register", nil)
	rec := httptest.NewRecorder()
	deps.handleRegister(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestPaymentDetails(t *testing.T) {
	deps := testDeps(nil)

	rec := postJSON(t, deps.handlePaymentDetails, "/get-payment-details", map[string]interface{}{
		"tier":     "premium",
		"hasImage": true,
	}, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["tier"] != "premium" || body["hasImage"] != true {
		t.Errorf("echoed tier/hasImage = %v/%v", body["tier"], body["hasImage"])
	}
	if body["amount"] != 0.06 {
		t.Errorf("amount = %v, want 0.06", body["amount"])
	}
	if body["formattedAmount"] != "0.060000 STX" {
		t.Errorf("formattedAmount = %v", body["formattedAmount"])
	}
	if body["microSTX"] != "60000" {
		t.Errorf("microSTX = %v", body["microSTX"])
	}
	if body["network"] != "testnet" {
		t.Errorf("network = %v", body["network"])
	}
	if body["description"] != "Vision AI Analysis - PREMIUM Tier (with image)" {
		t.Errorf("description = %v", body["description"])
	}
}

func TestPaymentDetailsInvalidTier(t *testing.T) {
	deps := testDeps(nil)

	rec := postJSON(t, deps.handlePaymentDetails, "/get-payment-details", map[string]interface{}{
		"tier": "platinum",
	}, nil)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["error"] != "Valid tier required" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestHealthWithoutInfra(t *testing.T) {
	deps := testDeps(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	deps.handleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["status"] != "ok" || body["message"] != "API is working" {
		t.Errorf("status/message = %v/%v", body["status"], body["message"])
	}

	checks := body["checks"].(map[string]interface{})
	if checks["database"] != "disabled" || checks["redis"] != "disabled" {
		t.Errorf("checks = %v, want both disabled", checks)
	}
	if _, err := time.Parse(time.RFC3339, body["timestamp"].(string)); err != nil {
		t.Errorf("timestamp not RFC3339: %v", err)
	}
}

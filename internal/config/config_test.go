package config

import (
	"strings"
	"testing"
	"time"
)

func validPricing() PricingConfig {
	return PricingConfig{
		TextPrices: map[string]float64{
			"standard": 0.01, "advanced": 0.02, "premium": 0.03, "enterprise": 0.05,
		},
		ImagePrices: map[string]float64{
			"standard": 0.02, "advanced": 0.04, "premium": 0.06, "enterprise": 0.10,
		},
		TokenLimits: map[string]int{
			"standard": 500, "advanced": 2000, "premium": 5000, "enterprise": 10000,
		},
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", "ST2TESTADDR")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTPPort != "8080" {
		t.Errorf("HTTPPort = %q, want 8080", cfg.HTTPPort)
	}
	if cfg.Payment.PayTo != "ST2TESTADDR" {
		t.Errorf("PayTo = %q", cfg.Payment.PayTo)
	}
	if cfg.Payment.Network != "testnet" {
		t.Errorf("Network = %q, want testnet", cfg.Payment.Network)
	}
	if cfg.Payment.FacilitatorURL != "https://facilitator.stacksx402.com" {
		t.Errorf("FacilitatorURL = %q", cfg.Payment.FacilitatorURL)
	}
	if cfg.Pricing.TextPrices["premium"] != 0.03 {
		t.Errorf("premium text price = %v, want 0.03", cfg.Pricing.TextPrices["premium"])
	}
	if cfg.Pricing.ImagePrices["enterprise"] != 0.10 {
		t.Errorf("enterprise image price = %v, want 0.10", cfg.Pricing.ImagePrices["enterprise"])
	}
	if cfg.Pricing.TokenLimits["standard"] != 500 {
		t.Errorf("standard token limit = %v, want 500", cfg.Pricing.TokenLimits["standard"])
	}
	if cfg.Pricing.MinQualityScore != 0.60 {
		t.Errorf("MinQualityScore = %v, want 0.60", cfg.Pricing.MinQualityScore)
	}
	if cfg.Pricing.DailyLimitSTX != 0.5 {
		t.Errorf("DailyLimitSTX = %v, want 0.5", cfg.Pricing.DailyLimitSTX)
	}
	if cfg.Admin.Username != "admin" {
		t.Errorf("Admin.Username = %q", cfg.Admin.Username)
	}
	if cfg.Admin.TokenTTL != 15*time.Minute {
		t.Errorf("Admin.TokenTTL = %v", cfg.Admin.TokenTTL)
	}
}

func TestLoadRequiresServerAddress(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() succeeded without SERVER_ADDRESS")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", "ST2TESTADDR")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("PRICE_PREMIUM_TEXT", "0.045")
	t.Setenv("TOKEN_LIMIT_PREMIUM", "6000")
	t.Setenv("NETWORK", "mainnet")
	t.Setenv("ADMIN_TOKEN_TTL", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTPPort != "9090" {
		t.Errorf("HTTPPort = %q", cfg.HTTPPort)
	}
	if cfg.Pricing.TextPrices["premium"] != 0.045 {
		t.Errorf("premium text price = %v", cfg.Pricing.TextPrices["premium"])
	}
	if cfg.Pricing.TokenLimits["premium"] != 6000 {
		t.Errorf("premium token limit = %v", cfg.Pricing.TokenLimits["premium"])
	}
	if cfg.Payment.Network != "mainnet" {
		t.Errorf("Network = %q", cfg.Payment.Network)
	}
	if cfg.Admin.TokenTTL != 30*time.Minute {
		t.Errorf("Admin.TokenTTL = %v", cfg.Admin.TokenTTL)
	}
}

func TestLoadRejectsBrokenPricing(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", "ST2TESTADDR")
	t.Setenv("PRICE_PREMIUM_TEXT", "0.02") // equal to advanced

	if _, err := Load(); err == nil {
		t.Fatal("Load() accepted non-increasing prices")
	}
}

func TestPricingValidate(t *testing.T) {
	if err := validPricing().validate(); err != nil {
		t.Fatalf("validate() rejected valid pricing: %v", err)
	}

	cases := []struct {
		name    string
		mutate  func(*PricingConfig)
		wantErr string
	}{
		{
			name:    "missing text price",
			mutate:  func(p *PricingConfig) { delete(p.TextPrices, "premium") },
			wantErr: "missing text price",
		},
		{
			name:    "missing image price",
			mutate:  func(p *PricingConfig) { delete(p.ImagePrices, "advanced") },
			wantErr: "missing image price",
		},
		{
			name:    "missing token limit",
			mutate:  func(p *PricingConfig) { delete(p.TokenLimits, "enterprise") },
			wantErr: "missing token limit",
		},
		{
			name:    "image price below text price",
			mutate:  func(p *PricingConfig) { p.ImagePrices["premium"] = 0.02 },
			wantErr: "image price below text price",
		},
		{
			name:    "non-increasing text price",
			mutate:  func(p *PricingConfig) { p.TextPrices["premium"] = 0.02 },
			wantErr: "does not exceed",
		},
		{
			name:    "non-increasing token limit",
			mutate:  func(p *PricingConfig) { p.TokenLimits["enterprise"] = 5000 },
			wantErr: "does not exceed",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pricing := validPricing()
			tc.mutate(&pricing)

			err := pricing.validate()
			if err == nil {
				t.Fatal("validate() accepted broken pricing")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tc.wantErr)
			}
		})
	}
}

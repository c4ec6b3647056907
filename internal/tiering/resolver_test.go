package tiering

import (
	"testing"

	"vision_gateway/internal/config"
)

func testPricing() config.PricingConfig {
	return config.PricingConfig{
		TextPrices: map[string]float64{
			TierStandard:   0.01,
			TierAdvanced:   0.02,
			TierPremium:    0.03,
			TierEnterprise: 0.05,
		},
		ImagePrices: map[string]float64{
			TierStandard:   0.02,
			TierAdvanced:   0.04,
			TierPremium:    0.06,
			TierEnterprise: 0.10,
		},
		TokenLimits: map[string]int{
			TierStandard:   500,
			TierAdvanced:   2000,
			TierPremium:    5000,
			TierEnterprise: 10000,
		},
		MinQualityScore: 0.60,
	}
}

func TestResolverResolve(t *testing.T) {
	r := NewResolver(testPricing())

	tests := []struct {
		score    int
		expected string
	}{
		{1, TierStandard},
		{2, TierAdvanced},
		{3, TierPremium},
		{4, TierEnterprise},
		{0, TierStandard},
		{99, TierStandard},
	}

	for _, tt := range tests {
		if got := r.Resolve(tt.score); got != tt.expected {
			t.Errorf("Resolve(%d) = %q, want %q", tt.score, got, tt.expected)
		}
	}
}

func TestResolverPriceOf(t *testing.T) {
	r := NewResolver(testPricing())

	tests := []struct {
		tier     string
		hasImage bool
		expected float64
	}{
		{TierStandard, false, 0.01},
		{TierStandard, true, 0.02},
		{TierAdvanced, false, 0.02},
		{TierAdvanced, true, 0.04},
		{TierPremium, false, 0.03},
		{TierPremium, true, 0.06},
		{TierEnterprise, false, 0.05},
		{TierEnterprise, true, 0.10},
		{"bogus", false, 0.01}, // unknown tiers fall back to standard text
	}

	for _, tt := range tests {
		if got := r.PriceOf(tt.tier, tt.hasImage); got != tt.expected {
			t.Errorf("PriceOf(%q, %v) = %v, want %v", tt.tier, tt.hasImage, got, tt.expected)
		}
	}
}

func TestResolverTokenLimitOf(t *testing.T) {
	r := NewResolver(testPricing())

	if got := r.TokenLimitOf(TierEnterprise); got != 10000 {
		t.Errorf("TokenLimitOf(enterprise) = %d, want 10000", got)
	}
	if got := r.TokenLimitOf("bogus"); got != 500 {
		t.Errorf("TokenLimitOf(bogus) = %d, want 500", got)
	}
}

func TestResolverRequiresPayment(t *testing.T) {
	r := NewResolver(testPricing())

	if r.RequiresPayment(TierStandard) {
		t.Error("standard should not require payment")
	}
	if r.RequiresPayment(TierAdvanced) {
		t.Error("advanced should not require payment")
	}
	if !r.RequiresPayment(TierPremium) {
		t.Error("premium should require payment")
	}
	if !r.RequiresPayment(TierEnterprise) {
		t.Error("enterprise should require payment")
	}
}

func TestValidTier(t *testing.T) {
	for _, tier := range Tiers {
		if !ValidTier(tier) {
			t.Errorf("ValidTier(%q) = false, want true", tier)
		}
	}
	if ValidTier("gold") {
		t.Error("ValidTier(gold) = true, want false")
	}
	if ValidTier("") {
		t.Error("ValidTier(\"\") = true, want false")
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe(TierPremium, false); got != "Vision AI Analysis - PREMIUM Tier" {
		t.Errorf("Describe(premium, false) = %q", got)
	}
	if got := Describe(TierEnterprise, true); got != "Vision AI Analysis - ENTERPRISE Tier (with image)" {
		t.Errorf("Describe(enterprise, true) = %q", got)
	}
}

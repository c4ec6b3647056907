package tiering

import (
	"fmt"
	"strings"

	"vision_gateway/internal/config"
)

// Tier names in ascending rank order.
const (
	TierStandard   = "standard"
	TierAdvanced   = "advanced"
	TierPremium    = "premium"
	TierEnterprise = "enterprise"
)

// Tiers lists all tier names from lowest to highest rank.
var Tiers = []string{TierStandard, TierAdvanced, TierPremium, TierEnterprise}

// Resolver maps complexity scores to tiers and answers price/limit lookups
// from the immutable pricing tables built at process start.
type Resolver struct {
	pricing config.PricingConfig
}

// NewResolver creates a resolver over the given pricing tables.
func NewResolver(pricing config.PricingConfig) *Resolver {
	return &Resolver{pricing: pricing}
}

// Resolve maps a complexity score to a tier name.
func (r *Resolver) Resolve(score int) string {
	switch score {
	case 4:
		return TierEnterprise
	case 3:
		return TierPremium
	case 2:
		return TierAdvanced
	default:
		return TierStandard
	}
}

// PriceOf returns the STX price for a tier and request type.
func (r *Resolver) PriceOf(tier string, hasImage bool) float64 {
	table := r.pricing.TextPrices
	if hasImage {
		table = r.pricing.ImagePrices
	}
	if price, ok := table[tier]; ok {
		return price
	}
	// Unknown tiers fall back to the standard text price.
	return r.pricing.TextPrices[TierStandard]
}

// TokenLimitOf returns the response token budget for a tier.
func (r *Resolver) TokenLimitOf(tier string) int {
	if limit, ok := r.pricing.TokenLimits[tier]; ok {
		return limit
	}
	return r.pricing.TokenLimits[TierStandard]
}

// RequiresPayment reports whether a tier is served only after payment.
func (r *Resolver) RequiresPayment(tier string) bool {
	return tier == TierPremium || tier == TierEnterprise
}

// Accuracy returns the baseline accuracy reported for a tier before the
// measured quality score overrides it.
func (r *Resolver) Accuracy(tier string) float64 {
	switch tier {
	case TierEnterprise:
		return 0.90
	case TierPremium:
		return 0.85
	case TierAdvanced:
		return 0.80
	default:
		return 0.75
	}
}

// ValidTier reports whether name is a known tier.
func ValidTier(name string) bool {
	for _, t := range Tiers {
		if t == name {
			return true
		}
	}
	return false
}

// Describe returns the human-readable payment description for a tier.
func Describe(tier string, hasImage bool) string {
	suffix := ""
	if hasImage {
		suffix = " (with image)"
	}
	return fmt.Sprintf("Vision AI Analysis - %s Tier%s", strings.ToUpper(tier), suffix)
}

package billing

import "vision_gateway/internal/tiering"

// Decision is the charge outcome for one completed request.
type Decision struct {
	Charged bool
	Amount  float64 // table price for (tier, hasImage), also set when uncharged for display
}

// Engine decides whether a completed request is charged. The rule is
// payment-before-delivery: free tiers are never charged, paid tiers are
// charged at the table price once a verified receipt exists. Quality is
// recorded on every transaction but never reverses a collected payment.
type Engine struct {
	resolver *tiering.Resolver
}

// NewEngine creates a billing decision engine.
func NewEngine(resolver *tiering.Resolver) *Engine {
	return &Engine{resolver: resolver}
}

// Decide combines tier, receipt presence, and quality into a charge outcome.
func (e *Engine) Decide(tier string, hasImage, hasReceipt bool, qualityScore float64) Decision {
	amount := e.resolver.PriceOf(tier, hasImage)

	if !e.resolver.RequiresPayment(tier) {
		return Decision{Charged: false, Amount: amount}
	}

	return Decision{Charged: hasReceipt, Amount: amount}
}

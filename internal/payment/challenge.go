package payment

import (
	"fmt"
	"math"

	"vision_gateway/internal/config"
)

// x402 protocol constants.
const (
	ChallengeVersion  = 1 // version of the 402 challenge body
	DiscoveryVersion  = 2 // version of the /register discovery document
	Scheme            = "exact"
	NetworkStacks     = "stacks"
	AssetSTX          = "STX"
	MaxTimeoutSeconds = 300
)

// HeaderName is the request header carrying the client's payment credential.
const HeaderName = "X-Payment"

// Challenge is the "payment required" descriptor returned with HTTP 402.
// It is immutable once issued for a request attempt: the client resubmits
// the same logical request with a credential matching these terms.
type Challenge struct {
	X402Version       int    `json:"x402Version"`
	Description       string `json:"description"`
	Scheme            string `json:"scheme"`
	Network           string `json:"network"`
	Asset             string `json:"asset"`
	MaxAmountRequired string `json:"maxAmountRequired"` // microSTX
	PayTo             string `json:"payTo"`
	FacilitatorURL    string `json:"facilitatorUrl"`
	MaxTimeoutSeconds int    `json:"maxTimeoutSeconds"`
}

// Issuer builds payment challenges from the configured payment terms.
type Issuer struct {
	cfg config.PaymentConfig
}

// NewIssuer creates a challenge issuer.
func NewIssuer(cfg config.PaymentConfig) *Issuer {
	return &Issuer{cfg: cfg}
}

// Issue builds the challenge for one paid request attempt. amountSTX is the
// table price for the resolved (tier, hasImage) pair.
func (i *Issuer) Issue(description string, amountSTX float64) Challenge {
	return Challenge{
		X402Version:       ChallengeVersion,
		Description:       description,
		Scheme:            Scheme,
		Network:           NetworkStacks,
		Asset:             AssetSTX,
		MaxAmountRequired: fmt.Sprintf("%d", ToMicroSTX(amountSTX)),
		PayTo:             i.cfg.PayTo,
		FacilitatorURL:    i.cfg.FacilitatorURL,
		MaxTimeoutSeconds: MaxTimeoutSeconds,
	}
}

// PayTo returns the configured payee address.
func (i *Issuer) PayTo() string {
	return i.cfg.PayTo
}

// ChainNetwork returns the configured Stacks network (mainnet/testnet).
func (i *Issuer) ChainNetwork() string {
	return i.cfg.Network
}

// ToMicroSTX converts a decimal STX amount to minor units.
func ToMicroSTX(stx float64) int64 {
	return int64(math.Round(stx * 1_000_000))
}

// FormatSTX renders an STX amount for display.
func FormatSTX(stx float64) string {
	return fmt.Sprintf("%.6f STX", stx)
}

package payment

import (
	"context"
	"errors"
)

// ErrNoCredential is returned when verification is attempted without a
// payment credential attached to the request.
var ErrNoCredential = errors.New("no payment credential attached")

// Receipt is the facilitator's proof that a payment credential settled.
// Receipts are produced only by a Verifier, never fabricated locally, and
// are single-use: one receipt authorizes exactly one inference call.
type Receipt struct {
	TransactionID string `json:"transaction"`
	Payer         string `json:"payer"`
	Network       string `json:"network"`
	Verified      bool   `json:"settled"`
}

// Expectation describes what the facilitator must check the credential
// against: the terms of the challenge that was issued for this attempt.
type Expectation struct {
	AmountMicroSTX int64
	PayTo          string
	Network        string
	Asset          string
	Resource       string
}

// Verifier validates a payment credential against a facilitator service.
// Implementations must not retry on ambiguous failures: a credential that
// may have partially settled is surfaced as an error for the client to
// resubmit explicitly.
type Verifier interface {
	Verify(ctx context.Context, credential string, expect Expectation) (*Receipt, error)
}

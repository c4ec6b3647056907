package pipeline

import "errors"

// ErrQuestionRequired rejects a request before any external call is made.
var ErrQuestionRequired = errors.New("question required")

// VerificationError wraps a facilitator rejection. The underlying message
// is surfaced to the client unchanged so the payment flow can be retried
// explicitly; the pipeline itself never retries.
type VerificationError struct {
	Err error
}

func (e *VerificationError) Error() string {
	return e.Err.Error()
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

// UpstreamError wraps an inference provider failure. Requests that fail
// upstream are never billed or ledgered; for paid tiers the already
// collected payment is not reversed automatically.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

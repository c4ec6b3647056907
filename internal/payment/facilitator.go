package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vision_gateway/internal/config"
)

// FacilitatorClient verifies payment credentials against the x402
// facilitator's /verify endpoint.
type FacilitatorClient struct {
	baseURL string
	client  *http.Client
}

// NewFacilitatorClient creates a facilitator client. The timeout bounds the
// whole verification call and should not exceed the protocol's
// maxTimeoutSeconds.
func NewFacilitatorClient(cfg config.PaymentConfig) *FacilitatorClient {
	timeout := cfg.VerifyTimeout
	if timeout <= 0 || timeout > MaxTimeoutSeconds*time.Second {
		timeout = MaxTimeoutSeconds * time.Second
	}

	return &FacilitatorClient{
		baseURL: cfg.FacilitatorURL,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type verifyRequest struct {
	Payment        string `json:"payment"`
	Scheme         string `json:"scheme"`
	Network        string `json:"network"`
	Asset          string `json:"asset"`
	ExpectedAmount string `json:"expectedAmount"`
	PayTo          string `json:"payTo"`
	Resource       string `json:"resource,omitempty"`
}

type verifyResponse struct {
	Valid       bool   `json:"valid"`
	Transaction string `json:"transaction"`
	Payer       string `json:"payer"`
	Network     string `json:"network"`
	Error       string `json:"error"`
}

// Verify submits the credential to the facilitator and returns a verified
// receipt or the facilitator's rejection unchanged. The call is blocking
// and never retried here: after a timeout the payment state is ambiguous
// and only an explicit client resubmission is safe.
func (c *FacilitatorClient) Verify(ctx context.Context, credential string, expect Expectation) (*Receipt, error) {
	if credential == "" {
		return nil, ErrNoCredential
	}

	body, err := json.Marshal(verifyRequest{
		Payment:        credential,
		Scheme:         Scheme,
		Network:        expect.Network,
		Asset:          expect.Asset,
		ExpectedAmount: fmt.Sprintf("%d", expect.AmountMicroSTX),
		PayTo:          expect.PayTo,
		Resource:       expect.Resource,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal verify request: %w", err)
	}

	url := c.baseURL + "/verify"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create verify request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("facilitator unreachable: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read facilitator response: %w", err)
	}

	var vr verifyResponse
	if err := json.Unmarshal(respBody, &vr); err != nil {
		return nil, fmt.Errorf("invalid facilitator response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !vr.Valid {
		msg := vr.Error
		if msg == "" {
			msg = fmt.Sprintf("facilitator returned status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("payment verification failed: %s", msg)
	}

	network := vr.Network
	if network == "" {
		network = expect.Network
	}

	return &Receipt{
		TransactionID: vr.Transaction,
		Payer:         vr.Payer,
		Network:       network,
		Verified:      true,
	}, nil
}

package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Capture statuses reported by providers.
const (
	StatusApproved = "APPROVED"
	StatusDeclined = "DECLINED"
)

// CaptureRequest carries the amount in the currency's minor units so the
// provider never sees floating point money.
type CaptureRequest struct {
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
	Reference   string `json:"reference"` // transaction id
	Method      string `json:"method"`
}

type CaptureResult struct {
	ProviderRef string `json:"provider_ref"`
	Status      string `json:"status"`
}

// Provider captures card and wallet payments. Cash and fully gift-covered
// sales never reach a provider.
type Provider interface {
	Capture(ctx context.Context, req CaptureRequest) (CaptureResult, error)
}

// --- HTTP provider ---

type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

func NewHTTPProvider(baseURL string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPProvider) Capture(ctx context.Context, req CaptureRequest) (CaptureResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return CaptureResult{}, fmt.Errorf("failed to encode capture request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/captures", bytes.NewReader(body))
	if err != nil {
		return CaptureResult{}, fmt.Errorf("failed to build capture request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return CaptureResult{}, fmt.Errorf("payment provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return CaptureResult{}, fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	var result CaptureResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return CaptureResult{}, fmt.Errorf("failed to decode capture response: %w", err)
	}
	return result, nil
}

// --- Sandbox provider ---

// SandboxProvider approves everything locally. Used in development and tests
// when PAYMENT_PROVIDER_URL is not configured.
type SandboxProvider struct{}

func NewSandboxProvider() *SandboxProvider {
	return &SandboxProvider{}
}

func (p *SandboxProvider) Capture(_ context.Context, req CaptureRequest) (CaptureResult, error) {
	if req.AmountMinor <= 0 {
		return CaptureResult{}, fmt.Errorf("capture amount must be positive, got %d", req.AmountMinor)
	}
	return CaptureResult{
		ProviderRef: "sandbox-" + uuid.NewString(),
		Status:      StatusApproved,
	}, nil
}

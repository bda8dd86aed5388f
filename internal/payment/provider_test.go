package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSandboxCapture_ApprovesPositiveAmount(t *testing.T) {
	p := NewSandboxProvider()

	result, err := p.Capture(context.Background(), CaptureRequest{
		AmountMinor: 1015,
		Currency:    "AUD",
		Reference:   "tx-1",
		Method:      "CARD",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusApproved, result.Status)
	assert.Contains(t, result.ProviderRef, "sandbox-")
}

func TestSandboxCapture_RejectsNonPositiveAmount(t *testing.T) {
	p := NewSandboxProvider()

	_, err := p.Capture(context.Background(), CaptureRequest{AmountMinor: 0, Currency: "AUD"})
	assert.Error(t, err)

	_, err = p.Capture(context.Background(), CaptureRequest{AmountMinor: -500, Currency: "AUD"})
	assert.Error(t, err)
}

func TestHTTPCapture_PostsAndDecodesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/captures", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"provider_ref":"psp-42","status":"APPROVED"}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL)
	result, err := p.Capture(context.Background(), CaptureRequest{
		AmountMinor: 4255,
		Currency:    "SAR",
		Reference:   "tx-2",
		Method:      "WALLET",
	})

	require.NoError(t, err)
	assert.Equal(t, "psp-42", result.ProviderRef)
	assert.Equal(t, StatusApproved, result.Status)
}

func TestHTTPCapture_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL)
	_, err := p.Capture(context.Background(), CaptureRequest{AmountMinor: 100, Currency: "AED"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

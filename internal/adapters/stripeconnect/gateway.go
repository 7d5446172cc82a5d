// Package stripeconnect implements the transfer gateway against the Stripe
// Connect transfers API over plain HTTP.
package stripeconnect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/rowhq/fieldproof/internal/errors"
	"github.com/rowhq/fieldproof/internal/ports"
)

const defaultBaseURL = "https://api.stripe.com"

// Config holds configuration for the Stripe transfer gateway.
type Config struct {
	APIKey     string
	BaseURL    string       // Optional, defaults to the public Stripe API
	Currency   string       // Optional, defaults to "usd"
	HTTPClient *http.Client // Optional, defaults to a 30s-timeout client
}

// Gateway implements ports.TransferGateway using the Stripe transfers API.
type Gateway struct {
	apiKey     string
	baseURL    string
	currency   string
	httpClient *http.Client
}

var _ ports.TransferGateway = (*Gateway)(nil)

// NewGateway constructs a Stripe transfer gateway.
func NewGateway(cfg Config) (*Gateway, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("stripe: API key is required")
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "usd"
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Gateway{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		currency:   currency,
		httpClient: httpClient,
	}, nil
}

type transferResponse struct {
	ID     string `json:"id"`
	Object string `json:"object"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateTransfer submits one transfer. The idempotency key makes resubmission
// of the same batch safe on the provider side; this method itself never
// retries.
func (g *Gateway) CreateTransfer(ctx context.Context, in ports.CreateTransferInput) (ports.Transfer, error) {
	if in.AmountCents <= 0 {
		return ports.Transfer{}, apperrors.Validation("transfer amount must be positive")
	}
	if in.DestinationID == "" {
		return ports.Transfer{}, apperrors.Validation("transfer destination is required")
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(in.AmountCents, 10))
	form.Set("currency", g.currency)
	form.Set("destination", in.DestinationID)
	if in.Description != "" {
		form.Set("description", in.Description)
	}
	for k, v := range in.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/v1/transfers", strings.NewReader(form.Encode()))
	if err != nil {
		return ports.Transfer{}, fmt.Errorf("build transfer request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if in.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", in.IdempotencyKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return ports.Transfer{}, apperrors.Gateway("Transfer request failed.", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read path

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ports.Transfer{}, apperrors.Gateway("Failed to read transfer response.", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		message := fmt.Sprintf("transfer rejected with status %d", resp.StatusCode)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			message = apiErr.Error.Message
		}
		return ports.Transfer{}, apperrors.Gateway(message, fmt.Errorf("stripe: %s", message))
	}

	var transfer transferResponse
	if err := json.Unmarshal(body, &transfer); err != nil {
		return ports.Transfer{}, apperrors.Gateway("Failed to decode transfer response.", err)
	}
	if transfer.ID == "" {
		return ports.Transfer{}, apperrors.Gateway("Transfer response missing id.",
			errors.New("stripe: empty transfer id"))
	}

	return ports.Transfer{ID: transfer.ID, Status: "created"}, nil
}

package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// GatewayStatus is the outcome the external processor reports for an
// attempt. Processing means the flow suspended (e.g. a redirect) and a
// terminal status arrives later out of band.
type GatewayStatus string

const (
	GatewaySuccess    GatewayStatus = "Success"
	GatewayFailure    GatewayStatus = "Failure"
	GatewayProcessing GatewayStatus = "Processing"
)

type GatewayRequest struct {
	Method    string            `json:"method"`
	Amount    decimal.Decimal   `json:"amount"`
	Reference string            `json:"reference"`
	ReturnURL string            `json:"return_url"`
	Form      map[string]string `json:"form,omitempty"`
}

type GatewayResponse struct {
	Status      GatewayStatus `json:"status"`
	Ref         string        `json:"ref"`
	RedirectURL string        `json:"redirect_url,omitempty"`
	Message     string        `json:"message,omitempty"`
}

// GatewayClient is the contract this service requires from the payment
// processor: submit an attempt, and look up a previously submitted
// attempt by the gateway's own reference.
type GatewayClient interface {
	Submit(ctx context.Context, req *GatewayRequest) (*GatewayResponse, error)
	Status(ctx context.Context, ref string) (*GatewayResponse, error)
}

type HTTPGatewayClient struct {
	Client         *http.Client
	GatewayAddress string
}

func (c *HTTPGatewayClient) Submit(ctx context.Context, greq *GatewayRequest) (*GatewayResponse, error) {
	body, err := json.Marshal(greq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	url := fmt.Sprintf("%s/api/payments", c.GatewayAddress)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	var gr GatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	return &gr, nil
}

func (c *HTTPGatewayClient) Status(ctx context.Context, ref string) (*GatewayResponse, error) {
	url := fmt.Sprintf("%s/api/payments/%s", c.GatewayAddress, ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("too many requests (429) for payment %s", ref)
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var gr GatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	return &gr, nil
}

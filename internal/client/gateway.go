package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/TuhinPramanik4/Civicsolve/internal/auth"
	"github.com/TuhinPramanik4/Civicsolve/internal/verify"
)

// GatewayError is a non-200 reply from the verification gateway
type GatewayError struct {
	StatusCode     int
	Message        string
	Detail         string
	UpstreamStatus int
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("verification gateway returned status %d: %s", e.StatusCode, e.Message)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// GatewayClient calls the verification gateway over HTTP. With a service key
// set, each call names the end user from auth.WithOnBehalfOf so the gateway
// rate limits citizens rather than this service.
type GatewayClient struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

func NewGatewayClient(baseURL, serviceKey string, timeout time.Duration) *GatewayClient {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &GatewayClient{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type gatewayErrorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
	Status int    `json:"status"`
}

func (c *GatewayClient) Verify(ctx context.Context, imageURL, text string) (*verify.Result, error) {
	reqBody, err := json.Marshal(verify.Request{ImageURL: imageURL, Text: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/verify-photo-text", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.serviceKey != "" {
		req.Header.Set(auth.ServiceKeyHeader, c.serviceKey)
		if subject := auth.OnBehalfOf(ctx); subject != "" {
			req.Header.Set(auth.OnBehalfOfHeader, subject)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call verification gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errBody gatewayErrorBody
		if json.Unmarshal(body, &errBody) != nil || errBody.Error == "" {
			errBody.Error = string(body)
		}
		return nil, &GatewayError{
			StatusCode:     resp.StatusCode,
			Message:        errBody.Error,
			Detail:         errBody.Detail,
			UpstreamStatus: errBody.Status,
		}
	}

	var result verify.Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	return &result, nil
}

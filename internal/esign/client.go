// Package esign sends signable agreements to the e-signature provider.
package esign

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"rentflow-backend/internal/logger"
)

type Signer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SignatureRequest is encoded as JSON; Document travels base64-encoded.
type SignatureRequest struct {
	Title    string   `json:"title"`
	Filename string   `json:"filename"`
	Document []byte   `json:"document"`
	Signers  []Signer `json:"signers"`
}

type signatureResponse struct {
	ID string `json:"id"`
}

// Client manages communication with the e-signature API.
type Client struct {
	BaseURL    *url.URL
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid esign baseURL: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{BaseURL: parsed, APIKey: apiKey, HTTPClient: &http.Client{Timeout: timeout}}, nil
}

// CreateRequest submits the document for signature and returns the
// provider's request id.
func (c *Client) CreateRequest(ctx context.Context, req SignatureRequest) (string, error) {
	logger.ExternalServiceCall("esign", "CreateRequest", "title", req.Title, "signers", len(req.Signers))
	if len(req.Signers) == 0 {
		return "", errors.New("create signature request: at least one signer is required")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}
	u := *c.BaseURL
	u.Path = path.Join(c.BaseURL.Path, "signature_requests")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.APIKey, "")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		logger.ExternalServiceResult("esign", "CreateRequest", err)
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("esign error (%d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		logger.ExternalServiceResult("esign", "CreateRequest", err)
		return "", err
	}

	var out signatureResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	logger.ExternalServiceResult("esign", "CreateRequest", nil, "requestID", out.ID)
	return out.ID, nil
}

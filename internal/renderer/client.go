// Package renderer talks to the external document rendering service.
package renderer

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

	"rentflow-backend/internal/domain"
	"rentflow-backend/internal/logger"
)

// Job is the renderer's view of a submitted document.
type Job struct {
	ID          string              `json:"id"`
	Status      domain.RenderStatus `json:"status"`
	DownloadURL string              `json:"download_url,omitempty"`
	Error       string              `json:"error,omitempty"`
}

type submitRequest struct {
	Template string `json:"template"`
	Data     any    `json:"data"`
}

// Client manages communication with the renderer API.
type Client struct {
	BaseURL    *url.URL
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid renderer baseURL: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:    parsed,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}, nil
}

// Submit queues a render of templateKey with payload and returns the job id.
func (c *Client) Submit(ctx context.Context, templateKey string, payload any) (string, error) {
	logger.ExternalServiceCall("renderer", "Submit", "template", templateKey)
	var job Job
	err := c.do(ctx, http.MethodPost, "jobs", submitRequest{Template: templateKey, Data: payload}, &job)
	logger.ExternalServiceResult("renderer", "Submit", err, "jobID", job.ID)
	if err != nil {
		return "", fmt.Errorf("submit render job: %w", err)
	}
	if job.ID == "" {
		return "", errors.New("submit render job: renderer returned no job id")
	}
	return job.ID, nil
}

// Poll reports the current state of a job.
func (c *Client) Poll(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	if err := c.do(ctx, http.MethodGet, "jobs/"+url.PathEscape(jobID), nil, &job); err != nil {
		return nil, fmt.Errorf("poll render job %s: %w", jobID, err)
	}
	return &job, nil
}

// Download fetches a rendered artifact.
func (c *Client) Download(ctx context.Context, downloadURL string) ([]byte, error) {
	logger.ExternalServiceCall("renderer", "Download", "url", downloadURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("download failed (%d)", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) do(ctx context.Context, method, reqPath string, body, out any) error {
	u := *c.BaseURL
	u.Path = path.Join(c.BaseURL.Path, reqPath)

	var reqBody io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("renderer error (%d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

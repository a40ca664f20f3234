// Package compat queries the upstream pronoun registry used as a fallback
// when an account has no local profile.
package compat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"pronounapi/internal/platform/config"
)

// UpstreamError carries a non-200 upstream reply. Handlers pass the status
// and body through to the caller verbatim.
type UpstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream registry returned %d", e.StatusCode)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: config.CompatTimeout},
	}
}

type lookupResponse struct {
	Pronouns string `json:"pronouns"`
}

// Lookup resolves a platform account to the upstream's short pronoun code.
func (c *Client) Lookup(ctx context.Context, platform, externalID string) (string, error) {
	q := url.Values{}
	q.Set("platform", platform)
	q.Set("id", externalID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/v1/lookup?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build lookup request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("query upstream registry: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read upstream response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Body: body}
	}

	var parsed lookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode upstream response: %w", err)
	}
	return parsed.Pronouns, nil
}

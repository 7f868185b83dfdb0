package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient is the HTTP implementation of Client.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient creates a gateway client for the given base URL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Chat sends a completion request and extracts the response text.
func (c *HTTPClient) Chat(ctx context.Context, req ChatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to serialize chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/ai/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.AuthToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.AuthToken)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gateway chat call failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	return ExtractText(respBody), nil
}

// GetUser fetches the account profile for the given auth token.
func (c *HTTPClient) GetUser(ctx context.Context, authToken string) (*UserInfo, error) {
	var user UserInfo
	if err := c.getJSON(ctx, "/api/v1/whoami", authToken, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetQuota fetches current usage/limit figures for the given auth token.
func (c *HTTPClient) GetQuota(ctx context.Context, authToken string) (*Quota, error) {
	var quota Quota
	if err := c.getJSON(ctx, "/api/v1/quota", authToken, &quota); err != nil {
		return nil, err
	}
	return &quota, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path, authToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway call %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway %s returned status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode gateway %s response: %w", path, err)
	}
	return nil
}

// ExtractText pulls the response text out of whatever shape the gateway
// returned. Checked in order: a bare JSON string, .message.content, .text,
// .content, otherwise the raw body is returned as-is.
func ExtractText(body []byte) string {
	var asString string
	if err := json.Unmarshal(body, &asString); err == nil {
		return asString
	}

	var wrapper struct {
		Message *struct {
			Content string `json:"content"`
		} `json:"message"`
		Text    string `json:"text"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil {
		if wrapper.Message != nil && wrapper.Message.Content != "" {
			return wrapper.Message.Content
		}
		if wrapper.Text != "" {
			return wrapper.Text
		}
		if wrapper.Content != "" {
			return wrapper.Content
		}
	}

	return string(body)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Ensure HTTPClient implements Client
var _ Client = (*HTTPClient)(nil)

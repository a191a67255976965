package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/ramizpolic/agenthost/pkg/llm"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
)

// Client is a minimal Anthropic Messages API client. It speaks the wire
// format directly; all translation to and from the neutral types lives in
// the Provider.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the Anthropic Messages API. An empty
// baseURL selects the public endpoint. The timeout bounds each request so a
// stalled endpoint surfaces as an error instead of hanging the caller.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CreateMessage calls the /v1/messages endpoint and returns the raw API
// message. Non-2xx responses are classified into the shared error taxonomy.
func (c *Client) CreateMessage(ctx context.Context, req CreateRequest) (*APIMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &llm.ProviderError{Provider: providerName, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &llm.ProviderError{Provider: providerName, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.classifyError(resp, respBody)
	}

	var msg APIMessage
	if err := json.Unmarshal(respBody, &msg); err != nil {
		return nil, &llm.ProviderError{
			Provider:   providerName,
			RawMessage: string(respBody),
			Err:        fmt.Errorf("failed to decode response: %w", err),
		}
	}
	return &msg, nil
}

// classifyError maps an Anthropic error response onto the error taxonomy.
// The error envelope is {"type":"error","error":{"type":...,"message":...}};
// the error type is more reliable than the status code alone because the
// endpoint reports overload with a 529.
func (c *Client) classifyError(resp *http.Response, body []byte) error {
	errType := gjson.GetBytes(body, "error.type").String()
	errMsg := gjson.GetBytes(body, "error.message").String()
	if errMsg == "" {
		errMsg = string(body)
	}
	base := fmt.Errorf("%s", errMsg)

	switch errType {
	case "authentication_error", "permission_error":
		return &llm.CredentialsError{Provider: providerName, Err: base}
	case "rate_limit_error", "overloaded_error":
		return &llm.RateLimitError{
			Provider:   providerName,
			RetryAfter: retryAfter(resp),
			Err:        base,
		}
	case "invalid_request_error", "not_found_error", "request_too_large":
		return &llm.RequestError{Provider: providerName, StatusCode: resp.StatusCode, Err: base}
	}
	return llm.ClassifyStatus(providerName, resp.StatusCode, string(body), base)
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}

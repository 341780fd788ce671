// internal/infra/practicum/client.go
package practicum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"homework_status_bot/internal/domain/homework"
)

const maxResponseBodySize = 1 << 20 // 1MB

const defaultRequestTimeout = 30 * time.Second

// Client fetches homework review statuses from the Practicum API.
// Every failure it returns wraps homework.ErrEndpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	timeout    time.Duration
}

// NewClient creates a Client for endpoint authenticated with an OAuth token.
// The timeout bounds each request; zero selects a 30s default.
func NewClient(endpoint, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		// no client-wide timeout, each request gets its own via context
		httpClient: &http.Client{},
		endpoint:   endpoint,
		token:      token,
		timeout:    timeout,
	}
}

// FetchStatuses requests the statuses changed since fromDate and returns the decoded JSON body.
// Numbers are decoded as json.Number.
func (c *Client) FetchStatuses(ctx context.Context, fromDate int64) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid endpoint %q: %w", homework.ErrEndpoint, c.endpoint, err)
	}
	query := reqURL.Query()
	query.Set("from_date", strconv.FormatInt(fromDate, 10))
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", homework.ErrEndpoint, err)
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", homework.ErrEndpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", homework.ErrEndpoint, err)
	}

	payload, decodeErr := decodeBody(body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: Нет ответа API: %s", homework.ErrEndpoint, apiErrorReason(payload, resp.StatusCode))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: undecodable response body: %w", homework.ErrEndpoint, decodeErr)
	}
	if obj, ok := payload.(map[string]any); ok {
		if _, hasCode := obj["code"]; hasCode {
			return nil, fmt.Errorf("%w: Нет ответа API: %s", homework.ErrEndpoint, apiErrorReason(payload, resp.StatusCode))
		}
		if _, hasError := obj["error"]; hasError {
			return nil, fmt.Errorf("%w: Нет ответа API: %s", homework.ErrEndpoint, apiErrorReason(payload, resp.StatusCode))
		}
	}
	return payload, nil
}

func decodeBody(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// apiErrorReason picks "code", then "error", then the HTTP status as the failure reason.
func apiErrorReason(payload any, statusCode int) string {
	if obj, ok := payload.(map[string]any); ok {
		if code, ok := obj["code"]; ok && code != nil && code != "" {
			return fmt.Sprint(code)
		}
		if apiErr, ok := obj["error"]; ok && apiErr != nil && apiErr != "" {
			if nested, ok := apiErr.(map[string]any); ok {
				if msg, ok := nested["error"]; ok {
					return fmt.Sprint(msg)
				}
			}
			return fmt.Sprint(apiErr)
		}
	}
	return fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode))
}

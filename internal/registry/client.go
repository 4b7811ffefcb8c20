// Package registry talks to the external property-registry API. It maps raw
// responses to typed results and normalizes failures; it holds no cache and
// performs no retries; retry policy belongs to the reconciliation schedule.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is the upstream boundary the rest of the system depends on.
type Client interface {
	// Submit files a new extract order for a cadastral number and returns
	// the opaque order identifier the registry assigned.
	Submit(ctx context.Context, cadastralNumber string) (string, error)

	// CheckStatus returns the registry's current view of an order.
	CheckStatus(ctx context.Context, externalID string) (StatusReport, error)

	// Download streams the finished document bundle. Only meaningful once
	// the order status is terminal; the caller closes the reader.
	Download(ctx context.Context, externalID string) (io.ReadCloser, error)
}

// StatusReport is the registry's current view of one order. Status is the raw
// upstream string; interpretation happens in the domain layer.
type StatusReport struct {
	ExternalID string
	Status     string
	TrackingID string
}

// HTTPClient implements Client against the reestr-api style HTTP API, with
// the auth token carried in query parameters.
type HTTPClient struct {
	baseURL   string
	authToken string
	http      *http.Client
}

// NewHTTPClient builds a registry client with a bounded request timeout.
func NewHTTPClient(baseURL, authToken string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		authToken: authToken,
		http:      &http.Client{Timeout: timeout},
	}
}

type createResponse struct {
	OrderID string `json:"order_id"`
}

func (c *HTTPClient) Submit(ctx context.Context, cadastralNumber string) (string, error) {
	form := url.Values{
		"cad_num":    {cadastralNumber},
		"order_type": {"1"},
	}
	body, err := c.postForm(ctx, "submit", "/order/create/", form)
	if err != nil {
		return "", err
	}

	var resp createResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", newUpstreamError(ErrorBadData, "submit", "response is not valid JSON", err)
	}
	if resp.OrderID == "" {
		return "", newUpstreamError(ErrorBadData, "submit", "response is missing order_id", nil)
	}
	return resp.OrderID, nil
}

type checkResponse struct {
	Info []struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
		Number  string `json:"number"`
	} `json:"info"`
}

func (c *HTTPClient) CheckStatus(ctx context.Context, externalID string) (StatusReport, error) {
	form := url.Values{"order_id": {externalID}}
	body, err := c.postForm(ctx, "check", "/order/check/", form)
	if err != nil {
		return StatusReport{}, err
	}

	var resp checkResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return StatusReport{}, newUpstreamError(ErrorBadData, "check", "response is not valid JSON", err)
	}
	if len(resp.Info) == 0 {
		return StatusReport{}, newUpstreamError(ErrorBadData, "check", "response info array is empty", nil)
	}

	first := resp.Info[0]
	if first.Status == "" {
		return StatusReport{}, newUpstreamError(ErrorBadData, "check", "response is missing status", nil)
	}
	report := StatusReport{
		ExternalID: first.OrderID,
		Status:     first.Status,
		TrackingID: first.Number,
	}
	if report.ExternalID == "" {
		report.ExternalID = externalID
	}
	return report, nil
}

func (c *HTTPClient) Download(ctx context.Context, externalID string) (io.ReadCloser, error) {
	endpoint := fmt.Sprintf("%s/order/download?%s", c.baseURL, url.Values{
		"auth_token": {c.authToken},
		"order_id":   {externalID},
		"format":     {"zip"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, newUpstreamError(ErrorBadData, "download", "building request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.transportError("download", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, newUpstreamError(ErrorOutage, "download", fmt.Sprintf("unexpected HTTP status %d", resp.StatusCode), nil)
	}
	return resp.Body, nil
}

func (c *HTTPClient) postForm(ctx context.Context, op, path string, form url.Values) ([]byte, error) {
	endpoint := fmt.Sprintf("%s%s?auth_token=%s", c.baseURL, path, url.QueryEscape(c.authToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, newUpstreamError(ErrorBadData, op, "building request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.transportError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newUpstreamError(ErrorOutage, op, fmt.Sprintf("unexpected HTTP status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newUpstreamError(ErrorOutage, op, "reading response body", err)
	}
	return body, nil
}

func (c *HTTPClient) transportError(op string, err error) *UpstreamError {
	if errors.Is(err, context.DeadlineExceeded) {
		return newUpstreamError(ErrorTimeout, op, "registry did not respond in time", err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newUpstreamError(ErrorTimeout, op, "registry did not respond in time", err)
	}
	return newUpstreamError(ErrorOutage, op, "request failed", err)
}

// Package stacks streams a Stacks principal's transaction history from a
// Stacks API node (Hiro or self-hosted).
package stacks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ondrej-secretkeylabs/txfeed/service/metrics"
	"go.uber.org/ratelimit"
)

// API is the subset of the Stacks HTTP API the stream needs.
type API interface {
	// AccountTransactions returns one page of transactions for a
	// principal, newest first.
	AccountTransactions(ctx context.Context, principal string, limit, offset int) (*AccountTransactionsPage, error)
}

// Client is a Stacks API HTTP client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    ratelimit.Limiter
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewClient creates a Stacks API client. If httpClient is nil a default
// with a 30s timeout is used. If m is nil, no metrics are recorded.
func NewClient(baseURL string, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		// Hiro's free tier allows 50 requests per minute; stay well under.
		limiter: ratelimit.New(5),
		metrics: m,
		logger:  logger,
	}
}

// AccountTransactions fetches one page of account history.
func (c *Client) AccountTransactions(ctx context.Context, principal string, limit, offset int) (*AccountTransactionsPage, error) {
	u := fmt.Sprintf("%s/extended/v1/address/%s/transactions?limit=%d&offset=%d",
		c.baseURL, url.PathEscape(principal), limit, offset)

	var page AccountTransactionsPage
	if err := c.getJSON(ctx, u, &page); err != nil {
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.RecordUpstreamPageSize("stacks", float64(len(page.Results)))
	}
	c.logger.DebugContext(ctx, "fetched stacks account page",
		"principal", principal,
		"offset", offset,
		"count", len(page.Results),
		"total", page.Total,
	)
	return &page, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	c.limiter.Take()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil || (resp != nil && resp.StatusCode != http.StatusOK) {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordUpstreamCall("stacks", status, duration)
	}

	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

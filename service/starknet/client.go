// Package starknet streams a Starknet account's transaction history from a
// block explorer indexer API.
package starknet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ondrej-secretkeylabs/txfeed/service/metrics"
	"go.uber.org/ratelimit"
)

// API is the subset of the indexer HTTP API the stream needs.
type API interface {
	// AccountTransactions returns one page of transactions for an
	// account, newest first. An empty pageToken requests the first page.
	AccountTransactions(ctx context.Context, address, pageToken string, pageSize int) (*TransactionsPage, error)
}

// Client is a Starknet indexer HTTP client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    ratelimit.Limiter
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewClient creates an indexer client. If httpClient is nil a default with
// a 30s timeout is used. If m is nil, no metrics are recorded.
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
		limiter:    ratelimit.New(10),
		metrics:    m,
		logger:     logger,
	}
}

// AccountTransactions fetches one page of account history.
func (c *Client) AccountTransactions(ctx context.Context, address, pageToken string, pageSize int) (*TransactionsPage, error) {
	q := url.Values{}
	q.Set("page_size", strconv.Itoa(pageSize))
	if pageToken != "" {
		q.Set("page_token", pageToken)
	}
	u := fmt.Sprintf("%s/api/v1/accounts/%s/transactions?%s",
		c.baseURL, url.PathEscape(address), q.Encode())

	var page TransactionsPage
	if err := c.getJSON(ctx, u, &page); err != nil {
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.RecordUpstreamPageSize("starknet", float64(len(page.Items)))
	}
	c.logger.DebugContext(ctx, "fetched starknet account page",
		"address", address,
		"count", len(page.Items),
		"has_next", page.NextPageToken != "",
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
		c.metrics.RecordUpstreamCall("starknet", status, duration)
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

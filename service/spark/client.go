// Package spark streams a Spark wallet's transfer history from a Spark
// operator's HTTP API.
package spark

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

// API is the subset of the operator HTTP API the stream needs.
type API interface {
	// WalletTransfers returns one page of transfers for the wallet
	// identified by its identity public key, newest first.
	WalletTransfers(ctx context.Context, identityPubkey string, limit int, offset int64) (*TransfersPage, error)
}

// Client is a Spark operator HTTP client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    ratelimit.Limiter
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewClient creates an operator client. If httpClient is nil a default
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
		limiter:    ratelimit.New(10),
		metrics:    m,
		logger:     logger,
	}
}

// WalletTransfers fetches one page of transfer history.
func (c *Client) WalletTransfers(ctx context.Context, identityPubkey string, limit int, offset int64) (*TransfersPage, error) {
	u := fmt.Sprintf("%s/v1/wallets/%s/transfers?limit=%d&offset=%d",
		c.baseURL, url.PathEscape(identityPubkey), limit, offset)

	var page TransfersPage
	if err := c.getJSON(ctx, u, &page); err != nil {
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.RecordUpstreamPageSize("spark", float64(len(page.Transfers)))
	}
	c.logger.DebugContext(ctx, "fetched spark transfer page",
		"identity", identityPubkey,
		"offset", offset,
		"count", len(page.Transfers),
		"next_offset", page.NextOffset,
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
		c.metrics.RecordUpstreamCall("spark", status, duration)
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

// Package bitcoin streams a Bitcoin address's transaction history from an
// Esplora-compatible indexer (mempool.space, blockstream.info).
package bitcoin

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

// API is the subset of the Esplora HTTP API the stream needs.
// This allows us to fake the indexer in tests without hitting real nodes.
type API interface {
	// AddressTransactions returns transactions for an address, newest
	// first. An empty lastSeenTxID requests the first page, which includes
	// mempool transactions; otherwise the confirmed page following that
	// txid is returned.
	AddressTransactions(ctx context.Context, address, lastSeenTxID string) ([]AddressTransaction, error)
}

// Client is an Esplora HTTP client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    ratelimit.Limiter
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewClient creates an Esplora client. If httpClient is nil a default with
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
		// Public Esplora instances throttle unauthenticated clients hard.
		limiter: ratelimit.New(10),
		metrics: m,
		logger:  logger,
	}
}

// AddressTransactions fetches one page of address history.
func (c *Client) AddressTransactions(ctx context.Context, address, lastSeenTxID string) ([]AddressTransaction, error) {
	u := fmt.Sprintf("%s/address/%s/txs", c.baseURL, url.PathEscape(address))
	if lastSeenTxID != "" {
		u = fmt.Sprintf("%s/address/%s/txs/chain/%s", c.baseURL, url.PathEscape(address), url.PathEscape(lastSeenTxID))
	}

	var page []AddressTransaction
	if err := c.getJSON(ctx, u, &page); err != nil {
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.RecordUpstreamPageSize("bitcoin", float64(len(page)))
	}
	c.logger.DebugContext(ctx, "fetched bitcoin address page",
		"address", address,
		"last_seen_txid", lastSeenTxID,
		"count", len(page),
	)
	return page, nil
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
		c.metrics.RecordUpstreamCall("bitcoin", status, duration)
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

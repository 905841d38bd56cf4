package temporal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ondrej-secretkeylabs/txfeed/service/db"
	"github.com/ondrej-secretkeylabs/txfeed/service/feed"
	"github.com/ondrej-secretkeylabs/txfeed/service/metrics"
	natspkg "github.com/ondrej-secretkeylabs/txfeed/service/nats"
)

// pollTakeLimit is how many merged transactions a single poll pulls from
// the feed. New activity is expected near the head, so one page of the
// merged feed is plenty.
const pollTakeLimit = 200

// PollWalletInput contains the input parameters for polling a wallet.
type PollWalletInput struct {
	WalletName string `json:"wallet_name"`
}

// PollWalletResult contains the result of polling a wallet.
type PollWalletResult struct {
	WalletName       string     `json:"wallet_name"`
	TransactionCount int        `json:"transaction_count"`
	PublishedCount   int        `json:"published_count"`
	NewestSeenAt     *time.Time `json:"newest_seen_at,omitempty"`
	PollTime         time.Time  `json:"poll_time"`
	Error            *string    `json:"error,omitempty"`
}

// StoreInterface defines the database operations needed by activities.
// This allows for easy mocking in tests.
type StoreInterface interface {
	GetWallet(ctx context.Context, name string) (*db.Wallet, error)
	UpdateWalletPollTime(ctx context.Context, name string, polledAt time.Time, lastSeenAt *time.Time) (*db.Wallet, error)
}

// StreamFactoryInterface builds the per-chain streams for a wallet.
// This allows for easy mocking in tests.
type StreamFactoryInterface interface {
	ForWallet(w *db.Wallet) []feed.Stream
}

// PublisherInterface defines the NATS publishing operations needed by activities.
// This allows for easy mocking in tests.
type PublisherInterface interface {
	PublishActivity(ctx context.Context, event *natspkg.ActivityEvent) error
	PublishActivityBatch(ctx context.Context, events []*natspkg.ActivityEvent) error
}

// Activities holds the dependencies needed by Temporal activities.
// All dependencies are explicit.
type Activities struct {
	store     StoreInterface
	streams   StreamFactoryInterface
	publisher PublisherInterface
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewActivities creates a new Activities instance with explicit dependencies.
// If m is nil, no metrics will be recorded.
func NewActivities(
	store StoreInterface,
	streams StreamFactoryInterface,
	publisher PublisherInterface,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Activities {
	if logger == nil {
		logger = slog.Default()
	}
	return &Activities{
		store:     store,
		streams:   streams,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// PollWallet fetches the wallet's merged transaction feed, publishes events
// for confirmed transactions that are newer than the wallet's last seen
// time, and records the poll in the database.
//
// The whole poll runs as one activity: merged feed transactions are an
// interface union and do not survive a trip through workflow history, so
// fetch, publish and bookkeeping stay in-process.
func (a *Activities) PollWallet(ctx context.Context, input PollWalletInput) (*PollWalletResult, error) {
	start := time.Now()
	status := "success"
	defer func() {
		if a.metrics != nil {
			a.metrics.RecordPollExecution(status, time.Since(start).Seconds())
		}
	}()

	result := &PollWalletResult{
		WalletName: input.WalletName,
		PollTime:   start.UTC(),
	}

	wallet, err := a.store.GetWallet(ctx, input.WalletName)
	if err != nil {
		status = "error"
		errMsg := fmt.Sprintf("failed to get wallet: %v", err)
		result.Error = &errMsg
		return result, fmt.Errorf("failed to get wallet %q: %w", input.WalletName, err)
	}

	streams := a.streams.ForWallet(wallet)
	if len(streams) == 0 {
		a.logger.WarnContext(ctx, "wallet has no registered addresses, nothing to poll",
			"wallet", wallet.Name,
		)
		if _, err := a.store.UpdateWalletPollTime(ctx, wallet.Name, start, nil); err != nil {
			a.logger.WarnContext(ctx, "failed to update wallet poll time",
				"wallet", wallet.Name,
				"error", err,
			)
		}
		return result, nil
	}

	merger, err := feed.NewMerger(streams)
	if err != nil {
		status = "error"
		errMsg := err.Error()
		result.Error = &errMsg
		return result, err
	}

	mergeStart := time.Now()
	transactions, err := merger.TakeN(ctx, pollTakeLimit)
	if a.metrics != nil {
		a.metrics.RecordMerge(time.Since(mergeStart).Seconds(), len(transactions))
		if errors.Is(err, feed.ErrStalled) {
			a.metrics.RecordMergeStall()
		}
	}
	if err != nil {
		status = "error"
		errMsg := fmt.Sprintf("failed to merge feed: %v", err)
		result.Error = &errMsg
		return result, fmt.Errorf("failed to merge feed for %q: %w", wallet.Name, err)
	}

	result.TransactionCount = len(transactions)

	a.logger.DebugContext(ctx, "merged wallet feed",
		"wallet", wallet.Name,
		"count", len(transactions),
	)

	// Publish confirmed transactions that are newer than the last poll.
	// Transactions still waiting for a block have no stable position in
	// the feed yet; they are picked up once they confirm.
	var events []*natspkg.ActivityEvent
	var newestSeen *time.Time
	for _, tx := range transactions {
		observedAt, ok := feed.ObservedAt(tx)
		if !ok {
			continue
		}
		if newestSeen == nil || observedAt.After(*newestSeen) {
			at := observedAt
			newestSeen = &at
		}
		if wallet.LastSeenAt != nil && !observedAt.After(*wallet.LastSeenAt) {
			continue
		}
		events = append(events, natspkg.FromFeedTransaction(wallet.Name, tx))
	}

	if len(events) > 0 && a.publisher != nil {
		if err := a.publisher.PublishActivityBatch(ctx, events); err != nil {
			// The poll still counts; publishing is best-effort and the
			// next poll covers the same window via last_seen_at.
			a.logger.ErrorContext(ctx, "failed to publish activity events",
				"wallet", wallet.Name,
				"count", len(events),
				"error", err,
			)
		} else {
			result.PublishedCount = len(events)
		}
	}
	result.NewestSeenAt = newestSeen

	// Advance the watermark only when every new event went out; a held
	// watermark makes the next poll re-read the same window and republish.
	watermark := newestSeen
	if len(events) > 0 && result.PublishedCount == 0 {
		watermark = nil
	}

	if _, err := a.store.UpdateWalletPollTime(ctx, wallet.Name, start, watermark); err != nil {
		a.logger.WarnContext(ctx, "failed to update wallet poll time",
			"wallet", wallet.Name,
			"error", err,
		)
	}

	a.logger.InfoContext(ctx, "polled wallet successfully",
		"wallet", wallet.Name,
		"transactions", result.TransactionCount,
		"published", result.PublishedCount,
	)

	return result, nil
}

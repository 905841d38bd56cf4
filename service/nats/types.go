package nats

import (
	"time"

	"github.com/ondrej-secretkeylabs/txfeed/service/feed"
)

// ActivityEvent represents one feed transaction published to NATS.
// Events are published to the subject "activity.{wallet_name}" in JetStream.
type ActivityEvent struct {
	// Wallet is the registered wallet name the activity belongs to.
	Wallet string `json:"wallet"`

	// Chain identifies the source chain of the transaction.
	Chain string `json:"chain"`

	// Transaction identifiers
	TxID   string `json:"tx_id"`
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`

	// Amount in the chain's base unit, when the source reports one.
	Amount int64 `json:"amount,omitempty"`

	// ObservedAt is the transaction's position in the feed. Omitted for
	// transactions still waiting for a block.
	ObservedAt *time.Time `json:"observed_at,omitempty"`

	// PublishedAt is when the event was published.
	PublishedAt time.Time `json:"published_at"`
}

// FromFeedTransaction converts a feed transaction to an ActivityEvent for
// publishing.
func FromFeedTransaction(wallet string, tx feed.Transaction) *ActivityEvent {
	event := &ActivityEvent{
		Wallet:      wallet,
		Chain:       string(tx.Kind()),
		TxID:        tx.ID(),
		PublishedAt: time.Now().UTC(),
	}

	if at, ok := feed.ObservedAt(tx); ok {
		event.ObservedAt = &at
	}

	switch t := tx.(type) {
	case feed.BitcoinTransaction:
		event.Amount = t.Fee
	case feed.StacksTransaction:
		event.Type = t.TxType
		event.Status = t.Status
	case feed.StarknetTransaction:
		event.Type = t.Type
	case feed.SparkTransaction:
		event.Type = t.Type
		event.Status = t.Status
		event.Amount = t.ValueSats
	}

	return event
}

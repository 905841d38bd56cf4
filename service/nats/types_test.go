package nats

import (
	"testing"
	"time"

	"github.com/ondrej-secretkeylabs/txfeed/service/feed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestFromFeedTransaction_Bitcoin(t *testing.T) {
	tx := feed.BitcoinTransaction{
		TxID:      "btc1",
		Confirmed: true,
		BlockTime: int64Ptr(1700000000),
		Fee:       210,
	}

	event := FromFeedTransaction("alice", tx)

	assert.Equal(t, "alice", event.Wallet)
	assert.Equal(t, "bitcoin", event.Chain)
	assert.Equal(t, "btc1", event.TxID)
	assert.Equal(t, int64(210), event.Amount)
	require.NotNil(t, event.ObservedAt)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), event.ObservedAt.UTC())
	assert.False(t, event.PublishedAt.IsZero())
}

func TestFromFeedTransaction_StacksPending(t *testing.T) {
	tx := feed.StacksTransaction{
		TxID:   "stx1",
		TxType: "token_transfer",
		Status: "pending",
	}

	event := FromFeedTransaction("alice", tx)

	assert.Equal(t, "stacks", event.Chain)
	assert.Equal(t, "token_transfer", event.Type)
	assert.Equal(t, "pending", event.Status)
	assert.Nil(t, event.ObservedAt, "pending transactions have no observed time")
}

func TestFromFeedTransaction_Spark(t *testing.T) {
	tx := feed.SparkTransaction{
		TransferID: "tr1",
		Type:       "TRANSFER",
		Status:     "COMPLETED",
		CreatedAt:  "2024-01-01T00:00:00Z",
		ValueSats:  5000,
	}

	event := FromFeedTransaction("alice", tx)

	assert.Equal(t, "spark", event.Chain)
	assert.Equal(t, int64(5000), event.Amount)
	require.NotNil(t, event.ObservedAt)
	assert.Equal(t, 2024, event.ObservedAt.UTC().Year())
}

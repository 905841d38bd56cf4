package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func i64(v int64) *int64 { return &v }

func TestMergeKey_Bitcoin(t *testing.T) {
	confirmed := BitcoinTransaction{TxID: "tx", Confirmed: true, BlockTime: i64(1700000000)}
	key, err := confirmed.mergeKey()
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), key)

	mempool := BitcoinTransaction{TxID: "tx", Confirmed: false}
	key, err = mempool.mergeKey()
	require.NoError(t, err)
	assert.Equal(t, int64(0), key, "mempool transactions fall back to epoch zero")
}

func TestMergeKey_Stacks(t *testing.T) {
	tests := []struct {
		name string
		tx   StacksTransaction
		want int64
	}{
		{
			name: "confirmed block time wins",
			tx:   StacksTransaction{BlockTime: i64(1700000100), BurnBlockTime: i64(1700000000)},
			want: 1700000100,
		},
		{
			name: "zero block time falls through to burn block time",
			tx:   StacksTransaction{BlockTime: i64(0), BurnBlockTime: i64(1700000000)},
			want: 1700000000,
		},
		{
			name: "missing block time falls through to burn block time",
			tx:   StacksTransaction{BurnBlockTime: i64(1700000000)},
			want: 1700000000,
		},
		{
			name: "zero burn block time is accepted as-is",
			tx:   StacksTransaction{BurnBlockTime: i64(0)},
			want: 0,
		},
		{
			name: "negative burn block time is accepted as-is",
			tx:   StacksTransaction{BurnBlockTime: i64(-60)},
			want: -60,
		},
		{
			name: "no time information sorts as most recent",
			tx:   StacksTransaction{TxID: "pending", Status: "pending"},
			want: pendingMergeKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := tt.tx.mergeKey()
			require.NoError(t, err)
			assert.Equal(t, tt.want, key)
		})
	}
}

func TestMergeKey_Starknet(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int64
	}{
		{"rfc3339 utc", "2023-11-14T22:13:20Z", 1700000000},
		{"milliseconds are floored", "2023-11-14T22:13:20.999Z", 1700000000},
		{"offset form", "2023-11-15T00:13:20+02:00", 1700000000},
		{"zoneless read as utc", "2023-11-14T22:13:20.500", 1700000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := StarknetTransaction{Hash: "0x1", Timestamp: tt.raw}.mergeKey()
			require.NoError(t, err)
			assert.Equal(t, tt.want, key)
		})
	}

	_, err := StarknetTransaction{Hash: "0x1", Timestamp: "14/11/2023"}.mergeKey()
	require.ErrorIs(t, err, ErrMalformedTimestamp)
	assert.Contains(t, err.Error(), "14/11/2023")
}

func TestMergeKey_Spark(t *testing.T) {
	key, err := SparkTransaction{TransferID: "t1", CreatedAt: "2023-11-14T22:13:20Z"}.mergeKey()
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), key)

	key, err = SparkTransaction{TransferID: "t1"}.mergeKey()
	require.NoError(t, err)
	assert.Equal(t, int64(0), key, "missing creation time defaults to epoch zero")

	_, err = SparkTransaction{TransferID: "t1", CreatedAt: "garbage"}.mergeKey()
	require.ErrorIs(t, err, ErrMalformedTimestamp)
	assert.Contains(t, err.Error(), "garbage")
}

func TestObservedAt(t *testing.T) {
	observed, ok := ObservedAt(BitcoinTransaction{TxID: "tx", BlockTime: i64(1700000000)})
	require.True(t, ok)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), observed)

	_, ok = ObservedAt(StacksTransaction{TxID: "pending"})
	assert.False(t, ok, "pending transactions have no position on the timeline")

	_, ok = ObservedAt(StarknetTransaction{Hash: "0x1", Timestamp: "bad"})
	assert.False(t, ok)
}

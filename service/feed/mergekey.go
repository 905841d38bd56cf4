package feed

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// pendingMergeKey sorts ahead of every real timestamp. Transactions with no
// usable time information are treated as the most recent activity so they
// surface at the top of the feed, ahead of confirmed history.
const pendingMergeKey = math.MaxInt64

// ErrMalformedTimestamp reports a starknet or spark timestamp that could
// not be parsed. Defaulting here would silently misorder the feed, so the
// whole merge call fails instead.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

func (t BitcoinTransaction) mergeKey() (int64, error) {
	if t.BlockTime == nil {
		return 0, nil
	}
	return *t.BlockTime, nil
}

func (t StacksTransaction) mergeKey() (int64, error) {
	if t.BlockTime != nil && *t.BlockTime > 0 {
		return *t.BlockTime, nil
	}
	// Zero and negative burn block times are taken at face value; the API
	// reports them for microblock edge cases.
	if t.BurnBlockTime != nil {
		return *t.BurnBlockTime, nil
	}
	return pendingMergeKey, nil
}

func (t StarknetTransaction) mergeKey() (int64, error) {
	sec, err := parseEpochSeconds(t.Timestamp)
	if err != nil {
		return 0, fmt.Errorf("starknet transaction %s: %w", t.Hash, err)
	}
	return sec, nil
}

func (t SparkTransaction) mergeKey() (int64, error) {
	if t.CreatedAt == "" {
		return 0, nil
	}
	sec, err := parseEpochSeconds(t.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("spark transfer %s: %w", t.TransferID, err)
	}
	return sec, nil
}

// timestampLayouts are tried in order. The zoneless variants cover
// indexers that emit ISO-8601 without an offset; those are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// parseEpochSeconds converts an ISO-8601-like timestamp to unix seconds,
// flooring any sub-second precision.
func parseEpochSeconds(raw string) (int64, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return ts.Unix(), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrMalformedTimestamp, raw)
}

// ObservedAt returns the position a transaction occupies on the merged
// timeline. ok is false for transactions that carry no time information
// (they sort as most recent) and for unparseable timestamps.
func ObservedAt(tx Transaction) (observed time.Time, ok bool) {
	key, err := tx.mergeKey()
	if err != nil || key == pendingMergeKey {
		return time.Time{}, false
	}
	return time.Unix(key, 0).UTC(), true
}

package feed

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

const (
	// MaxTakeLimit bounds how many transactions a single TakeN call may
	// request, which in turn bounds the number of upstream pages a caller
	// can make the service fetch.
	MaxTakeLimit = 10000

	// maxEmptyRounds is how many consecutive rounds may produce nothing
	// before the merge is declared stalled.
	maxEmptyRounds = 3
)

var (
	// ErrNoStreams is returned by NewMerger when given no streams.
	ErrNoStreams = errors.New("merger requires at least one stream")

	// ErrInvalidLimit is returned by TakeN before any stream I/O occurs.
	ErrInvalidLimit = errors.New("invalid limit")

	// ErrStalled reports rounds that keep selecting a winner yet never
	// produce a value. Without this guard a misbehaving stream would spin
	// the merge loop forever.
	ErrStalled = errors.New("merge stalled: consecutive rounds produced no transaction")
)

// Merger interleaves a fixed set of newest-first streams into one
// chronologically descending sequence. It owns no stream state beyond
// calling Peek and Next, and a single TakeN call runs one complete merge
// pass; nothing executes in the background after it returns.
type Merger struct {
	streams []Stream
}

// NewMerger creates a Merger over the given streams. The set is fixed for
// the merger's lifetime and must not be empty.
func NewMerger(streams []Stream) (*Merger, error) {
	if len(streams) == 0 {
		return nil, ErrNoStreams
	}
	return &Merger{streams: slices.Clone(streams)}, nil
}

type peeked struct {
	tx  Transaction
	err error
}

// headKey remembers the merge key of a stream's current head. A head can
// lose many rounds before it is consumed, and its key only changes when
// the head does, so losing rounds must not re-normalize the timestamp.
type headKey struct {
	tx  Transaction
	key int64
}

// TakeN collects up to limit transactions across all streams, newest
// first. Each round peeks every stream concurrently, consumes only the
// stream holding the globally latest transaction, and repeats. Ties on the
// merge timestamp go to the stream registered first, so output is
// deterministic even when two chains share a timestamp.
//
// A short result is normal termination: it means the streams ran out. Any
// stream I/O error, malformed timestamp, or stalled loop aborts the whole
// call with no partial result.
func (m *Merger) TakeN(ctx context.Context, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > MaxTakeLimit {
		return nil, fmt.Errorf("%w: must be between 1 and %d, got %d", ErrInvalidLimit, MaxTakeLimit, limit)
	}

	out := make([]Transaction, 0, limit)
	keys := make([]headKey, len(m.streams))
	emptyRounds := 0

	for len(out) < limit {
		// Fan out the peeks so a round costs the slowest source, not the
		// sum of all of them. Results stay indexed by stream.
		peeks := make([]peeked, len(m.streams))
		var wg sync.WaitGroup
		for i, s := range m.streams {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tx, err := s.Peek(ctx)
				peeks[i] = peeked{tx: tx, err: err}
			}()
		}
		wg.Wait()

		// Strict > keeps the lowest stream index on merge-key ties.
		winner := -1
		var winnerKey int64
		for i, p := range peeks {
			if p.err != nil {
				return nil, fmt.Errorf("peek stream %d: %w", i, p.err)
			}
			if p.tx == nil {
				continue
			}
			if keys[i].tx != p.tx {
				key, err := p.tx.mergeKey()
				if err != nil {
					return nil, err
				}
				keys[i] = headKey{tx: p.tx, key: key}
			}
			key := keys[i].key
			if winner == -1 || key > winnerKey {
				winner, winnerKey = i, key
			}
		}
		if winner == -1 {
			break // every stream is exhausted or has nothing to offer
		}

		_, tx, err := m.streams[winner].Next(ctx)
		if err != nil {
			return nil, fmt.Errorf("advance stream %d: %w", winner, err)
		}
		if tx == nil {
			// The winning peek was valid, so a missing value here is a
			// transient page boundary, not exhaustion. Retry, bounded by
			// the stall counter.
			emptyRounds++
			if emptyRounds >= maxEmptyRounds {
				return nil, fmt.Errorf("%w (last winner: stream %d)", ErrStalled, winner)
			}
			continue
		}
		out = append(out, tx)
		emptyRounds = 0
	}

	return out, nil
}

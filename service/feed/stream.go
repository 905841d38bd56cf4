package feed

import "context"

// Stream is a stateful cursor over one chain's transactions for a single
// wallet, newest first. Implementations keep one buffered lookahead item so
// that Peek is idempotent: repeated Peeks without an intervening Next
// return the same transaction.
//
// Streams are independent of each other. The merger only requires that each
// stream's own emission order is non-increasing in merge time.
type Stream interface {
	// Peek reports the next transaction without consuming it, or nil when
	// the stream has nothing available.
	Peek(ctx context.Context) (Transaction, error)

	// Next consumes and returns the transaction Peek last reported. done
	// means the stream is exhausted. A stream may legitimately return
	// (false, nil, nil) when a fetched page turned out empty; callers
	// treat that as transient, not as exhaustion.
	Next(ctx context.Context) (done bool, tx Transaction, err error)
}

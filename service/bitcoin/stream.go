package bitcoin

import (
	"context"
	"fmt"

	"github.com/ondrej-secretkeylabs/txfeed/service/feed"
)

// Stream adapts Esplora's txid-cursor pagination to the feed.Stream
// contract. It owns one buffered lookahead transaction plus the remainder
// of the most recently fetched page; Peek serves from the buffer, Next
// consumes it.
type Stream struct {
	api     API
	address string

	buf       feed.Transaction
	queue     []feed.Transaction
	cursor    string // last seen confirmed txid
	exhausted bool
}

// NewStream creates a stream over the address's history, newest first.
func NewStream(api API, address string) *Stream {
	return &Stream{api: api, address: address}
}

// Peek reports the next transaction without consuming it.
func (s *Stream) Peek(ctx context.Context) (feed.Transaction, error) {
	if s.buf != nil {
		return s.buf, nil
	}
	if err := s.advance(ctx); err != nil {
		return nil, err
	}
	return s.buf, nil
}

// Next consumes the transaction Peek last reported.
func (s *Stream) Next(ctx context.Context) (bool, feed.Transaction, error) {
	if s.buf == nil {
		if err := s.advance(ctx); err != nil {
			return false, nil, err
		}
	}
	if s.buf == nil {
		return s.exhausted, nil, nil
	}
	tx := s.buf
	s.buf = nil
	return s.exhausted && len(s.queue) == 0, tx, nil
}

// advance moves the next transaction into the lookahead slot, fetching
// another page when the local queue is empty.
func (s *Stream) advance(ctx context.Context) error {
	if len(s.queue) == 0 && !s.exhausted {
		if err := s.fetchPage(ctx); err != nil {
			return err
		}
	}
	if len(s.queue) > 0 {
		s.buf = s.queue[0]
		s.queue = s.queue[1:]
	}
	return nil
}

func (s *Stream) fetchPage(ctx context.Context) error {
	page, err := s.api.AddressTransactions(ctx, s.address, s.cursor)
	if err != nil {
		return fmt.Errorf("bitcoin transactions for %s: %w", s.address, err)
	}
	if len(page) == 0 {
		s.exhausted = true
		return nil
	}

	prevCursor := s.cursor
	for _, tx := range page {
		// Only confirmed txids are valid page cursors; mempool entries
		// disappear from the index once they confirm.
		if tx.Status.Confirmed {
			s.cursor = tx.TxID
		}
		s.queue = append(s.queue, toFeedTransaction(tx))
	}
	if s.cursor == prevCursor {
		// A page of nothing but mempool transactions cannot advance the
		// cursor; requesting the same page again would loop forever.
		s.exhausted = true
	}
	return nil
}

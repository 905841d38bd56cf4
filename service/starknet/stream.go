package starknet

import (
	"context"
	"fmt"

	"github.com/ondrej-secretkeylabs/txfeed/service/feed"
)

const pageSize = 50

// Stream adapts the indexer's page-token pagination to the feed.Stream
// contract, with one buffered lookahead transaction.
type Stream struct {
	api     API
	address string

	buf       feed.Transaction
	queue     []feed.Transaction
	pageToken string
	exhausted bool
}

// NewStream creates a stream over the account's history, newest first.
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
	page, err := s.api.AccountTransactions(ctx, s.address, s.pageToken, pageSize)
	if err != nil {
		return fmt.Errorf("starknet transactions for %s: %w", s.address, err)
	}
	for _, tx := range page.Items {
		s.queue = append(s.queue, toFeedTransaction(tx))
	}
	s.pageToken = page.NextPageToken
	if s.pageToken == "" {
		s.exhausted = true
	}
	return nil
}

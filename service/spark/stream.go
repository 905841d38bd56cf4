package spark

import (
	"context"
	"fmt"

	"github.com/ondrej-secretkeylabs/txfeed/service/feed"
)

const pageSize = 50

// Stream adapts the operator's offset pagination to the feed.Stream
// contract, with one buffered lookahead transfer. The operator signals the
// end of history by returning a negative next offset.
type Stream struct {
	api            API
	identityPubkey string

	buf       feed.Transaction
	queue     []feed.Transaction
	offset    int64
	exhausted bool
}

// NewStream creates a stream over the wallet's transfers, newest first.
func NewStream(api API, identityPubkey string) *Stream {
	return &Stream{api: api, identityPubkey: identityPubkey}
}

// Peek reports the next transfer without consuming it.
func (s *Stream) Peek(ctx context.Context) (feed.Transaction, error) {
	if s.buf != nil {
		return s.buf, nil
	}
	if err := s.advance(ctx); err != nil {
		return nil, err
	}
	return s.buf, nil
}

// Next consumes the transfer Peek last reported.
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
	page, err := s.api.WalletTransfers(ctx, s.identityPubkey, pageSize, s.offset)
	if err != nil {
		return fmt.Errorf("spark transfers for %s: %w", s.identityPubkey, err)
	}
	for _, tr := range page.Transfers {
		s.queue = append(s.queue, toFeedTransaction(tr))
	}
	if page.NextOffset < 0 || len(page.Transfers) == 0 {
		s.exhausted = true
		return nil
	}
	s.offset = page.NextOffset
	return nil
}

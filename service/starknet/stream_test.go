package starknet

import (
	"context"
	"errors"
	"testing"

	"github.com/ondrej-secretkeylabs/txfeed/service/feed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	pages  map[string]*TransactionsPage
	err    error
	tokens []string
}

func (f *fakeAPI) AccountTransactions(ctx context.Context, address, pageToken string, pageSize int) (*TransactionsPage, error) {
	f.tokens = append(f.tokens, pageToken)
	if f.err != nil {
		return nil, f.err
	}
	page, ok := f.pages[pageToken]
	if !ok {
		return &TransactionsPage{}, nil
	}
	return page, nil
}

func indexedTx(hash, ts string) IndexedTransaction {
	return IndexedTransaction{Hash: hash, Type: "INVOKE", Timestamp: ts}
}

func TestStream_PeekIsIdempotent(t *testing.T) {
	api := &fakeAPI{pages: map[string]*TransactionsPage{
		"": {Items: []IndexedTransaction{indexedTx("0x1", "2024-01-01T00:00:00Z")}},
	}}
	s := NewStream(api, "0xacc")

	first, err := s.Peek(context.Background())
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := s.Peek(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, api.tokens, 1)
}

func TestStream_FollowsPageTokens(t *testing.T) {
	api := &fakeAPI{pages: map[string]*TransactionsPage{
		"": {
			Items:         []IndexedTransaction{indexedTx("0x1", "2024-01-03T00:00:00Z")},
			NextPageToken: "p2",
		},
		"p2": {
			Items: []IndexedTransaction{indexedTx("0x2", "2024-01-02T00:00:00Z")},
		},
	}}
	s := NewStream(api, "0xacc")

	var got []feed.Transaction
	for {
		done, tx, err := s.Next(context.Background())
		require.NoError(t, err)
		if tx != nil {
			got = append(got, tx)
		}
		if done {
			break
		}
	}

	require.Len(t, got, 2)
	assert.Equal(t, "0x1", got[0].ID())
	assert.Equal(t, "0x2", got[1].ID())
	assert.Equal(t, []string{"", "p2"}, api.tokens)
}

func TestStream_KeepsRawTimestamp(t *testing.T) {
	api := &fakeAPI{pages: map[string]*TransactionsPage{
		"": {Items: []IndexedTransaction{indexedTx("0x1", "2024-01-01T12:34:56.789Z")}},
	}}
	s := NewStream(api, "0xacc")

	tx, err := s.Peek(context.Background())
	require.NoError(t, err)

	stx, ok := tx.(feed.StarknetTransaction)
	require.True(t, ok)
	assert.Equal(t, "2024-01-01T12:34:56.789Z", stx.Timestamp, "the raw string is preserved for the feed to parse")
}

func TestStream_EmptyAccount(t *testing.T) {
	s := NewStream(&fakeAPI{pages: map[string]*TransactionsPage{}}, "0xacc")

	tx, err := s.Peek(context.Background())
	require.NoError(t, err)
	assert.Nil(t, tx)

	done, tx, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, done)
	assert.Nil(t, tx)
}

func TestStream_PropagatesAPIError(t *testing.T) {
	boom := errors.New("indexer down")
	s := NewStream(&fakeAPI{err: boom}, "0xacc")

	_, err := s.Peek(context.Background())
	assert.ErrorIs(t, err, boom)
}

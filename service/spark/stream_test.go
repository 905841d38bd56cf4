package spark

import (
	"context"
	"errors"
	"testing"

	"github.com/ondrej-secretkeylabs/txfeed/service/feed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	pages   map[int64]*TransfersPage
	err     error
	offsets []int64
}

func (f *fakeAPI) WalletTransfers(ctx context.Context, identityPubkey string, limit int, offset int64) (*TransfersPage, error) {
	f.offsets = append(f.offsets, offset)
	if f.err != nil {
		return nil, f.err
	}
	page, ok := f.pages[offset]
	if !ok {
		return &TransfersPage{NextOffset: -1}, nil
	}
	return page, nil
}

func transfer(id, created string) Transfer {
	return Transfer{ID: id, Type: "TRANSFER", Status: "COMPLETED", CreatedTime: created, TotalValue: 1000}
}

func TestStream_PeekIsIdempotent(t *testing.T) {
	api := &fakeAPI{pages: map[int64]*TransfersPage{
		0: {Transfers: []Transfer{transfer("tr1", "2024-01-01T00:00:00Z")}, NextOffset: -1},
	}}
	s := NewStream(api, "pubkey1")

	first, err := s.Peek(context.Background())
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := s.Peek(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, api.offsets, 1)
}

func TestStream_FollowsReturnedOffsets(t *testing.T) {
	api := &fakeAPI{pages: map[int64]*TransfersPage{
		0: {
			Transfers:  []Transfer{transfer("tr1", "2024-01-03T00:00:00Z"), transfer("tr2", "2024-01-02T00:00:00Z")},
			NextOffset: 2,
		},
		2: {
			Transfers:  []Transfer{transfer("tr3", "2024-01-01T00:00:00Z")},
			NextOffset: -1,
		},
	}}
	s := NewStream(api, "pubkey1")

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

	require.Len(t, got, 3)
	assert.Equal(t, "tr1", got[0].ID())
	assert.Equal(t, "tr2", got[1].ID())
	assert.Equal(t, "tr3", got[2].ID())
	assert.Equal(t, []int64{0, 2}, api.offsets)
}

func TestStream_NegativeOffsetEndsPagination(t *testing.T) {
	api := &fakeAPI{pages: map[int64]*TransfersPage{
		0: {Transfers: []Transfer{transfer("tr1", "2024-01-01T00:00:00Z")}, NextOffset: -1},
	}}
	s := NewStream(api, "pubkey1")

	done, tx, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, done)
	require.NotNil(t, tx)
	assert.Equal(t, "tr1", tx.ID())
	assert.Len(t, api.offsets, 1)
}

func TestStream_TransferWithoutCreatedTime(t *testing.T) {
	api := &fakeAPI{pages: map[int64]*TransfersPage{
		0: {Transfers: []Transfer{transfer("tr1", "")}, NextOffset: -1},
	}}
	s := NewStream(api, "pubkey1")

	tx, err := s.Peek(context.Background())
	require.NoError(t, err)

	stx, ok := tx.(feed.SparkTransaction)
	require.True(t, ok)
	assert.Empty(t, stx.CreatedAt)
}

func TestStream_EmptyWallet(t *testing.T) {
	s := NewStream(&fakeAPI{pages: map[int64]*TransfersPage{}}, "pubkey1")

	tx, err := s.Peek(context.Background())
	require.NoError(t, err)
	assert.Nil(t, tx)

	done, tx, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, done)
	assert.Nil(t, tx)
}

func TestStream_PropagatesAPIError(t *testing.T) {
	boom := errors.New("operator down")
	s := NewStream(&fakeAPI{err: boom}, "pubkey1")

	_, err := s.Peek(context.Background())
	assert.ErrorIs(t, err, boom)
}

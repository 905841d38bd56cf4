package stacks

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_AccountTransactions(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"limit": 50,
			"offset": 0,
			"total": 2,
			"results": [
				{"tx_id":"0x01","tx_type":"token_transfer","tx_status":"success","block_height":150000,"block_time":1700000000,"burn_block_time":1699999970},
				{"tx_id":"0x02","tx_type":"contract_call","tx_status":"pending"}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil, discardLogger())

	page, err := c.AccountTransactions(context.Background(), "SP000EXAMPLE", 50, 0)
	require.NoError(t, err)
	assert.Equal(t, "/extended/v1/address/SP000EXAMPLE/transactions", gotPath)
	assert.Equal(t, "limit=50&offset=0", gotQuery)

	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Results, 2)

	require.NotNil(t, page.Results[0].BlockTime)
	assert.Equal(t, int64(1700000000), *page.Results[0].BlockTime)
	require.NotNil(t, page.Results[0].BurnBlockTime)
	assert.Equal(t, int64(1699999970), *page.Results[0].BurnBlockTime)

	assert.Nil(t, page.Results[1].BlockTime)
	assert.Nil(t, page.Results[1].BurnBlockTime)
}

func TestClient_AccountTransactions_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil, discardLogger())

	_, err := c.AccountTransactions(context.Background(), "SP000EXAMPLE", 50, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

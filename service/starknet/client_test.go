package starknet

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
	var gotPath string
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"items": [
				{"transaction_hash":"0xabc","type":"INVOKE","timestamp":"2024-01-01T00:00:00Z"}
			],
			"next_page_token": "p2"
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil, discardLogger())

	page, err := c.AccountTransactions(context.Background(), "0xacc", "", 50)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/accounts/0xacc/transactions", gotPath)
	assert.Equal(t, "page_size=50", gotQuery)

	require.Len(t, page.Items, 1)
	assert.Equal(t, "0xabc", page.Items[0].Hash)
	assert.Equal(t, "2024-01-01T00:00:00Z", page.Items[0].Timestamp)
	assert.Equal(t, "p2", page.NextPageToken)
}

func TestClient_AccountTransactions_PassesPageToken(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil, discardLogger())

	_, err := c.AccountTransactions(context.Background(), "0xacc", "p2", 50)
	require.NoError(t, err)
	assert.Equal(t, "page_size=50&page_token=p2", gotQuery)
}

func TestClient_AccountTransactions_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil, discardLogger())

	_, err := c.AccountTransactions(context.Background(), "0xacc", "", 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

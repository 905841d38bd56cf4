package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Register(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/wallets", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"name":"alice","poll_interval":"1m","status":"active"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil)

	err := c.Register(context.Background(), RegisterParams{
		Name:           "alice",
		BitcoinAddress: "bc1qalice",
		StacksAddress:  "SP1ALICE",
		PollInterval:   time.Minute,
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", gotBody["name"])
	assert.Equal(t, "bc1qalice", gotBody["bitcoin_address"])
	assert.Equal(t, "1m0s", gotBody["poll_interval"])
}

func TestClient_Register_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"wallet already registered"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil)

	err := c.Register(context.Background(), RegisterParams{Name: "alice", BitcoinAddress: "bc1qalice", PollInterval: time.Minute})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wallet already registered")
}

func TestClient_Unregister(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/wallets/alice", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil)
	require.NoError(t, c.Unregister(context.Background(), "alice"))
}

func TestClient_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/wallets/alice", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"name":"alice",
			"bitcoin_address":"bc1qalice",
			"poll_interval":"30s",
			"status":"active",
			"created_at":"2024-01-01T00:00:00Z",
			"updated_at":"2024-01-01T00:00:00Z"
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil)

	wallet, err := c.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", wallet.Name)
	assert.Equal(t, "bc1qalice", wallet.BitcoinAddress)
	assert.Equal(t, 30*time.Second, wallet.PollInterval)
	assert.Equal(t, "active", wallet.Status)
}

func TestClient_List(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"wallets":[
			{"name":"alice","poll_interval":"30s","status":"active"},
			{"name":"bob","poll_interval":"1m","status":"paused"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil)

	wallets, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, "alice", wallets[0].Name)
	assert.Equal(t, time.Minute, wallets[1].PollInterval)
}

func TestClient_Activity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/wallets/alice/activity", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"wallet":"alice","activity":[
			{"chain":"bitcoin","tx_id":"btc1","observed_at":"2024-01-02T00:00:00Z"},
			{"chain":"stacks","tx_id":"stx1","type":"token_transfer","status":"pending","pending":true}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil)

	activity, err := c.Activity(context.Background(), "alice", 25)
	require.NoError(t, err)
	require.Len(t, activity, 2)
	assert.Equal(t, "bitcoin", activity[0].Chain)
	require.NotNil(t, activity[0].ObservedAt)
	assert.True(t, activity[1].Pending)
	assert.Nil(t, activity[1].ObservedAt)
}

func TestClient_Get_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"wallet not found"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client(), nil)

	_, err := c.Get(context.Background(), "nobody")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wallet not found")
}

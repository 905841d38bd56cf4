package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ondrej-secretkeylabs/txfeed/service/bitcoin"
	"github.com/ondrej-secretkeylabs/txfeed/service/config"
	"github.com/ondrej-secretkeylabs/txfeed/service/db"
	"github.com/ondrej-secretkeylabs/txfeed/service/spark"
	"github.com/ondrej-secretkeylabs/txfeed/service/stacks"
	"github.com/ondrej-secretkeylabs/txfeed/service/starknet"
	"github.com/ondrej-secretkeylabs/txfeed/service/streams"
	"github.com/ondrej-secretkeylabs/txfeed/service/temporal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		DefaultPollInterval: 30 * time.Second,
		MinPollInterval:     10 * time.Second,
	}
}

func setupTestStore(t *testing.T) *db.TestStore {
	t.Helper()
	db.SkipIfNoTestDB(t)
	ts := db.NewTestStore(t)
	t.Cleanup(func() {
		ts.Cleanup(t)
		ts.Close()
	})
	return ts
}

// Fake chain APIs for the activity endpoint. Only bitcoin serves data; the
// others report empty histories.

type fakeBitcoinAPI struct {
	txs []bitcoin.AddressTransaction
}

func (f *fakeBitcoinAPI) AddressTransactions(ctx context.Context, address, lastSeenTxID string) ([]bitcoin.AddressTransaction, error) {
	if lastSeenTxID != "" {
		return nil, nil
	}
	return f.txs, nil
}

type emptyStacksAPI struct{}

func (emptyStacksAPI) AccountTransactions(ctx context.Context, principal string, limit, offset int) (*stacks.AccountTransactionsPage, error) {
	return &stacks.AccountTransactionsPage{}, nil
}

type emptyStarknetAPI struct{}

func (emptyStarknetAPI) AccountTransactions(ctx context.Context, address, pageToken string, pageSize int) (*starknet.TransactionsPage, error) {
	return &starknet.TransactionsPage{}, nil
}

type emptySparkAPI struct{}

func (emptySparkAPI) WalletTransfers(ctx context.Context, identityPubkey string, limit int, offset int64) (*spark.TransfersPage, error) {
	return &spark.TransfersPage{NextOffset: -1}, nil
}

func int64Ptr(v int64) *int64 { return &v }

func TestRegisterWallet_Validation(t *testing.T) {
	// Validation failures return before any store access.
	handler := handleRegisterWallet(nil, temporal.NewMockScheduler(), testConfig(), testLogger())

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		wantError      string
	}{
		{
			name:           "malformed JSON",
			body:           `{"name":"alice","poll_interval":`,
			expectedStatus: http.StatusBadRequest,
			wantError:      "invalid request body",
		},
		{
			name:           "missing name",
			body:           `{"bitcoin_address":"bc1qalice"}`,
			expectedStatus: http.StatusBadRequest,
			wantError:      "name is required",
		},
		{
			name:           "invalid name characters",
			body:           `{"name":"alice; DROP TABLE wallets","bitcoin_address":"bc1qalice"}`,
			expectedStatus: http.StatusBadRequest,
			wantError:      "invalid name",
		},
		{
			name:           "name too long",
			body:           `{"name":"` + strings.Repeat("a", 65) + `","bitcoin_address":"bc1qalice"}`,
			expectedStatus: http.StatusBadRequest,
			wantError:      "name too long",
		},
		{
			name:           "no addresses",
			body:           `{"name":"alice"}`,
			expectedStatus: http.StatusBadRequest,
			wantError:      "at least one chain address",
		},
		{
			name:           "invalid poll interval",
			body:           `{"name":"alice","bitcoin_address":"bc1qalice","poll_interval":"soon"}`,
			expectedStatus: http.StatusBadRequest,
			wantError:      "invalid poll_interval",
		},
		{
			name:           "poll interval too short",
			body:           `{"name":"alice","bitcoin_address":"bc1qalice","poll_interval":"1s"}`,
			expectedStatus: http.StatusBadRequest,
			wantError:      "at least",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/wallets", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantError)
		})
	}
}

func TestRegisterWallet_CreatesWalletAndSchedule(t *testing.T) {
	ts := setupTestStore(t)
	scheduler := temporal.NewMockScheduler()
	handler := handleRegisterWallet(ts.Store, scheduler, testConfig(), testLogger())

	body := `{"name":"alice","bitcoin_address":"bc1qalice","stacks_address":"SP1ALICE","poll_interval":"1m"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/wallets", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp walletResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.Name)
	assert.Equal(t, "bc1qalice", resp.BitcoinAddress)
	assert.Equal(t, "active", resp.Status)

	interval, ok := scheduler.ScheduleInterval("alice")
	require.True(t, ok, "schedule should have been created")
	assert.Equal(t, time.Minute, interval)
}

func TestIsDuplicateKeyError(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", Message: `duplicate key value violates unique constraint "wallets_pkey"`}

	assert.True(t, isDuplicateKeyError(dup))
	assert.True(t, isDuplicateKeyError(fmt.Errorf("create wallet: %w", dup)))
	assert.False(t, isDuplicateKeyError(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isDuplicateKeyError(errors.New("duplicate key value violates unique constraint")))
	assert.False(t, isDuplicateKeyError(nil))
}

func TestRegisterWallet_Duplicate(t *testing.T) {
	ts := setupTestStore(t)
	scheduler := temporal.NewMockScheduler()
	handler := handleRegisterWallet(ts.Store, scheduler, testConfig(), testLogger())

	body := `{"name":"alice","bitcoin_address":"bc1qalice"}`
	for i, wantStatus := range []int{http.StatusCreated, http.StatusConflict} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/wallets", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, wantStatus, rec.Code, "request %d", i)
	}
}

func TestUnregisterWallet(t *testing.T) {
	ts := setupTestStore(t)
	scheduler := temporal.NewMockScheduler()

	_, err := ts.CreateWallet(context.Background(), db.CreateWalletParams{
		Name:           "alice",
		BitcoinAddress: "bc1qalice",
		PollInterval:   time.Minute,
		Status:         "active",
	})
	require.NoError(t, err)
	require.NoError(t, scheduler.CreateWalletSchedule(context.Background(), "alice", time.Minute))

	mux := http.NewServeMux()
	mux.Handle("DELETE /api/v1/wallets/{name}", handleUnregisterWallet(ts.Store, scheduler, testLogger()))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/wallets/alice", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, scheduler.HasSchedule("alice"))

	// Deleting again is a 404.
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/wallets/alice", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetWallet_NotFound(t *testing.T) {
	ts := setupTestStore(t)

	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/wallets/{name}", handleGetWallet(ts.Store, testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/nobody", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListWallets(t *testing.T) {
	ts := setupTestStore(t)

	for _, name := range []string{"alice", "bob"} {
		_, err := ts.CreateWallet(context.Background(), db.CreateWalletParams{
			Name:           name,
			BitcoinAddress: "bc1q" + name,
			PollInterval:   time.Minute,
			Status:         "active",
		})
		require.NoError(t, err)
	}

	handler := handleListWallets(ts.Store, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Wallets []walletResponse `json:"wallets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Wallets, 2)
}

func TestWalletActivity_LimitValidation(t *testing.T) {
	// Limit validation happens before any store or upstream access.
	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/wallets/{name}/activity", handleWalletActivity(nil, nil, nil, testLogger()))

	for _, tt := range []struct {
		limit      string
		wantStatus int
	}{
		{"0", http.StatusBadRequest},
		{"-5", http.StatusBadRequest},
		{"10001", http.StatusBadRequest},
		{"ten", http.StatusBadRequest},
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/alice/activity?limit="+tt.limit, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, tt.wantStatus, rec.Code, "limit=%s", tt.limit)
	}
}

func TestWalletActivity_ReturnsMergedFeed(t *testing.T) {
	ts := setupTestStore(t)

	_, err := ts.CreateWallet(context.Background(), db.CreateWalletParams{
		Name:           "alice",
		BitcoinAddress: "bc1qalice",
		PollInterval:   time.Minute,
		Status:         "active",
	})
	require.NoError(t, err)

	factory := streams.NewFactory(
		&fakeBitcoinAPI{txs: []bitcoin.AddressTransaction{
			{TxID: "btc2", Status: bitcoin.TxStatus{Confirmed: true, BlockTime: int64Ptr(1700000100)}},
			{TxID: "btc1", Status: bitcoin.TxStatus{Confirmed: true, BlockTime: int64Ptr(1700000000)}},
		}},
		emptyStacksAPI{},
		emptyStarknetAPI{},
		emptySparkAPI{},
	)

	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/wallets/{name}/activity", handleWalletActivity(ts.Store, factory, nil, testLogger()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/alice/activity?limit=10", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp activityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.Wallet)
	require.Len(t, resp.Activity, 2)
	assert.Equal(t, "btc2", resp.Activity[0].TxID)
	assert.Equal(t, "btc1", resp.Activity[1].TxID)
	assert.Equal(t, "bitcoin", resp.Activity[0].Chain)
	require.NotNil(t, resp.Activity[0].ObservedAt)
	assert.True(t, resp.Activity[0].ObservedAt.After(*resp.Activity[1].ObservedAt))
}

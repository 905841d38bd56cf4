package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ondrej-secretkeylabs/txfeed/service/config"
	"github.com/ondrej-secretkeylabs/txfeed/service/db"
	"github.com/ondrej-secretkeylabs/txfeed/service/feed"
	"github.com/ondrej-secretkeylabs/txfeed/service/metrics"
	"github.com/ondrej-secretkeylabs/txfeed/service/streams"
	"github.com/ondrej-secretkeylabs/txfeed/service/temporal"
)

const (
	maxRequestBodySize = 1 << 20 // 1MB - plenty for wallet registration
	maxWalletNameLen   = 64
	minPollInterval    = 10 * time.Second
	maxPollInterval    = 24 * time.Hour

	defaultActivityLimit = 50
)

// Wallet names become NATS subjects and Temporal schedule IDs, so keep
// them to a safe character set.
var validWalletNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// handleRegisterWallet returns a handler that registers a new wallet and
// creates a Temporal schedule for polling.
// POST /api/v1/wallets
func handleRegisterWallet(store *db.Store, scheduler temporal.Scheduler, cfg *config.Config, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var req struct {
			Name            string `json:"name"`
			BitcoinAddress  string `json:"bitcoin_address"`
			StacksAddress   string `json:"stacks_address"`
			StarknetAddress string `json:"starknet_address"`
			SparkIdentity   string `json:"spark_identity"`
			PollInterval    string `json:"poll_interval"`
		}

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Debug("failed to decode register request", "error", err)
			if strings.Contains(err.Error(), "http: request body too large") {
				writeError(w, "request body too large: maximum size is 1MB", http.StatusBadRequest)
				return
			}
			writeError(w, "invalid request body: must be valid JSON", http.StatusBadRequest)
			return
		}

		if err := validateWalletName(req.Name); err != nil {
			logger.Debug("invalid wallet name", "name", req.Name, "error", err)
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		if req.BitcoinAddress == "" && req.StacksAddress == "" && req.StarknetAddress == "" && req.SparkIdentity == "" {
			writeError(w, "at least one chain address is required", http.StatusBadRequest)
			return
		}

		pollInterval := cfg.DefaultPollInterval
		if req.PollInterval != "" {
			parsed, err := time.ParseDuration(req.PollInterval)
			if err != nil {
				logger.Debug("invalid poll interval", "interval", req.PollInterval, "error", err)
				writeError(w, "invalid poll_interval: must be a valid duration (e.g. '30s', '1m')", http.StatusBadRequest)
				return
			}
			pollInterval = parsed
		}

		if err := validatePollInterval(pollInterval); err != nil {
			logger.Debug("invalid poll interval value", "interval", pollInterval, "error", err)
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		wallet, err := store.CreateWallet(r.Context(), db.CreateWalletParams{
			Name:            req.Name,
			BitcoinAddress:  req.BitcoinAddress,
			StacksAddress:   req.StacksAddress,
			StarknetAddress: req.StarknetAddress,
			SparkIdentity:   req.SparkIdentity,
			PollInterval:    pollInterval,
			Status:          "active",
		})
		if err != nil {
			if isDuplicateKeyError(err) {
				writeError(w, "wallet already registered", http.StatusConflict)
				return
			}
			logger.Error("failed to create wallet", "name", req.Name, "error", err)
			writeError(w, "failed to register wallet", http.StatusInternalServerError)
			return
		}

		if err := scheduler.CreateWalletSchedule(r.Context(), wallet.Name, wallet.PollInterval); err != nil {
			logger.Error("failed to create schedule, rolling back wallet", "name", wallet.Name, "error", err)
			if delErr := store.DeleteWallet(r.Context(), wallet.Name); delErr != nil {
				logger.Error("failed to roll back wallet", "name", wallet.Name, "error", delErr)
			}
			writeError(w, "failed to schedule wallet polling", http.StatusInternalServerError)
			return
		}

		logger.Info("wallet registered",
			"name", wallet.Name,
			"poll_interval", wallet.PollInterval,
		)

		writeJSON(w, walletToResponse(wallet), http.StatusCreated)
	})
}

// handleUnregisterWallet returns a handler that unregisters a wallet.
// DELETE /api/v1/wallets/{name}
func handleUnregisterWallet(store *db.Store, scheduler temporal.Scheduler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")

		if err := validateWalletName(name); err != nil {
			logger.Debug("invalid wallet name", "name", name, "error", err)
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		exists, err := store.WalletExists(r.Context(), name)
		if err != nil {
			logger.Error("failed to check wallet existence", "name", name, "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		if !exists {
			writeError(w, "wallet not found", http.StatusNotFound)
			return
		}

		// Stop the polling schedule before removing the wallet. A missing
		// schedule is not fatal; the wallet may have been registered before
		// the scheduler was configured.
		if err := scheduler.DeleteWalletSchedule(r.Context(), name); err != nil {
			logger.Warn("failed to delete wallet schedule", "name", name, "error", err)
		}

		if err := store.DeleteWallet(r.Context(), name); err != nil {
			logger.Error("failed to delete wallet", "name", name, "error", err)
			writeError(w, "failed to unregister wallet", http.StatusInternalServerError)
			return
		}

		logger.Info("wallet unregistered", "name", name)
		w.WriteHeader(http.StatusNoContent)
	})
}

// handleGetWallet returns a handler that retrieves a wallet by name.
// GET /api/v1/wallets/{name}
func handleGetWallet(store *db.Store, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")

		if err := validateWalletName(name); err != nil {
			logger.Debug("invalid wallet name", "name", name, "error", err)
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		wallet, err := store.GetWallet(r.Context(), name)
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, "wallet not found", http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Error("failed to get wallet", "name", name, "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, walletToResponse(wallet), http.StatusOK)
	})
}

// handleListWallets returns a handler that lists all registered wallets.
// GET /api/v1/wallets
func handleListWallets(store *db.Store, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wallets, err := store.ListWallets(r.Context())
		if err != nil {
			logger.Error("failed to list wallets", "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		logger.Debug("wallets listed", "count", len(wallets))

		resp := make([]walletResponse, len(wallets))
		for i, wallet := range wallets {
			resp[i] = walletToResponse(wallet)
		}

		writeJSON(w, map[string]interface{}{
			"wallets": resp,
		}, http.StatusOK)
	})
}

// handleWalletActivity returns a handler that serves a wallet's merged
// activity feed, newest first, across all its registered chains.
// GET /api/v1/wallets/{name}/activity?limit={n}
func handleWalletActivity(store *db.Store, factory *streams.Factory, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")

		if err := validateWalletName(name); err != nil {
			logger.Debug("invalid wallet name", "name", name, "error", err)
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		limit := defaultActivityLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, "invalid limit: must be an integer", http.StatusBadRequest)
				return
			}
			limit = parsed
		}
		if limit <= 0 || limit > feed.MaxTakeLimit {
			writeError(w, fmt.Sprintf("invalid limit: must be between 1 and %d", feed.MaxTakeLimit), http.StatusBadRequest)
			return
		}

		wallet, err := store.GetWallet(r.Context(), name)
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, "wallet not found", http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Error("failed to get wallet", "name", name, "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		chainStreams := factory.ForWallet(wallet)
		if len(chainStreams) == 0 {
			writeJSON(w, activityResponse{Wallet: wallet.Name, Activity: []activityItem{}}, http.StatusOK)
			return
		}

		merger, err := feed.NewMerger(chainStreams)
		if err != nil {
			logger.Error("failed to create merger", "name", name, "error", err)
			writeError(w, "internal server error", http.StatusInternalServerError)
			return
		}

		mergeStart := time.Now()
		transactions, err := merger.TakeN(r.Context(), limit)
		if m != nil {
			m.RecordMerge(time.Since(mergeStart).Seconds(), len(transactions))
			if errors.Is(err, feed.ErrStalled) {
				m.RecordMergeStall()
			}
		}
		if err != nil {
			logger.Error("failed to merge wallet activity", "name", name, "error", err)
			writeError(w, "failed to read upstream feeds", http.StatusBadGateway)
			return
		}

		logger.Debug("wallet activity merged",
			"name", name,
			"limit", limit,
			"count", len(transactions),
		)

		items := make([]activityItem, len(transactions))
		for i, tx := range transactions {
			items[i] = transactionToActivityItem(tx)
		}

		writeJSON(w, activityResponse{Wallet: wallet.Name, Activity: items}, http.StatusOK)
	})
}

// isDuplicateKeyError checks if an error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// 23505 is the postgres unique_violation code.
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// validateWalletName validates a wallet name for format and length.
func validateWalletName(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}

	if len(name) > maxWalletNameLen {
		return fmt.Errorf("name too long: maximum length is %d characters", maxWalletNameLen)
	}

	if !validWalletNameRegex.MatchString(name) {
		return fmt.Errorf("invalid name: must contain only letters, digits, '-' and '_'")
	}

	return nil
}

// validatePollInterval validates a poll interval value.
func validatePollInterval(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}

	if interval < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %v", minPollInterval)
	}

	if interval > maxPollInterval {
		return fmt.Errorf("poll_interval cannot exceed %v", maxPollInterval)
	}

	return nil
}

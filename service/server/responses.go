package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ondrej-secretkeylabs/txfeed/service/db"
	"github.com/ondrej-secretkeylabs/txfeed/service/feed"
)

type walletResponse struct {
	Name            string     `json:"name"`
	BitcoinAddress  string     `json:"bitcoin_address,omitempty"`
	StacksAddress   string     `json:"stacks_address,omitempty"`
	StarknetAddress string     `json:"starknet_address,omitempty"`
	SparkIdentity   string     `json:"spark_identity,omitempty"`
	PollInterval    string     `json:"poll_interval"`
	Status          string     `json:"status"`
	LastPolledAt    *time.Time `json:"last_polled_at,omitempty"`
	LastSeenAt      *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// walletToResponse converts a domain Wallet to a response format.
func walletToResponse(w *db.Wallet) walletResponse {
	return walletResponse{
		Name:            w.Name,
		BitcoinAddress:  w.BitcoinAddress,
		StacksAddress:   w.StacksAddress,
		StarknetAddress: w.StarknetAddress,
		SparkIdentity:   w.SparkIdentity,
		PollInterval:    w.PollInterval.String(),
		Status:          w.Status,
		LastPolledAt:    w.LastPolledAt,
		LastSeenAt:      w.LastSeenAt,
		CreatedAt:       w.CreatedAt,
		UpdatedAt:       w.UpdatedAt,
	}
}

type activityResponse struct {
	Wallet   string         `json:"wallet"`
	Activity []activityItem `json:"activity"`
}

type activityItem struct {
	Chain      string     `json:"chain"`
	TxID       string     `json:"tx_id"`
	Type       string     `json:"type,omitempty"`
	Status     string     `json:"status,omitempty"`
	Amount     int64      `json:"amount,omitempty"`
	Pending    bool       `json:"pending,omitempty"`
	ObservedAt *time.Time `json:"observed_at,omitempty"`
}

// transactionToActivityItem converts a feed transaction to a response item.
func transactionToActivityItem(tx feed.Transaction) activityItem {
	item := activityItem{
		Chain: string(tx.Kind()),
		TxID:  tx.ID(),
	}

	if at, ok := feed.ObservedAt(tx); ok {
		item.ObservedAt = &at
	} else {
		item.Pending = true
	}

	switch t := tx.(type) {
	case feed.BitcoinTransaction:
		item.Amount = t.Fee
		if !t.Confirmed {
			item.Pending = true
		}
	case feed.StacksTransaction:
		item.Type = t.TxType
		item.Status = t.Status
	case feed.StarknetTransaction:
		item.Type = t.Type
	case feed.SparkTransaction:
		item.Type = t.Type
		item.Status = t.Status
		item.Amount = t.ValueSats
	}

	return item
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

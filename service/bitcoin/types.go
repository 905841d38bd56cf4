package bitcoin

import "github.com/ondrej-secretkeylabs/txfeed/service/feed"

// AddressTransaction is the Esplora wire format for one transaction in an
// address history response. Only the fields the feed needs are decoded.
type AddressTransaction struct {
	TxID   string   `json:"txid"`
	Fee    int64    `json:"fee"`
	Status TxStatus `json:"status"`
}

// TxStatus is the confirmation state Esplora attaches to each transaction.
type TxStatus struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHeight int64  `json:"block_height"`
	BlockTime   *int64 `json:"block_time"`
}

// toFeedTransaction converts a wire transaction to the feed domain model.
func toFeedTransaction(tx AddressTransaction) feed.Transaction {
	return feed.BitcoinTransaction{
		TxID:        tx.TxID,
		Confirmed:   tx.Status.Confirmed,
		BlockHeight: tx.Status.BlockHeight,
		BlockTime:   tx.Status.BlockTime,
		Fee:         tx.Fee,
	}
}

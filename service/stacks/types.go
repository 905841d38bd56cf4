package stacks

import "github.com/ondrej-secretkeylabs/txfeed/service/feed"

// AccountTransactionsPage is the Stacks API envelope for a page of account
// transactions.
type AccountTransactionsPage struct {
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
	Total   int                  `json:"total"`
	Results []AccountTransaction `json:"results"`
}

// AccountTransaction is the Stacks API wire format for one transaction.
// Only the fields the feed needs are decoded; block_time is zero or absent
// until the transaction is confirmed, while burn_block_time tracks the
// anchoring Bitcoin block.
type AccountTransaction struct {
	TxID          string `json:"tx_id"`
	TxType        string `json:"tx_type"`
	TxStatus      string `json:"tx_status"`
	BlockHeight   int64  `json:"block_height"`
	BlockTime     *int64 `json:"block_time"`
	BurnBlockTime *int64 `json:"burn_block_time"`
}

// toFeedTransaction converts a wire transaction to the feed domain model.
func toFeedTransaction(tx AccountTransaction) feed.Transaction {
	return feed.StacksTransaction{
		TxID:          tx.TxID,
		TxType:        tx.TxType,
		Status:        tx.TxStatus,
		BlockHeight:   tx.BlockHeight,
		BlockTime:     tx.BlockTime,
		BurnBlockTime: tx.BurnBlockTime,
	}
}

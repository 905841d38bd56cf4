package starknet

import "github.com/ondrej-secretkeylabs/txfeed/service/feed"

// TransactionsPage is an indexer page of account transactions plus the
// opaque token for the next page. An empty token means the last page.
type TransactionsPage struct {
	Items         []IndexedTransaction `json:"items"`
	NextPageToken string               `json:"next_page_token"`
}

// IndexedTransaction is the indexer wire format for one transaction. The
// timestamp is kept as the raw ISO-8601 string the indexer reported; the
// feed parses it when ordering.
type IndexedTransaction struct {
	Hash      string `json:"transaction_hash"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// toFeedTransaction converts a wire transaction to the feed domain model.
func toFeedTransaction(tx IndexedTransaction) feed.Transaction {
	return feed.StarknetTransaction{
		Hash:      tx.Hash,
		Type:      tx.Type,
		Timestamp: tx.Timestamp,
	}
}

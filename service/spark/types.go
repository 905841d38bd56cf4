package spark

import "github.com/ondrej-secretkeylabs/txfeed/service/feed"

// TransfersPage is one page of wallet transfers from a Spark operator.
// NextOffset is the offset to request the following page with; the
// operator returns -1 once the history is exhausted.
type TransfersPage struct {
	Transfers  []Transfer `json:"transfers"`
	NextOffset int64      `json:"offset"`
}

// Transfer is the operator wire format for one transfer. CreatedTime is an
// RFC3339 string and may be empty for transfers that predate creation-time
// tracking.
type Transfer struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	CreatedTime string `json:"created_time"`
	TotalValue  int64  `json:"total_value"`
}

// toFeedTransaction converts a wire transfer to the feed domain model.
func toFeedTransaction(tr Transfer) feed.Transaction {
	return feed.SparkTransaction{
		TransferID: tr.ID,
		Type:       tr.Type,
		Status:     tr.Status,
		CreatedAt:  tr.CreatedTime,
		ValueSats:  tr.TotalValue,
	}
}

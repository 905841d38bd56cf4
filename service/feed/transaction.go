// Package feed merges per-chain transaction streams into a single
// chronologically ordered activity feed.
package feed

// Kind identifies the chain a transaction originated from.
type Kind string

const (
	KindBitcoin  Kind = "bitcoin"
	KindStacks   Kind = "stacks"
	KindStarknet Kind = "starknet"
	KindSpark    Kind = "spark"
)

// Transaction is the closed union of transaction records the feed can
// order. The unexported mergeKey method seals the union and doubles as the
// per-chain timestamp rule: a new chain variant cannot be added without
// declaring how it maps onto the merge timeline, the compiler rejects it.
//
// Transactions are immutable value data. The feed passes them through
// unchanged and reads nothing but their timestamp fields.
type Transaction interface {
	// Kind reports the originating chain.
	Kind() Kind
	// ID returns the chain-native identifier (txid, hash, transfer id).
	ID() string

	mergeKey() (int64, error)
}

// BitcoinTransaction is a transaction from an Esplora-style Bitcoin
// indexer, confirmed or still in the mempool.
type BitcoinTransaction struct {
	TxID        string
	Confirmed   bool
	BlockHeight int64
	// BlockTime is the unix time of the containing block, nil while the
	// transaction sits in the mempool.
	BlockTime *int64
	Fee       int64
}

func (t BitcoinTransaction) Kind() Kind { return KindBitcoin }
func (t BitcoinTransaction) ID() string { return t.TxID }

// StacksTransaction is a transaction reported by a Stacks API node.
type StacksTransaction struct {
	TxID        string
	TxType      string
	Status      string
	BlockHeight int64
	// BlockTime is set once the transaction is confirmed in a Stacks block.
	BlockTime *int64
	// BurnBlockTime is the anchoring Bitcoin block time. The API reports it
	// for some states where BlockTime is missing or zero.
	BurnBlockTime *int64
}

func (t StacksTransaction) Kind() Kind { return KindStacks }
func (t StacksTransaction) ID() string { return t.TxID }

// StarknetTransaction is a transaction reported by a Starknet indexer.
type StarknetTransaction struct {
	Hash string
	Type string
	// Timestamp is the ISO-8601 string exactly as the indexer reported it.
	Timestamp string
}

func (t StarknetTransaction) Kind() Kind { return KindStarknet }
func (t StarknetTransaction) ID() string { return t.Hash }

// SparkTransaction is a transfer reported by a Spark operator.
type SparkTransaction struct {
	TransferID string
	Type       string
	Status     string
	// CreatedAt is an RFC3339 string, empty when the operator did not
	// record a creation time.
	CreatedAt string
	ValueSats int64
}

func (t SparkTransaction) Kind() Kind { return KindSpark }
func (t SparkTransaction) ID() string { return t.TransferID }

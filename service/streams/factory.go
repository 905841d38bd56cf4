// Package streams assembles the per-chain transaction streams for a wallet.
package streams

import (
	"github.com/ondrej-secretkeylabs/txfeed/service/bitcoin"
	"github.com/ondrej-secretkeylabs/txfeed/service/db"
	"github.com/ondrej-secretkeylabs/txfeed/service/feed"
	"github.com/ondrej-secretkeylabs/txfeed/service/spark"
	"github.com/ondrej-secretkeylabs/txfeed/service/stacks"
	"github.com/ondrej-secretkeylabs/txfeed/service/starknet"
)

// Factory builds fresh streams over the upstream indexers for a wallet's
// registered addresses. Streams are single-use; a new set is built for each
// merge.
type Factory struct {
	bitcoin  bitcoin.API
	stacks   stacks.API
	starknet starknet.API
	spark    spark.API
}

// NewFactory creates a factory over the four chain clients.
func NewFactory(btc bitcoin.API, stx stacks.API, strk starknet.API, spk spark.API) *Factory {
	return &Factory{
		bitcoin:  btc,
		stacks:   stx,
		starknet: strk,
		spark:    spk,
	}
}

// ForWallet returns one stream per chain the wallet has an address on.
// Chains the wallet is not registered on are skipped. The result may be
// empty if the wallet has no addresses at all.
func (f *Factory) ForWallet(w *db.Wallet) []feed.Stream {
	var streams []feed.Stream
	if w.BitcoinAddress != "" {
		streams = append(streams, bitcoin.NewStream(f.bitcoin, w.BitcoinAddress))
	}
	if w.StacksAddress != "" {
		streams = append(streams, stacks.NewStream(f.stacks, w.StacksAddress))
	}
	if w.StarknetAddress != "" {
		streams = append(streams, starknet.NewStream(f.starknet, w.StarknetAddress))
	}
	if w.SparkIdentity != "" {
		streams = append(streams, spark.NewStream(f.spark, w.SparkIdentity))
	}
	return streams
}

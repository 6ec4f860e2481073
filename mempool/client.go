package mempool

import (
	"context"

	"github.com/dev7ba/mempool-server/mempool/types"
)

// NodeClient is the subset of the node RPC client (C1) that the loader and
// updater depend on. Depending on this narrow interface instead of a
// concrete RPC type keeps the bulk-load and event-application algorithms
// testable without a live node.
type NodeClient interface {
	// RawMempoolVerbose lists the node's current mempool, mapping each
	// txid to its ancestor count (1 for a root with no unconfirmed
	// parents).
	RawMempoolVerbose(ctx context.Context) (map[types.TxId]uint32, error)

	// RawTransactionHex fetches a transaction's serialized bytes. It
	// returns an *errs.Error of kind errs.KindNotFound if the
	// transaction is no longer available; callers must treat that as a
	// silent skip, not a failure.
	RawTransactionHex(ctx context.Context, id types.TxId) (types.TxBytes, error)

	// BlockTxIds lists the transaction ids included in the named block.
	BlockTxIds(ctx context.Context, blockHash string) ([]types.TxId, error)

	// MempoolSize returns the node's reported mempool size, used only as
	// a loader progress denominator.
	MempoolSize(ctx context.Context) (int, error)
}

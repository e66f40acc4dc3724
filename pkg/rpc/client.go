package rpc

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChainClient defines the read-only chain node operations needed by the indexer.
// Implementations are stateless and never retry: retry policy belongs to the caller.
type ChainClient interface {
	// Close closes the RPC client connection.
	Close()

	// LatestBlock returns the current head block number.
	LatestBlock(ctx context.Context) (uint64, error)

	// GetLogs returns the logs emitted by address with topic0 == topic in [fromBlock, toBlock].
	GetLogs(ctx context.Context, address common.Address, topic common.Hash, fromBlock, toBlock uint64) ([]types.Log, error)

	// BlockHash returns the canonical hash of the given block.
	BlockHash(ctx context.Context, number uint64) (common.Hash, error)

	// GetTransactionReceipt returns the receipt of txHash or ErrNotFound.
	GetTransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)

	// ChainID returns the chain id reported by the node.
	ChainID(ctx context.Context) (*big.Int, error)
}

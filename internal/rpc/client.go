package rpc

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/goran-ethernal/DonationIndexor/internal/logger"
	pkgrpc "github.com/goran-ethernal/DonationIndexor/pkg/rpc"
)

// Compile-time check to ensure Client implements pkgrpc.ChainClient interface.
var _ pkgrpc.ChainClient = (*Client)(nil)

// Client wraps the Ethereum RPC client and maps every failure onto the
// pkgrpc error taxonomy. It holds no state besides the connection.
type Client struct {
	eth *ethclient.Client
	rpc *rpc.Client
	log *logger.Logger
}

// NewClient creates a new RPC client connected to the given endpoint.
func NewClient(ctx context.Context, endpoint string, log *logger.Logger) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", pkgrpc.ErrNodeUnavailable, endpoint, err)
	}

	return NewClientFromRPC(rpcClient, log), nil
}

// NewClientFromRPC wraps an already connected rpc.Client.
func NewClientFromRPC(rpcClient *rpc.Client, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Client{
		eth: ethclient.NewClient(rpcClient),
		rpc: rpcClient,
		log: log,
	}
}

// Close closes the RPC client connection.
func (c *Client) Close() {
	c.eth.Close()
}

// LatestBlock returns the current head block number.
func (c *Client) LatestBlock(ctx context.Context) (uint64, error) {
	const method = "eth_blockNumber"
	start := time.Now()

	number, err := c.eth.BlockNumber(ctx)
	if err = c.observe(ctx, method, start, err); err != nil {
		return 0, err
	}

	return number, nil
}

// GetLogs retrieves the logs of a single contract and event topic in [fromBlock, toBlock].
func (c *Client) GetLogs(ctx context.Context, address common.Address, topic common.Hash,
	fromBlock, toBlock uint64) ([]types.Log, error) {
	const method = "eth_getLogs"

	if fromBlock > toBlock {
		return nil, fmt.Errorf("%w: from %d > to %d", pkgrpc.ErrInvalidRange, fromBlock, toBlock)
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{address},
		Topics:    [][]common.Hash{{topic}},
	}

	start := time.Now()

	var logs []types.Log
	err := c.rpc.CallContext(ctx, &logs, method, toFilterArg(query))

	if rangeErr := asRangeTooLarge(err, fromBlock, toBlock); rangeErr != nil {
		c.observeDuration(method, start)
		RPCMethodError(method, "range_too_large")

		return nil, rangeErr
	}

	if err = c.observe(ctx, method, start, err); err != nil {
		return nil, err
	}

	c.log.Debugw("fetched logs", "from", fromBlock, "to", toBlock, "count", len(logs))

	return logs, nil
}

// BlockHash returns the canonical hash of the given block.
// The hash is taken from the node response rather than recomputed from the header,
// so chains with non-standard header fields are handled too.
func (c *Client) BlockHash(ctx context.Context, number uint64) (common.Hash, error) {
	const method = "eth_getBlockByNumber"
	start := time.Now()

	var head *blockHead
	err := c.rpc.CallContext(ctx, &head, method, toBlockNumArg(number), false)
	if err == nil && head == nil {
		err = ethereum.NotFound
	}

	if err = c.observe(ctx, method, start, err); err != nil {
		return common.Hash{}, err
	}

	return head.Hash, nil
}

// GetTransactionReceipt returns the receipt of txHash.
func (c *Client) GetTransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	const method = "eth_getTransactionReceipt"
	start := time.Now()

	receipt, err := c.eth.TransactionReceipt(ctx, txHash)
	if err = c.observe(ctx, method, start, err); err != nil {
		return nil, err
	}

	return receipt, nil
}

// ChainID returns the chain id reported by the node.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	const method = "eth_chainId"
	start := time.Now()

	id, err := c.eth.ChainID(ctx)
	if err = c.observe(ctx, method, start, err); err != nil {
		return nil, err
	}

	return id, nil
}

// observe records the call metrics and translates err into the pkgrpc taxonomy.
// Cancellation of the caller's context is returned as is.
func (c *Client) observe(ctx context.Context, method string, start time.Time, err error) error {
	c.observeDuration(method, start)

	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if errors.Is(err, ethereum.NotFound) {
		RPCMethodError(method, "not_found")
		return fmt.Errorf("%w: %s", pkgrpc.ErrNotFound, method)
	}

	errType := classifyError(err)
	RPCMethodError(method, errType)
	c.log.Debugw("rpc call failed", "method", method, "error_type", errType, "error", err)

	return fmt.Errorf("%w: %s: %w", pkgrpc.ErrNodeUnavailable, method, err)
}

func (c *Client) observeDuration(method string, start time.Time) {
	RPCMethodInc(method)
	RPCMethodDuration(method, time.Since(start))
}

// blockHead is the subset of eth_getBlockByNumber needed for hash comparison.
type blockHead struct {
	Hash common.Hash `json:"hash"`
}

// toFilterArg converts ethereum.FilterQuery to the format expected by eth_getLogs.
func toFilterArg(q ethereum.FilterQuery) any {
	arg := map[string]any{
		"topics": q.Topics,
	}

	if q.BlockHash != nil {
		arg["blockHash"] = *q.BlockHash
	} else {
		if q.FromBlock != nil {
			arg["fromBlock"] = toBlockNumArg(q.FromBlock.Uint64())
		}
		if q.ToBlock != nil {
			arg["toBlock"] = toBlockNumArg(q.ToBlock.Uint64())
		}
	}

	if len(q.Addresses) > 0 {
		if len(q.Addresses) == 1 {
			arg["address"] = q.Addresses[0]
		} else {
			arg["address"] = q.Addresses
		}
	}

	return arg
}

// toBlockNumArg converts a block number to hex format.
func toBlockNumArg(blockNum uint64) string {
	return fmt.Sprintf("0x%x", blockNum)
}

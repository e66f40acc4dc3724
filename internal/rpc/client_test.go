package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	pkgrpc "github.com/goran-ethernal/DonationIndexor/pkg/rpc"
	"github.com/stretchr/testify/require"
)

// TestClientImplementsInterface verifies that Client implements the ChainClient interface.
func TestClientImplementsInterface(t *testing.T) {
	var _ pkgrpc.ChainClient = (*Client)(nil)
}

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// fakeNode is a minimal JSON-RPC server answering with canned results per method.
type fakeNode struct {
	mu      sync.Mutex
	results map[string]any
	errors  map[string]*rpcError
	calls   map[string][]rpcRequest
}

func newFakeNode(t *testing.T) (*fakeNode, *Client) {
	t.Helper()

	node := &fakeNode{
		results: make(map[string]any),
		errors:  make(map[string]*rpcError),
		calls:   make(map[string][]rpcRequest),
	}

	srv := httptest.NewServer(http.HandlerFunc(node.serve))
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return node, client
}

func (n *fakeNode) set(method string, result any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results[method] = result
}

func (n *fakeNode) fail(method string, e *rpcError) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors[method] = e
}

func (n *fakeNode) callCount(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls[method])
}

func (n *fakeNode) firstParam(t *testing.T, method string, out any) {
	t.Helper()

	n.mu.Lock()
	defer n.mu.Unlock()

	require.NotEmpty(t, n.calls[method], "no %s call recorded", method)
	require.NoError(t, json.Unmarshal(n.calls[method][0].Params[0], out))
}

func (n *fakeNode) serve(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	n.calls[req.Method] = append(n.calls[req.Method], req)
	result, hasResult := n.results[req.Method]
	rpcErr := n.errors[req.Method]
	n.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	switch {
	case rpcErr != nil:
		resp["error"] = rpcErr
	case hasResult:
		resp["result"] = result
	default:
		resp["result"] = nil
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func TestClient_LatestBlock(t *testing.T) {
	node, client := newFakeNode(t)
	node.set("eth_blockNumber", "0x1f4")

	latest, err := client.LatestBlock(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(500), latest)
}

func TestClient_LatestBlock_RPCErrorIsNodeUnavailable(t *testing.T) {
	node, client := newFakeNode(t)
	node.fail("eth_blockNumber", &rpcError{Code: -32000, Message: "503 service unavailable"})

	_, err := client.LatestBlock(context.Background())
	require.ErrorIs(t, err, pkgrpc.ErrNodeUnavailable)
}

func TestClient_NodeDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewClient(context.Background(), url, nil)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.LatestBlock(context.Background())
	require.ErrorIs(t, err, pkgrpc.ErrNodeUnavailable)
}

func TestClient_CancelledContextIsNotWrapped(t *testing.T) {
	node, client := newFakeNode(t)
	node.set("eth_blockNumber", "0x1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.LatestBlock(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, pkgrpc.ErrNodeUnavailable)
}

func TestClient_GetLogs(t *testing.T) {
	node, client := newFakeNode(t)

	address := common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")
	topic := common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111")
	txHash := common.HexToHash("0xdead")

	node.set("eth_getLogs", []map[string]any{
		{
			"address":          address.Hex(),
			"topics":           []string{topic.Hex()},
			"data":             "0x",
			"blockNumber":      "0x3",
			"blockHash":        common.HexToHash("0xb3").Hex(),
			"transactionHash":  txHash.Hex(),
			"transactionIndex": "0x0",
			"logIndex":         "0x1",
			"removed":          false,
		},
	})

	logs, err := client.GetLogs(context.Background(), address, topic, 1, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, uint64(3), logs[0].BlockNumber)
	require.Equal(t, uint(1), logs[0].Index)
	require.Equal(t, txHash, logs[0].TxHash)

	require.Equal(t, 1, node.callCount("eth_getLogs"))
	var filter map[string]any
	node.firstParam(t, "eth_getLogs", &filter)
	require.Equal(t, "0x1", filter["fromBlock"])
	require.Equal(t, "0xa", filter["toBlock"])
}

func TestClient_GetLogs_InvalidRange(t *testing.T) {
	node, client := newFakeNode(t)

	_, err := client.GetLogs(context.Background(), common.Address{}, common.Hash{}, 10, 9)
	require.ErrorIs(t, err, pkgrpc.ErrInvalidRange)
	require.Zero(t, node.callCount("eth_getLogs"), "invalid range must not reach the node")
}

func TestClient_GetLogs_TooManyResults(t *testing.T) {
	node, client := newFakeNode(t)
	node.fail("eth_getLogs", &rpcError{
		Code:    -32005,
		Message: "query returned more than 10000 results",
		Data:    "Query returned more than 10000 results. Try with this block range [0x64, 0x96].",
	})

	_, err := client.GetLogs(context.Background(), common.Address{}, common.Hash{}, 100, 500)

	var rangeErr *pkgrpc.RangeTooLargeError
	require.ErrorAs(t, err, &rangeErr)
	require.Equal(t, uint64(100), rangeErr.FromBlock)
	require.Equal(t, uint64(500), rangeErr.ToBlock)
	require.Equal(t, uint64(150), rangeErr.SuggestedTo)
	require.ErrorIs(t, err, pkgrpc.ErrNodeUnavailable)
}

func TestClient_BlockHash(t *testing.T) {
	node, client := newFakeNode(t)
	hash := common.HexToHash("0xabc123")
	node.set("eth_getBlockByNumber", map[string]any{"hash": hash.Hex(), "number": "0x5"})

	got, err := client.BlockHash(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, hash, got)

	var blockArg string
	node.firstParam(t, "eth_getBlockByNumber", &blockArg)
	require.Equal(t, "0x5", blockArg)
}

func TestClient_BlockHash_NotFound(t *testing.T) {
	_, client := newFakeNode(t)

	_, err := client.BlockHash(context.Background(), 5)
	require.ErrorIs(t, err, pkgrpc.ErrNotFound)
}

func TestClient_GetTransactionReceipt_NotFound(t *testing.T) {
	_, client := newFakeNode(t)

	_, err := client.GetTransactionReceipt(context.Background(), common.HexToHash("0x01"))
	require.ErrorIs(t, err, pkgrpc.ErrNotFound)
	require.False(t, errors.Is(err, pkgrpc.ErrNodeUnavailable))
}

func TestClient_ChainID(t *testing.T) {
	node, client := newFakeNode(t)
	node.set("eth_chainId", "0x13882")

	id, err := client.ChainID(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(80002), id.Uint64())
}

func TestToBlockNumArg(t *testing.T) {
	tests := []struct {
		blockNum uint64
		want     string
	}{
		{blockNum: 0, want: "0x0"},
		{blockNum: 100, want: "0x64"},
		{blockNum: 18000000, want: "0x112a880"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, toBlockNumArg(tt.blockNum))
		})
	}
}

func TestToFilterArg(t *testing.T) {
	addr1 := common.HexToAddress("0x1111111111111111111111111111111111111111")
	addr2 := common.HexToAddress("0x2222222222222222222222222222222222222222")
	topic := common.HexToHash("0x01")
	blockHash := common.HexToHash("0xabcdef")

	single, ok := toFilterArg(ethereum.FilterQuery{
		FromBlock: big.NewInt(1),
		ToBlock:   big.NewInt(10),
		Addresses: []common.Address{addr1},
		Topics:    [][]common.Hash{{topic}},
	}).(map[string]any)
	require.True(t, ok)
	require.Equal(t, "0x1", single["fromBlock"])
	require.Equal(t, "0xa", single["toBlock"])
	require.Equal(t, addr1, single["address"])
	require.Equal(t, [][]common.Hash{{topic}}, single["topics"])

	multi, ok := toFilterArg(ethereum.FilterQuery{Addresses: []common.Address{addr1, addr2}}).(map[string]any)
	require.True(t, ok)
	require.Equal(t, []common.Address{addr1, addr2}, multi["address"])

	byHash, ok := toFilterArg(ethereum.FilterQuery{
		BlockHash: &blockHash,
		FromBlock: big.NewInt(100),
	}).(map[string]any)
	require.True(t, ok)
	require.Equal(t, blockHash, byHash["blockHash"])
	require.NotContains(t, byHash, "fromBlock")
}

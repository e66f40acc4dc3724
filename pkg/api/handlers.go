package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/DonationIndexor/internal/logger"
	"github.com/goran-ethernal/DonationIndexor/pkg/rpc"
	"github.com/goran-ethernal/DonationIndexor/pkg/store"
)

const (
	statusOK       = "ok"
	statusDegraded = "degraded"

	maxLoginBodySize = 1 << 12
)

// IndexerStatus exposes the polling loop to the health endpoint.
type IndexerStatus interface {
	StateName() string
	LastProcessedBlock() (uint64, bool)
}

// SubscriberCounter reports the number of live subscribers.
type SubscriberCounter interface {
	Count() int
}

// Handler handles HTTP requests for the API.
type Handler struct {
	chain       rpc.ChainClient
	store       store.Gateway
	indexer     IndexerStatus
	subscribers SubscriberCounter
	tokens      *TokenIssuer
	contract    common.Address
	contracts   map[string]string
	log         *logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(deps Dependencies, tokens *TokenIssuer, log *logger.Logger) *Handler {
	contracts := make(map[string]string, len(deps.Contracts))
	for name, addr := range deps.Contracts {
		contracts[name] = common.HexToAddress(addr).Hex()
	}

	return &Handler{
		chain:       deps.Chain,
		store:       deps.Store,
		indexer:     deps.Indexer,
		subscribers: deps.Subscribers,
		tokens:      tokens,
		contract:    deps.Contract,
		contracts:   contracts,
		log:         log,
	}
}

// Health returns the health status of the indexer.
// @Summary Health check
// @Description Indexer state, last processed block, live subscribers and total indexed donations.
// @Description Reports "degraded" when the store is unreachable.
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    statusOK,
		Timestamp: time.Now().UTC(),
	}

	if h.indexer != nil {
		resp.IndexerState = h.indexer.StateName()
		if block, ok := h.indexer.LastProcessedBlock(); ok {
			resp.LastProcessedBlock = &block
		}
	}
	if h.subscribers != nil {
		resp.Subscribers = h.subscribers.Count()
	}

	if err := h.store.Ping(r.Context()); err != nil {
		h.log.Warnf("health check: store unreachable: %v", err)
		resp.Status = statusDegraded
		resp.Error = "store unreachable"
		respondJSON(w, http.StatusOK, resp)
		return
	}

	total, err := h.store.Count(r.Context(), store.Filter{})
	if err != nil {
		h.log.Warnf("health check: failed to count donations: %v", err)
		resp.Status = statusDegraded
		resp.Error = "failed to count donations"
	} else {
		resp.TotalDonations = &total
	}

	respondJSON(w, http.StatusOK, resp)
}

// Login issues an access token for a wallet address.
// @Summary Wallet login
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Wallet address"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} ErrorResponse "Invalid wallet address"
// @Failure 503 {object} ErrorResponse "Authentication not configured"
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBodySize)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !common.IsHexAddress(req.WalletAddress) {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid wallet address %q", req.WalletAddress))
		return
	}

	token, expiresAt, err := h.tokens.Issue(common.HexToAddress(req.WalletAddress))
	if err != nil {
		if errors.Is(err, ErrAuthDisabled) {
			respondError(w, http.StatusServiceUnavailable, "authentication is not configured")
			return
		}
		h.log.Errorf("failed to issue token: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	respondJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt.UTC(),
	})
}

// Verify checks an access token.
// @Summary Verify token
// @Tags Auth
// @Produce json
// @Param token query string false "Token, defaults to the Authorization bearer header"
// @Success 200 {object} VerifyResponse
// @Router /api/v1/auth/verify [get]
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	token := tokenFromRequest(r)
	if token == "" {
		respondJSON(w, http.StatusOK, VerifyResponse{Valid: false})
		return
	}

	address, err := h.tokens.Verify(token)
	if err != nil {
		h.log.Debugf("token verification failed: %v", err)
		respondJSON(w, http.StatusOK, VerifyResponse{Valid: false})
		return
	}

	respondJSON(w, http.StatusOK, VerifyResponse{Valid: true, Address: address.Hex()})
}

// ContractAddresses lists the configured contract addresses.
// @Summary Contract addresses
// @Tags Blockchain
// @Produce json
// @Success 200 {object} ContractAddressesResponse
// @Router /api/v1/blockchain/contracts/addresses [get]
func (h *Handler) ContractAddresses(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ContractAddressesResponse{
		Donation:  h.contract.Hex(),
		Contracts: h.contracts,
	})
}

// Transaction returns the outcome of a mined transaction.
// @Summary Transaction status
// @Tags Blockchain
// @Produce json
// @Param txHash path string true "Transaction hash"
// @Success 200 {object} TransactionResponse
// @Failure 400 {object} ErrorResponse "Malformed hash"
// @Failure 404 {object} ErrorResponse "Transaction not found"
// @Failure 503 {object} ErrorResponse "Chain node unavailable"
// @Router /api/v1/blockchain/transaction/{txHash} [get]
func (h *Handler) Transaction(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("txHash")
	b, err := hexutil.Decode(raw)
	if err != nil || len(b) != common.HashLength {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid transaction hash %q", raw))
		return
	}
	txHash := common.BytesToHash(b)

	receipt, err := h.chain.GetTransactionReceipt(r.Context(), txHash)
	switch {
	case errors.Is(err, rpc.ErrNotFound):
		respondError(w, http.StatusNotFound, fmt.Sprintf("transaction %s not found", txHash.Hex()))
		return
	case err != nil:
		h.log.Warnf("failed to fetch receipt %s: %v", txHash.Hex(), err)
		respondError(w, http.StatusServiceUnavailable, "chain node unavailable")
		return
	}

	status := "failed"
	if receipt.Status == types.ReceiptStatusSuccessful {
		status = "success"
	}

	resp := TransactionResponse{
		TxHash:    txHash.Hex(),
		Status:    status,
		BlockHash: receipt.BlockHash.Hex(),
		GasUsed:   receipt.GasUsed,
	}
	if receipt.BlockNumber != nil {
		resp.BlockNumber = receipt.BlockNumber.Uint64()
	}

	respondJSON(w, http.StatusOK, resp)
}

// LatestBlock returns the chain head.
// @Summary Latest block
// @Tags Blockchain
// @Produce json
// @Success 200 {object} LatestBlockResponse
// @Failure 503 {object} ErrorResponse "Chain node unavailable"
// @Router /api/v1/blockchain/block/latest [get]
func (h *Handler) LatestBlock(w http.ResponseWriter, r *http.Request) {
	latest, err := h.chain.LatestBlock(r.Context())
	if err != nil {
		h.log.Warnf("failed to fetch latest block: %v", err)
		respondError(w, http.StatusServiceUnavailable, "chain node unavailable")
		return
	}

	respondJSON(w, http.StatusOK, LatestBlockResponse{BlockNumber: latest})
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")

	// encode first so a failure can still change the status
	encoded, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)

	if _, err := w.Write(encoded); err != nil {
		// headers already sent
		return
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	response := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}
	respondJSON(w, status, response)
}

package api

import "time"

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status             string    `json:"status"`
	Timestamp          time.Time `json:"timestamp"`
	IndexerState       string    `json:"indexer_state"`
	LastProcessedBlock *uint64   `json:"last_processed_block"`
	Subscribers        int       `json:"subscribers"`
	TotalDonations     *int64    `json:"total_donations"`
	Error              string    `json:"error,omitempty"`
}

// LoginRequest is the body of a wallet login.
type LoginRequest struct {
	WalletAddress string `json:"wallet_address"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// VerifyResponse reports whether a token is valid and for which wallet.
type VerifyResponse struct {
	Valid   bool   `json:"valid"`
	Address string `json:"address,omitempty"`
}

// ContractAddressesResponse lists the contracts known to the indexer.
type ContractAddressesResponse struct {
	Donation  string            `json:"donation"`
	Contracts map[string]string `json:"contracts"`
}

// TransactionResponse is the outcome of a mined transaction.
type TransactionResponse struct {
	TxHash      string `json:"tx_hash"`
	Status      string `json:"status"`
	BlockNumber uint64 `json:"block_number"`
	BlockHash   string `json:"block_hash"`
	GasUsed     uint64 `json:"gas_used"`
}

// LatestBlockResponse reports the chain head.
type LatestBlockResponse struct {
	BlockNumber uint64 `json:"block_number"`
}

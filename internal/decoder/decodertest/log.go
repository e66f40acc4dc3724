// Package decodertest builds DonationReceived logs for tests.
package decodertest

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/DonationIndexor/internal/decoder"
	"github.com/goran-ethernal/DonationIndexor/pkg/config"
	"github.com/stretchr/testify/require"
)

// Donation describes the log to build. Zero hashes are derived from the position.
type Donation struct {
	Contract    common.Address
	Donor       common.Address
	Amount      *big.Int
	Cause       string
	DonationID  uint64
	Timestamp   uint64
	BlockNumber uint64
	BlockHash   common.Hash
	TxHash      common.Hash
	LogIndex    uint
}

// DefaultSpec returns the EventSpec of the default DonationReceived event.
func DefaultSpec(t testing.TB) *decoder.EventSpec {
	t.Helper()

	spec, err := decoder.NewEventSpec(config.DefaultEventSignature)
	require.NoError(t, err)

	return spec
}

// BlockHash is the deterministic hash used for block n when none is given.
func BlockHash(n uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(0xb10c0000 + n))
}

// NewLog ABI-encodes d as a log of the default donation event.
func NewLog(t testing.TB, spec *decoder.EventSpec, d Donation) types.Log {
	t.Helper()

	amount := d.Amount
	if amount == nil {
		amount = big.NewInt(0)
	}

	data, err := spec.Event.Inputs.NonIndexed().Pack(
		amount,
		d.Cause,
		new(big.Int).SetUint64(d.DonationID),
		new(big.Int).SetUint64(d.Timestamp),
	)
	require.NoError(t, err)

	blockHash := d.BlockHash
	if blockHash == (common.Hash{}) {
		blockHash = BlockHash(d.BlockNumber)
	}

	txHash := d.TxHash
	if txHash == (common.Hash{}) {
		txHash = common.BigToHash(new(big.Int).SetUint64(d.BlockNumber<<16 | uint64(d.LogIndex)))
	}

	return types.Log{
		Address:     d.Contract,
		Topics:      []common.Hash{spec.Topic(), common.BytesToHash(d.Donor.Bytes())},
		Data:        data,
		BlockNumber: d.BlockNumber,
		BlockHash:   blockHash,
		TxHash:      txHash,
		Index:       d.LogIndex,
	}
}

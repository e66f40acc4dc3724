// Package decoder turns raw DonationReceived logs into donation events.
// Decoding is pure: the same log always yields the same event and nothing is cached.
package decoder

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/DonationIndexor/pkg/donation"
)

// ErrDecode matches every *DecodeError.
var ErrDecode = errors.New("decode error")

// DecodeError describes a log that could not be turned into a donation event.
type DecodeError struct {
	TxHash   common.Hash
	LogIndex uint
	Reason   string
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode log %s:%d: %s: %v", e.TxHash.Hex(), e.LogIndex, e.Reason, e.Err)
	}
	return fmt.Sprintf("decode log %s:%d: %s", e.TxHash.Hex(), e.LogIndex, e.Reason)
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode converts log into a donation event according to spec.
// IndexedAt is left zero, the caller stamps it when the event is processed.
func Decode(log types.Log, spec *EventSpec) (*donation.Event, error) {
	fail := func(reason string, err error) (*donation.Event, error) {
		return nil, &DecodeError{TxHash: log.TxHash, LogIndex: log.Index, Reason: reason, Err: err}
	}

	if log.Removed {
		return fail("log removed by reorg", nil)
	}

	if len(log.Topics) == 0 || log.Topics[0] != spec.Topic() {
		return fail("topic mismatch", nil)
	}

	if len(log.Topics)-1 != len(spec.indexed) {
		return fail(fmt.Sprintf("expected %d indexed topics, got %d", len(spec.indexed), len(log.Topics)-1), nil)
	}

	values := make(map[string]any, len(spec.Event.Inputs))
	if err := abi.ParseTopicsIntoMap(values, spec.indexed, log.Topics[1:]); err != nil {
		return fail("parse topics", err)
	}

	if err := spec.Event.Inputs.NonIndexed().UnpackIntoMap(values, log.Data); err != nil {
		return fail("unpack data", err)
	}

	donor, ok := values[ArgDonor].(common.Address)
	if !ok {
		return fail("donor is not an address", nil)
	}

	cause, ok := values[ArgCause].(string)
	if !ok {
		return fail("cause is not a string", nil)
	}

	amount, err := uintArg(values, ArgAmount)
	if err != nil {
		return fail("amount", err)
	}

	donationID, err := uintArg(values, ArgDonationID)
	if err != nil {
		return fail("donation id", err)
	}

	timestamp, err := uintArg(values, ArgTimestamp)
	if err != nil {
		return fail("timestamp", err)
	}

	if !timestamp.IsUint64() {
		return fail("timestamp overflows uint64", nil)
	}

	return &donation.Event{
		Donor:          donor,
		Amount:         amount,
		Cause:          cause,
		DonationID:     donationID,
		TxHash:         log.TxHash,
		LogIndex:       log.Index,
		BlockNumber:    log.BlockNumber,
		BlockHash:      log.BlockHash,
		ChainTimestamp: timestamp.Uint64(),
	}, nil
}

// uintArg converts an unpacked unsigned integer of any width into a big.Int.
// Missing optional arguments decode to zero.
func uintArg(values map[string]any, name string) (*big.Int, error) {
	raw, ok := values[name]
	if !ok {
		return new(big.Int), nil
	}

	switch v := raw.(type) {
	case *big.Int:
		if v.Sign() < 0 {
			return nil, fmt.Errorf("negative value %s", v)
		}
		return new(big.Int).Set(v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unexpected type %T", raw)
	}
}

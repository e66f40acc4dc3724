package rpc

import (
	"errors"
	"fmt"
)

var (
	// ErrNodeUnavailable marks connection, timeout and RPC failures. It is transient.
	ErrNodeUnavailable = errors.New("node unavailable")

	// ErrInvalidRange is returned when fromBlock > toBlock.
	ErrInvalidRange = errors.New("invalid block range")

	// ErrNotFound is returned when the requested transaction or block does not exist.
	ErrNotFound = errors.New("not found")
)

// RangeTooLargeError is returned when the node refuses a log query because the
// result set is too big. It wraps ErrNodeUnavailable.
type RangeTooLargeError struct {
	FromBlock uint64
	ToBlock   uint64

	// SuggestedTo is the upper bound proposed by the node, 0 when none was given.
	SuggestedTo uint64
	Err         error
}

func (e *RangeTooLargeError) Error() string {
	if e.SuggestedTo > 0 {
		return fmt.Sprintf("log range [%d, %d] too large, node suggests up to %d: %v",
			e.FromBlock, e.ToBlock, e.SuggestedTo, e.Err)
	}
	return fmt.Sprintf("log range [%d, %d] too large: %v", e.FromBlock, e.ToBlock, e.Err)
}

func (e *RangeTooLargeError) Unwrap() []error {
	return []error{ErrNodeUnavailable, e.Err}
}

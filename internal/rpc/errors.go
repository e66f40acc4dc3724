package rpc

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/goran-ethernal/DonationIndexor/internal/common"
	pkgrpc "github.com/goran-ethernal/DonationIndexor/pkg/rpc"
)

var (
	// refusals of oversized eth_getLogs queries as worded by the common providers
	rangeTooLargeRe = regexp.MustCompile(`(?i)query returned more than \d+ results|` +
		`block range (is )?too (large|wide)|exceeds? (the )?max(imum)? block range|log response size exceeded`)

	// the range some providers propose instead, e.g. "[0x7dfd25, 0x7e0fcc]"
	suggestedRangeRe = regexp.MustCompile(`\[(0x[0-9a-fA-F]+),\s*(0x[0-9a-fA-F]+)\]`)
)

// asRangeTooLarge turns a node refusal of the log query [fromBlock, toBlock] into a
// *pkgrpc.RangeTooLargeError. It returns nil for every other error. A suggested upper
// bound is kept only when it actually shrinks the range.
func asRangeTooLarge(err error, fromBlock, toBlock uint64) *pkgrpc.RangeTooLargeError {
	if err == nil {
		return nil
	}

	detail := err.Error()

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) && dataErr.ErrorData() != nil {
		detail = fmt.Sprintf("%s: %v", detail, dataErr.ErrorData())
	}

	if !rangeTooLargeRe.MatchString(detail) {
		return nil
	}

	rangeErr := &pkgrpc.RangeTooLargeError{FromBlock: fromBlock, ToBlock: toBlock, Err: err}
	if to, ok := suggestedUpperBound(detail); ok && to >= fromBlock && to < toBlock {
		rangeErr.SuggestedTo = to
	}

	return rangeErr
}

// suggestedUpperBound returns the upper bound of the first hex range found in detail.
func suggestedUpperBound(detail string) (uint64, bool) {
	matches := suggestedRangeRe.FindStringSubmatch(detail)
	if matches == nil {
		return 0, false
	}

	if _, err := common.ParseUint64orHex(&matches[1]); err != nil {
		return 0, false
	}

	to, err := common.ParseUint64orHex(&matches[2])
	if err != nil {
		return 0, false
	}

	return to, true
}

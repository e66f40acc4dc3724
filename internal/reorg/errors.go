package reorg

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ErrReorgDetected matches every *ReorgDetectedError.
var ErrReorgDetected = errors.New("reorg detected")

// ReorgDetectedError is returned when a tracked block is no longer canonical.
type ReorgDetectedError struct {
	// FirstReorgBlock is the lowest block whose stored hash can no longer be trusted
	FirstReorgBlock uint64
	// CommonAncestor is the newest tracked block that is still canonical
	CommonAncestor uint64
	// AncestorHash is zero when no tracked block matched
	AncestorHash common.Hash
	Details      string
}

func (e *ReorgDetectedError) Error() string {
	return fmt.Sprintf("reorg detected at block %d: %s", e.FirstReorgBlock, e.Details)
}

func (e *ReorgDetectedError) Is(target error) bool {
	return target == ErrReorgDetected
}

// NewReorgError creates a new ReorgDetectedError.
func NewReorgError(firstReorgBlock, commonAncestor uint64, ancestorHash common.Hash, details string) error {
	return &ReorgDetectedError{
		FirstReorgBlock: firstReorgBlock,
		CommonAncestor:  commonAncestor,
		AncestorHash:    ancestorHash,
		Details:         details,
	}
}

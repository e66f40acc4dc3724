// Package store defines the persistence gateway used by the poller and the read side.
package store

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/goran-ethernal/DonationIndexor/pkg/donation"
)

var (
	// ErrUnavailable marks transient storage failures. Callers keep their cursor and retry.
	ErrUnavailable = errors.New("persistence unavailable")

	// ErrCursorNotFound is returned by GetCursor before the first commit.
	ErrCursorNotFound = errors.New("cursor not found")

	// ErrInvalidField is returned for lookups on a field that is not indexed.
	ErrInvalidField = errors.New("invalid lookup field")
)

// DefaultLimit caps queries that pass a non-positive limit.
const DefaultLimit = 100

// InsertResult reports the outcome of InsertIfAbsent.
type InsertResult int

const (
	Inserted InsertResult = iota
	Duplicate
)

func (r InsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Duplicate:
		return "duplicate"
	default:
		return fmt.Sprintf("InsertResult(%d)", int(r))
	}
}

// Field is an indexed column usable with FindByField.
type Field string

const (
	FieldDonor  Field = "donor"
	FieldCause  Field = "cause"
	FieldTxHash Field = "tx_hash"
)

// NormalizeValue brings a lookup value into the stored form of the field.
// Donors and transaction hashes are compared in their canonical hex rendering.
func (f Field) NormalizeValue(value string) (string, error) {
	switch f {
	case FieldDonor:
		if !common.IsHexAddress(value) {
			return "", fmt.Errorf("invalid donor address %q", value)
		}
		return common.HexToAddress(value).Hex(), nil
	case FieldTxHash:
		b, err := hexutil.Decode(value)
		if err != nil || len(b) != common.HashLength {
			return "", fmt.Errorf("invalid transaction hash %q", value)
		}
		return common.BytesToHash(b).Hex(), nil
	case FieldCause:
		return value, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidField, string(f))
	}
}

// Filter narrows Find, Count and SumAmount. Zero values do not filter.
type Filter struct {
	Donor     *common.Address
	Cause     string
	FromBlock uint64
	ToBlock   uint64
	FromTime  uint64
	ToTime    uint64
}

// Cursor is the durable progress marker of the poller.
type Cursor struct {
	LastProcessedBlock uint64
	BlockHash          common.Hash
	UpdatedAt          time.Time
}

// BlockRef is a tracked (number, hash) pair used for re-org detection.
type BlockRef struct {
	Number uint64
	Hash   common.Hash
}

// Gateway is the durable event store.
type Gateway interface {
	// InsertIfAbsent stores ev unless an event with the same (txHash, logIndex) exists.
	InsertIfAbsent(ctx context.Context, ev *donation.Event) (InsertResult, error)
	// FindByField returns events whose field equals value, ordered by (blockNumber, logIndex).
	FindByField(ctx context.Context, field Field, value string, limit int) ([]*donation.Event, error)
	Find(ctx context.Context, filter Filter, limit, offset int) ([]*donation.Event, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	// SumAmount returns the exact sum of matching amounts in base units.
	SumAmount(ctx context.Context, filter Filter) (*big.Int, error)

	GetCursor(ctx context.Context) (*Cursor, error)
	SetCursor(ctx context.Context, block uint64, hash common.Hash) error

	Ping(ctx context.Context) error
	Close() error
}

// BlockHashStore keeps recent block hashes for re-org detection.
type BlockHashStore interface {
	RecordBlockHash(ctx context.Context, block uint64, hash common.Hash) error
	// RecentBlockHashes returns up to limit tracked blocks, newest first.
	RecentBlockHashes(ctx context.Context, limit int) ([]BlockRef, error)
	// PruneBlockHashes keeps only the newest keep entries.
	PruneBlockHashes(ctx context.Context, keep int) error
	// RollbackTo atomically rewinds the cursor to block and deletes everything above it.
	RollbackTo(ctx context.Context, block uint64, hash common.Hash) error
}

// Store is implemented by every backend.
type Store interface {
	Gateway
	BlockHashStore
}

// Unavailable wraps err as a transient persistence failure.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

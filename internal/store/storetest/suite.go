// Package storetest holds the behaviour tests every store.Store backend must pass.
package storetest

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/DonationIndexor/pkg/donation"
	"github.com/goran-ethernal/DonationIndexor/pkg/store"
	"github.com/stretchr/testify/require"
)

var (
	Alice = common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	Bob   = common.HexToAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
)

// NewEvent returns a fully populated event at (block, logIndex).
func NewEvent(block uint64, logIndex uint, donor common.Address, cause string, amount int64) *donation.Event {
	return &donation.Event{
		Donor:          donor,
		Amount:         big.NewInt(amount),
		Cause:          cause,
		DonationID:     new(big.Int).SetUint64(block*100 + uint64(logIndex)),
		TxHash:         common.BigToHash(new(big.Int).SetUint64(block<<16 | uint64(logIndex))),
		LogIndex:       logIndex,
		BlockNumber:    block,
		BlockHash:      common.BigToHash(new(big.Int).SetUint64(block + 1_000_000)),
		ChainTimestamp: 1_700_000_000 + block,
		IndexedAt:      time.UnixMilli(1_700_000_000_000 + int64(block)).UTC(),
	}
}

// Run executes the backend behaviour tests. newStore must return an empty, migrated store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()

	t.Run("InsertIfAbsent", func(t *testing.T) { testInsertIfAbsent(t, newStore(t)) })
	t.Run("FindByField", func(t *testing.T) { testFindByField(t, newStore(t)) })
	t.Run("FindFilterCountSum", func(t *testing.T) { testFindFilterCountSum(t, newStore(t)) })
	t.Run("Cursor", func(t *testing.T) { testCursor(t, newStore(t)) })
	t.Run("BlockHashes", func(t *testing.T) { testBlockHashes(t, newStore(t)) })
	t.Run("RollbackTo", func(t *testing.T) { testRollbackTo(t, newStore(t)) })
}

func testInsertIfAbsent(t *testing.T, s store.Store) {
	ctx := context.Background()
	ev := NewEvent(10, 1, Alice, "water", 500)

	res, err := s.InsertIfAbsent(ctx, ev)
	require.NoError(t, err)
	require.Equal(t, store.Inserted, res)

	// same key with different content is still a duplicate
	dup := NewEvent(10, 1, Bob, "food", 1)
	res, err = s.InsertIfAbsent(ctx, dup)
	require.NoError(t, err)
	require.Equal(t, store.Duplicate, res)

	n, err := s.Count(ctx, store.Filter{})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	got, err := s.FindByField(ctx, store.FieldTxHash, ev.TxHash.Hex(), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, ev, got[0])
}

func testFindByField(t *testing.T, s store.Store) {
	ctx := context.Background()

	for _, ev := range []*donation.Event{
		NewEvent(10, 1, Alice, "water", 1),
		NewEvent(9, 0, Alice, "food", 2),
		NewEvent(10, 0, Bob, "water", 3),
	} {
		_, err := s.InsertIfAbsent(ctx, ev)
		require.NoError(t, err)
	}

	byDonor, err := s.FindByField(ctx, store.FieldDonor, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", 0)
	require.NoError(t, err)
	require.Len(t, byDonor, 2)
	require.Equal(t, uint64(9), byDonor[0].BlockNumber)
	require.Equal(t, uint64(10), byDonor[1].BlockNumber)

	byCause, err := s.FindByField(ctx, store.FieldCause, "water", 0)
	require.NoError(t, err)
	require.Len(t, byCause, 2)
	require.Equal(t, uint(0), byCause[0].LogIndex)
	require.Equal(t, uint(1), byCause[1].LogIndex)

	limited, err := s.FindByField(ctx, store.FieldCause, "water", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	none, err := s.FindByField(ctx, store.FieldCause, "Water", 0)
	require.NoError(t, err)
	require.Empty(t, none)

	_, err = s.FindByField(ctx, store.FieldDonor, "not-an-address", 0)
	require.Error(t, err)
}

func testFindFilterCountSum(t *testing.T, s store.Store) {
	ctx := context.Background()

	huge, ok := new(big.Int).SetString("100000000000000000000000000000", 10)
	require.True(t, ok)

	big1 := NewEvent(5, 0, Alice, "water", 0)
	big1.Amount = new(big.Int).Set(huge)
	big2 := NewEvent(6, 0, Alice, "water", 0)
	big2.Amount = new(big.Int).Set(huge)

	for _, ev := range []*donation.Event{big1, big2, NewEvent(7, 0, Bob, "water", 7), NewEvent(8, 0, Bob, "food", 8)} {
		_, err := s.InsertIfAbsent(ctx, ev)
		require.NoError(t, err)
	}

	alice := Alice
	sum, err := s.SumAmount(ctx, store.Filter{Donor: &alice})
	require.NoError(t, err)
	require.Equal(t, new(big.Int).Mul(huge, big.NewInt(2)).String(), sum.String())

	sum, err = s.SumAmount(ctx, store.Filter{Cause: "nothing"})
	require.NoError(t, err)
	require.Zero(t, sum.Sign())

	n, err := s.Count(ctx, store.Filter{Cause: "water"})
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	ranged, err := s.Find(ctx, store.Filter{FromBlock: 6, ToBlock: 7}, 0, 0)
	require.NoError(t, err)
	require.Len(t, ranged, 2)
	require.Equal(t, uint64(6), ranged[0].BlockNumber)
	require.Equal(t, uint64(7), ranged[1].BlockNumber)

	paged, err := s.Find(ctx, store.Filter{}, 2, 2)
	require.NoError(t, err)
	require.Len(t, paged, 2)
	require.Equal(t, uint64(7), paged[0].BlockNumber)

	byTime, err := s.Find(ctx, store.Filter{FromTime: big2.ChainTimestamp}, 0, 0)
	require.NoError(t, err)
	require.Len(t, byTime, 3)
}

func testCursor(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.GetCursor(ctx)
	require.ErrorIs(t, err, store.ErrCursorNotFound)

	require.NoError(t, s.SetCursor(ctx, 5, common.Hash{}))
	c, err := s.GetCursor(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(5), c.LastProcessedBlock)
	require.Equal(t, common.Hash{}, c.BlockHash)
	require.False(t, c.UpdatedAt.IsZero())

	hash := common.HexToHash("0xabc")
	require.NoError(t, s.SetCursor(ctx, 9, hash))
	c, err = s.GetCursor(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(9), c.LastProcessedBlock)
	require.Equal(t, hash, c.BlockHash)
}

func testBlockHashes(t *testing.T, s store.Store) {
	ctx := context.Background()

	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, s.RecordBlockHash(ctx, i, common.BigToHash(new(big.Int).SetUint64(i))))
	}
	// re-recording overwrites
	require.NoError(t, s.RecordBlockHash(ctx, 5, common.HexToHash("0x55")))

	refs, err := s.RecentBlockHashes(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, []store.BlockRef{
		{Number: 5, Hash: common.HexToHash("0x55")},
		{Number: 4, Hash: common.BigToHash(big.NewInt(4))},
		{Number: 3, Hash: common.BigToHash(big.NewInt(3))},
	}, refs)

	require.NoError(t, s.PruneBlockHashes(ctx, 2))
	refs, err = s.RecentBlockHashes(ctx, 10)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	require.Equal(t, uint64(5), refs[0].Number)
	require.Equal(t, uint64(4), refs[1].Number)
}

func testRollbackTo(t *testing.T, s store.Store) {
	ctx := context.Background()

	for b := uint64(1); b <= 6; b++ {
		_, err := s.InsertIfAbsent(ctx, NewEvent(b, 0, Alice, "water", 1))
		require.NoError(t, err)
		require.NoError(t, s.RecordBlockHash(ctx, b, common.BigToHash(new(big.Int).SetUint64(b))))
	}
	require.NoError(t, s.SetCursor(ctx, 6, common.BigToHash(big.NewInt(6))))

	ancestor := common.BigToHash(big.NewInt(3))
	require.NoError(t, s.RollbackTo(ctx, 3, ancestor))

	c, err := s.GetCursor(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(3), c.LastProcessedBlock)
	require.Equal(t, ancestor, c.BlockHash)

	n, err := s.Count(ctx, store.Filter{})
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	refs, err := s.RecentBlockHashes(ctx, 10)
	require.NoError(t, err)
	require.Len(t, refs, 3)
	require.Equal(t, uint64(3), refs[0].Number)

	// the re-derived event is accepted again
	res, err := s.InsertIfAbsent(ctx, NewEvent(4, 0, Alice, "water", 1))
	require.NoError(t, err)
	require.Equal(t, store.Inserted, res)
}

package reorg

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/DonationIndexor/internal/db"
	"github.com/goran-ethernal/DonationIndexor/internal/logger"
	"github.com/goran-ethernal/DonationIndexor/internal/migrations"
	"github.com/goran-ethernal/DonationIndexor/internal/rpc/mocks"
	"github.com/goran-ethernal/DonationIndexor/internal/store/sqlite"
	"github.com/goran-ethernal/DonationIndexor/internal/store/storetest"
	"github.com/goran-ethernal/DonationIndexor/pkg/rpc"
	"github.com/goran-ethernal/DonationIndexor/pkg/store"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func canonical(n uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(n))
}

func forked(n uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(n + 0xf00000))
}

func setupTestDetector(t *testing.T, historySize int) (*Detector, *sqlite.Store, *mocks.ChainClient) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "reorg.db")
	require.NoError(t, migrations.RunMigrations(dbPath))

	sqlDB, err := db.NewSQLiteDB(dbPath)
	require.NoError(t, err)

	s := sqlite.New(sqlDB, logger.NewNopLogger())
	t.Cleanup(func() { s.Close() })

	client := mocks.NewChainClient(t)

	return NewDetector(s, client, historySize, logger.NewNopLogger()), s, client
}

// commitBlocks stores one event, the block hash and the cursor for each block in [from, to].
func commitBlocks(t *testing.T, d *Detector, s *sqlite.Store, from, to uint64) {
	t.Helper()

	ctx := context.Background()
	for b := from; b <= to; b++ {
		ev := storetest.NewEvent(b, 0, storetest.Alice, "water", 1)
		ev.BlockHash = canonical(b)
		_, err := s.InsertIfAbsent(ctx, ev)
		require.NoError(t, err)
		require.NoError(t, d.Record(ctx, b, canonical(b)))
		require.NoError(t, s.SetCursor(ctx, b, canonical(b)))
	}
}

func TestDetector_Check_NoHistory(t *testing.T) {
	d, _, _ := setupTestDetector(t, 8)

	require.NoError(t, d.Check(context.Background()))
}

func TestDetector_Check_NewestCanonical(t *testing.T) {
	d, s, client := setupTestDetector(t, 8)
	commitBlocks(t, d, s, 1, 5)

	client.EXPECT().BlockHash(mock.Anything, uint64(5)).Return(canonical(5), nil).Once()

	require.NoError(t, d.Check(context.Background()))
}

func TestDetector_Check_FindsCommonAncestor(t *testing.T) {
	d, s, client := setupTestDetector(t, 8)
	commitBlocks(t, d, s, 1, 5)

	client.EXPECT().BlockHash(mock.Anything, uint64(5)).Return(forked(5), nil).Once()
	client.EXPECT().BlockHash(mock.Anything, uint64(4)).Return(forked(4), nil).Once()
	client.EXPECT().BlockHash(mock.Anything, uint64(3)).Return(canonical(3), nil).Once()

	err := d.Check(context.Background())
	require.ErrorIs(t, err, ErrReorgDetected)

	var reorgErr *ReorgDetectedError
	require.ErrorAs(t, err, &reorgErr)
	require.Equal(t, uint64(4), reorgErr.FirstReorgBlock)
	require.Equal(t, uint64(3), reorgErr.CommonAncestor)
	require.Equal(t, canonical(3), reorgErr.AncestorHash)

	resume, err := d.Reconcile(context.Background(), reorgErr)
	require.NoError(t, err)
	require.Equal(t, uint64(4), resume)

	cursor, err := s.GetCursor(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(3), cursor.LastProcessedBlock)

	n, err := s.Count(context.Background(), store.Filter{})
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
}

func TestDetector_Check_MissingBlockIsTransient(t *testing.T) {
	tests := []struct {
		name    string
		missing uint64
		expect  func(client *mocks.ChainClient)
	}{
		{
			name:    "newest tracked block missing",
			missing: 3,
		},
		{
			name:    "older tracked block missing",
			missing: 2,
			expect: func(client *mocks.ChainClient) {
				client.EXPECT().BlockHash(mock.Anything, uint64(3)).Return(forked(3), nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			d, s, client := setupTestDetector(t, 8)
			commitBlocks(t, d, s, 1, 3)

			if tt.expect != nil {
				tt.expect(client)
			}
			client.EXPECT().BlockHash(mock.Anything, tt.missing).Return(common.Hash{}, rpc.ErrNotFound).Once()

			err := d.Check(ctx)
			require.ErrorIs(t, err, rpc.ErrNodeUnavailable)
			require.ErrorIs(t, err, rpc.ErrNotFound)

			var reorgErr *ReorgDetectedError
			require.False(t, errors.As(err, &reorgErr))

			refs, err := s.RecentBlockHashes(ctx, 8)
			require.NoError(t, err)
			require.Len(t, refs, 3)
		})
	}
}

func TestDetector_Check_DeeperThanHistory(t *testing.T) {
	d, s, client := setupTestDetector(t, 3)
	commitBlocks(t, d, s, 1, 6)

	// only blocks 4..6 are tracked
	for b := uint64(4); b <= 6; b++ {
		client.EXPECT().BlockHash(mock.Anything, b).Return(forked(b), nil).Once()
	}

	var reorgErr *ReorgDetectedError
	require.ErrorAs(t, d.Check(context.Background()), &reorgErr)
	require.Equal(t, uint64(4), reorgErr.FirstReorgBlock)
	require.Equal(t, uint64(3), reorgErr.CommonAncestor)
	require.Equal(t, common.Hash{}, reorgErr.AncestorHash)

	resume, err := d.Reconcile(context.Background(), reorgErr)
	require.NoError(t, err)
	require.Equal(t, uint64(4), resume)

	cursor, err := s.GetCursor(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(3), cursor.LastProcessedBlock)
}

func TestDetector_Check_NodeError(t *testing.T) {
	d, s, client := setupTestDetector(t, 8)
	commitBlocks(t, d, s, 1, 2)

	client.EXPECT().BlockHash(mock.Anything, uint64(2)).Return(common.Hash{}, rpc.ErrNodeUnavailable).Once()

	err := d.Check(context.Background())
	require.ErrorIs(t, err, rpc.ErrNodeUnavailable)
	require.False(t, errors.Is(err, ErrReorgDetected))
}

func TestDetector_RecordPrunesHistory(t *testing.T) {
	d, s, _ := setupTestDetector(t, 2)
	commitBlocks(t, d, s, 1, 5)

	refs, err := s.RecentBlockHashes(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	require.Equal(t, uint64(5), refs[0].Number)
	require.Equal(t, uint64(4), refs[1].Number)
}

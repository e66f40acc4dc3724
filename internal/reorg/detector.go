package reorg

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	internalcommon "github.com/goran-ethernal/DonationIndexor/internal/common"
	"github.com/goran-ethernal/DonationIndexor/internal/logger"
	"github.com/goran-ethernal/DonationIndexor/internal/metrics"
	"github.com/goran-ethernal/DonationIndexor/pkg/rpc"
	"github.com/goran-ethernal/DonationIndexor/pkg/store"
)

// Detector detects blockchain reorganizations by comparing the hashes of committed
// blocks with the chain.
type Detector struct {
	store       store.BlockHashStore
	client      rpc.ChainClient
	historySize int
	log         *logger.Logger
}

// NewDetector creates a Detector tracking the newest historySize committed blocks.
func NewDetector(blocks store.BlockHashStore, client rpc.ChainClient, historySize int, log *logger.Logger) *Detector {
	metrics.ComponentHealthSet(internalcommon.ComponentReorgDetector, true)

	return &Detector{
		store:       blocks,
		client:      client,
		historySize: historySize,
		log:         log,
	}
}

// Check compares tracked blocks with the chain, newest first. It returns nil when the
// newest tracked block is still canonical and a *ReorgDetectedError otherwise.
// A tracked block the node does not know yet is not a reorg: Check then fails with
// rpc.ErrNodeUnavailable so the caller retries later.
func (d *Detector) Check(ctx context.Context) error {
	refs, err := d.store.RecentBlockHashes(ctx, d.historySize)
	if err != nil {
		return fmt.Errorf("failed to load tracked blocks: %w", err)
	}

	var newestCurrent common.Hash
	for i, ref := range refs {
		current, err := d.client.BlockHash(ctx, ref.Number)
		if errors.Is(err, rpc.ErrNotFound) {
			d.log.Warnf("node lags behind tracked block %d, skipping reorg check", ref.Number)
			return fmt.Errorf("%w: tracked block %d not served by node: %w", rpc.ErrNodeUnavailable, ref.Number, err)
		}
		if err != nil {
			return fmt.Errorf("failed to fetch hash of block %d: %w", ref.Number, err)
		}

		if current == ref.Hash {
			if i == 0 {
				return nil
			}

			d.log.Warnf("reorg detected: common_ancestor=%d first_reorg_block=%d depth=%d",
				ref.Number, ref.Number+1, i)
			ReorgDetectedLog(uint64(i), ref.Number+1)

			return NewReorgError(ref.Number+1, ref.Number, ref.Hash,
				fmt.Sprintf("block %d stored_hash=%s current_hash=%s",
					refs[0].Number, refs[0].Hash.Hex(), newestCurrent.Hex()))
		}

		if i == 0 {
			newestCurrent = current
		}

		d.log.Debugf("tracked block no longer canonical: block=%d stored_hash=%s current_hash=%s",
			ref.Number, ref.Hash.Hex(), current.Hex())
	}

	if len(refs) == 0 {
		return nil
	}

	// no tracked block survived: everything from the oldest tracked block is suspect
	oldest := refs[len(refs)-1].Number
	ancestor := oldest
	if oldest > 0 {
		ancestor = oldest - 1
	}

	d.log.Warnf("reorg deeper than tracked history: oldest_tracked=%d tracked=%d", oldest, len(refs))
	ReorgDetectedLog(uint64(len(refs)), oldest)

	return NewReorgError(oldest, ancestor, common.Hash{},
		fmt.Sprintf("none of the %d tracked blocks is canonical", len(refs)))
}

// Reconcile rolls the store back to the common ancestor of reorgErr and returns the block
// from which indexing must resume.
func (d *Detector) Reconcile(ctx context.Context, reorgErr *ReorgDetectedError) (uint64, error) {
	if err := d.store.RollbackTo(ctx, reorgErr.CommonAncestor, reorgErr.AncestorHash); err != nil {
		metrics.ComponentHealthSet(internalcommon.ComponentReorgDetector, false)
		return 0, fmt.Errorf("failed to roll back to block %d: %w", reorgErr.CommonAncestor, err)
	}

	metrics.ComponentHealthSet(internalcommon.ComponentReorgDetector, true)
	d.log.Infof("reconciled reorg: rolled back to block %d, resuming from block %d",
		reorgErr.CommonAncestor, reorgErr.CommonAncestor+1)

	return reorgErr.CommonAncestor + 1, nil
}

// Record tracks the hash of a committed block and prunes history beyond historySize.
func (d *Detector) Record(ctx context.Context, block uint64, hash common.Hash) error {
	if err := d.store.RecordBlockHash(ctx, block, hash); err != nil {
		return fmt.Errorf("failed to record block %d: %w", block, err)
	}

	if err := d.store.PruneBlockHashes(ctx, d.historySize); err != nil {
		return fmt.Errorf("failed to prune tracked blocks: %w", err)
	}

	return nil
}

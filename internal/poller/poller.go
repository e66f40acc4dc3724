// Package poller runs the indexing loop: it reads confirmed blocks from the chain,
// decodes donation logs, stores them exactly once and fans new ones out to subscribers.
package poller

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goran-ethernal/DonationIndexor/internal/anomaly"
	internalcommon "github.com/goran-ethernal/DonationIndexor/internal/common"
	"github.com/goran-ethernal/DonationIndexor/internal/decoder"
	"github.com/goran-ethernal/DonationIndexor/internal/logger"
	"github.com/goran-ethernal/DonationIndexor/internal/metrics"
	"github.com/goran-ethernal/DonationIndexor/internal/reorg"
	"github.com/goran-ethernal/DonationIndexor/pkg/config"
	"github.com/goran-ethernal/DonationIndexor/pkg/donation"
	"github.com/goran-ethernal/DonationIndexor/pkg/rpc"
	"github.com/goran-ethernal/DonationIndexor/pkg/store"
)

// ErrInconsistentRange is returned when the logs of the top block do not match the
// block hash reported by the node, usually because the head moved between calls.
var ErrInconsistentRange = errors.New("inconsistent block range")

// Broadcaster receives every newly stored event.
type Broadcaster interface {
	Broadcast(v any)
}

// Config holds the loop parameters.
type Config struct {
	Contract          common.Address
	PollingInterval   time.Duration
	ConfirmationDepth uint64
	MaxBlockSpan      uint64
	StartBlock        uint64
	Backoff           config.BackoffConfig
}

// ConfigFrom builds the loop parameters from validated configuration.
func ConfigFrom(chain config.ChainConfig, indexer config.IndexerConfig) Config {
	cfg := Config{
		Contract:          chain.Address(),
		PollingInterval:   indexer.PollingInterval(),
		ConfirmationDepth: indexer.ConfirmationDepth,
		MaxBlockSpan:      indexer.MaxBlockSpanPerQuery,
		StartBlock:        indexer.StartBlock,
	}
	if indexer.Backoff != nil {
		cfg.Backoff = *indexer.Backoff
	}

	return cfg
}

// Poller is the single writer of the event store for one contract.
type Poller struct {
	cfg      Config
	spec     *decoder.EventSpec
	client   rpc.ChainClient
	store    store.Gateway
	detector *reorg.Detector
	hub      Broadcaster
	anomaly  *anomaly.Checker
	log      *logger.Logger

	state         atomic.Int32
	lastProcessed atomic.Int64 // -1 until the first cursor is known

	// owned by the Run goroutine
	loaded   bool
	next     uint64
	failures int
}

// New creates a Poller. detector and hub may be nil.
func New(cfg Config, spec *decoder.EventSpec, client rpc.ChainClient, gateway store.Gateway,
	detector *reorg.Detector, hub Broadcaster, log *logger.Logger) (*Poller, error) {
	if spec == nil {
		return nil, errors.New("event spec is required")
	}
	if client == nil {
		return nil, errors.New("chain client is required")
	}
	if gateway == nil {
		return nil, errors.New("store is required")
	}
	if cfg.MaxBlockSpan == 0 {
		return nil, errors.New("max block span must be positive")
	}

	p := &Poller{
		cfg:      cfg,
		spec:     spec,
		client:   client,
		store:    gateway,
		detector: detector,
		hub:      hub,
		log:      log,
	}
	p.lastProcessed.Store(-1)

	return p, nil
}

// WithAnomalyChecker flags notifications of donations the checker considers suspicious.
// A nil checker disables flagging. It must be called before Run.
func (p *Poller) WithAnomalyChecker(c *anomaly.Checker) *Poller {
	p.anomaly = c
	return p
}

// State returns the current loop phase.
func (p *Poller) State() State {
	return State(p.state.Load())
}

// StateName returns the current loop phase as text.
func (p *Poller) StateName() string {
	return p.State().String()
}

// LastProcessedBlock returns the committed cursor, ok is false before one exists.
func (p *Poller) LastProcessedBlock() (block uint64, ok bool) {
	v := p.lastProcessed.Load()
	if v < 0 {
		return 0, false
	}
	return uint64(v), true
}

func (p *Poller) setState(s State) {
	p.state.Store(int32(s))
}

// Run polls until ctx is cancelled. Failed cycles are retried with exponential backoff
// and never advance the cursor. It returns nil on cancellation.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Infof("poller started: contract=%s topic=%s depth=%d span=%d interval=%s",
		p.cfg.Contract.Hex(), p.spec.Topic().Hex(), p.cfg.ConfirmationDepth, p.cfg.MaxBlockSpan, p.cfg.PollingInterval)
	metrics.ComponentHealthSet(internalcommon.ComponentPoller, true)

	defer func() {
		p.setState(StateIdle)
		p.log.Info("poller stopped")
	}()

	for {
		pending, err := p.RunCycle(ctx)
		if ctx.Err() != nil {
			return nil
		}

		var wait time.Duration
		switch {
		case err != nil:
			p.failures++
			wait = calculateBackoff(p.failures, p.cfg.Backoff)
			p.setState(StateBackingOff)
			cycleInc("error")
			consecutiveFailuresSet(p.failures)
			metrics.ErrorsInc(internalcommon.ComponentPoller, "warn")
			metrics.ComponentHealthSet(internalcommon.ComponentPoller, false)
			p.log.Warnf("polling cycle failed (consecutive_failures=%d, retry_in=%s): %v", p.failures, wait, err)
		case pending:
			// capped range and more confirmed blocks available: catch up without sleeping
			p.resetFailures()
			continue
		default:
			p.resetFailures()
			wait = p.cfg.PollingInterval
		}

		if !sleep(ctx, wait) {
			return nil
		}
	}
}

func (p *Poller) resetFailures() {
	if p.failures > 0 {
		p.log.Infof("polling recovered after %d failed cycles", p.failures)
		metrics.ComponentHealthSet(internalcommon.ComponentPoller, true)
	}
	p.failures = 0
	consecutiveFailuresSet(0)
	cycleInc("success")
	p.setState(StateIdle)
}

// RunCycle performs one polling cycle. pending reports that the range was capped by
// MaxBlockSpan and more confirmed blocks are waiting.
func (p *Poller) RunCycle(ctx context.Context) (pending bool, err error) {
	p.setState(StatePolling)

	if !p.loaded {
		if err := p.loadCursor(ctx); err != nil {
			return false, err
		}
	}

	if p.detector != nil {
		if err := p.detector.Check(ctx); err != nil {
			var reorgErr *reorg.ReorgDetectedError
			if !errors.As(err, &reorgErr) {
				return false, fmt.Errorf("reorg check failed: %w", err)
			}

			p.log.Warnf("reorg detected, rolling back: first_reorg_block=%d common_ancestor=%d details=%s",
				reorgErr.FirstReorgBlock, reorgErr.CommonAncestor, reorgErr.Details)

			next, err := p.detector.Reconcile(ctx, reorgErr)
			if err != nil {
				return false, err
			}
			p.next = next
			p.lastProcessed.Store(int64(reorgErr.CommonAncestor))
			metrics.LastIndexedBlockSet(reorgErr.CommonAncestor)

			return true, nil
		}
	}

	latest, err := p.client.LatestBlock(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get latest block: %w", err)
	}
	metrics.LatestChainBlockSet(latest)

	if latest < p.cfg.ConfirmationDepth || latest-p.cfg.ConfirmationDepth < p.next {
		p.log.Debugf("no confirmed blocks to process: latest=%d next=%d depth=%d",
			latest, p.next, p.cfg.ConfirmationDepth)
		return false, nil
	}

	confirmed := latest - p.cfg.ConfirmationDepth
	from := p.next
	to := min(confirmed, from+p.cfg.MaxBlockSpan-1)

	start := time.Now()

	logs, to, err := p.fetchLogs(ctx, from, to)
	if err != nil {
		return false, err
	}

	topHash, err := p.client.BlockHash(ctx, to)
	if err != nil {
		return false, fmt.Errorf("failed to get hash of block %d: %w", to, err)
	}

	for _, l := range logs {
		if l.BlockNumber == to && l.BlockHash != topHash {
			return false, fmt.Errorf("%w: block %d log hash %s, header hash %s",
				ErrInconsistentRange, to, l.BlockHash.Hex(), topHash.Hex())
		}
	}

	p.setState(StatePersisting)

	inserted, err := p.persist(ctx, logs)
	if err != nil {
		return false, err
	}

	if p.detector != nil {
		if err := p.detector.Record(ctx, to, topHash); err != nil {
			return false, err
		}
	}

	if err := p.store.SetCursor(ctx, to, topHash); err != nil {
		return false, fmt.Errorf("failed to advance cursor to %d: %w", to, err)
	}

	p.next = to + 1
	p.lastProcessed.Store(int64(to))

	metrics.LastIndexedBlockSet(to)
	metrics.BlocksProcessedInc(to - from + 1)
	metrics.BlockProcessingTimeLog(time.Since(start))

	p.log.Infof("processed blocks %d-%d: logs=%d inserted=%d latest=%d", from, to, len(logs), inserted, latest)

	return to < confirmed, nil
}

func (p *Poller) loadCursor(ctx context.Context) error {
	cursor, err := p.store.GetCursor(ctx)
	switch {
	case errors.Is(err, store.ErrCursorNotFound):
		p.next = p.cfg.StartBlock
		p.log.Infof("no cursor stored, starting at block %d", p.next)
	case err != nil:
		return fmt.Errorf("failed to load cursor: %w", err)
	default:
		p.next = cursor.LastProcessedBlock + 1
		p.lastProcessed.Store(int64(cursor.LastProcessedBlock))
		metrics.LastIndexedBlockSet(cursor.LastProcessedBlock)
		p.log.Infof("resuming after block %d", cursor.LastProcessedBlock)
	}

	p.loaded = true

	return nil
}

// fetchLogs queries [from, to], shrinking the range while the node reports too many results.
// It returns the logs sorted by (blockNumber, logIndex) and the upper bound actually covered.
func (p *Poller) fetchLogs(ctx context.Context, from, to uint64) ([]types.Log, uint64, error) {
	for {
		logs, err := p.client.GetLogs(ctx, p.cfg.Contract, p.spec.Topic(), from, to)
		if err == nil {
			return p.filterAndSort(logs, from, to), to, nil
		}

		var rangeErr *rpc.RangeTooLargeError
		if !errors.As(err, &rangeErr) || to == from {
			return nil, 0, fmt.Errorf("failed to get logs [%d, %d]: %w", from, to, err)
		}

		newTo := from + (to-from)/2
		if rangeErr.SuggestedTo > 0 && rangeErr.SuggestedTo >= from && rangeErr.SuggestedTo < to {
			newTo = rangeErr.SuggestedTo
		}

		rangeShrinkInc()
		p.log.Debugf("log range [%d, %d] too large, retrying with [%d, %d]", from, to, from, newTo)
		to = newTo
	}
}

func (p *Poller) filterAndSort(logs []types.Log, from, to uint64) []types.Log {
	out := make([]types.Log, 0, len(logs))
	for _, l := range logs {
		if l.Address != p.cfg.Contract || l.BlockNumber < from || l.BlockNumber > to {
			continue
		}
		out = append(out, l)
	}

	slices.SortFunc(out, func(a, b types.Log) int {
		if c := cmp.Compare(a.BlockNumber, b.BlockNumber); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})

	return out
}

// isSuspicious runs the anomaly check. A failed check never blocks indexing.
func (p *Poller) isSuspicious(ctx context.Context, ev *donation.Event) bool {
	if p.anomaly == nil {
		return false
	}

	verdict, err := p.anomaly.Check(ctx, ev)
	if err != nil {
		p.log.Warnf("anomaly check failed for donation %s: %v", ev.Key(), err)
		return false
	}

	if verdict.Suspicious {
		suspiciousInc()
		p.log.Warnf("suspicious donation: key=%s donor=%s amount=%s reason=%s",
			ev.Key(), ev.Donor.Hex(), ev.Amount, verdict.Reason)
	}

	return verdict.Suspicious
}

// persist decodes and stores logs in order. Undecodable logs are skipped.
func (p *Poller) persist(ctx context.Context, logs []types.Log) (int, error) {
	inserted := 0

	for _, l := range logs {
		ev, err := decoder.Decode(l, p.spec)
		if err != nil {
			p.log.Warnf("skipping undecodable log: %v", err)
			metrics.EventsIndexedInc("undecodable")
			continue
		}
		ev.IndexedAt = time.Now().UTC()

		res, err := p.store.InsertIfAbsent(ctx, ev)
		if err != nil {
			return inserted, fmt.Errorf("failed to store donation %s: %w", ev.Key(), err)
		}

		metrics.EventsIndexedInc(res.String())

		if res == store.Inserted {
			inserted++

			notification := donation.NewNotification(ev)
			notification.Data.Suspicious = p.isSuspicious(ctx, ev)
			if p.hub != nil {
				p.hub.Broadcast(notification)
			}
		}
	}

	return inserted, nil
}

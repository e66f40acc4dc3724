// Package sqlite implements the donation event store on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	internalcommon "github.com/goran-ethernal/DonationIndexor/internal/common"
	"github.com/goran-ethernal/DonationIndexor/internal/logger"
	"github.com/goran-ethernal/DonationIndexor/internal/store/storeutil"
	"github.com/goran-ethernal/DonationIndexor/pkg/donation"
	"github.com/goran-ethernal/DonationIndexor/pkg/store"
	"github.com/russross/meddler"
)

const driver = "sqlite"

var _ store.Store = (*Store)(nil)

// Store implements store.Store on a migrated SQLite database.
type Store struct {
	db  *sql.DB
	log *logger.Logger
}

// dbDonation represents a row of the donations table.
type dbDonation struct {
	ID             int64          `meddler:"id,pk"`
	Donor          common.Address `meddler:"donor,address"`
	Amount         *big.Int       `meddler:"amount,bigint"`
	Cause          string         `meddler:"cause"`
	DonationID     *big.Int       `meddler:"donation_id,bigint"`
	TxHash         common.Hash    `meddler:"tx_hash,hash"`
	LogIndex       uint           `meddler:"log_index"`
	BlockNumber    uint64         `meddler:"block_number"`
	BlockHash      common.Hash    `meddler:"block_hash,hash"`
	ChainTimestamp uint64         `meddler:"chain_timestamp"`
	IndexedAt      int64          `meddler:"indexed_at"`
}

// dbSyncState represents the single row of the sync_state table.
type dbSyncState struct {
	ID        int64        `meddler:"id,pk"`
	LastBlock uint64       `meddler:"last_block"`
	BlockHash *common.Hash `meddler:"block_hash,hash"`
	UpdatedAt int64        `meddler:"updated_at"`
}

type dbBlockHash struct {
	BlockNumber uint64      `meddler:"block_number"`
	BlockHash   common.Hash `meddler:"block_hash,hash"`
}

// New creates a Store on db. Migrations must already be applied.
func New(db *sql.DB, log *logger.Logger) *Store {
	return &Store{
		db:  db,
		log: log,
	}
}

// InsertIfAbsent stores ev unless (tx_hash, log_index) is already present.
func (s *Store) InsertIfAbsent(ctx context.Context, ev *donation.Event) (res store.InsertResult, err error) {
	defer storeutil.Observe(driver, "insert", time.Now(), &err)

	row := toDBDonation(ev)

	const insertQuery = `
		INSERT INTO donations (
			donor, amount, cause, donation_id, tx_hash, log_index,
			block_number, block_hash, chain_timestamp, indexed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tx_hash, log_index) DO NOTHING
	`

	result, err := s.db.ExecContext(ctx, insertQuery,
		row.Donor.Hex(),
		bigText(row.Amount),
		row.Cause,
		bigText(row.DonationID),
		row.TxHash.Hex(),
		row.LogIndex,
		row.BlockNumber,
		row.BlockHash.Hex(),
		row.ChainTimestamp,
		row.IndexedAt,
	)
	if err != nil {
		return 0, store.Unavailable("insert donation", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, store.Unavailable("insert donation", err)
	}

	res = store.Inserted
	if affected == 0 {
		res = store.Duplicate
		s.log.Debugf("donation %s already stored", ev.Key())
	}
	storeutil.InsertResultInc(driver, res)

	return res, nil
}

// FindByField returns events whose field equals value.
func (s *Store) FindByField(ctx context.Context, field store.Field, value string,
	limit int) (_ []*donation.Event, err error) {
	defer storeutil.Observe(driver, "find_by_field", time.Now(), &err)

	where, args, err := storeutil.FieldFilter(field, value, storeutil.QuestionMark)
	if err != nil {
		return nil, err
	}

	return s.query(ctx, where, args, storeutil.Limit(limit), 0)
}

// Find returns events matching filter ordered by (block_number, log_index).
func (s *Store) Find(ctx context.Context, filter store.Filter, limit, offset int) (_ []*donation.Event, err error) {
	defer storeutil.Observe(driver, "find", time.Now(), &err)

	where, args := storeutil.Where(filter, storeutil.QuestionMark)

	return s.query(ctx, where, args, storeutil.Limit(limit), offset)
}

func (s *Store) query(ctx context.Context, where string, args []any, limit, offset int) ([]*donation.Event, error) {
	query := "SELECT * FROM donations" + where + " ORDER BY block_number ASC, log_index ASC LIMIT ? OFFSET ?"
	args = append(args, limit, max(offset, 0))

	var rows []*dbDonation
	if err := s.queryAll(ctx, &rows, query, args...); err != nil {
		return nil, store.Unavailable("query donations", err)
	}

	events := make([]*donation.Event, len(rows))
	for i, r := range rows {
		events[i] = r.toEvent()
	}

	return events, nil
}

// queryAll scans every row of query into dst, a pointer to a slice of meddler structs.
func (s *Store) queryAll(ctx context.Context, dst any, query string, args ...any) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	return meddler.ScanAll(rows, dst)
}

// queryRow scans the first row of query into dst. It returns sql.ErrNoRows when the
// result is empty.
func (s *Store) queryRow(ctx context.Context, dst any, query string, args ...any) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	return meddler.ScanRow(rows, dst)
}

// Count returns the number of events matching filter.
func (s *Store) Count(ctx context.Context, filter store.Filter) (n int64, err error) {
	defer storeutil.Observe(driver, "count", time.Now(), &err)

	where, args := storeutil.Where(filter, storeutil.QuestionMark)

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM donations"+where, args...).Scan(&n); err != nil {
		return 0, store.Unavailable("count donations", err)
	}

	return n, nil
}

// SumAmount adds the amounts of the matching events. SQLite has no 256 bit integers
// so the sum happens in Go over the stored decimal strings.
func (s *Store) SumAmount(ctx context.Context, filter store.Filter) (_ *big.Int, err error) {
	defer storeutil.Observe(driver, "sum_amount", time.Now(), &err)

	where, args := storeutil.Where(filter, storeutil.QuestionMark)

	rows, err := s.db.QueryContext(ctx, "SELECT amount FROM donations"+where, args...)
	if err != nil {
		return nil, store.Unavailable("sum donations", err)
	}
	defer rows.Close()

	total := new(big.Int)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, store.Unavailable("sum donations", err)
		}

		v, err := internalcommon.ParseDecimalBigInt(raw)
		if err != nil {
			return nil, fmt.Errorf("stored amount: %w", err)
		}
		total.Add(total, v)
	}

	if err := rows.Err(); err != nil {
		return nil, store.Unavailable("sum donations", err)
	}

	return total, nil
}

// GetCursor returns the persisted cursor or store.ErrCursorNotFound.
func (s *Store) GetCursor(ctx context.Context) (_ *store.Cursor, err error) {
	defer storeutil.Observe(driver, "get_cursor", time.Now(), &err)

	var state dbSyncState
	if err := s.queryRow(ctx, &state, "SELECT * FROM sync_state WHERE id = 1"); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCursorNotFound
		}
		return nil, store.Unavailable("get cursor", err)
	}

	cursor := &store.Cursor{
		LastProcessedBlock: state.LastBlock,
		UpdatedAt:          time.UnixMilli(state.UpdatedAt).UTC(),
	}
	if state.BlockHash != nil {
		cursor.BlockHash = *state.BlockHash
	}

	return cursor, nil
}

// SetCursor persists the last fully processed block.
func (s *Store) SetCursor(ctx context.Context, block uint64, hash common.Hash) (err error) {
	defer storeutil.Observe(driver, "set_cursor", time.Now(), &err)

	if err := setCursor(ctx, s.db, block, hash); err != nil {
		return store.Unavailable("set cursor", err)
	}

	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func setCursor(ctx context.Context, db execer, block uint64, hash common.Hash) error {
	const upsert = `
		INSERT INTO sync_state (id, last_block, block_hash, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_block = excluded.last_block,
			block_hash = excluded.block_hash,
			updated_at = excluded.updated_at
	`

	_, err := db.ExecContext(ctx, upsert, block, nullableHash(hash), time.Now().UnixMilli())
	return err
}

// RecordBlockHash tracks the hash of a committed block.
func (s *Store) RecordBlockHash(ctx context.Context, block uint64, hash common.Hash) (err error) {
	defer storeutil.Observe(driver, "record_block_hash", time.Now(), &err)

	const upsert = `
		INSERT INTO block_hashes (block_number, block_hash) VALUES (?, ?)
		ON CONFLICT(block_number) DO UPDATE SET block_hash = excluded.block_hash
	`

	if _, err := s.db.ExecContext(ctx, upsert, block, hash.Hex()); err != nil {
		return store.Unavailable("record block hash", err)
	}

	return nil
}

// RecentBlockHashes returns up to limit tracked blocks, newest first.
func (s *Store) RecentBlockHashes(ctx context.Context, limit int) (_ []store.BlockRef, err error) {
	defer storeutil.Observe(driver, "recent_block_hashes", time.Now(), &err)

	var rows []*dbBlockHash
	query := "SELECT * FROM block_hashes ORDER BY block_number DESC LIMIT ?"
	if err := s.queryAll(ctx, &rows, query, storeutil.Limit(limit)); err != nil {
		return nil, store.Unavailable("recent block hashes", err)
	}

	refs := make([]store.BlockRef, len(rows))
	for i, r := range rows {
		refs[i] = store.BlockRef{Number: r.BlockNumber, Hash: r.BlockHash}
	}

	return refs, nil
}

// PruneBlockHashes keeps only the newest keep tracked blocks.
func (s *Store) PruneBlockHashes(ctx context.Context, keep int) (err error) {
	defer storeutil.Observe(driver, "prune_block_hashes", time.Now(), &err)

	const prune = `
		DELETE FROM block_hashes WHERE block_number NOT IN (
			SELECT block_number FROM block_hashes ORDER BY block_number DESC LIMIT ?
		)
	`

	if _, err := s.db.ExecContext(ctx, prune, max(keep, 0)); err != nil {
		return store.Unavailable("prune block hashes", err)
	}

	return nil
}

// RollbackTo deletes every event and tracked hash above block and rewinds the cursor,
// all in one transaction.
func (s *Store) RollbackTo(ctx context.Context, block uint64, hash common.Hash) (err error) {
	defer storeutil.Observe(driver, "rollback", time.Now(), &err)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Unavailable("rollback", fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.log.Errorf("failed to rollback transaction: %v", rbErr)
			}
		}
	}()

	result, err := tx.ExecContext(ctx, "DELETE FROM donations WHERE block_number > ?", block)
	if err != nil {
		return store.Unavailable("rollback", fmt.Errorf("failed to delete donations: %w", err))
	}
	deleted, _ := result.RowsAffected()

	if _, err = tx.ExecContext(ctx, "DELETE FROM block_hashes WHERE block_number > ?", block); err != nil {
		return store.Unavailable("rollback", fmt.Errorf("failed to delete block hashes: %w", err))
	}

	if err = setCursor(ctx, tx, block, hash); err != nil {
		return store.Unavailable("rollback", fmt.Errorf("failed to rewind cursor: %w", err))
	}

	if err = tx.Commit(); err != nil {
		return store.Unavailable("rollback", fmt.Errorf("failed to commit transaction: %w", err))
	}

	storeutil.RollbackDeletedAdd(driver, deleted)
	s.log.Infof("rolled back to block %d, deleted %d donations", block, deleted)

	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return store.Unavailable("ping", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func toDBDonation(ev *donation.Event) *dbDonation {
	return &dbDonation{
		Donor:          ev.Donor,
		Amount:         ev.Amount,
		Cause:          ev.Cause,
		DonationID:     ev.DonationID,
		TxHash:         ev.TxHash,
		LogIndex:       ev.LogIndex,
		BlockNumber:    ev.BlockNumber,
		BlockHash:      ev.BlockHash,
		ChainTimestamp: ev.ChainTimestamp,
		IndexedAt:      ev.IndexedAt.UnixMilli(),
	}
}

func (r *dbDonation) toEvent() *donation.Event {
	return &donation.Event{
		Donor:          r.Donor,
		Amount:         r.Amount,
		Cause:          r.Cause,
		DonationID:     r.DonationID,
		TxHash:         r.TxHash,
		LogIndex:       r.LogIndex,
		BlockNumber:    r.BlockNumber,
		BlockHash:      r.BlockHash,
		ChainTimestamp: r.ChainTimestamp,
		IndexedAt:      time.UnixMilli(r.IndexedAt).UTC(),
	}
}

func bigText(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func nullableHash(h common.Hash) any {
	if h == (common.Hash{}) {
		return nil
	}
	return h.Hex()
}

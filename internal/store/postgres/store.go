// Package postgres implements the donation event store on Postgres via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	internalcommon "github.com/goran-ethernal/DonationIndexor/internal/common"
	"github.com/goran-ethernal/DonationIndexor/internal/logger"
	"github.com/goran-ethernal/DonationIndexor/internal/migrations"
	"github.com/goran-ethernal/DonationIndexor/internal/store/storeutil"
	"github.com/goran-ethernal/DonationIndexor/pkg/donation"
	"github.com/goran-ethernal/DonationIndexor/pkg/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

const driver = "postgres"

const selectColumns = `donor, amount::text, cause, donation_id::text, tx_hash, log_index,
	block_number, block_hash, chain_timestamp, indexed_at`

var _ store.Store = (*Store)(nil)

// Store implements store.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// New connects to dsn and verifies the connection.
func New(ctx context.Context, dsn string, log *logger.Logger) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &Store{pool: pool, log: log}, nil
}

// Migrate applies the Postgres migrations through a database/sql view of the pool.
func (s *Store) Migrate() error {
	conn := stdlib.OpenDBFromPool(s.pool)
	defer conn.Close()

	return migrations.RunPostgres(s.log, conn)
}

// InsertIfAbsent stores ev unless (tx_hash, log_index) is already present.
func (s *Store) InsertIfAbsent(ctx context.Context, ev *donation.Event) (res store.InsertResult, err error) {
	defer storeutil.Observe(driver, "insert", time.Now(), &err)

	const insertQuery = `
		INSERT INTO donations (
			donor, amount, cause, donation_id, tx_hash, log_index,
			block_number, block_hash, chain_timestamp, indexed_at
		) VALUES ($1, $2::text::numeric, $3, $4::text::numeric, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (tx_hash, log_index) DO NOTHING
	`

	tag, err := s.pool.Exec(ctx, insertQuery,
		ev.Donor.Hex(),
		bigText(ev.Amount),
		ev.Cause,
		bigText(ev.DonationID),
		ev.TxHash.Hex(),
		storeutil.ClampInt64(uint64(ev.LogIndex)),
		storeutil.ClampInt64(ev.BlockNumber),
		ev.BlockHash.Hex(),
		storeutil.ClampInt64(ev.ChainTimestamp),
		ev.IndexedAt,
	)
	if err != nil {
		return 0, store.Unavailable("insert donation", err)
	}

	res = store.Inserted
	if tag.RowsAffected() == 0 {
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

	where, args, err := storeutil.FieldFilter(field, value, storeutil.Dollar)
	if err != nil {
		return nil, err
	}

	return s.query(ctx, where, args, storeutil.Limit(limit), 0)
}

// Find returns events matching filter ordered by (block_number, log_index).
func (s *Store) Find(ctx context.Context, filter store.Filter, limit, offset int) (_ []*donation.Event, err error) {
	defer storeutil.Observe(driver, "find", time.Now(), &err)

	where, args := storeutil.Where(filter, storeutil.Dollar)

	return s.query(ctx, where, args, storeutil.Limit(limit), offset)
}

func (s *Store) query(ctx context.Context, where string, args []any, limit, offset int) ([]*donation.Event, error) {
	n := len(args)
	query := fmt.Sprintf("SELECT %s FROM donations%s ORDER BY block_number ASC, log_index ASC LIMIT $%d OFFSET $%d",
		selectColumns, where, n+1, n+2)
	args = append(args, limit, max(offset, 0))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, store.Unavailable("query donations", err)
	}

	events, err := pgx.CollectRows(rows, scanEvent)
	if err != nil {
		return nil, store.Unavailable("query donations", err)
	}

	return events, nil
}

func scanEvent(row pgx.CollectableRow) (*donation.Event, error) {
	var (
		donor, amount, donationID, txHash, blockHash string
		logIndex, blockNumber, chainTimestamp         int64
		ev                                            donation.Event
	)

	err := row.Scan(&donor, &amount, &ev.Cause, &donationID, &txHash, &logIndex,
		&blockNumber, &blockHash, &chainTimestamp, &ev.IndexedAt)
	if err != nil {
		return nil, err
	}

	if ev.Amount, err = internalcommon.ParseDecimalBigInt(amount); err != nil {
		return nil, fmt.Errorf("stored amount: %w", err)
	}
	if ev.DonationID, err = internalcommon.ParseDecimalBigInt(donationID); err != nil {
		return nil, fmt.Errorf("stored donation id: %w", err)
	}

	ev.Donor = common.HexToAddress(donor)
	ev.TxHash = common.HexToHash(txHash)
	ev.BlockHash = common.HexToHash(blockHash)
	ev.LogIndex = uint(logIndex)
	ev.BlockNumber = uint64(blockNumber)
	ev.ChainTimestamp = uint64(chainTimestamp)
	ev.IndexedAt = ev.IndexedAt.UTC()

	return &ev, nil
}

// Count returns the number of events matching filter.
func (s *Store) Count(ctx context.Context, filter store.Filter) (n int64, err error) {
	defer storeutil.Observe(driver, "count", time.Now(), &err)

	where, args := storeutil.Where(filter, storeutil.Dollar)

	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM donations"+where, args...).Scan(&n); err != nil {
		return 0, store.Unavailable("count donations", err)
	}

	return n, nil
}

// SumAmount adds the matching amounts in NUMERIC precision.
func (s *Store) SumAmount(ctx context.Context, filter store.Filter) (_ *big.Int, err error) {
	defer storeutil.Observe(driver, "sum_amount", time.Now(), &err)

	where, args := storeutil.Where(filter, storeutil.Dollar)

	var raw string
	query := "SELECT COALESCE(SUM(amount), 0)::text FROM donations" + where
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&raw); err != nil {
		return nil, store.Unavailable("sum donations", err)
	}

	total, err := internalcommon.ParseDecimalBigInt(raw)
	if err != nil {
		return nil, fmt.Errorf("sum: %w", err)
	}

	return total, nil
}

// GetCursor returns the persisted cursor or store.ErrCursorNotFound.
func (s *Store) GetCursor(ctx context.Context) (_ *store.Cursor, err error) {
	defer storeutil.Observe(driver, "get_cursor", time.Now(), &err)

	var (
		lastBlock int64
		hash      *string
		cursor    store.Cursor
	)

	row := s.pool.QueryRow(ctx, "SELECT last_block, block_hash, updated_at FROM sync_state WHERE id = 1")
	if err := row.Scan(&lastBlock, &hash, &cursor.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrCursorNotFound
		}
		return nil, store.Unavailable("get cursor", err)
	}

	cursor.LastProcessedBlock = uint64(lastBlock)
	if hash != nil {
		cursor.BlockHash = common.HexToHash(*hash)
	}

	return &cursor, nil
}

// SetCursor persists the last fully processed block.
func (s *Store) SetCursor(ctx context.Context, block uint64, hash common.Hash) (err error) {
	defer storeutil.Observe(driver, "set_cursor", time.Now(), &err)

	if err := setCursor(ctx, s.pool, block, hash); err != nil {
		return store.Unavailable("set cursor", err)
	}

	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func setCursor(ctx context.Context, db execer, block uint64, hash common.Hash) error {
	const upsert = `
		INSERT INTO sync_state (id, last_block, block_hash, updated_at)
		VALUES (1, $1, $2, now())
		ON CONFLICT (id) DO UPDATE SET
			last_block = EXCLUDED.last_block,
			block_hash = EXCLUDED.block_hash,
			updated_at = EXCLUDED.updated_at
	`

	_, err := db.Exec(ctx, upsert, storeutil.ClampInt64(block), nullableHash(hash))
	return err
}

// RecordBlockHash tracks the hash of a committed block.
func (s *Store) RecordBlockHash(ctx context.Context, block uint64, hash common.Hash) (err error) {
	defer storeutil.Observe(driver, "record_block_hash", time.Now(), &err)

	const upsert = `
		INSERT INTO block_hashes (block_number, block_hash) VALUES ($1, $2)
		ON CONFLICT (block_number) DO UPDATE SET block_hash = EXCLUDED.block_hash
	`

	if _, err := s.pool.Exec(ctx, upsert, storeutil.ClampInt64(block), hash.Hex()); err != nil {
		return store.Unavailable("record block hash", err)
	}

	return nil
}

// RecentBlockHashes returns up to limit tracked blocks, newest first.
func (s *Store) RecentBlockHashes(ctx context.Context, limit int) (_ []store.BlockRef, err error) {
	defer storeutil.Observe(driver, "recent_block_hashes", time.Now(), &err)

	rows, err := s.pool.Query(ctx,
		"SELECT block_number, block_hash FROM block_hashes ORDER BY block_number DESC LIMIT $1",
		storeutil.Limit(limit))
	if err != nil {
		return nil, store.Unavailable("recent block hashes", err)
	}

	refs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.BlockRef, error) {
		var (
			number int64
			hash   string
		)
		if err := row.Scan(&number, &hash); err != nil {
			return store.BlockRef{}, err
		}
		return store.BlockRef{Number: uint64(number), Hash: common.HexToHash(hash)}, nil
	})
	if err != nil {
		return nil, store.Unavailable("recent block hashes", err)
	}

	return refs, nil
}

// PruneBlockHashes keeps only the newest keep tracked blocks.
func (s *Store) PruneBlockHashes(ctx context.Context, keep int) (err error) {
	defer storeutil.Observe(driver, "prune_block_hashes", time.Now(), &err)

	const prune = `
		DELETE FROM block_hashes WHERE block_number NOT IN (
			SELECT block_number FROM block_hashes ORDER BY block_number DESC LIMIT $1
		)
	`

	if _, err := s.pool.Exec(ctx, prune, max(keep, 0)); err != nil {
		return store.Unavailable("prune block hashes", err)
	}

	return nil
}

// RollbackTo deletes every event and tracked hash above block and rewinds the cursor,
// all in one transaction.
func (s *Store) RollbackTo(ctx context.Context, block uint64, hash common.Hash) (err error) {
	defer storeutil.Observe(driver, "rollback", time.Now(), &err)

	var deleted int64
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, "DELETE FROM donations WHERE block_number > $1", storeutil.ClampInt64(block))
		if err != nil {
			return fmt.Errorf("failed to delete donations: %w", err)
		}
		deleted = tag.RowsAffected()

		if _, err := tx.Exec(ctx, "DELETE FROM block_hashes WHERE block_number > $1", storeutil.ClampInt64(block)); err != nil {
			return fmt.Errorf("failed to delete block hashes: %w", err)
		}

		if err := setCursor(ctx, tx, block, hash); err != nil {
			return fmt.Errorf("failed to rewind cursor: %w", err)
		}

		return nil
	})
	if err != nil {
		return store.Unavailable("rollback", err)
	}

	storeutil.RollbackDeletedAdd(driver, deleted)
	s.log.Infof("rolled back to block %d, deleted %d donations", block, deleted)

	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return store.Unavailable("ping", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func bigText(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func nullableHash(h common.Hash) *string {
	if h == (common.Hash{}) {
		return nil
	}
	hex := h.Hex()
	return &hex
}

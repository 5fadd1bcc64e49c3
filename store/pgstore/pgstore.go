// Package pgstore implements [store.Store] on PostgreSQL.
//
// Records live in a single table keyed by address. Update transactions lock
// every row they read with SELECT ... FOR UPDATE and rely on the primary key
// for insert conflicts, so concurrent transactions touching the same record
// are serialized and a losing insert observes [store.ErrExists].
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/storacha/go-esign/address"
	"github.com/storacha/go-esign/store"
)

const DefaultTable = "esign_records"

// Connect opens a connection pool for dsn.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return pool, nil
}

type Option func(*Store)

// WithTable stores records in the named table instead of [DefaultTable].
func WithTable(name string) Option {
	return func(s *Store) {
		s.table = pgx.Identifier{name}.Sanitize()
	}
}

type Store struct {
	db    *pgxpool.Pool
	table string
}

var _ store.Store = (*Store)(nil)

func New(db *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{db: db, table: pgx.Identifier{DefaultTable}.Sanitize()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates the records table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+s.table+` (address TEXT PRIMARY KEY, value BYTEA NOT NULL)`)
	if err != nil {
		return fmt.Errorf("creating %s: %w", s.table, err)
	}
	return nil
}

func (s *Store) View(ctx context.Context, fn func(store.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("beginning read transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&txn{ctx: ctx, tx: tx, table: s.table}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Update(ctx context.Context, fn func(store.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&txn{ctx: ctx, tx: tx, table: s.table, lock: true}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

type txn struct {
	ctx   context.Context
	tx    pgx.Tx
	table string
	lock  bool
}

func (t *txn) selectSuffix() string {
	if t.lock {
		return ` FOR UPDATE`
	}
	return ``
}

func (t *txn) Get(key address.Address) ([]byte, error) {
	var value []byte
	err := t.tx.QueryRow(t.ctx, `SELECT value FROM `+t.table+` WHERE address=$1`+t.selectSuffix(), key.String()).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}

func (t *txn) Has(key address.Address) (bool, error) {
	var one int
	err := t.tx.QueryRow(t.ctx, `SELECT 1 FROM `+t.table+` WHERE address=$1`+t.selectSuffix(), key.String()).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", key, err)
	}
	return true, nil
}

func (t *txn) Put(key address.Address, value []byte) error {
	_, err := t.tx.Exec(t.ctx, `INSERT INTO `+t.table+`(address,value) VALUES($1,$2) ON CONFLICT (address) DO UPDATE SET value=EXCLUDED.value`, key.String(), value)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (t *txn) Insert(key address.Address, value []byte) error {
	tag, err := t.tx.Exec(t.ctx, `INSERT INTO `+t.table+`(address,value) VALUES($1,$2) ON CONFLICT (address) DO NOTHING`, key.String(), value)
	if err != nil {
		return fmt.Errorf("inserting %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrExists
	}
	return nil
}

// Entries reads all records up front; the connection cannot serve other
// queries while rows are open.
func (t *txn) Entries() iter.Seq2[store.Entry, error] {
	return func(yield func(store.Entry, error) bool) {
		rows, err := t.tx.Query(t.ctx, `SELECT address, value FROM `+t.table+` ORDER BY address COLLATE "C"`)
		if err != nil {
			yield(store.Entry{}, fmt.Errorf("listing records: %w", err))
			return
		}
		var entries []store.Entry
		for rows.Next() {
			var key string
			var value []byte
			if err := rows.Scan(&key, &value); err != nil {
				rows.Close()
				yield(store.Entry{}, fmt.Errorf("scanning record: %w", err))
				return
			}
			addr, err := address.Parse(key)
			if err != nil {
				rows.Close()
				yield(store.Entry{}, err)
				return
			}
			entries = append(entries, store.Entry{Key: addr, Value: value})
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			yield(store.Entry{}, fmt.Errorf("listing records: %w", err))
			return
		}
		for _, e := range entries {
			if !yield(e, nil) {
				return
			}
		}
	}
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	createDocumentsSQL = `CREATE TABLE IF NOT EXISTS kv_documents (
        key        TEXT PRIMARY KEY,
        doc        JSONB NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );`

	getDocumentSQL = `SELECT doc FROM kv_documents WHERE key = $1;`

	upsertDocumentSQL = `INSERT INTO kv_documents (key, doc, updated_at)
    VALUES ($1, $2, now())
    ON CONFLICT (key) DO UPDATE
    SET doc        = EXCLUDED.doc,
        updated_at = now();`

	deleteDocumentSQL = `DELETE FROM kv_documents WHERE key = $1;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// instanceLockKey guards against two monitor processes mutating the same
// document set at once.
const instanceLockKey int64 = 0x66787761

// Postgres persists documents in a single JSONB table.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ KV = (*Postgres)(nil)

// NewPostgres wires a pgx pool into the document backend.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Init creates the documents table when missing.
func (p *Postgres) Init(ctx context.Context) error {
	pool, err := p.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, createDocumentsSQL); execErr != nil {
		return fmt.Errorf("create documents table: %w", execErr)
	}
	return nil
}

func (p *Postgres) getPool() (*pgxpool.Pool, error) {
	if p == nil || p.pool == nil {
		return nil, ErrNotConfigured
	}
	return p.pool, nil
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	pool, err := p.getPool()
	if err != nil {
		return nil, false, err
	}

	var doc []byte
	if scanErr := pool.QueryRow(ctx, getDocumentSQL, key).Scan(&doc); scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get document %s: %w", key, scanErr)
	}
	return doc, true, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	pool, err := p.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, upsertDocumentSQL, key, value); execErr != nil {
		return fmt.Errorf("upsert document %s: %w", key, execErr)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	pool, err := p.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, deleteDocumentSQL, key); execErr != nil {
		return fmt.Errorf("delete document %s: %w", key, execErr)
	}
	return nil
}

// Close releases the underlying pool resources.
func (p *Postgres) Close() error {
	if p == nil || p.pool == nil {
		return nil
	}
	p.pool.Close()
	return nil
}

// TryInstanceLock attempts to acquire the singleton monitor lock and returns
// a release func.
func (p *Postgres) TryInstanceLock(ctx context.Context) (func(), bool, error) {
	pool, err := p.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, instanceLockKey).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// best effort; the lock dies with the session anyway
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, instanceLockKey)
		conn.Release()
	}
	return unlock, true, nil
}

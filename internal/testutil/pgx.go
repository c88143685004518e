// Package testutil provides in-memory stand-ins for the pgx pool and the
// user/ledger repositories so service logic can be tested without Postgres.
package testutil

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Snapshotter is implemented by fakes whose writes a rolled-back Tx must undo.
type Snapshotter interface {
	Snapshot() (restore func())
}

// Pool satisfies database.TxBeginner. Each Begin snapshots the registered
// stores; a Tx rolled back without Commit restores them.
type Pool struct {
	mu        sync.Mutex
	stores    []Snapshotter
	Begins    int
	Commits   int
	Rollbacks int
	BeginErr  error
}

func NewPool(stores ...Snapshotter) *Pool {
	return &Pool{stores: stores}
}

func (p *Pool) Begin(context.Context) (pgx.Tx, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.BeginErr != nil {
		return nil, p.BeginErr
	}
	p.Begins++
	tx := &Tx{pool: p}
	for _, s := range p.stores {
		tx.restore = append(tx.restore, s.Snapshot())
	}
	return tx, nil
}

// Tx implements pgx.Tx; only Commit and Rollback do anything.
type Tx struct {
	pool    *Pool
	restore []func()
	done    bool
}

func (t *Tx) Begin(context.Context) (pgx.Tx, error) { return t, nil }

func (t *Tx) Commit(context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	if t.pool != nil {
		t.pool.mu.Lock()
		t.pool.Commits++
		t.pool.mu.Unlock()
	}
	return nil
}

func (t *Tx) Rollback(context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	for i := len(t.restore) - 1; i >= 0; i-- {
		t.restore[i]()
	}
	if t.pool != nil {
		t.pool.mu.Lock()
		t.pool.Rollbacks++
		t.pool.mu.Unlock()
	}
	return nil
}

func (t *Tx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *Tx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (t *Tx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (t *Tx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *Tx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (t *Tx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (t *Tx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *Tx) Conn() *pgx.Conn { return nil }

package receiving

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/rollflow/internal/domain/joborders"
	"github.com/Spok95/rollflow/internal/domain/rolls"
	"github.com/Spok95/rollflow/internal/infra/db"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const txColumns = `id, job_order_id, roll_id, qty, agent, note, created_at`

func queryTransactions(ctx context.Context, q db.Querier, sql string, args ...any) ([]Transaction, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.JobOrderID, &t.RollID, &t.Qty, &t.Agent, &t.Note, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// QueryAll lists every receiving transaction through q.
func QueryAll(ctx context.Context, q db.Querier) ([]Transaction, error) {
	return queryTransactions(ctx, q, `SELECT `+txColumns+` FROM receiving_transactions ORDER BY id`)
}

// loadLedger reads the job order (locking it when forUpdate), its rolls and
// its transactions inside tx.
func loadLedger(ctx context.Context, tx db.Querier, jobOrderID int64, forUpdate bool) (*Ledger, error) {
	q := `SELECT ` + joborders.Columns() + ` FROM job_orders WHERE id = $1`
	if forUpdate {
		q += ` FOR UPDATE`
	}
	jo, err := joborders.Scan(tx.QueryRow(ctx, q, jobOrderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	rs, err := rolls.QueryByJobOrder(ctx, tx, jobOrderID)
	if err != nil {
		return nil, err
	}
	txs, err := queryTransactions(ctx, tx,
		`SELECT `+txColumns+` FROM receiving_transactions WHERE job_order_id = $1 ORDER BY id`, jobOrderID)
	if err != nil {
		return nil, err
	}
	return &Ledger{JobOrder: *jo, Rolls: rs, Transactions: txs}, nil
}

// Ledger returns a consistent read of the job order's receiving ledger.
func (r *Repo) Ledger(ctx context.Context, jobOrderID int64) (*Ledger, error) {
	var l *Ledger
	err := db.ReadSnapshot(ctx, r.pool, func(q db.Querier) error {
		var err error
		l, err = loadLedger(ctx, q, jobOrderID, false)
		return err
	})
	return l, err
}

// Receive checks req against the ledger and inserts the transaction in one
// database transaction. The job order row is locked FOR UPDATE first, so
// concurrent submissions for the same job order are serialized while other
// job orders proceed in parallel.
func (r *Repo) Receive(ctx context.Context, req Request) (*Transaction, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	l, err := loadLedger(ctx, tx, req.JobOrderID, true)
	if err != nil {
		return nil, err
	}
	if err := l.Check(req); err != nil {
		return nil, err
	}

	var t Transaction
	if err := tx.QueryRow(ctx, `
		INSERT INTO receiving_transactions (job_order_id, roll_id, qty, agent, note)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING `+txColumns,
		req.JobOrderID, req.RollID, req.Qty, req.Agent, req.Note,
	).Scan(&t.ID, &t.JobOrderID, &t.RollID, &t.Qty, &t.Agent, &t.Note, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, tx.Commit(ctx)
}

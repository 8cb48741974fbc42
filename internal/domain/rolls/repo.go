package rolls

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/rollflow/internal/infra/db"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const rollColumns = `
	r.id, r.job_order_id, r.seq, r.extrude_qty, r.print_qty, r.cut_qty,
	r.extrude_machine_id, r.print_machine_id, r.cut_machine_id,
	r.note, r.created_at, r.printed_at, r.cut_at, r.closed_at`

func scanRoll(row pgx.Row, extra ...any) (*Roll, error) {
	var r Roll
	dest := []any{
		&r.ID, &r.JobOrderID, &r.Seq, &r.ExtrudeQty, &r.PrintQty, &r.CutQty,
		&r.ExtrudeMachineID, &r.PrintMachineID, &r.CutMachineID,
		&r.Note, &r.CreatedAt, &r.PrintedAt, &r.CutAt, &r.ClosedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &r, nil
}

// QueryByJobOrder lists a job order's rolls through q, so callers holding a
// transaction read the same snapshot they write against.
func QueryByJobOrder(ctx context.Context, q db.Querier, jobOrderID int64) ([]Roll, error) {
	return list(ctx, q, `SELECT `+rollColumns+` FROM rolls r WHERE r.job_order_id = $1 ORDER BY r.seq`, jobOrderID)
}

func list(ctx context.Context, dbq db.Querier, q string, args ...any) ([]Roll, error) {
	rows, err := dbq.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Roll
	for rows.Next() {
		roll, err := scanRoll(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *roll)
	}
	return out, rows.Err()
}

// QueryAll lists every roll through q.
func QueryAll(ctx context.Context, q db.Querier) ([]Roll, error) {
	return list(ctx, q, `SELECT `+rollColumns+` FROM rolls r ORDER BY r.job_order_id, r.seq`)
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Roll, error) {
	roll, err := scanRoll(r.pool.QueryRow(ctx, `SELECT `+rollColumns+` FROM rolls r WHERE r.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return roll, err
}

// Create records extrusion output as a new roll. The job order row is locked
// so concurrent extrusions get distinct sequence numbers.
func (r *Repo) Create(ctx context.Context, nr NewRoll) (*Roll, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var requiresPrinting bool
	err = tx.QueryRow(ctx, `SELECT requires_printing FROM job_orders WHERE id = $1 FOR UPDATE`, nr.JobOrderID).
		Scan(&requiresPrinting)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	var seq int
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM rolls WHERE job_order_id = $1`, nr.JobOrderID).
		Scan(&seq); err != nil {
		return nil, err
	}

	roll, err := Advance(Roll{JobOrderID: nr.JobOrderID, Seq: seq, Note: nr.Note},
		requiresPrinting, StepExtrude, nr.Qty, nr.MachineID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	created, err := scanRoll(tx.QueryRow(ctx, `
		INSERT INTO rolls AS r (job_order_id, seq, extrude_qty, extrude_machine_id, note, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING `+rollColumns,
		roll.JobOrderID, roll.Seq, roll.ExtrudeQty, roll.ExtrudeMachineID, roll.Note, roll.CreatedAt))
	if err != nil {
		return nil, err
	}
	return created, tx.Commit(ctx)
}

// Update applies fn to the roll under a row lock, so stage writes for one
// roll are serialized and fn always sees committed quantities.
func (r *Repo) Update(ctx context.Context, id int64, fn UpdateFunc) (*Roll, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var requiresPrinting bool
	cur, err := scanRoll(tx.QueryRow(ctx, `
		SELECT `+rollColumns+`, j.requires_printing
		FROM rolls r
		JOIN job_orders j ON j.id = r.job_order_id
		WHERE r.id = $1
		FOR UPDATE OF r
	`, id), &requiresPrinting)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	next, err := fn(*cur, requiresPrinting)
	if err != nil {
		return nil, err
	}

	updated, err := scanRoll(tx.QueryRow(ctx, `
		UPDATE rolls AS r SET
			print_qty = $2, cut_qty = $3,
			print_machine_id = $4, cut_machine_id = $5,
			printed_at = $6, cut_at = $7, closed_at = $8
		WHERE r.id = $1
		RETURNING `+rollColumns,
		id, next.PrintQty, next.CutQty, next.PrintMachineID, next.CutMachineID,
		next.PrintedAt, next.CutAt, next.ClosedAt))
	if err != nil {
		return nil, err
	}
	return updated, tx.Commit(ctx)
}

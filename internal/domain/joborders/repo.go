package joborders

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/rollflow/internal/infra/db"
)

var (
	ErrNotFound      = errors.New("joborders: job order not found")
	ErrItemRequired  = errors.New("joborders: item is required")
	ErrInvalidTarget = errors.New("joborders: target_qty must be > 0 with at most 3 decimal places")
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const columns = `id, order_id, item, target_qty, requires_printing, created_at, closed_at`

// Scan reads a job order row selected with the package's column list.
func Scan(row pgx.Row) (*JobOrder, error) {
	var j JobOrder
	if err := row.Scan(&j.ID, &j.OrderID, &j.Item, &j.TargetQty, &j.RequiresPrinting, &j.CreatedAt, &j.ClosedAt); err != nil {
		return nil, err
	}
	return &j, nil
}

// Columns is the select list Scan expects.
func Columns() string { return columns }

// QueryAll lists every job order through q.
func QueryAll(ctx context.Context, q db.Querier) ([]JobOrder, error) {
	rows, err := q.Query(ctx, `SELECT `+columns+` FROM job_orders ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []JobOrder
	for rows.Next() {
		j, err := Scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

func (r *Repo) Create(ctx context.Context, n NewJobOrder) (*JobOrder, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return Scan(r.pool.QueryRow(ctx, `
		INSERT INTO job_orders (order_id, item, target_qty, requires_printing)
		VALUES ($1,$2,$3,$4)
		RETURNING `+columns,
		n.OrderID, strings.TrimSpace(n.Item), n.TargetQty, n.RequiresPrinting))
}

// Close records the explicit terminal status. Closing twice keeps the first
// timestamp.
func (r *Repo) Close(ctx context.Context, id int64) (*JobOrder, error) {
	j, err := Scan(r.pool.QueryRow(ctx, `
		UPDATE job_orders SET closed_at = COALESCE(closed_at, now())
		WHERE id = $1
		RETURNING `+columns, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return j, err
}

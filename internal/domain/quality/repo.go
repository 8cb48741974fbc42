package quality

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// Record stores w once per roll and step pair. It reports false when the
// same finding was already recorded.
func (r *Repo) Record(ctx context.Context, w Warning) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO data_quality_warnings (roll_id, job_order_id, from_step, to_step, from_qty, to_qty, detected_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (roll_id, from_step, to_step) DO NOTHING
	`, w.RollID, w.JobOrderID, string(w.FromStep), string(w.ToStep), w.FromQty, w.ToQty, w.DetectedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repo) List(ctx context.Context) ([]Warning, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, roll_id, job_order_id, from_step, to_step, from_qty, to_qty, detected_at
		FROM data_quality_warnings
		ORDER BY detected_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Warning
	for rows.Next() {
		var w Warning
		if err := rows.Scan(&w.ID, &w.RollID, &w.JobOrderID, &w.FromStep, &w.ToStep, &w.FromQty, &w.ToQty, &w.DetectedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

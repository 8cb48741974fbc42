package snapshot

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/rollflow/internal/domain/joborders"
	"github.com/Spok95/rollflow/internal/domain/machines"
	"github.com/Spok95/rollflow/internal/domain/receiving"
	"github.com/Spok95/rollflow/internal/domain/rolls"
	"github.com/Spok95/rollflow/internal/infra/db"
)

// PGLoader reads all four tables in one repeatable-read transaction.
type PGLoader struct{ pool *pgxpool.Pool }

func NewPGLoader(pool *pgxpool.Pool) *PGLoader { return &PGLoader{pool: pool} }

func (l *PGLoader) Load(ctx context.Context) (Data, error) {
	var d Data
	err := db.ReadSnapshot(ctx, l.pool, func(q db.Querier) error {
		var err error
		if d.Machines, err = machines.QueryAll(ctx, q); err != nil {
			return err
		}
		if d.JobOrders, err = joborders.QueryAll(ctx, q); err != nil {
			return err
		}
		if d.Rolls, err = rolls.QueryAll(ctx, q); err != nil {
			return err
		}
		d.Transactions, err = receiving.QueryAll(ctx, q)
		return err
	})
	return d, err
}

package machines

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/rollflow/internal/infra/db"
)

var (
	ErrNotFound     = errors.New("machines: machine not found")
	ErrNameRequired = errors.New("machines: name is required")
	ErrUnknownKind  = errors.New("machines: unknown kind")
	ErrNameTaken    = errors.New("machines: name already in use")
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// QueryAll lists every machine through q.
func QueryAll(ctx context.Context, q db.Querier) ([]Machine, error) {
	rows, err := q.Query(ctx, `
		SELECT id, name, kind, active, created_at
		FROM machines
		ORDER BY kind, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Machine
	for rows.Next() {
		var m Machine
		if err := rows.Scan(&m.ID, &m.Name, &m.Kind, &m.Active, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repo) Create(ctx context.Context, n NewMachine) (*Machine, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	var m Machine
	err := r.pool.QueryRow(ctx, `
		INSERT INTO machines (name, kind) VALUES ($1,$2)
		RETURNING id, name, kind, active, created_at
	`, strings.TrimSpace(n.Name), string(n.Kind)).Scan(&m.ID, &m.Name, &m.Kind, &m.Active, &m.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return nil, ErrNameTaken
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Machine, error) {
	var m Machine
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, kind, active, created_at
		FROM machines WHERE id = $1
	`, id).Scan(&m.ID, &m.Name, &m.Kind, &m.Active, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

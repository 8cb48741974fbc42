package receiving

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/rollflow/internal/domain/rolls"
	"github.com/Spok95/rollflow/internal/testsupport"
)

func cutRollPG(t *testing.T, pool *pgxpool.Pool, jobOrderID, cut int64) int64 {
	t.Helper()
	ctx := context.Background()
	repo := rolls.NewRepo(pool)
	r, err := repo.Create(ctx, rolls.NewRoll{JobOrderID: jobOrderID, Qty: d(cut + 20)})
	require.NoError(t, err)
	_, err = repo.Update(ctx, r.ID, func(cur rolls.Roll, rp bool) (rolls.Roll, error) {
		return rolls.Advance(cur, rp, rolls.StepCut, d(cut), nil, time.Now().UTC())
	})
	require.NoError(t, err)
	return r.ID
}

func receiveConcurrently(t *testing.T, repo *Repo, jobOrderID int64, n int, qty int64) (accepted, rejected int64) {
	t.Helper()
	var (
		wg       sync.WaitGroup
		ok, over atomic.Int64
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Receive(context.Background(), Request{JobOrderID: jobOrderID, Qty: d(qty), Agent: "wh"})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, ErrQuantityExceedsAvailable):
				over.Add(1)
			default:
				t.Errorf("receive: %v", err)
			}
		}()
	}
	wg.Wait()
	return ok.Load(), over.Load()
}

func TestRepoReceiveSerializesPerJobOrder(t *testing.T) {
	pool := testsupport.MustPostgres(t)
	repo := NewRepo(pool)
	ctx := context.Background()

	joID := testsupport.MustJobOrder(t, pool, false)
	cutRollPG(t, pool, joID, 100)

	accepted, rejected := receiveConcurrently(t, repo, joID, 2, 60)
	assert.Equal(t, int64(1), accepted)
	assert.Equal(t, int64(1), rejected)

	l, err := repo.Ledger(ctx, joID)
	require.NoError(t, err)
	assert.True(t, l.Received().Equal(d(60)))
	assert.True(t, l.Available().Equal(d(40)))
}

func TestRepoReceiveNeverOverdraws(t *testing.T) {
	pool := testsupport.MustPostgres(t)
	repo := NewRepo(pool)

	a := testsupport.MustJobOrder(t, pool, false)
	b := testsupport.MustJobOrder(t, pool, false)
	cutRollPG(t, pool, a, 100)
	cutRollPG(t, pool, b, 100)

	var wg sync.WaitGroup
	results := make([][2]int64, 2)
	for i, id := range []int64{a, b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acc, rej := receiveConcurrently(t, repo, id, 10, 15)
			results[i] = [2]int64{acc, rej}
		}()
	}
	wg.Wait()

	for i, id := range []int64{a, b} {
		assert.Equal(t, [2]int64{6, 4}, results[i], "job order %d", id)
		l, err := repo.Ledger(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, l.Received().Equal(d(90)))
		assert.True(t, l.Received().LessThanOrEqual(l.CutTotal()))
	}
}

func TestRepoReceiveRejectsLinkToUncutRoll(t *testing.T) {
	pool := testsupport.MustPostgres(t)
	repo := NewRepo(pool)
	ctx := context.Background()

	joID := testsupport.MustJobOrder(t, pool, false)
	cutRollPG(t, pool, joID, 100)
	uncut, err := rolls.NewRepo(pool).Create(ctx, rolls.NewRoll{JobOrderID: joID, Qty: d(50)})
	require.NoError(t, err)

	_, err = repo.Receive(ctx, Request{JobOrderID: joID, Qty: d(10), Agent: "wh", RollID: &uncut.ID})
	assert.ErrorIs(t, err, ErrRollNotCut)
}

package rolls

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/rollflow/internal/testsupport"
)

func TestRepoCreateAssignsDistinctSeq(t *testing.T) {
	pool := testsupport.MustPostgres(t)
	repo := NewRepo(pool)
	joID := testsupport.MustJobOrder(t, pool, true)

	const n = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seqs []int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := repo.Create(context.Background(), NewRoll{JobOrderID: joID, Qty: decimal.NewFromInt(100)})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seqs = append(seqs, r.Seq)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Ints(seqs)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, seqs)
}

func TestRepoUpdateSerializesPerRoll(t *testing.T) {
	pool := testsupport.MustPostgres(t)
	repo := NewRepo(pool)
	ctx := context.Background()
	joID := testsupport.MustJobOrder(t, pool, false)

	r, err := repo.Create(ctx, NewRoll{JobOrderID: joID, Qty: decimal.NewFromInt(500)})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		okCount int
		dupe    int
	)
	for _, q := range []int64{450, 440} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, r.ID, func(cur Roll, rp bool) (Roll, error) {
				return Advance(cur, rp, StepCut, decimal.NewFromInt(q), nil, time.Now().UTC())
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				okCount++
			case errors.Is(err, ErrStepAlreadyRecorded):
				dupe++
			default:
				t.Errorf("update: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, okCount)
	assert.Equal(t, 1, dupe)

	got, err := repo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	require.True(t, got.CutQty.Valid)
	assert.True(t, got.CutQty.Decimal.Equal(decimal.NewFromInt(450)) || got.CutQty.Decimal.Equal(decimal.NewFromInt(440)))
}

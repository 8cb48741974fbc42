package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/rollflow/internal/domain/joborders"
	"github.com/Spok95/rollflow/internal/domain/machines"
	"github.com/Spok95/rollflow/internal/domain/receiving"
	"github.com/Spok95/rollflow/internal/domain/rolls"
)

func q(v int64) decimal.NullDecimal { return decimal.NewNullDecimal(decimal.NewFromInt(v)) }

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func id(v int64) *int64 { return &v }

func floor() Data {
	return Data{
		Machines: []machines.Machine{
			{ID: 1, Name: "EX-1", Kind: machines.KindExtruder, Active: true},
			{ID: 2, Name: "PR-1", Kind: machines.KindPrinter, Active: true},
			{ID: 3, Name: "CT-1", Kind: machines.KindCutter, Active: true},
		},
		JobOrders: []joborders.JobOrder{
			{ID: 20, Item: "empty", TargetQty: d(100)},
			{ID: 10, Item: "bag", TargetQty: d(1000), RequiresPrinting: true},
		},
		Rolls: []rolls.Roll{
			{ID: 1, JobOrderID: 10, Seq: 1, ExtrudeQty: q(500), PrintQty: q(480), CutQty: q(450),
				ExtrudeMachineID: id(1), PrintMachineID: id(2), CutMachineID: id(3)},
			{ID: 2, JobOrderID: 10, Seq: 2, ExtrudeQty: q(500), PrintQty: q(490),
				ExtrudeMachineID: id(1), PrintMachineID: id(2)},
			{ID: 3, JobOrderID: 10, Seq: 3, ExtrudeQty: q(100), PrintQty: q(120), ExtrudeMachineID: id(1)},
			{ID: 4, JobOrderID: 99, Seq: 1, ExtrudeQty: q(100)}, // job order unknown
		},
		Transactions: []receiving.Transaction{
			{ID: 1, JobOrderID: 10, Qty: d(450)},
		},
	}
}

func TestBuild(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s := Build(floor(), now)

	assert.Equal(t, now, s.LastUpdated)

	require.Len(t, s.JobOrders, 2)
	assert.Equal(t, int64(10), s.JobOrders[0].JobOrderID, "job orders are sorted by id")
	assert.Equal(t, joborders.StatusNotStarted, s.JobOrders[1].Status)

	bag := s.JobOrders[0]
	assert.Equal(t, joborders.StatusInProgress, bag.Status)
	assert.Equal(t, 1, bag.StageBreakdown[rolls.StageCompleted])
	assert.Equal(t, 2, bag.StageBreakdown[rolls.StagePrinting])

	require.Len(t, s.Rolls, 3, "rolls of unknown job orders are skipped")
	assert.Equal(t, rolls.StageCompleted, s.Rolls[0].Stage)
	assert.True(t, s.Rolls[0].ReceivedQty.Equal(d(450)))

	require.Len(t, s.Warnings, 1)
	assert.Equal(t, int64(3), s.Warnings[0].RollID)

	assert.True(t, s.Production.ExtrudedQty.Equal(d(1100)))
	assert.True(t, s.Production.ReceivedQty.Equal(d(450)))
	assert.True(t, s.Production.AvailableQty.IsZero())
	assert.Equal(t, 1, s.Production.ActiveJobOrders)
}

func TestBuildMachineLoads(t *testing.T) {
	s := Build(floor(), time.Now())
	require.Len(t, s.Machines, 3)

	ex, pr, ct := s.Machines[0], s.Machines[1], s.Machines[2]
	assert.Equal(t, 3, ex.RollsProcessed)
	assert.True(t, ex.ProcessedQty.Equal(d(1100)))
	assert.Equal(t, 0, ex.Pending, "every extruded roll has moved on")

	assert.Equal(t, 2, pr.RollsProcessed)
	assert.True(t, pr.ProcessedQty.Equal(d(970)))
	assert.Equal(t, 1, pr.Pending)

	assert.Equal(t, 1, ct.RollsProcessed)
	assert.Equal(t, 0, ct.Pending, "the cut roll is fully received")
}

func TestBuildEmpty(t *testing.T) {
	s := Build(Data{}, time.Now())
	assert.NotNil(t, s.Rolls)
	assert.NotNil(t, s.JobOrders)
	assert.NotNil(t, s.Warnings)
	assert.True(t, s.Production.ProducedQty.IsZero())
}

type loaderFunc func(ctx context.Context) (Data, error)

func (f loaderFunc) Load(ctx context.Context) (Data, error) { return f(ctx) }

func TestServiceCurrent(t *testing.T) {
	svc := NewService(loaderFunc(func(context.Context) (Data, error) { return floor(), nil }), nil)
	a, err := svc.Current(context.Background())
	require.NoError(t, err)
	b, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a.JobOrders, b.JobOrders, "no writes in between, same picture")

	boom := errors.New("boom")
	svc = NewService(loaderFunc(func(context.Context) (Data, error) { return Data{}, boom }), nil)
	_, err = svc.Current(context.Background())
	assert.ErrorIs(t, err, boom)
}

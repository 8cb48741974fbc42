package joborders

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/rollflow/internal/domain/rolls"
)

func q(v int64) decimal.NullDecimal { return decimal.NewNullDecimal(decimal.NewFromInt(v)) }

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestAggregateNotStarted(t *testing.T) {
	s := Aggregate(JobOrder{ID: 1, TargetQty: d(1000)}, nil, Receipts{})

	assert.Equal(t, StatusNotStarted, s.Status)
	assert.Equal(t, 0, s.RollCount)
	assert.True(t, s.ProducedQty.IsZero())
	assert.False(t, s.WasteQty.Valid)
	assert.Len(t, s.StageBreakdown, len(rolls.Stages))
}

func TestAggregateInProgress(t *testing.T) {
	jo := JobOrder{ID: 1, TargetQty: d(1000), RequiresPrinting: true}
	rs := []rolls.Roll{
		{ID: 1, JobOrderID: 1, ExtrudeQty: q(500), PrintQty: q(480), CutQty: q(450)},
		{ID: 2, JobOrderID: 1, ExtrudeQty: q(300), PrintQty: q(290)},
		{ID: 3, JobOrderID: 1, ExtrudeQty: q(200)},
	}
	s := Aggregate(jo, rs, Receipts{PerRoll: map[int64]decimal.Decimal{}})

	assert.Equal(t, StatusInProgress, s.Status)
	assert.Equal(t, 3, s.RollCount)
	assert.Equal(t, 1, s.StageBreakdown[rolls.StageCutting])
	assert.Equal(t, 1, s.StageBreakdown[rolls.StagePrinting])
	assert.Equal(t, 1, s.StageBreakdown[rolls.StageExtruding])

	assert.True(t, s.ExtrudedQty.Equal(d(1000)))
	assert.True(t, s.ProducedQty.Equal(d(940)))
	assert.True(t, s.CutQty.Equal(d(450)))
	require.True(t, s.WasteQty.Valid)
	assert.True(t, s.WasteQty.Decimal.Equal(d(60)))
	assert.True(t, s.WastePercent.Decimal.Equal(d(6)))
	assert.True(t, s.CuttingWaste.Decimal.Equal(d(30)))
	assert.True(t, s.ProgressPercent.Decimal.Equal(d(94)))
}

func TestAggregateConservesMass(t *testing.T) {
	// A cut measured above its extrusion must not make produced + waste exceed
	// the extruded total.
	rs := []rolls.Roll{
		{ID: 1, ExtrudeQty: q(100), CutQty: q(130)},
	}
	s := Aggregate(JobOrder{ID: 1, TargetQty: d(100)}, rs, Receipts{})

	total := s.ProducedQty.Add(s.WasteQty.Decimal)
	assert.True(t, total.LessThanOrEqual(s.ExtrudedQty), "produced %s + waste %s > extruded %s",
		s.ProducedQty, s.WasteQty.Decimal, s.ExtrudedQty)
}

func TestAggregateCompleted(t *testing.T) {
	jo := JobOrder{ID: 1, TargetQty: d(700)}
	rs := []rolls.Roll{
		{ID: 1, ExtrudeQty: q(500), CutQty: q(450)},
		{ID: 2, ExtrudeQty: q(300), CutQty: q(270)},
	}
	rc := Receipts{
		PerRoll:  map[int64]decimal.Decimal{1: d(450), 2: d(270)},
		Received: d(720),
	}
	s := Aggregate(jo, rs, rc)
	assert.Equal(t, StatusCompleted, s.Status)
	assert.Equal(t, 2, s.StageBreakdown[rolls.StageCompleted])
	assert.True(t, s.ReceivedQty.Equal(d(720)))

	// Everything received but short of target stays in progress.
	jo.TargetQty = d(1000)
	assert.Equal(t, StatusInProgress, Aggregate(jo, rs, rc).Status)

	closed := time.Now()
	jo.ClosedAt = &closed
	assert.Equal(t, StatusCompleted, Aggregate(jo, rs, Receipts{}).Status)
}

func TestNewJobOrderValidate(t *testing.T) {
	tests := []struct {
		name string
		in   NewJobOrder
		want error
	}{
		{"ok", NewJobOrder{Item: "bag", TargetQty: decimal.RequireFromString("1000.5")}, nil},
		{"blank item", NewJobOrder{Item: " ", TargetQty: d(1)}, ErrItemRequired},
		{"zero target", NewJobOrder{Item: "bag"}, ErrInvalidTarget},
		{"too precise", NewJobOrder{Item: "bag", TargetQty: decimal.RequireFromString("10.0001")}, ErrInvalidTarget},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

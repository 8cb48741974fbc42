package receiving

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/rollflow/internal/domain/joborders"
	"github.com/Spok95/rollflow/internal/domain/rolls"
)

func q(v int64) decimal.NullDecimal { return decimal.NewNullDecimal(decimal.NewFromInt(v)) }

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func ptr(v int64) *int64 { return &v }

func ledger(txs ...int64) Ledger {
	l := Ledger{
		JobOrder: joborders.JobOrder{ID: 10},
		Rolls: []rolls.Roll{
			{ID: 1, JobOrderID: 10, Seq: 1, ExtrudeQty: q(650), CutQty: q(600)},
			{ID: 2, JobOrderID: 10, Seq: 2, ExtrudeQty: q(450), CutQty: q(400)},
			{ID: 3, JobOrderID: 10, Seq: 3, ExtrudeQty: q(300)}, // not cut yet
		},
	}
	for i, v := range txs {
		l.Transactions = append(l.Transactions, Transaction{ID: int64(i + 1), JobOrderID: 10, Qty: d(v)})
	}
	return l
}

func TestAvailable(t *testing.T) {
	l := ledger(400)
	assert.True(t, l.CutTotal().Equal(d(1000)))
	assert.True(t, l.Received().Equal(d(400)))
	assert.True(t, l.Available().Equal(d(600)))

	// Repeated reads with no writes in between agree.
	assert.True(t, l.Available().Equal(l.Available()))

	assert.True(t, ledger(1000).Available().IsZero())
	assert.True(t, ledger(1200).Available().IsZero(), "availability is clamped at zero")
}

func TestCheckRejectsOverReceiving(t *testing.T) {
	l := ledger(400)
	err := l.Check(Request{JobOrderID: 10, Qty: d(700), Agent: "wh-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQuantityExceedsAvailable)

	var ex *ExceedsAvailableError
	require.ErrorAs(t, err, &ex)
	assert.True(t, ex.Available.Equal(d(600)))
	assert.True(t, ex.Requested.Equal(d(700)))
	assert.Equal(t, int64(10), ex.JobOrderID)

	assert.NoError(t, l.Check(Request{JobOrderID: 10, Qty: d(600), Agent: "wh-1"}))
}

func TestCheckValidation(t *testing.T) {
	l := ledger()
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"zero qty", Request{Qty: decimal.Zero, Agent: "a"}, ErrInvalidQuantity},
		{"negative qty", Request{Qty: d(-1), Agent: "a"}, ErrInvalidQuantity},
		{"missing agent", Request{Qty: d(1), Agent: "  "}, ErrAgentRequired},
		{"foreign roll", Request{Qty: d(1), Agent: "a", RollID: ptr(99)}, ErrRollNotInJobOrder},
		{"roll not cut", Request{Qty: d(300), Agent: "a", RollID: ptr(3)}, ErrRollNotCut},
		{"below storage scale", Request{Qty: decimal.RequireFromString("0.0004"), Agent: "a"}, ErrInvalidQuantity},
		{"extra fraction digit", Request{Qty: decimal.RequireFromString("450.0004"), Agent: "a"}, ErrInvalidQuantity},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, l.Check(tc.req), tc.want)
		})
	}
}

func TestCheckAcceptsStorableFraction(t *testing.T) {
	l := ledger()
	assert.NoError(t, l.Check(Request{Qty: decimal.RequireFromString("450.125"), Agent: "a"}))
	assert.NoError(t, l.Check(Request{Qty: decimal.RequireFromString("1.50000"), Agent: "a"}))
}

func TestCheckLinkedRollRemainder(t *testing.T) {
	l := ledger()
	err := l.Check(Request{JobOrderID: 10, Qty: d(600), Agent: "a", RollID: ptr(2)})
	var ex *ExceedsAvailableError
	require.ErrorAs(t, err, &ex)
	assert.ErrorIs(t, err, ErrQuantityExceedsAvailable)
	require.NotNil(t, ex.RollID)
	assert.Equal(t, int64(2), *ex.RollID)
	assert.True(t, ex.Available.Equal(d(400)))

	l.Transactions = []Transaction{{ID: 1, Qty: d(300), RollID: ptr(2)}, {ID: 2, Qty: d(500)}}
	err = l.Check(Request{JobOrderID: 10, Qty: d(150), Agent: "a", RollID: ptr(2)})
	require.ErrorAs(t, err, &ex)
	assert.True(t, ex.Available.Equal(d(100)), "unlinked receipts do not use up the roll's linked remainder")

	require.NoError(t, l.Check(Request{JobOrderID: 10, Qty: d(100), Agent: "a", RollID: ptr(2)}))
	l.Transactions = append(l.Transactions, Transaction{ID: 3, Qty: d(100), RollID: ptr(2)})
	got := l.Allocate()
	assert.True(t, got[2].Equal(d(400)))
	assert.True(t, got[1].Equal(d(500)))
}

func TestAllocateFIFO(t *testing.T) {
	got := ledger(400, 300).Allocate()
	assert.True(t, got[1].Equal(d(600)))
	assert.True(t, got[2].Equal(d(100)))
	_, uncut := got[3]
	assert.False(t, uncut, "uncut rolls receive nothing")
}

func TestAllocateLinkedRollFirst(t *testing.T) {
	l := ledger()
	l.Transactions = []Transaction{
		{ID: 1, Qty: d(450), RollID: ptr(2)}, // 400 to roll 2, 50 overflow
		{ID: 2, Qty: d(100)},
	}
	got := l.Allocate()
	assert.True(t, got[2].Equal(d(400)))
	assert.True(t, got[1].Equal(d(150)))

	rc := l.Receipts()
	assert.True(t, rc.Received.Equal(d(550)))
	assert.True(t, rc.Available.Equal(d(450)))
	assert.Equal(t, rolls.StageCompleted, rolls.DeriveStageReceived(l.Rolls[1], false, rc.PerRoll[2]))
	assert.Equal(t, rolls.StageCutting, rolls.DeriveStageReceived(l.Rolls[0], false, rc.PerRoll[1]))
}

func TestReceivedNeverExceedsCutTotal(t *testing.T) {
	l := ledger()
	for _, v := range []int64{300, 300, 250, 200, 100, 50} {
		req := Request{JobOrderID: 10, Qty: d(v), Agent: "wh"}
		if err := l.Check(req); err != nil {
			assert.ErrorIs(t, err, ErrQuantityExceedsAvailable)
			continue
		}
		l.Transactions = append(l.Transactions, Transaction{Qty: req.Qty})
		assert.True(t, l.Received().LessThanOrEqual(l.CutTotal()))
	}
	assert.True(t, l.Received().Equal(d(1000)))
}

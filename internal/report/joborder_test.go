package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/rollflow/internal/domain/joborders"
	"github.com/Spok95/rollflow/internal/domain/receiving"
	"github.com/Spok95/rollflow/internal/domain/rolls"
)

func q(v int64) decimal.NullDecimal { return decimal.NewNullDecimal(decimal.NewFromInt(v)) }

func TestWriteJobOrder(t *testing.T) {
	rollID := int64(1)
	l := &receiving.Ledger{
		JobOrder: joborders.JobOrder{ID: 7, Item: "пакет", TargetQty: decimal.NewFromInt(1000), RequiresPrinting: true},
		Rolls: []rolls.Roll{
			{ID: 1, JobOrderID: 7, Seq: 1, ExtrudeQty: q(500), PrintQty: q(480), CutQty: q(450)},
			{ID: 2, JobOrderID: 7, Seq: 2, ExtrudeQty: q(300)},
		},
		Transactions: []receiving.Transaction{
			{ID: 1, JobOrderID: 7, RollID: &rollID, Qty: decimal.NewFromInt(450), Agent: "wh-1",
				CreatedAt: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)},
		},
	}
	sum := joborders.Aggregate(l.JobOrder, l.Rolls, l.Receipts())

	var buf bytes.Buffer
	require.NoError(t, WriteJobOrder(&buf, l, sum))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SheetRolls, SheetReceipts, SheetSummary}, f.GetSheetList())

	rows, err := f.GetRows(SheetRolls)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1", "1", "500", "480", "450", "20", "30", "50", "10", "450", "completed"}, rows[1])
	assert.Equal(t, "", rows[2][3], "unmeasured print quantity stays blank")
	assert.Equal(t, "extruding", rows[2][10])

	txs, err := f.GetRows(SheetReceipts)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "wh-1", txs[1][3])

	status, err := f.GetCellValue(SheetSummary, "B3")
	require.NoError(t, err)
	assert.Equal(t, "in_progress", status)
}

func TestFileName(t *testing.T) {
	at := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "job_order_7_20260501_093000.xlsx", FileName(7, at))
}

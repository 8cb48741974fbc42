// Package report renders job order production workbooks.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/rollflow/internal/domain/joborders"
	"github.com/Spok95/rollflow/internal/domain/receiving"
	"github.com/Spok95/rollflow/internal/domain/rolls"
	"github.com/Spok95/rollflow/internal/domain/waste"
)

const (
	SheetRolls    = "Рулоны"
	SheetReceipts = "Приёмка"
	SheetSummary  = "Итого"
)

// FileName returns the download name of a job order workbook.
func FileName(jobOrderID int64, at time.Time) string {
	return fmt.Sprintf("job_order_%d_%s.xlsx", jobOrderID, at.Format("20060102_150405"))
}

// WriteJobOrder writes the job order workbook to w: one row per roll with
// its quantities, stage and waste, the receiving transactions and the
// aggregated summary.
func WriteJobOrder(w io.Writer, l *receiving.Ledger, sum joborders.Summary) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), SheetRolls); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetReceipts); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}

	perRoll := l.Allocate()
	rollRows := [][]any{{
		"roll_id", "Номер", "Экструзия", "Печать", "Резка",
		"Отход экстр.-печать", "Отход печать-резка", "Отход всего", "Отход %",
		"Принято", "Стадия",
	}}
	for _, r := range l.Rolls {
		res := waste.ForRoll(r)
		rollRows = append(rollRows, []any{
			r.ID, r.Seq, cell(r.ExtrudeQty), cell(r.PrintQty), cell(r.CutQty),
			cell(res.ExtrudeToPrint), cell(res.PrintToCut), cell(res.Total), cell(res.TotalPercent),
			perRoll[r.ID].InexactFloat64(),
			string(rolls.DeriveStageReceived(r, l.JobOrder.RequiresPrinting, perRoll[r.ID])),
		})
	}
	if err := writeRows(f, SheetRolls, rollRows); err != nil {
		return err
	}

	txRows := [][]any{{"id", "roll_id", "Количество", "Принял", "Комментарий", "Время"}}
	for _, t := range l.Transactions {
		var rollID any = ""
		if t.RollID != nil {
			rollID = *t.RollID
		}
		txRows = append(txRows, []any{
			t.ID, rollID, t.Qty.InexactFloat64(), t.Agent, t.Note, t.CreatedAt.Format(time.RFC3339),
		})
	}
	if err := writeRows(f, SheetReceipts, txRows); err != nil {
		return err
	}

	sumRows := [][]any{
		{"Заказ", sum.JobOrderID},
		{"Изделие", sum.Item},
		{"Статус", string(sum.Status)},
		{"План", sum.TargetQty.InexactFloat64()},
		{"Рулонов", sum.RollCount},
		{"Экструдировано", sum.ExtrudedQty.InexactFloat64()},
		{"Произведено", sum.ProducedQty.InexactFloat64()},
		{"Выполнение %", cell(sum.ProgressPercent)},
		{"Отход", cell(sum.WasteQty)},
		{"Отход %", cell(sum.WastePercent)},
		{"Отход резки", cell(sum.CuttingWaste)},
		{"Отход резки %", cell(sum.CuttingWastePercent)},
		{"Принято", sum.ReceivedQty.InexactFloat64()},
		{"Доступно к приёмке", sum.AvailableQty.InexactFloat64()},
	}
	if err := writeRows(f, SheetSummary, sumRows); err != nil {
		return err
	}

	_, err := f.WriteTo(w)
	return err
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, addr, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// cell leaves unmeasured quantities blank.
func cell(v decimal.NullDecimal) any {
	if !v.Valid {
		return ""
	}
	return v.Decimal.InexactFloat64()
}

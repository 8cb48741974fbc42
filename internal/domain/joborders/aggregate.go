package joborders

import (
	"github.com/shopspring/decimal"

	"github.com/Spok95/rollflow/internal/domain/rolls"
	"github.com/Spok95/rollflow/internal/domain/waste"
)

type Summary struct {
	JobOrderID       int64           `json:"job_order_id"`
	Item             string          `json:"item"`
	TargetQty        decimal.Decimal `json:"target_qty"`
	RequiresPrinting bool            `json:"requires_printing"`
	Status           Status          `json:"status"`

	RollCount      int                 `json:"roll_count"`
	StageBreakdown map[rolls.Stage]int `json:"stage_breakdown"`

	ExtrudedQty     decimal.Decimal     `json:"extruded_qty"`
	ProducedQty     decimal.Decimal     `json:"produced_qty"`
	CutQty          decimal.Decimal     `json:"cut_qty"`
	ProgressPercent decimal.NullDecimal `json:"progress_percent"`

	WasteQty            decimal.NullDecimal `json:"waste_qty"`
	WastePercent        decimal.NullDecimal `json:"waste_percent"`
	CuttingWaste        decimal.NullDecimal `json:"cutting_waste"`
	CuttingWastePercent decimal.NullDecimal `json:"cutting_waste_percent"`

	ReceivedQty  decimal.Decimal `json:"received_qty"`
	AvailableQty decimal.Decimal `json:"available_qty"`
}

// Aggregate rolls the job order's rolls up into production and waste totals.
//
// ProducedQty is the sum of each roll's last populated quantity, capped at the
// extruded total so produced + waste never exceeds what was extruded.
func Aggregate(jo JobOrder, rs []rolls.Roll, rc Receipts) Summary {
	s := Summary{
		JobOrderID:       jo.ID,
		Item:             jo.Item,
		TargetQty:        jo.TargetQty,
		RequiresPrinting: jo.RequiresPrinting,
		RollCount:        len(rs),
		StageBreakdown:   make(map[rolls.Stage]int, len(rolls.Stages)),
		ReceivedQty:      rc.Received,
		AvailableQty:     rc.Available,
	}
	for _, st := range rolls.Stages {
		s.StageBreakdown[st] = 0
	}

	var last decimal.Decimal
	allCompleted := len(rs) > 0
	for _, r := range rs {
		st := rolls.DeriveStageReceived(r, jo.RequiresPrinting, rc.PerRoll[r.ID])
		s.StageBreakdown[st]++
		if st != rolls.StageCompleted {
			allCompleted = false
		}
		if !r.ExtrudeQty.Valid {
			continue
		}
		s.ExtrudedQty = s.ExtrudedQty.Add(r.ExtrudeQty.Decimal)
		last = last.Add(r.Last().Decimal)
		if r.CutQty.Valid {
			s.CutQty = s.CutQty.Add(r.CutQty.Decimal)
		}
	}
	s.ProducedQty = decimal.Min(last, s.ExtrudedQty)

	s.WasteQty = waste.JobOrderWaste(rs)
	s.WastePercent = waste.JobOrderWastePercent(rs)
	s.CuttingWaste = waste.CumulativeCuttingWaste(rs)
	s.CuttingWastePercent = waste.CumulativeCuttingWastePercent(rs)

	if jo.TargetQty.IsPositive() {
		s.ProgressPercent = decimal.NewNullDecimal(
			s.ProducedQty.Div(jo.TargetQty).Mul(decimal.NewFromInt(100)).Round(2))
	}

	switch {
	case jo.ClosedAt != nil:
		s.Status = StatusCompleted
	case len(rs) == 0:
		s.Status = StatusNotStarted
	case allCompleted && s.ProducedQty.GreaterThanOrEqual(jo.TargetQty):
		s.Status = StatusCompleted
	default:
		s.Status = StatusInProgress
	}
	return s
}

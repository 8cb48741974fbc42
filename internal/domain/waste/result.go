package waste

import (
	"github.com/shopspring/decimal"

	"github.com/Spok95/rollflow/internal/domain/rolls"
)

// RollResult is the waste breakdown of a single roll.
type RollResult struct {
	RollID                int64               `json:"roll_id"`
	ExtrudeToPrint        decimal.NullDecimal `json:"extrude_to_print"`
	ExtrudeToPrintPercent decimal.NullDecimal `json:"extrude_to_print_percent"`
	PrintToCut            decimal.NullDecimal `json:"print_to_cut"`
	PrintToCutPercent     decimal.NullDecimal `json:"print_to_cut_percent"`
	Cutting               decimal.NullDecimal `json:"cutting"`
	Total                 decimal.NullDecimal `json:"total"`
	TotalPercent          decimal.NullDecimal `json:"total_percent"`
	Anomalies             []Anomaly           `json:"anomalies,omitempty"`
}

// Result is the waste breakdown of a set of rolls, normally one job order.
type Result struct {
	Total          decimal.NullDecimal `json:"total"`
	TotalPercent   decimal.NullDecimal `json:"total_percent"`
	Cutting        decimal.NullDecimal `json:"cutting"`
	CuttingPercent decimal.NullDecimal `json:"cutting_percent"`
	Rolls          []RollResult        `json:"rolls"`
}

func ForRoll(r rolls.Roll) RollResult {
	var cutting decimal.NullDecimal
	if r.CutQty.Valid {
		cutting = StageWaste(CuttingFrom(r), r.CutQty)
	}
	return RollResult{
		RollID:                r.ID,
		ExtrudeToPrint:        StageWaste(r.ExtrudeQty, r.PrintQty),
		ExtrudeToPrintPercent: StageWastePercent(r.ExtrudeQty, r.PrintQty),
		PrintToCut:            StageWaste(r.PrintQty, r.CutQty),
		PrintToCutPercent:     StageWastePercent(r.PrintQty, r.CutQty),
		Cutting:               cutting,
		Total:                 TotalRollWaste(r),
		TotalPercent:          TotalRollWastePercent(r),
		Anomalies:             Inspect(r),
	}
}

func ForRolls(rs []rolls.Roll) Result {
	out := Result{
		Total:          JobOrderWaste(rs),
		TotalPercent:   JobOrderWastePercent(rs),
		Cutting:        CumulativeCuttingWaste(rs),
		CuttingPercent: CumulativeCuttingWastePercent(rs),
		Rolls:          make([]RollResult, 0, len(rs)),
	}
	for _, r := range rs {
		out.Rolls = append(out.Rolls, ForRoll(r))
	}
	return out
}

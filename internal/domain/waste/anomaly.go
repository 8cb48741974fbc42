package waste

import (
	"github.com/shopspring/decimal"

	"github.com/Spok95/rollflow/internal/domain/rolls"
)

// Anomaly is a negative raw difference between two consecutive measurements:
// a later stage measured more material than the one before it. The derived
// waste is clamped to zero; the anomaly itself is kept for audit.
type Anomaly struct {
	RollID     int64           `json:"roll_id"`
	JobOrderID int64           `json:"job_order_id"`
	From       rolls.Step      `json:"from"`
	To         rolls.Step      `json:"to"`
	FromQty    decimal.Decimal `json:"from_qty"`
	ToQty      decimal.Decimal `json:"to_qty"`
}

// Excess is how much the later measurement exceeds the earlier one.
func (a Anomaly) Excess() decimal.Decimal { return a.ToQty.Sub(a.FromQty) }

// Inspect returns the roll's negative stage differences in stage order.
func Inspect(r rolls.Roll) []Anomaly {
	var out []Anomaly
	check := func(from, to rolls.Step) {
		f, t := r.Qty(from), r.Qty(to)
		if f.Valid && t.Valid && t.Decimal.GreaterThan(f.Decimal) {
			out = append(out, Anomaly{
				RollID: r.ID, JobOrderID: r.JobOrderID,
				From: from, To: to,
				FromQty: f.Decimal, ToQty: t.Decimal,
			})
		}
	}
	check(rolls.StepExtrude, rolls.StepPrint)
	if r.PrintQty.Valid {
		check(rolls.StepPrint, rolls.StepCut)
	} else {
		check(rolls.StepExtrude, rolls.StepCut)
	}
	return out
}

// InspectAll concatenates Inspect over rs.
func InspectAll(rs []rolls.Roll) []Anomaly {
	var out []Anomaly
	for _, r := range rs {
		out = append(out, Inspect(r)...)
	}
	return out
}

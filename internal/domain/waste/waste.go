// Package waste computes material lost between stage measurements.
//
// All results are decimal.NullDecimal: an invalid value means "not yet
// measurable", which is different from a valid zero ("no waste"). Raw negative
// differences are clamped to zero; Inspect reports them for audit.
package waste

import (
	"github.com/shopspring/decimal"

	"github.com/Spok95/rollflow/internal/domain/rolls"
)

var hundred = decimal.NewFromInt(100)

// percentPlaces is the rounding applied to every percentage.
const percentPlaces = 2

// StageWaste returns max(0, from-to), invalid when either side is unmeasured.
func StageWaste(from, to decimal.NullDecimal) decimal.NullDecimal {
	if !from.Valid || !to.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(clamp(from.Decimal.Sub(to.Decimal)))
}

// StageWastePercent returns StageWaste(from, to) / from * 100, invalid when
// from is zero or either side is unmeasured.
func StageWastePercent(from, to decimal.NullDecimal) decimal.NullDecimal {
	w := StageWaste(from, to)
	if !w.Valid {
		return w
	}
	return percent(w.Decimal, from.Decimal)
}

// TotalRollWaste is extrude minus the last populated quantity. A roll that was
// only extruded has zero waste.
func TotalRollWaste(r rolls.Roll) decimal.NullDecimal {
	if !r.ExtrudeQty.Valid {
		return decimal.NullDecimal{}
	}
	return StageWaste(r.ExtrudeQty, r.Last())
}

// TotalRollWastePercent is TotalRollWaste relative to the extruded quantity.
func TotalRollWastePercent(r rolls.Roll) decimal.NullDecimal {
	w := TotalRollWaste(r)
	if !w.Valid {
		return w
	}
	return percent(w.Decimal, r.ExtrudeQty.Decimal)
}

// CuttingFrom is the quantity cutting started from: print when the roll was
// printed, extrude otherwise.
func CuttingFrom(r rolls.Roll) decimal.NullDecimal {
	if r.PrintQty.Valid {
		return r.PrintQty
	}
	return r.ExtrudeQty
}

// JobOrderWaste sums extrude and last-populated quantities over rolls with an
// extrude measurement and returns the clamped difference. Invalid when no roll
// was extruded.
func JobOrderWaste(rs []rolls.Roll) decimal.NullDecimal {
	extruded, last, ok := jobOrderSums(rs)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(clamp(extruded.Sub(last)))
}

// JobOrderWastePercent divides JobOrderWaste by the summed extrude quantity.
func JobOrderWastePercent(rs []rolls.Roll) decimal.NullDecimal {
	extruded, last, ok := jobOrderSums(rs)
	if !ok {
		return decimal.NullDecimal{}
	}
	return percent(clamp(extruded.Sub(last)), extruded)
}

func jobOrderSums(rs []rolls.Roll) (extruded, last decimal.Decimal, ok bool) {
	for _, r := range rs {
		if !r.ExtrudeQty.Valid {
			continue
		}
		ok = true
		extruded = extruded.Add(r.ExtrudeQty.Decimal)
		last = last.Add(r.Last().Decimal)
	}
	return extruded, last, ok
}

// CumulativeCuttingWaste sums cutting waste over rolls that reached cutting.
// Rolls not yet cut are excluded entirely; invalid when no roll qualifies.
func CumulativeCuttingWaste(rs []rolls.Roll) decimal.NullDecimal {
	w, _, ok := cuttingSums(rs)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(w)
}

// CumulativeCuttingWastePercent divides CumulativeCuttingWaste by the summed
// cutting input of the same qualifying rolls.
func CumulativeCuttingWastePercent(rs []rolls.Roll) decimal.NullDecimal {
	w, from, ok := cuttingSums(rs)
	if !ok {
		return decimal.NullDecimal{}
	}
	return percent(w, from)
}

func cuttingSums(rs []rolls.Roll) (w, from decimal.Decimal, ok bool) {
	for _, r := range rs {
		start := CuttingFrom(r)
		if !r.CutQty.Valid || !start.Valid {
			continue
		}
		ok = true
		from = from.Add(start.Decimal)
		w = w.Add(StageWaste(start, r.CutQty).Decimal)
	}
	return w, from, ok
}

func clamp(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func percent(part, whole decimal.Decimal) decimal.NullDecimal {
	if whole.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(part.Div(whole).Mul(hundred).Round(percentPlaces))
}

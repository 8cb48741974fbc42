package rolls

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeriveStage computes the stage from populated quantities only. Receipt
// coverage is not considered here, so the furthest stage it reports for an
// open roll is cutting.
func DeriveStage(r Roll, requiresPrinting bool) Stage {
	switch {
	case !r.ExtrudeQty.Valid:
		return StageNone
	case r.ClosedAt != nil:
		return StageCompleted
	case r.CutQty.Valid:
		return StageCutting
	case requiresPrinting && r.PrintQty.Valid:
		return StagePrinting
	default:
		return StageExtruding
	}
}

// DeriveStageReceived is DeriveStage plus receipt coverage: a cut roll whose
// cut quantity is fully covered by received material is completed.
func DeriveStageReceived(r Roll, requiresPrinting bool, received decimal.Decimal) Stage {
	s := DeriveStage(r, requiresPrinting)
	if s == StageCutting && received.GreaterThanOrEqual(r.CutQty.Decimal) {
		return StageCompleted
	}
	return s
}

// NextStep returns the step the roll is waiting for, false when none is left.
func NextStep(r Roll, requiresPrinting bool) (Step, bool) {
	switch {
	case r.ClosedAt != nil || r.CutQty.Valid:
		return "", false
	case !r.ExtrudeQty.Valid:
		return StepExtrude, true
	case requiresPrinting && !r.PrintQty.Valid:
		return StepPrint, true
	default:
		return StepCut, true
	}
}

// Advance validates the step against the roll's recorded quantities and
// returns a copy with qty recorded. On error r is returned unchanged.
func Advance(r Roll, requiresPrinting bool, step Step, qty decimal.Decimal, machineID *int64, at time.Time) (Roll, error) {
	if !ValidQty(qty) {
		return r, ErrInvalidQuantity
	}
	if r.ClosedAt != nil {
		return r, ErrRollClosed
	}
	if r.Qty(step).Valid {
		return r, ErrStepAlreadyRecorded
	}

	next := r
	switch step {
	case StepExtrude:
		next.ExtrudeQty = decimal.NewNullDecimal(qty)
		next.ExtrudeMachineID = machineID
		next.CreatedAt = at
	case StepPrint:
		if !r.ExtrudeQty.Valid {
			return r, &StageOrderError{RollID: r.ID, Step: step, Missing: StepExtrude}
		}
		if r.CutQty.Valid {
			return r, ErrStepSuperseded
		}
		next.PrintQty = decimal.NewNullDecimal(qty)
		next.PrintMachineID = machineID
		next.PrintedAt = &at
	case StepCut:
		if !r.ExtrudeQty.Valid {
			return r, &StageOrderError{RollID: r.ID, Step: step, Missing: StepExtrude}
		}
		if requiresPrinting && !r.PrintQty.Valid {
			return r, &StageOrderError{RollID: r.ID, Step: step, Missing: StepPrint}
		}
		next.CutQty = decimal.NewNullDecimal(qty)
		next.CutMachineID = machineID
		next.CutAt = &at
	default:
		return r, ErrUnknownStep
	}
	return next, nil
}

// Close records the explicit terminal status; the roll derives completed
// from then on regardless of receipts.
func Close(r Roll, at time.Time) (Roll, error) {
	if r.ClosedAt != nil {
		return r, ErrRollClosed
	}
	if !r.ExtrudeQty.Valid {
		return r, &StageOrderError{RollID: r.ID, Step: "close", Missing: StepExtrude}
	}
	next := r
	next.ClosedAt = &at
	return next, nil
}

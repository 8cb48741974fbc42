package rolls

import (
	"time"

	"github.com/shopspring/decimal"
)

// Step is a quantity-recording step on the production line.
type Step string

const (
	StepExtrude Step = "extrude"
	StepPrint   Step = "print"
	StepCut     Step = "cut"
)

// Stage is the derived position of a roll in the manufacturing sequence.
// It is never stored; see DeriveStage.
type Stage string

const (
	StageNone      Stage = "none"
	StageExtruding Stage = "extruding"
	StagePrinting  Stage = "printing"
	StageCutting   Stage = "cutting"
	StageCompleted Stage = "completed"
)

// Stages lists every stage in sequence order.
var Stages = []Stage{StageNone, StageExtruding, StagePrinting, StageCutting, StageCompleted}

type Roll struct {
	ID         int64               `json:"id"`
	JobOrderID int64               `json:"job_order_id"`
	Seq        int                 `json:"seq"` // номер рулона внутри заказа
	ExtrudeQty decimal.NullDecimal `json:"extrude_qty"`
	PrintQty   decimal.NullDecimal `json:"print_qty"`
	CutQty     decimal.NullDecimal `json:"cut_qty"`

	ExtrudeMachineID *int64 `json:"extrude_machine_id,omitempty"`
	PrintMachineID   *int64 `json:"print_machine_id,omitempty"`
	CutMachineID     *int64 `json:"cut_machine_id,omitempty"`

	Note      string     `json:"note,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	PrintedAt *time.Time `json:"printed_at,omitempty"`
	CutAt     *time.Time `json:"cut_at,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"` // explicit terminal status
}

// QtyPlaces is the scale of every stored quantity column.
const QtyPlaces = 3

var maxQty = decimal.New(1, 11) // NUMERIC(14, 3) integer range

// ValidQty reports whether q is positive and storable without rounding.
func ValidQty(q decimal.Decimal) bool {
	return q.IsPositive() && q.LessThan(maxQty) && q.Equal(q.Truncate(QtyPlaces))
}

// NewRoll is the input of an extrusion record.
type NewRoll struct {
	JobOrderID int64
	Qty        decimal.Decimal
	MachineID  *int64
	Note       string
}

// UpdateFunc receives the locked roll and its job order's printing flag and
// returns the roll to persist.
type UpdateFunc func(r Roll, requiresPrinting bool) (Roll, error)

// Qty returns the quantity recorded for step.
func (r Roll) Qty(step Step) decimal.NullDecimal {
	switch step {
	case StepExtrude:
		return r.ExtrudeQty
	case StepPrint:
		return r.PrintQty
	case StepCut:
		return r.CutQty
	}
	return decimal.NullDecimal{}
}

// Last returns the last populated quantity in stage order: cut, else print,
// else extrude. Invalid when nothing was measured.
func (r Roll) Last() decimal.NullDecimal {
	switch {
	case r.CutQty.Valid:
		return r.CutQty
	case r.PrintQty.Valid:
		return r.PrintQty
	default:
		return r.ExtrudeQty
	}
}

// MachineFor returns the machine that recorded step, if any.
func (r Roll) MachineFor(step Step) *int64 {
	switch step {
	case StepExtrude:
		return r.ExtrudeMachineID
	case StepPrint:
		return r.PrintMachineID
	case StepCut:
		return r.CutMachineID
	}
	return nil
}

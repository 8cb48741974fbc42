package machines

import (
	"strings"
	"time"

	"github.com/Spok95/rollflow/internal/domain/rolls"
)

type Kind string

const (
	KindExtruder Kind = "extruder"
	KindPrinter  Kind = "printer"
	KindCutter   Kind = "cutter"
)

type Machine struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Step returns the quantity-recording step performed by machines of kind k.
func (k Kind) Step() (rolls.Step, bool) {
	switch k {
	case KindExtruder:
		return rolls.StepExtrude, true
	case KindPrinter:
		return rolls.StepPrint, true
	case KindCutter:
		return rolls.StepCut, true
	}
	return "", false
}

// Stage is the stage a roll sits in right after this kind of machine
// recorded it.
func (k Kind) Stage() rolls.Stage {
	switch k {
	case KindExtruder:
		return rolls.StageExtruding
	case KindPrinter:
		return rolls.StagePrinting
	case KindCutter:
		return rolls.StageCutting
	}
	return rolls.StageNone
}

type NewMachine struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

func (n NewMachine) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return ErrNameRequired
	}
	if _, ok := n.Kind.Step(); !ok {
		return ErrUnknownKind
	}
	return nil
}

package rolls

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("rolls: roll not found")
	ErrJobOrderNotFound    = errors.New("rolls: job order not found")
	ErrStageOrderViolation = errors.New("rolls: stage order violation")
	ErrStepAlreadyRecorded = errors.New("rolls: step already recorded")
	ErrStepSuperseded      = errors.New("rolls: a later step is already recorded")
	ErrRollClosed          = errors.New("rolls: roll is closed")
	ErrInvalidQuantity     = errors.New("rolls: qty must be > 0 with at most 3 decimal places")
	ErrUnknownStep         = errors.New("rolls: unknown step")
)

// StageOrderError reports a step recorded before a required earlier one.
type StageOrderError struct {
	RollID  int64
	Step    Step
	Missing Step
}

func (e *StageOrderError) Error() string {
	return fmt.Sprintf("rolls: cannot record %s for roll %d: %s quantity is missing", e.Step, e.RollID, e.Missing)
}

func (e *StageOrderError) Is(target error) bool { return target == ErrStageOrderViolation }

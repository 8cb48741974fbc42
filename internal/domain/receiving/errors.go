package receiving

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrJobOrderNotFound         = errors.New("receiving: job order not found")
	ErrInvalidQuantity          = errors.New("receiving: qty must be > 0 with at most 3 decimal places")
	ErrAgentRequired            = errors.New("receiving: agent is required")
	ErrRollNotInJobOrder        = errors.New("receiving: roll does not belong to job order")
	ErrRollNotCut               = errors.New("receiving: roll has no cut quantity")
	ErrQuantityExceedsAvailable = errors.New("receiving: quantity exceeds available")
)

// ExceedsAvailableError carries the remaining quantity so the caller can
// correct the request. RollID is set when the limit is the linked roll's
// remainder rather than the job order's.
type ExceedsAvailableError struct {
	JobOrderID int64
	RollID     *int64
	Requested  decimal.Decimal
	Available  decimal.Decimal
}

func (e *ExceedsAvailableError) Error() string {
	if e.RollID != nil {
		return fmt.Sprintf("receiving: roll %d: requested %s exceeds its remaining %s",
			*e.RollID, e.Requested, e.Available)
	}
	return fmt.Sprintf("receiving: job order %d: requested %s exceeds available %s",
		e.JobOrderID, e.Requested, e.Available)
}

func (e *ExceedsAvailableError) Is(target error) bool { return target == ErrQuantityExceedsAvailable }

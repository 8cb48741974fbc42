package receiving

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction records finished material accepted by the warehouse. It is
// never mutated; a cancellation would be a compensating record.
type Transaction struct {
	ID         int64           `json:"id"`
	JobOrderID int64           `json:"job_order_id"`
	RollID     *int64          `json:"roll_id,omitempty"` // nil when several rolls are consolidated
	Qty        decimal.Decimal `json:"qty"`
	Agent      string          `json:"agent"`
	Note       string          `json:"note,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Request is a receiving submission.
type Request struct {
	JobOrderID int64
	RollID     *int64
	Qty        decimal.Decimal
	Agent      string
	Note       string
}

package joborders

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/rollflow/internal/domain/rolls"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// JobOrder is a customer order line planned for production. Produced and
// waste quantities are not stored; see Aggregate.
type JobOrder struct {
	ID               int64           `json:"id"`
	OrderID          int64           `json:"order_id"`
	Item             string          `json:"item"`
	TargetQty        decimal.Decimal `json:"target_qty"`
	RequiresPrinting bool            `json:"requires_printing"`
	CreatedAt        time.Time       `json:"created_at"`
	ClosedAt         *time.Time      `json:"closed_at,omitempty"`
}

// Receipts is the receiving ledger's view of one job order.
type Receipts struct {
	PerRoll   map[int64]decimal.Decimal // received quantity attributed to each roll
	Received  decimal.Decimal
	Available decimal.Decimal
}

// NewJobOrder is the input of CreateJobOrder.
type NewJobOrder struct {
	OrderID          int64           `json:"order_id"`
	Item             string          `json:"item"`
	TargetQty        decimal.Decimal `json:"target_qty"`
	RequiresPrinting bool            `json:"requires_printing"`
}

func (n NewJobOrder) Validate() error {
	if strings.TrimSpace(n.Item) == "" {
		return ErrItemRequired
	}
	if !rolls.ValidQty(n.TargetQty) {
		return ErrInvalidTarget
	}
	return nil
}

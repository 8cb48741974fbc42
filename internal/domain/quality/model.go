package quality

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/rollflow/internal/domain/rolls"
	"github.com/Spok95/rollflow/internal/domain/waste"
)

// Warning is a persisted NegativeDerivedWaste finding awaiting manual review.
type Warning struct {
	ID         int64           `json:"id"`
	RollID     int64           `json:"roll_id"`
	JobOrderID int64           `json:"job_order_id"`
	FromStep   rolls.Step      `json:"from_step"`
	ToStep     rolls.Step      `json:"to_step"`
	FromQty    decimal.Decimal `json:"from_qty"`
	ToQty      decimal.Decimal `json:"to_qty"`
	DetectedAt time.Time       `json:"detected_at"`
}

func FromAnomaly(a waste.Anomaly, at time.Time) Warning {
	return Warning{
		RollID:     a.RollID,
		JobOrderID: a.JobOrderID,
		FromStep:   a.From,
		ToStep:     a.To,
		FromQty:    a.FromQty,
		ToQty:      a.ToQty,
		DetectedAt: at,
	}
}

// Text is the admin notification body.
func (w Warning) Text() string {
	return fmt.Sprintf("Рулон #%d (заказ %d): %s = %s больше чем %s = %s. Отход обнулён, проверьте замеры.",
		w.RollID, w.JobOrderID, w.ToStep, w.ToQty, w.FromStep, w.FromQty)
}

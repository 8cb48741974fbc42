package receiving

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Spok95/rollflow/internal/domain/joborders"
	"github.com/Spok95/rollflow/internal/domain/rolls"
)

// Ledger is everything the availability check reads for one job order.
type Ledger struct {
	JobOrder     joborders.JobOrder
	Rolls        []rolls.Roll
	Transactions []Transaction
}

// qualifies reports whether a roll contributes to receivable material: it
// has reached cutting (or a later stage) and carries a cut quantity.
func qualifies(r rolls.Roll) bool {
	return r.ExtrudeQty.Valid && r.CutQty.Valid
}

// CutTotal sums cut quantities across qualifying rolls.
func (l Ledger) CutTotal() decimal.Decimal {
	var sum decimal.Decimal
	for _, r := range l.Rolls {
		if qualifies(r) {
			sum = sum.Add(r.CutQty.Decimal)
		}
	}
	return sum
}

// Received sums all receiving transactions.
func (l Ledger) Received() decimal.Decimal {
	var sum decimal.Decimal
	for _, t := range l.Transactions {
		sum = sum.Add(t.Qty)
	}
	return sum
}

// Available is the cut total minus everything received, never below zero.
func (l Ledger) Available() decimal.Decimal {
	a := l.CutTotal().Sub(l.Received())
	if a.IsNegative() {
		return decimal.Zero
	}
	return a
}

func (l Ledger) roll(id int64) (rolls.Roll, bool) {
	for _, r := range l.Rolls {
		if r.ID == id {
			return r, true
		}
	}
	return rolls.Roll{}, false
}

// linkedRemainder is the roll's cut quantity minus everything already
// received against that roll explicitly.
func (l Ledger) linkedRemainder(r rolls.Roll) decimal.Decimal {
	rem := r.CutQty.Decimal
	for _, t := range l.Transactions {
		if t.RollID != nil && *t.RollID == r.ID {
			rem = rem.Sub(t.Qty)
		}
	}
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

// Check validates req against the ledger. It must run in the same atomic
// unit as the insert it guards.
func (l Ledger) Check(req Request) error {
	if !rolls.ValidQty(req.Qty) {
		return ErrInvalidQuantity
	}
	if strings.TrimSpace(req.Agent) == "" {
		return ErrAgentRequired
	}
	if req.RollID != nil {
		r, ok := l.roll(*req.RollID)
		if !ok {
			return ErrRollNotInJobOrder
		}
		if !qualifies(r) {
			return ErrRollNotCut
		}
		if rem := l.linkedRemainder(r); req.Qty.GreaterThan(rem) {
			return &ExceedsAvailableError{JobOrderID: l.JobOrder.ID, RollID: req.RollID, Requested: req.Qty, Available: rem}
		}
	}
	if avail := l.Available(); req.Qty.GreaterThan(avail) {
		return &ExceedsAvailableError{JobOrderID: l.JobOrder.ID, Requested: req.Qty, Available: avail}
	}
	return nil
}

// Allocate attributes received material to rolls. Transactions linked to a
// roll fill that roll first, up to its cut quantity; unlinked transactions
// fill qualifying rolls in sequence order. Check keeps linked receipts
// within their roll, so the overflow path only serves rows written before
// that rule.
func (l Ledger) Allocate() map[int64]decimal.Decimal {
	ordered := make([]rolls.Roll, 0, len(l.Rolls))
	for _, r := range l.Rolls {
		if qualifies(r) {
			ordered = append(ordered, r)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

	got := make(map[int64]decimal.Decimal, len(ordered))
	room := make(map[int64]decimal.Decimal, len(ordered))
	for _, r := range ordered {
		got[r.ID] = decimal.Zero
		room[r.ID] = r.CutQty.Decimal
	}

	fill := func(id int64, qty decimal.Decimal) decimal.Decimal {
		take := decimal.Min(qty, room[id])
		if !take.IsPositive() {
			return qty
		}
		got[id] = got[id].Add(take)
		room[id] = room[id].Sub(take)
		return qty.Sub(take)
	}

	var pool decimal.Decimal
	for _, t := range l.Transactions {
		if t.RollID != nil {
			if _, ok := room[*t.RollID]; ok {
				pool = pool.Add(fill(*t.RollID, t.Qty))
				continue
			}
		}
		pool = pool.Add(t.Qty)
	}
	for _, r := range ordered {
		if !pool.IsPositive() {
			break
		}
		pool = fill(r.ID, pool)
	}
	return got
}

// Receipts summarizes the ledger for job order aggregation.
func (l Ledger) Receipts() joborders.Receipts {
	return joborders.Receipts{
		PerRoll:   l.Allocate(),
		Received:  l.Received(),
		Available: l.Available(),
	}
}

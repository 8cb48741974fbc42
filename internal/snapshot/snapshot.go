// Package snapshot derives the dashboard picture of the production floor.
//
// Build is a pure function over already-loaded records; the push and pull
// paths both go through Service.Current, so they can never disagree.
package snapshot

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/rollflow/internal/domain/joborders"
	"github.com/Spok95/rollflow/internal/domain/machines"
	"github.com/Spok95/rollflow/internal/domain/receiving"
	"github.com/Spok95/rollflow/internal/domain/rolls"
	"github.com/Spok95/rollflow/internal/domain/waste"
)

// Data is the persisted state a snapshot is derived from.
type Data struct {
	Machines     []machines.Machine
	JobOrders    []joborders.JobOrder
	Rolls        []rolls.Roll
	Transactions []receiving.Transaction
}

type RollView struct {
	rolls.Roll
	Stage       rolls.Stage      `json:"stage"`
	ReceivedQty decimal.Decimal  `json:"received_qty"`
	Waste       waste.RollResult `json:"waste"`
}

type MachineLoad struct {
	machines.Machine
	RollsProcessed int             `json:"rolls_processed"`
	ProcessedQty   decimal.Decimal `json:"processed_qty"`
	// Pending counts rolls this machine recorded that have not moved on yet.
	Pending int `json:"pending"`
}

type Production struct {
	ExtrudedQty     decimal.Decimal `json:"extruded_qty"`
	ProducedQty     decimal.Decimal `json:"produced_qty"`
	WasteQty        decimal.Decimal `json:"waste_qty"`
	ReceivedQty     decimal.Decimal `json:"received_qty"`
	AvailableQty    decimal.Decimal `json:"available_qty"`
	ActiveJobOrders int             `json:"active_job_orders"`
}

type Snapshot struct {
	Machines    []MachineLoad       `json:"machines"`
	Production  Production          `json:"production"`
	Rolls       []RollView          `json:"rolls"`
	JobOrders   []joborders.Summary `json:"job_orders"`
	Warnings    []waste.Anomaly     `json:"warnings"`
	LastUpdated time.Time           `json:"last_updated"`
}

// Build derives the snapshot from d. Rolls and transactions whose job order
// is not in d are ignored.
func Build(d Data, now time.Time) Snapshot {
	rollsByJO := make(map[int64][]rolls.Roll)
	for _, r := range d.Rolls {
		rollsByJO[r.JobOrderID] = append(rollsByJO[r.JobOrderID], r)
	}
	txByJO := make(map[int64][]receiving.Transaction)
	for _, t := range d.Transactions {
		txByJO[t.JobOrderID] = append(txByJO[t.JobOrderID], t)
	}

	jos := append([]joborders.JobOrder(nil), d.JobOrders...)
	sort.Slice(jos, func(i, j int) bool { return jos[i].ID < jos[j].ID })

	snap := Snapshot{
		Machines:    make([]MachineLoad, 0, len(d.Machines)),
		Rolls:       make([]RollView, 0, len(d.Rolls)),
		JobOrders:   make([]joborders.Summary, 0, len(jos)),
		Warnings:    []waste.Anomaly{},
		LastUpdated: now,
	}

	for _, jo := range jos {
		rs := rollsByJO[jo.ID]
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].Seq < rs[j].Seq })

		l := receiving.Ledger{JobOrder: jo, Rolls: rs, Transactions: txByJO[jo.ID]}
		rc := l.Receipts()
		sum := joborders.Aggregate(jo, rs, rc)
		snap.JobOrders = append(snap.JobOrders, sum)

		for _, r := range rs {
			wr := waste.ForRoll(r)
			snap.Rolls = append(snap.Rolls, RollView{
				Roll:        r,
				Stage:       rolls.DeriveStageReceived(r, jo.RequiresPrinting, rc.PerRoll[r.ID]),
				ReceivedQty: rc.PerRoll[r.ID],
				Waste:       wr,
			})
			snap.Warnings = append(snap.Warnings, wr.Anomalies...)
		}

		p := &snap.Production
		p.ExtrudedQty = p.ExtrudedQty.Add(sum.ExtrudedQty)
		p.ProducedQty = p.ProducedQty.Add(sum.ProducedQty)
		if sum.WasteQty.Valid {
			p.WasteQty = p.WasteQty.Add(sum.WasteQty.Decimal)
		}
		p.ReceivedQty = p.ReceivedQty.Add(sum.ReceivedQty)
		p.AvailableQty = p.AvailableQty.Add(sum.AvailableQty)
		if sum.Status == joborders.StatusInProgress {
			p.ActiveJobOrders++
		}
	}

	snap.Machines = machineLoads(d.Machines, snap.Rolls)
	return snap
}

func machineLoads(ms []machines.Machine, views []RollView) []MachineLoad {
	out := make([]MachineLoad, len(ms))
	idx := make(map[int64]int, len(ms))
	for i, m := range ms {
		out[i] = MachineLoad{Machine: m}
		idx[m.ID] = i
	}

	for _, v := range views {
		for _, step := range []rolls.Step{rolls.StepExtrude, rolls.StepPrint, rolls.StepCut} {
			id := v.MachineFor(step)
			if id == nil {
				continue
			}
			i, ok := idx[*id]
			if !ok {
				continue
			}
			load := &out[i]
			load.RollsProcessed++
			load.ProcessedQty = load.ProcessedQty.Add(v.Qty(step).Decimal)
			if s, ok := load.Kind.Step(); ok && s == step && load.Kind.Stage() == v.Stage {
				load.Pending++
			}
		}
	}
	return out
}

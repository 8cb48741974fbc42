// Package production is the entry point for every floor operation: stage
// records, receiving submissions and waste queries. Each successful mutation
// triggers a realtime recompute.
package production

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/rollflow/internal/domain/joborders"
	"github.com/Spok95/rollflow/internal/domain/machines"
	"github.com/Spok95/rollflow/internal/domain/quality"
	"github.com/Spok95/rollflow/internal/domain/receiving"
	"github.com/Spok95/rollflow/internal/domain/rolls"
	"github.com/Spok95/rollflow/internal/domain/waste"
	"github.com/Spok95/rollflow/internal/infra/metrics"
)

type RollStore interface {
	Create(ctx context.Context, nr rolls.NewRoll) (*rolls.Roll, error)
	Update(ctx context.Context, id int64, fn rolls.UpdateFunc) (*rolls.Roll, error)
	GetByID(ctx context.Context, id int64) (*rolls.Roll, error)
}

type MachineStore interface {
	Create(ctx context.Context, n machines.NewMachine) (*machines.Machine, error)
	GetByID(ctx context.Context, id int64) (*machines.Machine, error)
}

type JobOrderStore interface {
	Create(ctx context.Context, n joborders.NewJobOrder) (*joborders.JobOrder, error)
	Close(ctx context.Context, id int64) (*joborders.JobOrder, error)
}

// ReceivingStore must run Receive's availability check and insert as one
// atomic unit per job order.
type ReceivingStore interface {
	Ledger(ctx context.Context, jobOrderID int64) (*receiving.Ledger, error)
	Receive(ctx context.Context, req receiving.Request) (*receiving.Transaction, error)
}

type WarningStore interface {
	Record(ctx context.Context, w quality.Warning) (bool, error)
}

// Notifier delivers admin messages.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Trigger requests a realtime recompute without blocking.
type Trigger interface {
	Trigger()
}

type Deps struct {
	Rolls     RollStore
	Machines  MachineStore
	JobOrders JobOrderStore
	Receiving ReceivingStore
	Warnings  WarningStore
	Notifier  Notifier // optional
	Trigger   Trigger  // optional
	Metrics   *metrics.Metrics
	Log       *slog.Logger
}

type Service struct {
	Deps
	now func() time.Time
}

func NewService(d Deps) *Service {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	return &Service{Deps: d, now: func() time.Time { return time.Now().UTC() }}
}

// RecordExtrusion creates a roll carrying the extruded quantity.
func (s *Service) RecordExtrusion(ctx context.Context, nr rolls.NewRoll) (*rolls.Roll, error) {
	if err := s.checkMachine(ctx, nr.MachineID, rolls.StepExtrude); err != nil {
		s.Metrics.StageRecord(string(rolls.StepExtrude), "rejected")
		return nil, err
	}
	r, err := s.Rolls.Create(ctx, nr)
	if err != nil {
		s.Metrics.StageRecord(string(rolls.StepExtrude), "rejected")
		return nil, err
	}
	s.recorded(ctx, r, rolls.StepExtrude)
	return r, nil
}

func (s *Service) RecordPrint(ctx context.Context, rollID int64, qty decimal.Decimal, machineID *int64) (*rolls.Roll, error) {
	return s.record(ctx, rollID, rolls.StepPrint, qty, machineID)
}

func (s *Service) RecordCut(ctx context.Context, rollID int64, qty decimal.Decimal, machineID *int64) (*rolls.Roll, error) {
	return s.record(ctx, rollID, rolls.StepCut, qty, machineID)
}

func (s *Service) record(ctx context.Context, rollID int64, step rolls.Step, qty decimal.Decimal, machineID *int64) (*rolls.Roll, error) {
	if err := s.checkMachine(ctx, machineID, step); err != nil {
		s.Metrics.StageRecord(string(step), "rejected")
		return nil, err
	}
	at := s.now()
	r, err := s.Rolls.Update(ctx, rollID, func(cur rolls.Roll, requiresPrinting bool) (rolls.Roll, error) {
		return rolls.Advance(cur, requiresPrinting, step, qty, machineID, at)
	})
	if err != nil {
		s.Metrics.StageRecord(string(step), "rejected")
		s.Log.Info("stage record rejected", "roll_id", rollID, "step", step, "err", err)
		return nil, err
	}
	s.recorded(ctx, r, step)
	return r, nil
}

func (s *Service) checkMachine(ctx context.Context, id *int64, step rolls.Step) error {
	if id == nil || s.Machines == nil {
		return nil
	}
	m, err := s.Machines.GetByID(ctx, *id)
	if err != nil {
		return err
	}
	if ms, ok := m.Kind.Step(); !ok || ms != step {
		return fmt.Errorf("%w: %s %q records %s", ErrMachineKind, m.Kind, m.Name, ms)
	}
	if !m.Active {
		return ErrMachineInactive
	}
	return nil
}

func (s *Service) recorded(ctx context.Context, r *rolls.Roll, step rolls.Step) {
	s.Metrics.StageRecord(string(step), "accepted")
	s.Log.Info("stage recorded", "roll_id", r.ID, "job_order_id", r.JobOrderID, "step", step, "qty", r.Qty(step).Decimal)
	s.audit(ctx, *r)
	s.trigger()
}

// audit persists every new negative raw difference on r. Failures are logged
// and never fail the stage record.
func (s *Service) audit(ctx context.Context, r rolls.Roll) {
	for _, a := range waste.Inspect(r) {
		w := quality.FromAnomaly(a, s.now())
		s.Log.Warn("negative derived waste",
			"roll_id", a.RollID, "job_order_id", a.JobOrderID,
			"from", a.From, "from_qty", a.FromQty, "to", a.To, "to_qty", a.ToQty)
		if s.Warnings == nil {
			continue
		}
		fresh, err := s.Warnings.Record(ctx, w)
		if err != nil {
			s.Log.Error("record data quality warning", "roll_id", a.RollID, "err", err)
			continue
		}
		if !fresh {
			continue
		}
		s.Metrics.Warning()
		if s.Notifier != nil {
			if err := s.Notifier.Notify(ctx, w.Text()); err != nil {
				s.Log.Error("notify data quality warning", "roll_id", a.RollID, "err", err)
			}
		}
	}
}

func (s *Service) trigger() {
	if s.Trigger != nil {
		s.Trigger.Trigger()
	}
}

// CreateJobOrder plans a new job order; it starts with no rolls.
func (s *Service) CreateJobOrder(ctx context.Context, n joborders.NewJobOrder) (*joborders.JobOrder, error) {
	jo, err := s.JobOrders.Create(ctx, n)
	if err != nil {
		return nil, err
	}
	s.Log.Info("job order created", "job_order_id", jo.ID, "item", jo.Item, "target_qty", jo.TargetQty)
	s.trigger()
	return jo, nil
}

// CloseJobOrder marks the job order completed regardless of produced
// quantity. Closing twice keeps the first close time.
func (s *Service) CloseJobOrder(ctx context.Context, id int64) (*joborders.JobOrder, error) {
	jo, err := s.JobOrders.Close(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Log.Info("job order closed", "job_order_id", jo.ID)
	s.trigger()
	return jo, nil
}

func (s *Service) CreateMachine(ctx context.Context, n machines.NewMachine) (*machines.Machine, error) {
	m, err := s.Machines.Create(ctx, n)
	if err != nil {
		return nil, err
	}
	s.Log.Info("machine created", "machine_id", m.ID, "kind", m.Kind)
	s.trigger()
	return m, nil
}

// CloseRoll completes a roll explicitly. A closed roll that was cut still
// counts toward the job order's cut total, so its material stays receivable.
func (s *Service) CloseRoll(ctx context.Context, rollID int64) (*rolls.Roll, error) {
	at := s.now()
	r, err := s.Rolls.Update(ctx, rollID, func(cur rolls.Roll, _ bool) (rolls.Roll, error) {
		return rolls.Close(cur, at)
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("roll closed", "roll_id", r.ID, "job_order_id", r.JobOrderID)
	s.trigger()
	return r, nil
}

// RequestUpdate forces a realtime recompute.
func (s *Service) RequestUpdate() { s.trigger() }

// SubmitReceiving records finished material accepted by the warehouse. The
// request is rejected with receiving.ErrQuantityExceedsAvailable when it
// would push the received total above the cut total.
func (s *Service) SubmitReceiving(ctx context.Context, req receiving.Request) (*receiving.Transaction, error) {
	t, err := s.Receiving.Receive(ctx, req)
	if err != nil {
		s.Metrics.Receiving("rejected", 0)
		var ex *receiving.ExceedsAvailableError
		if errors.As(err, &ex) {
			s.Log.Info("receiving rejected", "job_order_id", req.JobOrderID,
				"requested", ex.Requested, "available", ex.Available, "agent", req.Agent)
		}
		return nil, err
	}
	s.Metrics.Receiving("accepted", t.Qty.InexactFloat64())
	s.Log.Info("receiving accepted", "job_order_id", t.JobOrderID, "tx_id", t.ID, "qty", t.Qty, "agent", t.Agent)
	s.trigger()
	return t, nil
}

// Available is the quantity the warehouse may still receive for the job order.
func (s *Service) Available(ctx context.Context, jobOrderID int64) (decimal.Decimal, error) {
	l, err := s.Receiving.Ledger(ctx, jobOrderID)
	if err != nil {
		return decimal.Zero, err
	}
	return l.Available(), nil
}

func (s *Service) RollWaste(ctx context.Context, rollID int64) (waste.RollResult, error) {
	r, err := s.Rolls.GetByID(ctx, rollID)
	if err != nil {
		return waste.RollResult{}, err
	}
	return waste.ForRoll(*r), nil
}

func (s *Service) JobOrderWaste(ctx context.Context, jobOrderID int64) (waste.Result, error) {
	l, err := s.Receiving.Ledger(ctx, jobOrderID)
	if err != nil {
		return waste.Result{}, err
	}
	return waste.ForRolls(l.Rolls), nil
}

// JobOrder returns the job order's ledger and its aggregated summary, read
// from one consistent state.
func (s *Service) JobOrder(ctx context.Context, jobOrderID int64) (*receiving.Ledger, joborders.Summary, error) {
	l, err := s.Receiving.Ledger(ctx, jobOrderID)
	if err != nil {
		return nil, joborders.Summary{}, err
	}
	return l, joborders.Aggregate(l.JobOrder, l.Rolls, l.Receipts()), nil
}

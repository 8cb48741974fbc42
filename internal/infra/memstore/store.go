// Package memstore keeps the whole production floor in memory behind one
// mutex. It implements the same store contracts as the Postgres repos for
// package tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Spok95/rollflow/internal/domain/joborders"
	"github.com/Spok95/rollflow/internal/domain/machines"
	"github.com/Spok95/rollflow/internal/domain/quality"
	"github.com/Spok95/rollflow/internal/domain/receiving"
	"github.com/Spok95/rollflow/internal/domain/rolls"
	"github.com/Spok95/rollflow/internal/snapshot"
)

type warningKey struct {
	rollID   int64
	from, to rolls.Step
}

type Store struct {
	mu sync.Mutex

	machines  map[int64]machines.Machine
	jobOrders map[int64]joborders.JobOrder
	rolls     map[int64]rolls.Roll
	txs       []receiving.Transaction
	warnings  map[warningKey]quality.Warning

	nextID int64
	now    func() time.Time
}

func New() *Store {
	return &Store{
		machines:  make(map[int64]machines.Machine),
		jobOrders: make(map[int64]joborders.JobOrder),
		rolls:     make(map[int64]rolls.Roll),
		warnings:  make(map[warningKey]quality.Warning),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// AddMachine stores m, assigning an id when m.ID is zero.
func (s *Store) AddMachine(m machines.Machine) machines.Machine {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == 0 {
		m.ID = s.id()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	s.machines[m.ID] = m
	return m
}

// AddJobOrder stores jo, assigning an id when jo.ID is zero.
func (s *Store) AddJobOrder(jo joborders.JobOrder) joborders.JobOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	if jo.ID == 0 {
		jo.ID = s.id()
	}
	if jo.CreatedAt.IsZero() {
		jo.CreatedAt = s.now()
	}
	s.jobOrders[jo.ID] = jo
	return jo
}

// Machines returns a lookup view with the same shape as machines.Repo.
func (s *Store) Machines() *MachineView { return &MachineView{s: s} }

// JobOrders returns a view with the same shape as joborders.Repo.
func (s *Store) JobOrders() *JobOrderView { return &JobOrderView{s: s} }

type MachineView struct{ s *Store }

func (v *MachineView) Create(_ context.Context, n machines.NewMachine) (*machines.Machine, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(n.Name)
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, m := range v.s.machines {
		if m.Name == name {
			return nil, machines.ErrNameTaken
		}
	}
	m := machines.Machine{ID: v.s.id(), Name: name, Kind: n.Kind, Active: true, CreatedAt: v.s.now()}
	v.s.machines[m.ID] = m
	return &m, nil
}

func (v *MachineView) GetByID(_ context.Context, id int64) (*machines.Machine, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	m, ok := v.s.machines[id]
	if !ok {
		return nil, machines.ErrNotFound
	}
	return &m, nil
}

type JobOrderView struct{ s *Store }

func (v *JobOrderView) Create(_ context.Context, n joborders.NewJobOrder) (*joborders.JobOrder, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	jo := v.s.AddJobOrder(joborders.JobOrder{
		OrderID:          n.OrderID,
		Item:             strings.TrimSpace(n.Item),
		TargetQty:        n.TargetQty,
		RequiresPrinting: n.RequiresPrinting,
	})
	return &jo, nil
}

func (v *JobOrderView) Close(_ context.Context, id int64) (*joborders.JobOrder, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	jo, ok := v.s.jobOrders[id]
	if !ok {
		return nil, joborders.ErrNotFound
	}
	if jo.ClosedAt == nil {
		at := v.s.now()
		jo.ClosedAt = &at
		v.s.jobOrders[id] = jo
	}
	return &jo, nil
}

func (s *Store) GetByID(_ context.Context, id int64) (*rolls.Roll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rolls[id]
	if !ok {
		return nil, rolls.ErrNotFound
	}
	return &r, nil
}

func (s *Store) rollsOf(jobOrderID int64) []rolls.Roll {
	var out []rolls.Roll
	for _, r := range s.rolls {
		if r.JobOrderID == jobOrderID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func (s *Store) Create(_ context.Context, nr rolls.NewRoll) (*rolls.Roll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jo, ok := s.jobOrders[nr.JobOrderID]
	if !ok {
		return nil, rolls.ErrJobOrderNotFound
	}
	seq := 1
	for _, r := range s.rollsOf(jo.ID) {
		if r.Seq >= seq {
			seq = r.Seq + 1
		}
	}

	r, err := rolls.Advance(rolls.Roll{JobOrderID: jo.ID, Seq: seq, Note: nr.Note},
		jo.RequiresPrinting, rolls.StepExtrude, nr.Qty, nr.MachineID, s.now())
	if err != nil {
		return nil, err
	}
	r.ID = s.id()
	s.rolls[r.ID] = r
	return &r, nil
}

func (s *Store) Update(_ context.Context, id int64, fn rolls.UpdateFunc) (*rolls.Roll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.rolls[id]
	if !ok {
		return nil, rolls.ErrNotFound
	}
	next, err := fn(cur, s.jobOrders[cur.JobOrderID].RequiresPrinting)
	if err != nil {
		return nil, err
	}
	next.ID, next.JobOrderID, next.Seq = cur.ID, cur.JobOrderID, cur.Seq
	s.rolls[id] = next
	return &next, nil
}

func (s *Store) ledger(jobOrderID int64) (*receiving.Ledger, error) {
	jo, ok := s.jobOrders[jobOrderID]
	if !ok {
		return nil, receiving.ErrJobOrderNotFound
	}
	l := &receiving.Ledger{JobOrder: jo, Rolls: s.rollsOf(jobOrderID)}
	for _, t := range s.txs {
		if t.JobOrderID == jobOrderID {
			l.Transactions = append(l.Transactions, t)
		}
	}
	return l, nil
}

func (s *Store) Ledger(_ context.Context, jobOrderID int64) (*receiving.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger(jobOrderID)
}

// Receive checks and appends under the same lock hold.
func (s *Store) Receive(_ context.Context, req receiving.Request) (*receiving.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.ledger(req.JobOrderID)
	if err != nil {
		return nil, err
	}
	if err := l.Check(req); err != nil {
		return nil, err
	}
	t := receiving.Transaction{
		ID:         s.id(),
		JobOrderID: req.JobOrderID,
		RollID:     req.RollID,
		Qty:        req.Qty,
		Agent:      req.Agent,
		Note:       req.Note,
		CreatedAt:  s.now(),
	}
	s.txs = append(s.txs, t)
	return &t, nil
}

func (s *Store) Record(_ context.Context, w quality.Warning) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := warningKey{rollID: w.RollID, from: w.FromStep, to: w.ToStep}
	if _, dup := s.warnings[k]; dup {
		return false, nil
	}
	w.ID = s.id()
	s.warnings[k] = w
	return true, nil
}

func (s *Store) Warnings() []quality.Warning {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]quality.Warning, 0, len(s.warnings))
	for _, w := range s.warnings {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Load copies the full state for snapshot building.
func (s *Store) Load(_ context.Context) (snapshot.Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var d snapshot.Data
	for _, m := range s.machines {
		d.Machines = append(d.Machines, m)
	}
	sort.Slice(d.Machines, func(i, j int) bool { return d.Machines[i].ID < d.Machines[j].ID })
	for _, jo := range s.jobOrders {
		d.JobOrders = append(d.JobOrders, jo)
	}
	for _, r := range s.rolls {
		d.Rolls = append(d.Rolls, r)
	}
	sort.Slice(d.Rolls, func(i, j int) bool { return d.Rolls[i].ID < d.Rolls[j].ID })
	d.Transactions = append(d.Transactions, s.txs...)
	return d, nil
}

func (s *Store) List(_ context.Context) ([]quality.Warning, error) { return s.Warnings(), nil }

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/rollflow/internal/broadcast"
	"github.com/Spok95/rollflow/internal/domain/joborders"
	"github.com/Spok95/rollflow/internal/domain/machines"
	"github.com/Spok95/rollflow/internal/domain/receiving"
	"github.com/Spok95/rollflow/internal/domain/rolls"
	"github.com/Spok95/rollflow/internal/domain/waste"
	"github.com/Spok95/rollflow/internal/infra/metrics"
	"github.com/Spok95/rollflow/internal/report"
	"github.com/Spok95/rollflow/internal/snapshot"
)

// Engine is the floor operations surface, implemented by production.Service.
type Engine interface {
	RecordExtrusion(ctx context.Context, nr rolls.NewRoll) (*rolls.Roll, error)
	RecordPrint(ctx context.Context, rollID int64, qty decimal.Decimal, machineID *int64) (*rolls.Roll, error)
	RecordCut(ctx context.Context, rollID int64, qty decimal.Decimal, machineID *int64) (*rolls.Roll, error)
	SubmitReceiving(ctx context.Context, req receiving.Request) (*receiving.Transaction, error)
	Available(ctx context.Context, jobOrderID int64) (decimal.Decimal, error)
	RollWaste(ctx context.Context, rollID int64) (waste.RollResult, error)
	JobOrderWaste(ctx context.Context, jobOrderID int64) (waste.Result, error)
	JobOrder(ctx context.Context, jobOrderID int64) (*receiving.Ledger, joborders.Summary, error)
	CreateJobOrder(ctx context.Context, n joborders.NewJobOrder) (*joborders.JobOrder, error)
	CloseJobOrder(ctx context.Context, id int64) (*joborders.JobOrder, error)
	CreateMachine(ctx context.Context, n machines.NewMachine) (*machines.Machine, error)
	CloseRoll(ctx context.Context, rollID int64) (*rolls.Roll, error)
	RequestUpdate()
}

type Snapshots interface {
	Current(ctx context.Context) (snapshot.Snapshot, error)
}

type Stream interface {
	Subscribe() *broadcast.Subscriber
	Unsubscribe(id string)
}

type APIConfig struct {
	PushTimeout time.Duration
	Heartbeat   time.Duration
}

type API struct {
	engine    Engine
	snapshots Snapshots
	stream    Stream
	cfg       APIConfig
	log       *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewAPI(engine Engine, snaps Snapshots, stream Stream, cfg APIConfig, log *slog.Logger, m *metrics.Metrics) *API {
	if cfg.PushTimeout <= 0 {
		cfg.PushTimeout = 5 * time.Second
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 25 * time.Second
	}
	return &API{
		engine:    engine,
		snapshots: snaps,
		stream:    stream,
		cfg:       cfg,
		log:       log,
		metrics:   m,
		now:       time.Now,
	}
}

func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/snapshot", a.getSnapshot)
	mux.HandleFunc("GET /api/stream", a.handleStream)
	mux.HandleFunc("POST /api/realtime", a.postRealtime)

	mux.HandleFunc("POST /api/machines", a.postMachine)
	mux.HandleFunc("POST /api/job-orders", a.postJobOrder)
	mux.HandleFunc("POST /api/job-orders/{id}/close", a.postCloseJobOrder)

	mux.HandleFunc("POST /api/job-orders/{id}/rolls", a.postExtrusion)
	mux.HandleFunc("POST /api/rolls/{id}/print", a.postStep(rolls.StepPrint))
	mux.HandleFunc("POST /api/rolls/{id}/cut", a.postStep(rolls.StepCut))
	mux.HandleFunc("POST /api/rolls/{id}/close", a.postCloseRoll)

	mux.HandleFunc("GET /api/rolls/{id}/waste", a.getRollWaste)
	mux.HandleFunc("GET /api/job-orders/{id}/waste", a.getJobOrderWaste)
	mux.HandleFunc("GET /api/job-orders/{id}/availability", a.getAvailability)
	mux.HandleFunc("POST /api/job-orders/{id}/receiving", a.postReceiving)
	mux.HandleFunc("GET /api/job-orders/{id}/report.xlsx", a.getReport)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, r.PathValue("id"))
	}
	return id, nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (a *API) getSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := a.snapshots.Current(r.Context())
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *API) postRealtime(w http.ResponseWriter, r *http.Request) {
	var msg broadcast.Message
	if err := decode(w, r, &msg); err != nil {
		writeError(w, a.log, err)
		return
	}
	if msg.Type != broadcast.TypeRequestUpdate {
		writeError(w, a.log, fmt.Errorf("%w: unknown message type %q", errBadRequest, msg.Type))
		return
	}
	a.engine.RequestUpdate()
	w.WriteHeader(http.StatusAccepted)
}

func (a *API) postMachine(w http.ResponseWriter, r *http.Request) {
	var req machines.NewMachine
	if err := decode(w, r, &req); err != nil {
		writeError(w, a.log, err)
		return
	}
	m, err := a.engine.CreateMachine(r.Context(), req)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (a *API) postJobOrder(w http.ResponseWriter, r *http.Request) {
	var req joborders.NewJobOrder
	if err := decode(w, r, &req); err != nil {
		writeError(w, a.log, err)
		return
	}
	jo, err := a.engine.CreateJobOrder(r.Context(), req)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, jo)
}

func (a *API) postCloseJobOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	jo, err := a.engine.CloseJobOrder(r.Context(), id)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, jo)
}

func (a *API) postCloseRoll(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	roll, err := a.engine.CloseRoll(r.Context(), id)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, roll)
}

// stepRequest is the body of print and cut records. Notes belong to the
// roll and are only taken at extrusion.
type stepRequest struct {
	Qty       decimal.Decimal `json:"qty"`
	MachineID *int64          `json:"machine_id"`
}

type extrusionRequest struct {
	stepRequest
	Note string `json:"note"`
}

func (a *API) postExtrusion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	var req extrusionRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, a.log, err)
		return
	}
	roll, err := a.engine.RecordExtrusion(r.Context(), rolls.NewRoll{
		JobOrderID: id, Qty: req.Qty, MachineID: req.MachineID, Note: req.Note,
	})
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, roll)
}

func (a *API) postStep(step rolls.Step) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, a.log, err)
			return
		}
		var req stepRequest
		if err := decode(w, r, &req); err != nil {
			writeError(w, a.log, err)
			return
		}

		var roll *rolls.Roll
		switch step {
		case rolls.StepPrint:
			roll, err = a.engine.RecordPrint(r.Context(), id, req.Qty, req.MachineID)
		case rolls.StepCut:
			roll, err = a.engine.RecordCut(r.Context(), id, req.Qty, req.MachineID)
		default:
			err = rolls.ErrUnknownStep
		}
		if err != nil {
			writeError(w, a.log, err)
			return
		}
		writeJSON(w, http.StatusOK, roll)
	}
}

func (a *API) getRollWaste(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	res, err := a.engine.RollWaste(r.Context(), id)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) getJobOrderWaste(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	res, err := a.engine.JobOrderWaste(r.Context(), id)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type availability struct {
	JobOrderID int64           `json:"job_order_id"`
	Available  decimal.Decimal `json:"available"`
}

func (a *API) getAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	avail, err := a.engine.Available(r.Context(), id)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, availability{JobOrderID: id, Available: avail})
}

type receivingRequest struct {
	Qty    decimal.Decimal `json:"qty"`
	RollID *int64          `json:"roll_id"`
	Agent  string          `json:"agent"`
	Note   string          `json:"note"`
}

func (a *API) postReceiving(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	var req receivingRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, a.log, err)
		return
	}
	t, err := a.engine.SubmitReceiving(r.Context(), receiving.Request{
		JobOrderID: id, RollID: req.RollID, Qty: req.Qty, Agent: req.Agent, Note: req.Note,
	})
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (a *API) getReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	l, sum, err := a.engine.JobOrder(r.Context(), id)
	if err != nil {
		writeError(w, a.log, err)
		return
	}

	buf := &bytes.Buffer{}
	if err := report.WriteJobOrder(buf, l, sum); err != nil {
		writeError(w, a.log, fmt.Errorf("render report: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(id, a.now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

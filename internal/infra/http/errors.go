package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Spok95/rollflow/internal/domain/joborders"
	"github.com/Spok95/rollflow/internal/domain/machines"
	"github.com/Spok95/rollflow/internal/domain/receiving"
	"github.com/Spok95/rollflow/internal/domain/rolls"
	"github.com/Spok95/rollflow/internal/production"
)

// errorBody is the JSON shape of every non-2xx API response.
type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Missing   string `json:"missing,omitempty"`
	Available string `json:"available,omitempty"`
	Requested string `json:"requested,omitempty"`
	RollID    *int64 `json:"roll_id,omitempty"`
}

var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	body := errorBody{Error: err.Error()}

	var soe *rolls.StageOrderError
	var exc *receiving.ExceedsAvailableError
	switch {
	case errors.As(err, &soe):
		body.Code = "stage_order_violation"
		body.Missing = string(soe.Missing)
		writeJSON(w, http.StatusConflict, body)
	case errors.As(err, &exc):
		body.Code = "quantity_exceeds_available"
		body.Available = exc.Available.String()
		body.Requested = exc.Requested.String()
		body.RollID = exc.RollID
		writeJSON(w, http.StatusConflict, body)

	case errors.Is(err, rolls.ErrStepAlreadyRecorded),
		errors.Is(err, rolls.ErrStepSuperseded),
		errors.Is(err, rolls.ErrRollClosed),
		errors.Is(err, machines.ErrNameTaken):
		body.Code = "conflict"
		writeJSON(w, http.StatusConflict, body)

	case errors.Is(err, rolls.ErrNotFound),
		errors.Is(err, rolls.ErrJobOrderNotFound),
		errors.Is(err, receiving.ErrJobOrderNotFound),
		errors.Is(err, joborders.ErrNotFound),
		errors.Is(err, machines.ErrNotFound):
		body.Code = "not_found"
		writeJSON(w, http.StatusNotFound, body)

	case errors.Is(err, errBadRequest),
		errors.Is(err, rolls.ErrInvalidQuantity),
		errors.Is(err, rolls.ErrUnknownStep),
		errors.Is(err, receiving.ErrInvalidQuantity),
		errors.Is(err, receiving.ErrAgentRequired),
		errors.Is(err, receiving.ErrRollNotInJobOrder),
		errors.Is(err, receiving.ErrRollNotCut),
		errors.Is(err, joborders.ErrItemRequired),
		errors.Is(err, joborders.ErrInvalidTarget),
		errors.Is(err, machines.ErrNameRequired),
		errors.Is(err, machines.ErrUnknownKind),
		errors.Is(err, production.ErrMachineKind),
		errors.Is(err, production.ErrMachineInactive):
		body.Code = "invalid"
		writeJSON(w, http.StatusBadRequest, body)

	default:
		log.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Spok95/rollflow/internal/broadcast"
)

const (
	eventSnapshot  = "snapshot"
	eventHeartbeat = "heartbeat"
	eventError     = "error"
)

// sseWriter frames server-sent events. Each event must be flushed within
// the push timeout; a client that cannot keep up gets its stream closed and
// falls back to pulling /api/snapshot.
type sseWriter struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	timeout time.Duration
	id      uint64
}

func (s *sseWriter) send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}
	if err := s.rc.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	s.id++
	if _, err := fmt.Fprintf(s.w, "event: %s\nid: %d\ndata: %s\n\n", event, s.id, payload); err != nil {
		return fmt.Errorf("write %s event: %w", event, err)
	}
	return s.rc.Flush()
}

// handleStream pushes the current snapshot on connect, then every snapshot
// the hub publishes, with heartbeats in between.
func (a *API) handleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := w.(http.Flusher); !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "streaming not supported"})
		return
	}

	sub := a.stream.Subscribe()
	defer a.stream.Unsubscribe(sub.ID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	sse := &sseWriter{w: w, rc: http.NewResponseController(w), timeout: a.cfg.PushTimeout}
	log := a.log.With("subscriber", sub.ID)

	snap, err := a.snapshots.Current(ctx)
	if err != nil {
		log.Error("initial snapshot failed", "err", err)
		_ = sse.send(eventError, errorBody{Error: "snapshot unavailable"})
		return
	}
	if err := sse.send(eventSnapshot, broadcast.Message{Type: broadcast.TypeSnapshot, Data: &snap}); err != nil {
		log.Debug("client gone before first snapshot", "err", err)
		return
	}

	heartbeat := time.NewTicker(a.cfg.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if err := sse.send(eventHeartbeat, struct{}{}); err != nil {
				log.Debug("client disconnected during heartbeat", "err", err)
				a.metrics.Dropped("write_failed")
				return
			}
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			if err := sse.send(eventSnapshot, msg); err != nil {
				log.Info("dropping slow or disconnected client", "err", err)
				a.metrics.Dropped("write_failed")
				return
			}
		}
	}
}

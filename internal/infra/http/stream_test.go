package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/rollflow/internal/broadcast"
	"github.com/Spok95/rollflow/internal/infra/memstore"
	"github.com/Spok95/rollflow/internal/infra/metrics"
	"github.com/Spok95/rollflow/internal/snapshot"
)

var errStalled = errors.New("client stalled")

// stallingWriter accepts a fixed number of writes or deadlines, then fails
// the way a connection past its write deadline does.
type stallingWriter struct {
	mu        sync.Mutex
	header    http.Header
	buf       bytes.Buffer
	writes    int
	deadlines int

	maxWrites    int
	maxDeadlines int
}

func (w *stallingWriter) Header() http.Header {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.header == nil {
		w.header = http.Header{}
	}
	return w.header
}

func (w *stallingWriter) WriteHeader(int) {}

func (w *stallingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes++
	if w.maxWrites > 0 && w.writes > w.maxWrites {
		return 0, errStalled
	}
	return w.buf.Write(p)
}

func (w *stallingWriter) Flush() {}

func (w *stallingWriter) SetWriteDeadline(time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.deadlines++
	if w.maxDeadlines > 0 && w.deadlines > w.maxDeadlines {
		return os.ErrDeadlineExceeded
	}
	return nil
}

func (w *stallingWriter) written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Len()
}

type trackingStream struct {
	*broadcast.Hub
	mu   sync.Mutex
	gone []string
}

func (s *trackingStream) Unsubscribe(id string) {
	s.mu.Lock()
	s.gone = append(s.gone, id)
	s.mu.Unlock()
	s.Hub.Unsubscribe(id)
}

func (s *trackingStream) unsubscribed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.gone...)
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestStreamDropsClientWhosePushFails(t *testing.T) {
	tests := []struct {
		name string
		w    *stallingWriter
	}{
		{"write fails", &stallingWriter{maxWrites: 1}},
		{"deadline cannot be set", &stallingWriter{maxDeadlines: 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			log := slog.New(slog.NewTextHandler(io.Discard, nil))
			reg := prometheus.NewRegistry()
			m := metrics.New(reg)
			snaps := snapshot.NewService(memstore.New(), m)
			hub := broadcast.NewHub(snaps, log, m)
			stream := &trackingStream{Hub: hub}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go hub.Run(ctx)

			api := NewAPI(nil, snaps, stream, APIConfig{PushTimeout: 50 * time.Millisecond, Heartbeat: time.Hour}, log, m)
			healthy := hub.Subscribe()

			req := httptest.NewRequest(http.MethodGet, "/api/stream", nil).WithContext(ctx)
			done := make(chan struct{})
			go func() {
				defer close(done)
				api.handleStream(tc.w, req)
			}()

			require.Eventually(t, func() bool { return tc.w.written() > 0 }, time.Second, 5*time.Millisecond,
				"initial snapshot is written")
			hub.Trigger()

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("handler kept the stream open after a failed push")
			}

			select {
			case msg, ok := <-healthy.C():
				require.True(t, ok)
				assert.Equal(t, broadcast.TypeSnapshot, msg.Type)
			case <-time.After(time.Second):
				t.Fatal("other subscribers must still receive the snapshot")
			}

			assert.Len(t, stream.unsubscribed(), 1)
			assert.Equal(t, 1.0, counterValue(t, reg, "rollflow_broadcast_dropped_total", "reason", "write_failed"))
		})
	}
}

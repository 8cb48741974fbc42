// Package broadcast pushes fresh snapshots to realtime subscribers.
//
// Mutations call Trigger; the hub's Run loop recomputes one snapshot per
// wakeup and offers it to every subscriber. Each subscriber holds at most one
// undelivered message, and a newer snapshot replaces an older one, so a slow
// consumer never holds up the hub or other consumers.
package broadcast

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Spok95/rollflow/internal/infra/metrics"
	"github.com/Spok95/rollflow/internal/snapshot"
)

const (
	TypeSnapshot      = "snapshot"
	TypeRequestUpdate = "request-update"
)

// Message is the realtime envelope.
type Message struct {
	Type string             `json:"type"`
	Data *snapshot.Snapshot `json:"data,omitempty"`
}

// Source produces the current snapshot.
type Source interface {
	Current(ctx context.Context) (snapshot.Snapshot, error)
}

// Sink receives every published message in addition to local subscribers.
type Sink interface {
	Publish(ctx context.Context, msg Message) error
}

type Subscriber struct {
	ID string
	ch chan Message
}

// C delivers messages. It is closed on Unsubscribe.
func (s *Subscriber) C() <-chan Message { return s.ch }

// offer queues msg, replacing an undelivered older one. It reports whether
// an older message was dropped.
func (s *Subscriber) offer(msg Message) (replaced bool) {
	for {
		select {
		case s.ch <- msg:
			return replaced
		default:
		}
		select {
		case <-s.ch:
			replaced = true
		default:
		}
	}
}

type Hub struct {
	source  Source
	log     *slog.Logger
	metrics *metrics.Metrics

	wake chan struct{}

	mu    sync.Mutex
	subs  map[string]*Subscriber
	sinks []Sink
}

func NewHub(source Source, log *slog.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		source:  source,
		log:     log,
		metrics: m,
		wake:    make(chan struct{}, 1),
		subs:    make(map[string]*Subscriber),
	}
}

// AddSink wires an additional sink that receives every published message.
func (h *Hub) AddSink(s Sink) {
	if s == nil {
		return
	}
	h.mu.Lock()
	h.sinks = append(h.sinks, s)
	h.mu.Unlock()
}

func (h *Hub) Subscribe() *Subscriber {
	s := &Subscriber{ID: uuid.NewString(), ch: make(chan Message, 1)}
	h.mu.Lock()
	h.subs[s.ID] = s
	n := len(h.subs)
	h.mu.Unlock()
	h.metrics.Subscribers(n)
	return s
}

func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	s, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
		close(s.ch)
	}
	n := len(h.subs)
	h.mu.Unlock()
	if ok {
		h.metrics.Subscribers(n)
	}
}

// Trigger asks for a recompute. It never blocks; triggers arriving while a
// recompute is pending collapse into it.
func (h *Hub) Trigger() {
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// Run serves triggers until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-h.wake:
			h.broadcast(ctx)
		}
	}
}

func (h *Hub) broadcast(ctx context.Context) {
	snap, err := h.source.Current(ctx)
	if err != nil {
		h.log.Error("snapshot for broadcast failed", "err", err)
		return
	}
	h.Publish(ctx, Message{Type: TypeSnapshot, Data: &snap})
}

// Publish offers msg to every subscriber and sink.
func (h *Hub) Publish(ctx context.Context, msg Message) {
	h.mu.Lock()
	for _, s := range h.subs {
		if s.offer(msg) {
			h.metrics.Dropped("replaced")
		}
		h.metrics.Delivered()
	}
	sinks := append([]Sink(nil), h.sinks...)
	h.mu.Unlock()

	for _, sink := range sinks {
		if err := sink.Publish(ctx, msg); err != nil {
			h.log.Warn("broadcast sink publish failed", "err", err)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, s := range h.subs {
		close(s.ch)
		delete(h.subs, id)
	}
	h.metrics.Subscribers(0)
}

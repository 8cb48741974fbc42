package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// Conn is the part of *nats.Conn the bridge uses.
type Conn interface {
	Publish(subj string, data []byte) error
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// NATSBridge mirrors hub traffic onto NATS so other processes (another API
// replica, a floor display) see the same snapshots, and lets them ask for a
// recompute.
type NATSBridge struct {
	conn   Conn
	prefix string
	log    *slog.Logger
	sub    *nats.Subscription
}

func NewNATSBridge(conn Conn, prefix string, log *slog.Logger) *NATSBridge {
	return &NATSBridge{conn: conn, prefix: prefix, log: log}
}

func (b *NATSBridge) SnapshotSubject() string { return b.prefix + "." + TypeSnapshot }

func (b *NATSBridge) RequestSubject() string { return b.prefix + "." + TypeRequestUpdate }

// Publish implements Sink.
func (b *NATSBridge) Publish(_ context.Context, msg Message) error {
	if msg.Type != TypeSnapshot {
		return nil
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return b.conn.Publish(b.SnapshotSubject(), data)
}

// Listen triggers h for every request-update message received.
func (b *NATSBridge) Listen(h *Hub) error {
	sub, err := b.conn.Subscribe(b.RequestSubject(), func(m *nats.Msg) {
		var msg Message
		if err := json.Unmarshal(m.Data, &msg); err != nil || msg.Type != TypeRequestUpdate {
			b.log.Warn("ignoring realtime message", "subject", m.Subject, "err", err)
			return
		}
		h.Trigger()
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", b.RequestSubject(), err)
	}
	b.sub = sub
	return nil
}

func (b *NATSBridge) Close() error {
	if b.sub == nil {
		return nil
	}
	return b.sub.Unsubscribe()
}

package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/Spok95/rollflow/internal/infra/metrics"
)

// Loader fetches the persisted state. All I/O happens here, before Build.
type Loader interface {
	Load(ctx context.Context) (Data, error)
}

type Service struct {
	loader  Loader
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(loader Loader, m *metrics.Metrics) *Service {
	return &Service{loader: loader, metrics: m, now: time.Now}
}

// Current loads fresh data and derives a snapshot from it. It has no side
// effects on persisted state.
func (s *Service) Current(ctx context.Context) (Snapshot, error) {
	start := time.Now()
	d, err := s.loader.Load(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot data: %w", err)
	}
	snap := Build(d, s.now().UTC())
	s.metrics.SnapshotBuilt(time.Since(start))
	return snap, nil
}

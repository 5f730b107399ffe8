package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"smart-factory/bridge/internal/domain"
	"smart-factory/bridge/internal/store"
)

var errStoreDown = errors.New("store unavailable")

// flakyStore wraps the memory store and fails or stalls selected calls.
type flakyStore struct {
	*store.MemoryStore

	failInsertTelemetry bool
	failLastSeen        bool
	failFindFor         domain.AlertType
	panicFindFor        domain.AlertType
	findDelay           time.Duration
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: store.NewMemoryStore()}
}

func (f *flakyStore) InsertTelemetry(ctx context.Context, partition string, rec *domain.Record) error {
	if f.failInsertTelemetry {
		return errStoreDown
	}
	return f.MemoryStore.InsertTelemetry(ctx, partition, rec)
}

func (f *flakyStore) UpdateFactoryLastSeen(ctx context.Context, factoryID int64, at time.Time) error {
	if f.failLastSeen {
		return errStoreDown
	}
	return f.MemoryStore.UpdateFactoryLastSeen(ctx, factoryID, at)
}

func (f *flakyStore) FindOpenAlert(ctx context.Context, factoryID int64, system string, alertType domain.AlertType) (*domain.Alert, error) {
	if alertType == f.failFindFor {
		return nil, errStoreDown
	}
	if alertType == f.panicFindFor {
		panic("driver bug")
	}
	a, err := f.MemoryStore.FindOpenAlert(ctx, factoryID, system, alertType)
	if f.findDelay > 0 {
		time.Sleep(f.findDelay)
	}
	return a, err
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.AlertEvent
	err    error
}

func (n *recordingNotifier) PublishAlert(ctx context.Context, event domain.AlertEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) states() []domain.AlertEventState {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.AlertEventState, len(n.events))
	for i, e := range n.events {
		out[i] = e.State
	}
	return out
}

type recordingPublisher struct {
	calls int
	err   error
}

func (p *recordingPublisher) PublishState(ctx context.Context, factory domain.Factory, rec *domain.Record) error {
	p.calls++
	return p.err
}

func openAlerts(alerts []domain.Alert, system string, t domain.AlertType) []domain.Alert {
	var out []domain.Alert
	for _, a := range alerts {
		if !a.Acknowledged && a.SystemName == system && a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

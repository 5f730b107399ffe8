package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"smart-factory/bridge/internal/domain"
)

const maxRowsPerPartition = 1000 // keep the last 1000 readings per partition

// MemoryStore keeps telemetry and alerts in process. It backs STORE_KIND=memory
// and the pipeline tests.
type MemoryStore struct {
	mu        sync.RWMutex
	telemetry map[string][]map[string]any
	lastSeen  map[int64]time.Time
	alerts    []*domain.Alert
	nextID    int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		telemetry: make(map[string][]map[string]any),
		lastSeen:  make(map[int64]time.Time),
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) InsertTelemetry(ctx context.Context, partition string, rec *domain.Record) error {
	if partition == "" {
		return fmt.Errorf("insert telemetry: empty partition")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.telemetry[partition]
	if len(rows) >= maxRowsPerPartition {
		rows = rows[1:]
	}
	s.telemetry[partition] = append(rows, rec.Columns())
	return nil
}

func (s *MemoryStore) UpdateFactoryLastSeen(ctx context.Context, factoryID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen[factoryID] = at
	return nil
}

func (s *MemoryStore) FindOpenAlert(ctx context.Context, factoryID int64, system string, alertType domain.AlertType) (*domain.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *domain.Alert
	for _, a := range s.alerts {
		if a.Acknowledged || a.FactoryID != factoryID || a.SystemName != system || a.Type != alertType {
			continue
		}
		if found == nil || a.CreatedAt.After(found.CreatedAt) {
			found = a
		}
	}
	if found == nil {
		return nil, nil
	}
	cp := *found
	return &cp, nil
}

func (s *MemoryStore) InsertAlert(ctx context.Context, alert *domain.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	alert.ID = s.nextID
	cp := *alert
	s.alerts = append(s.alerts, &cp)
	return nil
}

func (s *MemoryStore) UpdateAlert(ctx context.Context, id int64, update domain.AlertUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.alertLocked(id)
	if err != nil {
		return err
	}
	a.Message = update.Message
	a.CreatedAt = update.CreatedAt
	return nil
}

func (s *MemoryStore) AcknowledgeAlert(ctx context.Context, id int64, at time.Time, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.alertLocked(id)
	if err != nil {
		return err
	}
	a.Acknowledged = true
	a.AcknowledgedAt = &at
	a.AcknowledgedBy = actor
	return nil
}

func (s *MemoryStore) alertLocked(id int64) (*domain.Alert, error) {
	for _, a := range s.alerts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, fmt.Errorf("alert %d not found", id)
}

// Alerts returns copies of every stored alert in insertion order.
func (s *MemoryStore) Alerts() []domain.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Alert, len(s.alerts))
	for i, a := range s.alerts {
		out[i] = *a
	}
	return out
}

func (s *MemoryStore) Telemetry(partition string) []map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]map[string]any, len(s.telemetry[partition]))
	copy(out, s.telemetry[partition])
	return out
}

func (s *MemoryStore) LastSeen(factoryID int64) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.lastSeen[factoryID]
	return at, ok
}

package pipeline

import (
	"context"
	"time"

	"smart-factory/bridge/internal/domain"
)

type TelemetryStore interface {
	InsertTelemetry(ctx context.Context, partition string, rec *domain.Record) error
	UpdateFactoryLastSeen(ctx context.Context, factoryID int64, at time.Time) error
}

// AlertStore must return (nil, nil) from FindOpenAlert when no open alert exists.
type AlertStore interface {
	FindOpenAlert(ctx context.Context, factoryID int64, system string, alertType domain.AlertType) (*domain.Alert, error)
	InsertAlert(ctx context.Context, alert *domain.Alert) error
	UpdateAlert(ctx context.Context, id int64, update domain.AlertUpdate) error
	AcknowledgeAlert(ctx context.Context, id int64, at time.Time, actor string) error
}

type Store interface {
	TelemetryStore
	AlertStore
	Ping(ctx context.Context) error
}

type StatePublisher interface {
	PublishState(ctx context.Context, factory domain.Factory, rec *domain.Record) error
}

type AlertNotifier interface {
	PublishAlert(ctx context.Context, event domain.AlertEvent) error
}

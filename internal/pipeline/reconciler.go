package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"smart-factory/bridge/internal/domain"
	"smart-factory/bridge/internal/metrics"
	"smart-factory/bridge/internal/rules"
)

type Result int

const (
	ResultNoop Result = iota
	ResultCreated
	ResultRefreshed
	ResultUnchanged
	ResultResolved
)

func (r Result) String() string {
	switch r {
	case ResultCreated:
		return "created"
	case ResultRefreshed:
		return "refreshed"
	case ResultUnchanged:
		return "unchanged"
	case ResultResolved:
		return "resolved"
	default:
		return "noop"
	}
}

type Summary struct {
	Created   int
	Refreshed int
	Unchanged int
	Resolved  int
	Failed    int
}

// Reconciler applies rule outcomes to stored alerts, keeping at most one open
// alert per (factory, subsystem, alert type) for deduplicated types.
type Reconciler struct {
	store    AlertStore
	notifier AlertNotifier
	locks    *keyedMutex
	logger   *zap.Logger
	now      func() time.Time
}

// NewReconciler accepts a nil notifier.
func NewReconciler(store AlertStore, notifier AlertNotifier, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		store:    store,
		notifier: notifier,
		locks:    newKeyedMutex(),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Apply reconciles every outcome. A failure in one alert type is logged and
// counted and never stops the remaining types.
func (r *Reconciler) Apply(ctx context.Context, factory domain.Factory, system string, outcomes []rules.Outcome) Summary {
	var sum Summary
	for _, o := range outcomes {
		res, err := r.reconcileSafe(ctx, factory, system, o)
		if err != nil {
			sum.Failed++
			metrics.AlertFailures.Add(1)
			r.logger.Error("alert reconcile failed",
				zap.String("factory", factory.Key),
				zap.String("system", system),
				zap.String("alert_type", string(o.Type)),
				zap.Stringer("action", o.Action),
				zap.Error(err),
			)
			continue
		}
		switch res {
		case ResultCreated:
			sum.Created++
		case ResultRefreshed:
			sum.Refreshed++
		case ResultUnchanged:
			sum.Unchanged++
		case ResultResolved:
			sum.Resolved++
		}
	}
	return sum
}

func (r *Reconciler) reconcileSafe(ctx context.Context, factory domain.Factory, system string, o rules.Outcome) (res Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return r.Reconcile(ctx, factory, system, o)
}

func (r *Reconciler) Reconcile(ctx context.Context, factory domain.Factory, system string, o rules.Outcome) (Result, error) {
	if !factory.HasID {
		return ResultNoop, fmt.Errorf("factory %q has no numeric id", factory.Key)
	}

	switch o.Action {
	case rules.ActionAssert:
		if !o.Type.Deduplicated() {
			return r.insert(ctx, factory, system, o)
		}
		unlock := r.locks.Lock(lockKey(factory.ID, system, o.Type))
		defer unlock()
		return r.raise(ctx, factory, system, o)

	case rules.ActionClear:
		if !o.Type.Deduplicated() {
			return ResultNoop, nil
		}
		unlock := r.locks.Lock(lockKey(factory.ID, system, o.Type))
		defer unlock()
		return r.resolve(ctx, factory, system, o.Type)

	default:
		return ResultNoop, fmt.Errorf("unknown action %d", o.Action)
	}
}

func (r *Reconciler) raise(ctx context.Context, factory domain.Factory, system string, o rules.Outcome) (Result, error) {
	existing, err := r.store.FindOpenAlert(ctx, factory.ID, system, o.Type)
	if err != nil {
		return ResultNoop, fmt.Errorf("find open alert: %w", err)
	}
	if existing == nil {
		return r.insert(ctx, factory, system, o)
	}
	if existing.Message == o.Message {
		return ResultUnchanged, nil
	}

	now := r.now()
	err = r.store.UpdateAlert(ctx, existing.ID, domain.AlertUpdate{Message: o.Message, CreatedAt: now})
	if err != nil {
		return ResultNoop, fmt.Errorf("update alert %d: %w", existing.ID, err)
	}
	metrics.AlertsRefreshed.Add(1)
	r.logger.Info("alert refreshed",
		zap.String("factory", factory.Key),
		zap.String("system", system),
		zap.String("alert_type", string(o.Type)),
		zap.Int64("alert_id", existing.ID),
	)
	r.notify(ctx, factory, system, o, domain.AlertEventRefreshed, now)
	return ResultRefreshed, nil
}

func (r *Reconciler) insert(ctx context.Context, factory domain.Factory, system string, o rules.Outcome) (Result, error) {
	now := r.now()
	alert := &domain.Alert{
		FactoryID:  factory.ID,
		SystemName: system,
		Type:       o.Type,
		Severity:   o.Severity,
		Message:    o.Message,
		CreatedAt:  now,
	}
	if err := r.store.InsertAlert(ctx, alert); err != nil {
		return ResultNoop, fmt.Errorf("insert alert: %w", err)
	}
	metrics.AlertsCreated.Add(1)
	r.logger.Warn("alert created",
		zap.String("factory", factory.Key),
		zap.String("system", system),
		zap.String("alert_type", string(o.Type)),
		zap.String("severity", string(o.Severity)),
		zap.String("message", o.Message),
	)
	r.notify(ctx, factory, system, o, domain.AlertEventCreated, now)
	return ResultCreated, nil
}

func (r *Reconciler) resolve(ctx context.Context, factory domain.Factory, system string, alertType domain.AlertType) (Result, error) {
	existing, err := r.store.FindOpenAlert(ctx, factory.ID, system, alertType)
	if err != nil {
		return ResultNoop, fmt.Errorf("find open alert: %w", err)
	}
	if existing == nil {
		return ResultNoop, nil
	}

	now := r.now()
	if err := r.store.AcknowledgeAlert(ctx, existing.ID, now, domain.AutoResolvedActor); err != nil {
		return ResultNoop, fmt.Errorf("acknowledge alert %d: %w", existing.ID, err)
	}
	metrics.AlertsResolved.Add(1)
	r.logger.Info("alert auto-resolved",
		zap.String("factory", factory.Key),
		zap.String("system", system),
		zap.String("alert_type", string(alertType)),
		zap.Int64("alert_id", existing.ID),
	)
	r.notify(ctx, factory, system, rules.Outcome{Type: alertType, Action: rules.ActionClear}, domain.AlertEventResolved, now)
	return ResultResolved, nil
}

func (r *Reconciler) notify(ctx context.Context, factory domain.Factory, system string, o rules.Outcome, state domain.AlertEventState, at time.Time) {
	if r.notifier == nil {
		return
	}
	event := domain.AlertEvent{
		FactoryKey: factory.Key,
		SystemName: system,
		Type:       o.Type,
		Severity:   o.Severity,
		Message:    o.Message,
		State:      state,
		At:         at,
	}
	if err := r.notifier.PublishAlert(ctx, event); err != nil {
		r.logger.Warn("alert publish failed",
			zap.String("factory", factory.Key),
			zap.String("alert_type", string(o.Type)),
			zap.Error(err),
		)
	}
}

func lockKey(factoryID int64, system string, alertType domain.AlertType) string {
	return fmt.Sprintf("%d|%s|%s", factoryID, system, alertType)
}

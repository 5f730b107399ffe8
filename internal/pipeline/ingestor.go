package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"smart-factory/bridge/internal/domain"
	"smart-factory/bridge/internal/mapper"
	"smart-factory/bridge/internal/metrics"
	"smart-factory/bridge/internal/rules"
)

var (
	ErrMalformedPayload = errors.New("malformed payload")
	ErrInternal         = errors.New("internal fault")
)

const unknownSystem = "Unknown"

type IngestResult struct {
	RequestID string
	Factory   domain.Factory
	System    string
	Mapped    bool
	Persisted bool
	Evaluated bool
	Alerts    Summary
}

type Ingestor struct {
	directory  *domain.Directory
	store      TelemetryStore
	state      StatePublisher
	reconciler *Reconciler
	thresholds domain.Thresholds
	logger     *zap.Logger
	now        func() time.Time
}

// NewIngestor accepts a nil state publisher.
func NewIngestor(
	directory *domain.Directory,
	store TelemetryStore,
	state StatePublisher,
	reconciler *Reconciler,
	thresholds domain.Thresholds,
	logger *zap.Logger,
) *Ingestor {
	return &Ingestor{
		directory:  directory,
		store:      store,
		state:      state,
		reconciler: reconciler,
		thresholds: thresholds,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Ingest handles one inbound payload. Only ErrMalformedPayload and
// ErrInternal are returned; storage and alerting failures are logged and
// absorbed so the sender is never asked to retry.
func (in *Ingestor) Ingest(ctx context.Context, body []byte) (res IngestResult, err error) {
	res.RequestID = uuid.NewString()
	log := in.logger.With(zap.String("request_id", res.RequestID))

	defer func() {
		if p := recover(); p != nil {
			log.Error("ingest panic", zap.Any("panic", p), zap.Stack("stack"))
			err = fmt.Errorf("%w: %v", ErrInternal, p)
		}
	}()

	metrics.MessagesReceived.Add(1)

	var raw mapper.Fields
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		metrics.MessagesMalformed.Add(1)
		log.Warn("malformed payload", zap.Int("bytes", len(body)), zap.Error(err))
		return res, ErrMalformedPayload
	}

	// the sender may hang up; storage and alert writes still complete
	ctx = context.WithoutCancel(ctx)

	res.System = stringField(raw, "system", unknownSystem)
	res.Factory = in.directory.Resolve(stringField(raw, "factory", in.directory.DefaultKey()))
	log = log.With(zap.String("system", res.System), zap.String("factory", res.Factory.Key))

	rec, ok := mapper.Map(res.System, raw, in.now())
	if !ok {
		metrics.MessagesUnmapped.Add(1)
		log.Info("no valid data")
		return res, nil
	}
	res.Mapped = true

	if err := in.store.InsertTelemetry(ctx, res.Factory.Partition, rec); err != nil {
		metrics.TelemetryFailures.Add(1)
		log.Error("telemetry save failed", zap.String("partition", res.Factory.Partition), zap.Error(err))
	} else {
		res.Persisted = true
		metrics.TelemetrySaved.Add(1)
		log.Info("telemetry saved", zap.String("partition", res.Factory.Partition))
		in.touchFactory(ctx, log, res.Factory, rec.Timestamp)
	}

	if in.state != nil {
		if err := in.state.PublishState(ctx, res.Factory, rec); err != nil {
			log.Warn("state publish failed", zap.Error(err))
		}
	}

	if !res.Factory.HasID {
		log.Warn("alert evaluation skipped: factory has no numeric id")
		return res, nil
	}
	res.Evaluated = true
	res.Alerts = in.reconciler.Apply(ctx, res.Factory, res.System, rules.Evaluate(rec, in.thresholds))
	return res, nil
}

func (in *Ingestor) touchFactory(ctx context.Context, log *zap.Logger, factory domain.Factory, at time.Time) {
	if !factory.HasID {
		return
	}
	if err := in.store.UpdateFactoryLastSeen(ctx, factory.ID, at); err != nil {
		log.Warn("factory last-seen update failed", zap.Int64("factory_id", factory.ID), zap.Error(err))
	}
}

func stringField(raw mapper.Fields, key, fallback string) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return fallback
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

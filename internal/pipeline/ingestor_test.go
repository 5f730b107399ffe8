package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"smart-factory/bridge/internal/domain"
)

type ingestFixture struct {
	store     *flakyStore
	publisher *recordingPublisher
	ingestor  *Ingestor
	logs      *observer.ObservedLogs
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	st := newFlakyStore()
	pub := &recordingPublisher{}
	dir := domain.NewDirectory(
		map[string]string{"factory_1": "factory_1_data", "factory_2": "factory_2_data", "factory_3": "factory_3_data"},
		map[string]int64{"factory_1": 1, "factory_2": 2},
		"factory_1",
	)
	in := NewIngestor(dir, st, pub, NewReconciler(st, nil, logger), domain.DefaultThresholds, logger)
	in.now = func() time.Time { return time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC) }

	return &ingestFixture{store: st, publisher: pub, ingestor: in, logs: logs}
}

func (f *ingestFixture) ingest(t *testing.T, body string) IngestResult {
	t.Helper()
	res, err := f.ingestor.Ingest(context.Background(), []byte(body))
	require.NoError(t, err)
	return res
}

func TestIngest_PersistsAndStampsRecord(t *testing.T) {
	f := newIngestFixture(t)

	res := f.ingest(t, `{"system": "Conveyor_Belt", "factory": "factory_2", "order_count": 14, "sensor_value": 3.5, "status": "RUNNING"}`)

	assert.True(t, res.Mapped)
	assert.True(t, res.Persisted)
	assert.True(t, res.Evaluated)
	assert.NotEmpty(t, res.RequestID)
	assert.Equal(t, "factory_2_data", res.Factory.Partition)

	rows := f.store.Telemetry("factory_2_data")
	require.Len(t, rows, 1)
	assert.Equal(t, "Conveyor_Belt", rows[0][domain.ColSystemName])
	assert.Equal(t, time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC), rows[0][domain.ColTimestamp])
	assert.Equal(t, 14.0, rows[0][domain.ColOrderCount])
	assert.Equal(t, 3.5, rows[0][domain.ColConveyorSpeed])
	assert.Equal(t, "RUNNING", rows[0][domain.ColConveyorStatus])

	seen, ok := f.store.LastSeen(2)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC), seen)
	assert.Equal(t, 1, f.publisher.calls)
	assert.Equal(t, 1, f.logs.FilterMessage("telemetry saved").Len())
}

func TestIngest_DefaultsAndUnknownFactory(t *testing.T) {
	f := newIngestFixture(t)

	res := f.ingest(t, `{"system": "Battery_System", "factory": "factory_42", "battery_level": 80}`)
	assert.Equal(t, "factory_1", res.Factory.Key)
	assert.Len(t, f.store.Telemetry("factory_1_data"), 1)

	res = f.ingest(t, `{"system": "Battery_System", "battery_level": 80}`)
	assert.Equal(t, "factory_1", res.Factory.Key)
	assert.Len(t, f.store.Telemetry("factory_1_data"), 2)
}

func TestIngest_UnrecognizedSubsystem(t *testing.T) {
	f := newIngestFixture(t)

	for _, body := range []string{`{"status": "FIRE"}`, `{"system": "Coffee_Machine"}`, `{"system": 7}`} {
		res := f.ingest(t, body)
		assert.False(t, res.Mapped, body)
		assert.False(t, res.Persisted, body)
	}

	assert.Equal(t, 3, f.logs.FilterMessage("no valid data").Len())
	assert.Equal(t, 0, f.logs.FilterMessage("telemetry save failed").Len())
	assert.Empty(t, f.store.Telemetry("factory_1_data"))
	assert.Empty(t, f.store.Alerts())
	assert.Equal(t, 0, f.publisher.calls)
}

func TestIngest_MissingSystemLogsUnknown(t *testing.T) {
	f := newIngestFixture(t)

	res := f.ingest(t, `{"factory": "factory_2"}`)

	assert.Equal(t, "Unknown", res.System)
	entries := f.logs.FilterMessage("no valid data").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Unknown", entries[0].ContextMap()["system"])
}

func TestIngest_MalformedPayload(t *testing.T) {
	f := newIngestFixture(t)

	for _, body := range []string{`{"system":`, `[]`, `"Fire_Control"`, `null`, ``} {
		_, err := f.ingestor.Ingest(context.Background(), []byte(body))
		assert.ErrorIs(t, err, ErrMalformedPayload, body)
	}
	assert.Empty(t, f.store.Telemetry("factory_1_data"))
	assert.Equal(t, 5, f.logs.FilterMessage("malformed payload").Len())
}

func TestIngest_PersistenceFailureStillEvaluatesAlerts(t *testing.T) {
	f := newIngestFixture(t)
	f.store.failInsertTelemetry = true

	res := f.ingest(t, `{"system": "Fire_Control", "sensor_value": 950, "status": "FIRE_1", "siren": 1, "sprinkler": 1}`)

	assert.True(t, res.Mapped)
	assert.False(t, res.Persisted)
	assert.Equal(t, 1, res.Alerts.Created)
	assert.Equal(t, 1, f.logs.FilterMessage("telemetry save failed").Len())
	assert.Equal(t, 0, f.logs.FilterMessage("telemetry saved").Len())

	alerts := f.store.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertFireDetected, alerts[0].Type)
	assert.Equal(t, domain.SeverityCritical, alerts[0].Severity)

	_, seen := f.store.LastSeen(1)
	assert.False(t, seen)
}

func TestIngest_LastSeenFailureIsOnlyAWarning(t *testing.T) {
	f := newIngestFixture(t)
	f.store.failLastSeen = true

	res := f.ingest(t, `{"system": "Weight_System", "weight_val": 500}`)

	assert.True(t, res.Persisted)
	assert.Equal(t, 1, f.logs.FilterMessage("factory last-seen update failed").Len())
}

func TestIngest_StatePublishFailureIsAbsorbed(t *testing.T) {
	f := newIngestFixture(t)
	f.publisher.err = errors.New("redis down")

	res := f.ingest(t, `{"system": "Garage_Door", "motion_status": "DETECTED"}`)

	assert.True(t, res.Persisted)
	assert.Equal(t, 1, f.logs.FilterMessage("state publish failed").Len())
}

func TestIngest_FactoryWithoutIDSkipsAlerts(t *testing.T) {
	f := newIngestFixture(t)

	res := f.ingest(t, `{"system": "HVAC_System", "factory": "factory_3", "temperature": 45}`)

	assert.True(t, res.Persisted)
	assert.False(t, res.Evaluated)
	assert.Len(t, f.store.Telemetry("factory_3_data"), 1)
	assert.Empty(t, f.store.Alerts())
}

func TestIngest_FireLifecycle(t *testing.T) {
	f := newIngestFixture(t)
	fire := `{"system": "Fire_Control", "sensor_value": 900, "status": "FIRE_1", "siren": 1, "sprinkler": 1}`

	f.ingest(t, fire)
	f.ingest(t, fire)
	require.Len(t, f.store.Alerts(), 1)

	f.ingest(t, `{"system": "Fire_Control", "sensor_value": 910, "status": "FIRE_1", "siren": 1, "sprinkler": 1}`)
	alerts := f.store.Alerts()
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0].Message, "910")

	res := f.ingest(t, `{"system": "Fire_Control", "sensor_value": 10, "status": "SAFE", "siren": 0, "sprinkler": 0}`)
	assert.Equal(t, 1, res.Alerts.Resolved)
	alerts = f.store.Alerts()
	require.Len(t, alerts, 1)
	assert.True(t, alerts[0].Acknowledged)
	assert.Equal(t, domain.AutoResolvedActor, alerts[0].AcknowledgedBy)
}

func TestIngest_TemperatureSwing(t *testing.T) {
	f := newIngestFixture(t)

	f.ingest(t, `{"system": "HVAC_System", "temperature": "35.0", "ac_status": "ON"}`)
	f.ingest(t, `{"system": "HVAC_System", "temperature": 20.0}`)
	f.ingest(t, `{"system": "HVAC_System", "temperature": 10.0, "furnace_status": "ON"}`)
	f.ingest(t, `{"system": "HVAC_System", "temperature": "broken"}`)

	alerts := f.store.Alerts()
	require.Len(t, alerts, 2)
	assert.Equal(t, domain.AlertHighTemperature, alerts[0].Type)
	assert.True(t, alerts[0].Acknowledged)
	assert.Contains(t, alerts[0].Message, "35.0")
	assert.Equal(t, domain.AlertLowTemperature, alerts[1].Type)
	assert.False(t, alerts[1].Acknowledged, "a null temperature leaves open alerts alone")
}

func TestIngest_BatteryZeroDoesNotAlert(t *testing.T) {
	f := newIngestFixture(t)

	res := f.ingest(t, `{"system": "Battery_System", "battery_level": 0, "led_intensity": 0}`)

	assert.True(t, res.Persisted)
	assert.Empty(t, f.store.Alerts())
}

func TestIngest_DeniedAccessEventsAreNotDeduplicated(t *testing.T) {
	f := newIngestFixture(t)
	denied := `{"system": "Safe_Room", "last_card": "BADGE-9", "access": "DENIED", "door": "LOCKED"}`

	f.ingest(t, denied)
	f.ingest(t, denied)
	f.ingest(t, `{"system": "Safe_Room", "last_card": "BADGE-1", "access": "GRANTED", "door": "OPEN"}`)

	alerts := f.store.Alerts()
	require.Len(t, alerts, 2)
	for _, a := range alerts {
		assert.Equal(t, domain.AlertUnauthorizedAccess, a.Type)
		assert.False(t, a.Acknowledged)
		assert.Contains(t, a.Message, "BADGE-9")
	}
}

type panickingStore struct{ *flakyStore }

func (p panickingStore) InsertTelemetry(ctx context.Context, partition string, rec *domain.Record) error {
	panic("nil pointer in driver")
}

func TestIngest_PanicBecomesInternalError(t *testing.T) {
	f := newIngestFixture(t)
	f.ingestor.store = panickingStore{f.store}

	_, err := f.ingestor.Ingest(context.Background(), []byte(`{"system": "Safe_Room"}`))

	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, 1, f.logs.FilterMessage("ingest panic").Len())
}

func TestIngest_CancelledRequestStillPersists(t *testing.T) {
	f := newIngestFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.ingestor.Ingest(ctx, []byte(`{"system": "Weight_System", "weight_val": 120}`))

	require.NoError(t, err)
	assert.True(t, res.Persisted)
}

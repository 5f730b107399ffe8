package domain

import "time"

type AlertType string

const (
	AlertFireDetected       AlertType = "FIRE_DETECTED"
	AlertHighTemperature    AlertType = "HIGH_TEMPERATURE"
	AlertLowTemperature     AlertType = "LOW_TEMPERATURE"
	AlertLowBattery         AlertType = "LOW_BATTERY"
	AlertUnauthorizedAccess AlertType = "UNAUTHORIZED_ACCESS"
)

// Deduplicated reports whether at most one open alert of this type may exist
// per factory and subsystem. Access denials are individual events.
func (t AlertType) Deduplicated() bool {
	return t != AlertUnauthorizedAccess
}

type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "WARNING"
	SeverityCritical AlertSeverity = "CRITICAL"
)

// AutoResolvedActor is recorded as acknowledged_by when a condition clears.
const AutoResolvedActor = "AUTO_RESOLVED"

type Alert struct {
	ID             int64
	FactoryID      int64
	SystemName     string
	Type           AlertType
	Severity       AlertSeverity
	Message        string
	Acknowledged   bool
	CreatedAt      time.Time
	AcknowledgedAt *time.Time
	AcknowledgedBy string
}

type AlertUpdate struct {
	Message   string
	CreatedAt time.Time
}

type Thresholds struct {
	TemperatureHigh float64
	TemperatureLow  float64
	BatteryLow      float64
	FireDetected    bool
}

var DefaultThresholds = Thresholds{
	TemperatureHigh: 30.0,
	TemperatureLow:  15.0,
	BatteryLow:      20.0,
	FireDetected:    true,
}

type AlertEventState string

const (
	AlertEventCreated   AlertEventState = "created"
	AlertEventRefreshed AlertEventState = "refreshed"
	AlertEventResolved  AlertEventState = "resolved"
)

// AlertEvent is published to live consumers after a reconciled change.
type AlertEvent struct {
	FactoryKey string          `json:"factory"`
	SystemName string          `json:"system_name"`
	Type       AlertType       `json:"alert_type"`
	Severity   AlertSeverity   `json:"severity,omitempty"`
	Message    string          `json:"message,omitempty"`
	State      AlertEventState `json:"state"`
	At         time.Time       `json:"at"`
}

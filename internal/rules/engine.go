// Package rules derives alert outcomes from a canonical telemetry record.
package rules

import (
	"fmt"
	"strings"

	"smart-factory/bridge/internal/domain"
)

type Action int

const (
	ActionAssert Action = iota + 1
	ActionClear
)

func (a Action) String() string {
	switch a {
	case ActionAssert:
		return "assert"
	case ActionClear:
		return "clear"
	default:
		return "unknown"
	}
}

// Outcome is one rule decision. Severity and Message are set only for ActionAssert.
type Outcome struct {
	Type     domain.AlertType
	Action   Action
	Severity domain.AlertSeverity
	Message  string
}

func raise(t domain.AlertType, sev domain.AlertSeverity, format string, args ...any) Outcome {
	return Outcome{Type: t, Action: ActionAssert, Severity: sev, Message: fmt.Sprintf(format, args...)}
}

func resolve(t domain.AlertType) Outcome {
	return Outcome{Type: t, Action: ActionClear}
}

type Rule struct {
	Name     string
	Evaluate func(rec *domain.Record, th domain.Thresholds) []Outcome
}

// DefaultRules are independent; every rule runs on every record.
var DefaultRules = []Rule{
	{Name: "fire", Evaluate: fireRule},
	{Name: "temperature", Evaluate: temperatureRule},
	{Name: "battery", Evaluate: batteryRule},
	{Name: "access", Evaluate: accessRule},
}

func Evaluate(rec *domain.Record, th domain.Thresholds) []Outcome {
	var out []Outcome
	for _, rule := range DefaultRules {
		out = append(out, rule.Evaluate(rec, th)...)
	}
	return out
}

// fireRule asserts on any status containing FIRE other than exactly SAFE,
// so "FIRE_SAFE" still asserts. Records without a status only clear.
func fireRule(rec *domain.Record, th domain.Thresholds) []Outcome {
	status := strings.ToUpper(rec.Text(domain.ColFireStatus, ""))
	if th.FireDetected && strings.Contains(status, "FIRE") && status != "SAFE" {
		return []Outcome{raise(domain.AlertFireDetected, domain.SeverityCritical,
			"FIRE DETECTED! Sensor: %s | Siren: %s | Sprinklers: %s",
			rec.Text(domain.ColFireSensorVal, "N/A"),
			rec.Text(domain.ColSirenState, "N/A"),
			rec.Text(domain.ColSprinklerState, "N/A"),
		)}
	}
	return []Outcome{resolve(domain.AlertFireDetected)}
}

func temperatureRule(rec *domain.Record, th domain.Thresholds) []Outcome {
	temp, ok := rec.Float(domain.ColTemperature)
	if !ok {
		return nil
	}
	switch {
	case temp > th.TemperatureHigh:
		return []Outcome{raise(domain.AlertHighTemperature, domain.SeverityWarning,
			"High Temperature: %.1f°C (Threshold: %.1f°C) | AC: %s | AC2: %s",
			temp, th.TemperatureHigh,
			rec.Text(domain.ColACState, "N/A"),
			rec.Text(domain.ColAC2State, "N/A"),
		)}
	case temp < th.TemperatureLow:
		return []Outcome{raise(domain.AlertLowTemperature, domain.SeverityWarning,
			"Low Temperature: %.1f°C (Threshold: %.1f°C) | Furnace: %s",
			temp, th.TemperatureLow,
			rec.Text(domain.ColFurnaceState, "N/A"),
		)}
	default:
		return []Outcome{resolve(domain.AlertHighTemperature), resolve(domain.AlertLowTemperature)}
	}
}

// batteryRule ignores a level of exactly 0: it neither raises nor resolves.
// TODO: confirm with the product owners whether 0% should raise LOW_BATTERY.
func batteryRule(rec *domain.Record, th domain.Thresholds) []Outcome {
	level, ok := rec.Float(domain.ColBatteryLevel)
	if !ok || level == 0 {
		return nil
	}
	if level < th.BatteryLow {
		return []Outcome{raise(domain.AlertLowBattery, domain.SeverityWarning,
			"Critical Battery: %.1f%% (LED: %s) | Charge Immediately!",
			level, rec.Text(domain.ColLEDBrightness, "N/A"),
		)}
	}
	return []Outcome{resolve(domain.AlertLowBattery)}
}

// accessRule never clears: each denial is its own event.
func accessRule(rec *domain.Record, _ domain.Thresholds) []Outcome {
	v, _ := rec.Value(domain.ColAccessLog)
	if s, ok := v.(string); !ok || s != "DENIED" {
		return nil
	}
	return []Outcome{raise(domain.AlertUnauthorizedAccess, domain.SeverityWarning,
		"Unauthorized Access Attempt | Card ID: %s | Door: %s",
		rec.Text(domain.ColRFIDLastCard, "Unknown"),
		rec.Text(domain.ColSafeDoor, "LOCKED"),
	)}
}

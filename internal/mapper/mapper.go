// Package mapper projects inbound subsystem payloads onto canonical telemetry columns.
package mapper

import (
	"time"

	"smart-factory/bridge/internal/domain"
)

type projection func(f Fields) map[string]any

var projections = map[domain.Subsystem]projection{
	domain.SubsystemFireControl:   fireControl,
	domain.SubsystemConveyorBelt:  conveyorBelt,
	domain.SubsystemWeightSystem:  weightSystem,
	domain.SubsystemGarageDoor:    garageDoor,
	domain.SubsystemBatterySystem: batterySystem,
	domain.SubsystemHVAC:          hvac,
	domain.SubsystemSafeRoom:      safeRoom,
}

// Map builds the canonical record for a subsystem. ok is false when the
// identifier is not a known subsystem, meaning there is nothing to persist.
// Map never fails on malformed field values.
func Map(name string, raw Fields, receivedAt time.Time) (*domain.Record, bool) {
	system := domain.ParseSubsystem(name)
	project, found := projections[system]
	if !found {
		return nil, false
	}
	values := project(raw)
	if len(values) == 0 {
		return nil, false
	}
	return domain.NewRecord(system, name, receivedAt, values), true
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func fireControl(f Fields) map[string]any {
	return map[string]any{
		domain.ColFireSensorVal:  f.scalar("sensor_value"),
		domain.ColFireStatus:     f.scalar("status"),
		domain.ColSirenState:     onOff(f.isOne("siren")),
		domain.ColSprinklerState: onOff(f.isOne("sprinkler")),
	}
}

func conveyorBelt(f Fields) map[string]any {
	return map[string]any{
		domain.ColOrderCount:     f.scalar("order_count"),
		domain.ColConveyorSpeed:  f.scalar("sensor_value"),
		domain.ColConveyorStatus: f.scalar("status"),
	}
}

func weightSystem(f Fields) map[string]any {
	return map[string]any{
		domain.ColWeightGrams:  f.scalar("weight_val"),
		domain.ColWeightStatus: f.scalar("status"),
		domain.ColServoAngle:   f.scalar("servo_pos"),
	}
}

// garageDoor treats the string "DETECTED" as motion, any other string as
// none, and falls back to truthiness for non-strings.
func garageDoor(f Fields) map[string]any {
	var motion bool
	if s, ok := f["motion_status"].(string); ok {
		motion = s == "DETECTED"
	} else {
		motion = truthy(f["motion_status"])
	}
	return map[string]any{
		domain.ColMotionDetected: motion,
		domain.ColGarageDoor:     f.scalar("door_state"),
	}
}

func batterySystem(f Fields) map[string]any {
	return map[string]any{
		domain.ColBatteryLevel:  f.scalar("battery_level"),
		domain.ColLEDBrightness: f.scalar("led_intensity"),
	}
}

func hvac(f Fields) map[string]any {
	return map[string]any{
		domain.ColTemperature:  f.float("temperature"),
		domain.ColACState:      f.scalar("ac_status"),
		domain.ColAC2State:     f.scalar("ac2_status"),
		domain.ColFurnaceState: f.scalar("furnace_status"),
	}
}

func safeRoom(f Fields) map[string]any {
	return map[string]any{
		domain.ColRFIDLastCard: f.scalar("last_card"),
		domain.ColAccessLog:    f.scalar("access"),
		domain.ColSafeDoor:     f.scalar("door"),
		domain.ColWebcamStatus: f.scalar("webcam"),
	}
}

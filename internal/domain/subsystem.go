package domain

// Subsystem identifies one simulated factory unit. The zero value is SubsystemUnknown.
type Subsystem int

const (
	SubsystemUnknown Subsystem = iota
	SubsystemFireControl
	SubsystemConveyorBelt
	SubsystemWeightSystem
	SubsystemGarageDoor
	SubsystemBatterySystem
	SubsystemHVAC
	SubsystemSafeRoom
)

var subsystemNames = map[Subsystem]string{
	SubsystemFireControl:   "Fire_Control",
	SubsystemConveyorBelt:  "Conveyor_Belt",
	SubsystemWeightSystem:  "Weight_System",
	SubsystemGarageDoor:    "Garage_Door",
	SubsystemBatterySystem: "Battery_System",
	SubsystemHVAC:          "HVAC_System",
	SubsystemSafeRoom:      "Safe_Room",
}

var subsystemsByName = func() map[string]Subsystem {
	m := make(map[string]Subsystem, len(subsystemNames))
	for s, name := range subsystemNames {
		m[name] = s
	}
	return m
}()

// ParseSubsystem matches the identifier exactly. Anything else is SubsystemUnknown.
func ParseSubsystem(name string) Subsystem {
	return subsystemsByName[name]
}

func (s Subsystem) String() string {
	if name, ok := subsystemNames[s]; ok {
		return name
	}
	return "Unknown"
}

func (s Subsystem) Known() bool {
	return s != SubsystemUnknown
}

// Canonical column names shared by the mapper, the rule engine and the stores.
const (
	ColSystemName = "system_name"
	ColTimestamp  = "timestamp"

	ColFireSensorVal  = "fire_sensor_val"
	ColFireStatus     = "fire_status"
	ColSirenState     = "siren_state"
	ColSprinklerState = "sprinkler_state"

	ColOrderCount     = "order_count"
	ColConveyorSpeed  = "conveyor_speed"
	ColConveyorStatus = "conveyor_status"

	ColWeightGrams  = "weight_grams"
	ColWeightStatus = "weight_status"
	ColServoAngle   = "servo_angle"

	ColMotionDetected = "motion_detected"
	ColGarageDoor     = "garage_door"

	ColBatteryLevel  = "battery_level"
	ColLEDBrightness = "led_brightness"

	ColTemperature  = "temperature"
	ColACState      = "ac_state"
	ColAC2State     = "ac2_state"
	ColFurnaceState = "furnace_state"

	ColRFIDLastCard = "rfid_last_card"
	ColAccessLog    = "access_log"
	ColSafeDoor     = "safe_door"
	ColWebcamStatus = "webcam_status"
)

// CanonicalColumns lists the fields a subsystem's record may carry, excluding
// system_name and timestamp.
func (s Subsystem) CanonicalColumns() []string {
	switch s {
	case SubsystemFireControl:
		return []string{ColFireSensorVal, ColFireStatus, ColSirenState, ColSprinklerState}
	case SubsystemConveyorBelt:
		return []string{ColOrderCount, ColConveyorSpeed, ColConveyorStatus}
	case SubsystemWeightSystem:
		return []string{ColWeightGrams, ColWeightStatus, ColServoAngle}
	case SubsystemGarageDoor:
		return []string{ColMotionDetected, ColGarageDoor}
	case SubsystemBatterySystem:
		return []string{ColBatteryLevel, ColLEDBrightness}
	case SubsystemHVAC:
		return []string{ColTemperature, ColACState, ColAC2State, ColFurnaceState}
	case SubsystemSafeRoom:
		return []string{ColRFIDLastCard, ColAccessLog, ColSafeDoor, ColWebcamStatus}
	default:
		return nil
	}
}
